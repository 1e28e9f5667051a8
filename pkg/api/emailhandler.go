package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/golang/glog"

	"github.com/maylhq/mayl/pkg/auth"
	"github.com/maylhq/mayl/pkg/dispatch"
)

// EmailHandler handles send requests: it runs the authorization gate and hands
// the request to the dispatcher.
type EmailHandler struct {
	dispatcher *dispatch.Dispatcher
	gate       *auth.Gate
}

// NewEmailHandler creates an EmailHandler.
func NewEmailHandler(dispatcher *dispatch.Dispatcher, gate *auth.Gate) *EmailHandler {
	return &EmailHandler{
		dispatcher: dispatcher,
		gate:       gate,
	}
}

// SendEmail handles POST /email. The sync and save query flags choose between
// inline delivery and queueing; the Authorization header must carry the bearer
// token registered for the sender's domain.
func (eh *EmailHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	sync := r.URL.Query().Get("sync") == "true"
	save := r.URL.Query().Get("save") != "false"

	var request dispatch.EmailRequest

	jsonDecoder := json.NewDecoder(r.Body)
	jsonDecoder.DisallowUnknownFields()

	if err := jsonDecoder.Decode(&request); err != nil {
		errorResponse(w, "Cannot decode send email request payload", http.StatusBadRequest)
		return
	}

	if _, err := eh.gate.Authorize(r.Header.Get("Authorization"), request.From); err != nil {
		eh.authErrorResponse(w, err)
		return
	}

	outcome, err := eh.dispatcher.Submit(r.Context(), request, sync, save)
	if err != nil {
		eh.submitErrorResponse(w, err)
		return
	}

	statusCode := http.StatusOK
	if outcome.Status == dispatch.StatusQueued {
		statusCode = http.StatusAccepted
	}
	if err := jsonResponse(w, outcome, statusCode); err != nil {
		glog.Errorf("Failed creating json response: %v", err)
		http.Error(w, "Cannot create json response", http.StatusInternalServerError)
	}
}

func (eh *EmailHandler) authErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidAddress):
		errorResponse(w, "invalid from address", http.StatusBadRequest)
	case errors.Is(err, auth.ErrMissingToken):
		errorResponse(w, "missing Authorization header", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrUnknownDomain):
		errorResponse(w, "domain is not registered", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrTokenMismatch):
		errorResponse(w, "token does not authorize the sender domain", http.StatusForbidden)
	default:
		glog.Errorf("authorization failed: %v", err)
		errorResponse(w, "authorization failed", http.StatusInternalServerError)
	}
}

func (eh *EmailHandler) submitErrorResponse(w http.ResponseWriter, err error) {
	var validationErr dispatch.ValidationError
	var deliveryErr dispatch.DeliveryError
	switch {
	case errors.As(err, &validationErr):
		errorResponse(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &deliveryErr):
		errorResponse(w, deliveryErr.Error(), http.StatusBadGateway)
	default:
		glog.Errorf("failed to submit email: %v", err)
		errorResponse(w, "Cannot submit email", http.StatusInternalServerError)
	}
}
