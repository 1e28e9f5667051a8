package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/golang/glog"
	"github.com/gorilla/mux"

	"github.com/maylhq/mayl/pkg/dispatch"
)

// DomainHandler exposes the domain registry over HTTP.
type DomainHandler struct {
	dispatcher *dispatch.Dispatcher
}

// NewDomainHandler creates a DomainHandler.
func NewDomainHandler(dispatcher *dispatch.Dispatcher) *DomainHandler {
	return &DomainHandler{dispatcher: dispatcher}
}

// DomainRequest is the POST /domains payload.
type DomainRequest struct {
	Domain string `json:"domain"`
}

// DomainListEntry is one element of the GET /domains response.
type DomainListEntry struct {
	Domain    string `json:"domain"`
	CreatedAt int64  `json:"created_at"`
}

// Register handles POST /domains. Registering an existing domain rotates its
// token, so the response always carries the only valid token.
func (dh *DomainHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request DomainRequest

	jsonDecoder := json.NewDecoder(r.Body)
	jsonDecoder.DisallowUnknownFields()

	if err := jsonDecoder.Decode(&request); err != nil {
		errorResponse(w, "Cannot decode domain request payload", http.StatusBadRequest)
		return
	}

	token, err := dh.dispatcher.RegisterDomain(request.Domain)
	if err != nil {
		var validationErr dispatch.ValidationError
		if errors.As(err, &validationErr) {
			errorResponse(w, "invalid domain", http.StatusBadRequest)
			return
		}
		glog.Errorf("failed to register domain: %v", err)
		errorResponse(w, "Cannot register domain", http.StatusInternalServerError)
		return
	}

	envelope := Envelope{
		"domain": request.Domain,
		"token":  token,
	}
	if err := jsonResponse(w, envelope, http.StatusCreated); err != nil {
		glog.Errorf("Failed creating json response: %v", err)
		http.Error(w, "Cannot create json response", http.StatusInternalServerError)
	}
}

// List handles GET /domains.
func (dh *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	domains, err := dh.dispatcher.ListDomains()
	if err != nil {
		glog.Errorf("failed to list domains: %v", err)
		errorResponse(w, "Cannot list domains", http.StatusInternalServerError)
		return
	}

	entries := make([]DomainListEntry, 0, len(domains))
	for _, d := range domains {
		entries = append(entries, DomainListEntry{Domain: d.Domain, CreatedAt: d.CreatedAt})
	}

	if err := jsonResponse(w, entries, http.StatusOK); err != nil {
		glog.Errorf("Failed creating json response: %v", err)
		http.Error(w, "Cannot create json response", http.StatusInternalServerError)
	}
}

// Delete handles DELETE /domains/{domain}, returning 204 when a registration
// was removed and 404 when none existed.
func (dh *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	deleted, err := dh.dispatcher.RemoveDomain(domain)
	if err != nil {
		glog.Errorf("failed to remove domain: %v", err)
		errorResponse(w, "Cannot remove domain", http.StatusInternalServerError)
		return
	}
	if !deleted {
		errorResponse(w, "domain not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
