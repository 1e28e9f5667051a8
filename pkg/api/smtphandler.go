package api

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"

	"github.com/maylhq/mayl/pkg/db"
	"github.com/maylhq/mayl/pkg/email"
)

// Settings keys for the persisted SMTP relay credentials.
const (
	SettingSMTPUser = "smtp_user"
	SettingSMTPPass = "smtp_pass"
)

// SMTPHandler exposes the runtime-configurable SMTP relay credentials.
type SMTPHandler struct {
	creds  *email.Credentials
	dbConn db.DatabaseClient
}

// NewSMTPHandler creates an SMTPHandler.
func NewSMTPHandler(creds *email.Credentials, dbConn db.DatabaseClient) *SMTPHandler {
	return &SMTPHandler{creds: creds, dbConn: dbConn}
}

// SMTPRequest is the POST /smtp payload.
type SMTPRequest struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// Status handles GET /smtp. The password is never echoed back.
func (sh *SMTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, _ := sh.creds.Get()
	envelope := Envelope{
		"configured": sh.creds.Configured(),
		"user":       user,
	}
	if err := jsonResponse(w, envelope, http.StatusOK); err != nil {
		glog.Errorf("Failed creating json response: %v", err)
		http.Error(w, "Cannot create json response", http.StatusInternalServerError)
	}
}

// Update handles POST /smtp: credentials are persisted to the settings table
// and swapped into the running sender.
func (sh *SMTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var request SMTPRequest

	jsonDecoder := json.NewDecoder(r.Body)
	jsonDecoder.DisallowUnknownFields()

	if err := jsonDecoder.Decode(&request); err != nil {
		errorResponse(w, "Cannot decode smtp request payload", http.StatusBadRequest)
		return
	}

	if request.User == "" || request.Pass == "" {
		errorResponse(w, "user and pass are required", http.StatusBadRequest)
		return
	}

	if err := sh.dbConn.SetSetting(SettingSMTPUser, request.User); err != nil {
		glog.Errorf("failed to persist smtp user: %v", err)
		errorResponse(w, "Cannot store smtp credentials", http.StatusInternalServerError)
		return
	}
	if err := sh.dbConn.SetSetting(SettingSMTPPass, request.Pass); err != nil {
		glog.Errorf("failed to persist smtp password: %v", err)
		errorResponse(w, "Cannot store smtp credentials", http.StatusInternalServerError)
		return
	}

	sh.creds.Set(request.User, request.Pass)
	glog.Info("SMTP credentials updated")

	if err := jsonResponse(w, Envelope{"status": "ok"}, http.StatusOK); err != nil {
		glog.Errorf("Failed creating json response: %v", err)
		http.Error(w, "Cannot create json response", http.StatusInternalServerError)
	}
}
