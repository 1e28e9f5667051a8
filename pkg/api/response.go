package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/golang/glog"
)

// Envelope is the generic JSON response body.
type Envelope map[string]interface{}

func jsonResponse(w http.ResponseWriter, envelope interface{}, statusCode int) error {
	j, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_, err = w.Write(j)
	if err != nil {
		return fmt.Errorf("failed to write json response: %v", err)
	}

	return nil
}

func errorResponse(w http.ResponseWriter, message string, statusCode int) {
	envelope := Envelope{
		"error": message,
	}

	if err := jsonResponse(w, envelope, statusCode); err != nil {
		glog.Errorf("Failed creating error json response: %v", err)
		http.Error(w, "Can not create error json response", http.StatusInternalServerError)
	}
}
