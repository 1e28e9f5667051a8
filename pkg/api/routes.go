package api

import (
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// SetupRoutes configures API route mapping
func SetupRoutes(
	emailHandler *EmailHandler,
	domainHandler *DomainHandler,
	smtpHandler *SMTPHandler,
	healthHandler *HealthHandler,
	indexHandler *IndexHandler,
) http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, "not found", http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	// dashboard and health endpoints stay outside the JSON middleware
	router.HandleFunc("/", indexHandler.Index).Methods("GET")
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/smtp", smtpHandler.Status).Methods("GET")
	router.HandleFunc("/domains", domainHandler.List).Methods("GET")
	router.HandleFunc("/domains/{domain}", domainHandler.Delete).Methods("DELETE")

	jsonRouter := router.Methods("POST").Subrouter()
	jsonRouter.Use(EnsureJSONContentType)
	jsonRouter.HandleFunc("/email", emailHandler.SendEmail).Methods("POST")
	jsonRouter.HandleFunc("/domains", domainHandler.Register).Methods("POST")
	jsonRouter.HandleFunc("/smtp", smtpHandler.Update).Methods("POST")

	return handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(os.Stdout, router))
}
