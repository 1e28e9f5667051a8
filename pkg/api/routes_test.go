package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maylhq/mayl/config"
	"github.com/maylhq/mayl/pkg/auth"
	"github.com/maylhq/mayl/pkg/db"
	"github.com/maylhq/mayl/pkg/dispatch"
	"github.com/maylhq/mayl/pkg/email"
)

func newTestRouter(mockDB *db.MockDatabaseClient) http.Handler {
	sender := email.SenderFunc(func(ctx context.Context, msg *email.Message) error { return nil })
	dispatcher := dispatch.NewDispatcher(mockDB, sender)
	creds := email.NewCredentials("", "")
	cfg := &config.Config{SMTPHost: "localhost", SMTPPort: 1025}

	return SetupRoutes(
		NewEmailHandler(dispatcher, auth.NewGate(mockDB)),
		NewDomainHandler(dispatcher),
		NewSMTPHandler(creds, mockDB),
		NewHealthHandler(dispatcher),
		NewIndexHandler(dispatcher, creds, cfg),
	)
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(&db.MockDatabaseClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "queue_size")
}

func TestRouterDashboard(t *testing.T) {
	mockDB := &db.MockDatabaseClient{
		ListDomainsFunc: func() ([]db.Domain, error) {
			return []db.Domain{{Domain: "example.com", Token: "secret-token"}}, nil
		},
	}
	router := newTestRouter(mockDB)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "example.com")
	assert.NotContains(t, rec.Body.String(), "secret-token", "tokens must not leak into the dashboard")
}

func TestRouterRejectsNonJSONPost(t *testing.T) {
	router := newTestRouter(&db.MockDatabaseClient{})

	req := httptest.NewRequest(http.MethodPost, "/domains", strings.NewReader(`{"domain":"example.com"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterDeleteDomainVars(t *testing.T) {
	var gotDomain string
	mockDB := &db.MockDatabaseClient{
		DeleteDomainFunc: func(domain string) (bool, error) {
			gotDomain = domain
			return true, nil
		},
	}
	router := newTestRouter(mockDB)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/domains/example.com", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "example.com", gotDomain)
}

func TestRouterNotFound(t *testing.T) {
	router := newTestRouter(&db.MockDatabaseClient{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}
