package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maylhq/mayl/pkg/auth"
	"github.com/maylhq/mayl/pkg/db"
	"github.com/maylhq/mayl/pkg/dispatch"
	"github.com/maylhq/mayl/pkg/email"
)

const testToken = "valid-token"

func registeredDomainDB() *db.MockDatabaseClient {
	return &db.MockDatabaseClient{
		GetDomainTokenFunc: func(domain string) (string, bool, error) {
			if domain == "example.com" {
				return testToken, true, nil
			}
			return "", false, nil
		},
	}
}

func newEmailHandler(mockDB *db.MockDatabaseClient, sender email.Sender) *EmailHandler {
	dispatcher := dispatch.NewDispatcher(mockDB, sender)
	return NewEmailHandler(dispatcher, auth.NewGate(mockDB))
}

func sendRequest(t *testing.T, handler *EmailHandler, target, authHeader, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.SendEmail(rec, req)
	return rec
}

const validBody = `{"from":"sender@example.com","to":["to@example.org"],"subject":"subject","body":"body"}`

func TestSendEmailQueued(t *testing.T) {
	mockDB := registeredDomainDB()
	sender := email.SenderFunc(func(ctx context.Context, msg *email.Message) error {
		t.Fatal("async submission must not deliver inline")
		return nil
	})
	handler := newEmailHandler(mockDB, sender)

	rec := sendRequest(t, handler, "/email", "Bearer "+testToken, validBody)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, mockDB.CalledInsertQueuedEmail)

	var outcome dispatch.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, dispatch.StatusQueued, outcome.Status)
	assert.NotEmpty(t, outcome.ID)
}

func TestSendEmailSync(t *testing.T) {
	mockDB := registeredDomainDB()
	sent := false
	sender := email.SenderFunc(func(ctx context.Context, msg *email.Message) error {
		sent = true
		return nil
	})
	handler := newEmailHandler(mockDB, sender)

	rec := sendRequest(t, handler, "/email?sync=true", "Bearer "+testToken, validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sent)
	assert.True(t, mockDB.CalledInsertArchivedEmail, "sync submissions are archived by default")

	var outcome dispatch.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, dispatch.StatusSent, outcome.Status)
}

func TestSendEmailSyncWithoutSave(t *testing.T) {
	mockDB := registeredDomainDB()
	handler := newEmailHandler(mockDB, email.SenderFunc(func(ctx context.Context, msg *email.Message) error {
		return nil
	}))

	rec := sendRequest(t, handler, "/email?sync=true&save=false", "Bearer "+testToken, validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, mockDB.CalledInsertArchivedEmail)
}

func TestSendEmailSyncRelayFailure(t *testing.T) {
	mockDB := registeredDomainDB()
	handler := newEmailHandler(mockDB, email.SenderFunc(func(ctx context.Context, msg *email.Message) error {
		return assert.AnError
	}))

	rec := sendRequest(t, handler, "/email?sync=true", "Bearer "+testToken, validBody)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, mockDB.CalledInsertArchivedEmail)
	assert.False(t, mockDB.CalledInsertQueuedEmail)
}

func TestSendEmailAuthFailures(t *testing.T) {
	tt := []struct {
		name         string
		authHeader   string
		body         string
		expectedCode int
	}{
		{
			name:         "missing authorization header",
			authHeader:   "",
			body:         validBody,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "wrong token",
			authHeader:   "Bearer wrong-token",
			body:         validBody,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "unknown domain",
			authHeader:   "Bearer " + testToken,
			body:         `{"from":"sender@unregistered.example","to":["to@example.org"],"subject":"s","body":"b"}`,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "from address without domain",
			authHeader:   "Bearer " + testToken,
			body:         `{"from":"no-domain","to":["to@example.org"],"subject":"s","body":"b"}`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			mockDB := registeredDomainDB()
			handler := newEmailHandler(mockDB, email.SenderFunc(func(ctx context.Context, msg *email.Message) error {
				t.Fatal("unauthorized requests must not reach the relay")
				return nil
			}))

			rec := sendRequest(t, handler, "/email?sync=true", tc.authHeader, tc.body)

			assert.Equal(t, tc.expectedCode, rec.Code)
			assert.False(t, mockDB.CalledInsertQueuedEmail)
		})
	}
}

func TestSendEmailBadPayload(t *testing.T) {
	handler := newEmailHandler(registeredDomainDB(), email.SenderFunc(func(ctx context.Context, msg *email.Message) error {
		return nil
	}))

	rec := sendRequest(t, handler, "/email", "Bearer "+testToken, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = sendRequest(t, handler, "/email", "Bearer "+testToken, `{"from":"a@example.com","unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
}

func TestSendEmailValidationFailure(t *testing.T) {
	mockDB := registeredDomainDB()
	handler := newEmailHandler(mockDB, email.SenderFunc(func(ctx context.Context, msg *email.Message) error {
		t.Fatal("invalid requests must not reach the relay")
		return nil
	}))

	body := `{"from":"sender@example.com","to":[],"subject":"subject","body":"body"}`
	rec := sendRequest(t, handler, "/email?sync=true", "Bearer "+testToken, body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, mockDB.CalledInsertQueuedEmail)
	assert.False(t, mockDB.CalledInsertArchivedEmail)
}
