package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maylhq/mayl/pkg/db"
)

func TestExtractDomain(t *testing.T) {
	tt := []struct {
		name     string
		from     string
		expected string
		wantErr  error
	}{
		{
			name:     "bare address",
			from:     "user@example.com",
			expected: "example.com",
		},
		{
			name:     "display name form",
			from:     "Some Name <user@example.com>",
			expected: "example.com",
		},
		{
			name:     "domain is lower-cased",
			from:     "USER@Example.COM",
			expected: "example.com",
		},
		{
			name:     "local part may contain at signs",
			from:     "\"weird@local\"@example.com",
			expected: "example.com",
		},
		{
			name:    "no at sign",
			from:    "not-an-address",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "empty domain",
			from:    "user@",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "empty domain in display name form",
			from:    "Some Name <user@>",
			wantErr: ErrInvalidAddress,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			domain, err := ExtractDomain(tc.from)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, domain)
		})
	}
}

func TestParseBearer(t *testing.T) {
	token, err := ParseBearer("Bearer some-token")
	require.NoError(t, err)
	assert.Equal(t, "some-token", token)

	_, err = ParseBearer("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = ParseBearer("Basic dXNlcjpwYXNz")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = ParseBearer("bearer some-token")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestAuthorizeSuccess(t *testing.T) {
	mockDB := &db.MockDatabaseClient{
		GetDomainTokenFunc: func(domain string) (string, bool, error) {
			assert.Equal(t, "example.com", domain)
			return "valid-token", true, nil
		},
	}
	gate := NewGate(mockDB)

	domain, err := gate.Authorize("Bearer valid-token", "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, "example.com", domain)
	assert.True(t, mockDB.CalledGetDomainToken)
}

func TestAuthorizeUnknownDomain(t *testing.T) {
	gate := NewGate(&db.MockDatabaseClient{})

	_, err := gate.Authorize("Bearer any-token", "user@unregistered.example")

	assert.ErrorIs(t, err, ErrUnknownDomain)
}

func TestAuthorizeTokenMismatch(t *testing.T) {
	mockDB := &db.MockDatabaseClient{
		GetDomainTokenFunc: func(domain string) (string, bool, error) {
			return "registered-token", true, nil
		},
	}
	gate := NewGate(mockDB)

	_, err := gate.Authorize("Bearer wrong-token", "user@example.com")

	assert.ErrorIs(t, err, ErrTokenMismatch)
}

func TestAuthorizeInvalidFromSkipsLookup(t *testing.T) {
	mockDB := &db.MockDatabaseClient{}
	gate := NewGate(mockDB)

	_, err := gate.Authorize("Bearer any-token", "no-domain-here")

	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.False(t, mockDB.CalledGetDomainToken)
}

func TestAuthorizeMissingHeaderSkipsLookup(t *testing.T) {
	mockDB := &db.MockDatabaseClient{}
	gate := NewGate(mockDB)

	_, err := gate.Authorize("", "user@example.com")

	assert.ErrorIs(t, err, ErrMissingToken)
	assert.False(t, mockDB.CalledGetDomainToken)
}
