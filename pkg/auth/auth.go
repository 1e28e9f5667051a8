// Package auth implements the bearer-token authorization gate for send
// requests. A request may only send mail from a domain whose registered token
// matches the presented bearer token.
package auth

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/maylhq/mayl/pkg/db"
)

const bearerPrefix = "Bearer "

// Authorization failure reasons. All four are terminal for the request; none
// is ever retried automatically.
var (
	ErrInvalidAddress = errors.New("from address has no domain part")
	ErrMissingToken   = errors.New("missing or malformed Authorization header")
	ErrUnknownDomain  = errors.New("domain is not registered")
	ErrTokenMismatch  = errors.New("token does not authorize this domain")
)

// ExtractDomain returns the lower-cased domain part of an email address.
// It accepts both the bare form "user@domain" and the display-name form
// "Name <user@domain>": the domain is the substring after the last '@' up to
// a closing '>' or the end of the string.
func ExtractDomain(from string) (string, error) {
	at := strings.LastIndexByte(from, '@')
	if at < 0 {
		return "", ErrInvalidAddress
	}
	domain := from[at+1:]
	if end := strings.IndexByte(domain, '>'); end >= 0 {
		domain = domain[:end]
	}
	if domain == "" {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(domain), nil
}

// ParseBearer extracts the token from an Authorization header value. An empty
// header or one without the "Bearer " prefix fails with ErrMissingToken.
func ParseBearer(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrMissingToken
	}
	return strings.TrimPrefix(authHeader, bearerPrefix), nil
}

// Gate validates inbound bearer tokens against the registered token of the
// declared sender's domain.
type Gate struct {
	dbConn db.DatabaseClient
}

// NewGate creates a Gate backed by the given store.
func NewGate(dbConn db.DatabaseClient) *Gate {
	return &Gate{dbConn: dbConn}
}

// Authorize checks that authHeader carries the bearer token registered for the
// domain of the from address and returns that domain. The check is pure and is
// re-run on every request; tokens are never cached past a single request.
func (g *Gate) Authorize(authHeader, from string) (string, error) {
	domain, err := ExtractDomain(from)
	if err != nil {
		return "", err
	}

	token, err := ParseBearer(authHeader)
	if err != nil {
		return "", err
	}

	registered, found, err := g.dbConn.GetDomainToken(domain)
	if err != nil {
		return "", errors.Wrapf(err, "failed to look up token for domain %s", domain)
	}
	if !found {
		return "", ErrUnknownDomain
	}
	if registered != token {
		return "", ErrTokenMismatch
	}

	return domain, nil
}
