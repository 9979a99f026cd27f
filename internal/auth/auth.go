package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ErrUnauthenticated is the single failure mode for identity resolution.
// Callers must not distinguish a missing header from a malformed one.
var ErrUnauthenticated = errors.New("unauthenticated")

// Provider resolves the authenticated user for a request. The service
// itself never handles credentials; identity arrives from outside.
type Provider interface {
	CurrentUser(r *http.Request) (string, error)
}

// HeaderProvider trusts an authenticating reverse proxy to place the
// verified user id in a request header.
type HeaderProvider struct {
	Header string
}

// NewHeaderProvider returns a provider reading the X-User-ID header.
func NewHeaderProvider() *HeaderProvider {
	return &HeaderProvider{Header: "X-User-ID"}
}

// CurrentUser returns the user id from the configured header, requiring
// UUID syntax.
func (p *HeaderProvider) CurrentUser(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get(p.Header))
	if raw == "" {
		return "", ErrUnauthenticated
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrUnauthenticated
	}
	return id.String(), nil
}
