// Package authforward carries the inbound credential of a request to every subgraph call made
// while serving it.
//
// The credential is captured once per inbound request into an immutable RequestContext which
// travels inside the request's context.Context. Outbound calls read it back from their own
// context, so concurrent requests never observe each other's credentials.
package authforward

import (
	"context"
	"net/http"
)

const (
	AuthorizationHeader = "Authorization"
	RoleHeader          = "role"
)

// RequestContext is created per inbound request and is read-only afterwards.
type RequestContext struct {
	// Credential is the raw Authorization header value, untouched.
	Credential string
	// Role is set when the credential was validated as a JWT carrying a role claim.
	Role string
}

func (rc RequestContext) HasCredential() bool {
	return rc.Credential != ""
}

// WithRole returns a copy of rc carrying role.
func (rc RequestContext) WithRole(role string) RequestContext {
	rc.Role = role
	return rc
}

// Extract builds the RequestContext of an inbound request. It performs no validation or
// decoding; the gateway is not an authentication authority.
func Extract(r *http.Request) RequestContext {
	return RequestContext{
		Credential: r.Header.Get(AuthorizationHeader),
	}
}

type requestContextKey struct{}

func NewContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(RequestContext)
	return rc, ok
}

// Middleware extracts the RequestContext of every inbound request and stores it in the
// request's context before calling next.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(r.Context(), Extract(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
