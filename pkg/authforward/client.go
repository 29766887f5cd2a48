package authforward

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var ErrInvalidBaseURL = errors.New("invalid subgraph base url")

// BeforeSender is invoked right before an outbound request leaves for a subgraph.
type BeforeSender interface {
	BeforeSend(outbound *http.Request, rc RequestContext)
}

// AuthenticatedClient decorates outbound requests to a single subgraph with the credential of
// the inbound request they are made for.
type AuthenticatedClient struct {
	name    string
	baseURL *url.URL
}

func NewAuthenticatedClient(name, baseURL string) (*AuthenticatedClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidBaseURL, baseURL, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w %q: expected an absolute http(s) url", ErrInvalidBaseURL, baseURL)
	}

	return &AuthenticatedClient{
		name:    name,
		baseURL: u,
	}, nil
}

func (c *AuthenticatedClient) Name() string {
	return c.name
}

func (c *AuthenticatedClient) URL() string {
	return c.baseURL.String()
}

// Matches reports whether u points at this client's subgraph.
func (c *AuthenticatedClient) Matches(u *url.URL) bool {
	return u != nil && strings.EqualFold(u.Host, c.baseURL.Host)
}

// BeforeSend sets the Authorization header to the inbound credential verbatim. A request
// without credential leaves the subgraph with no Authorization header at all.
func (c *AuthenticatedClient) BeforeSend(outbound *http.Request, rc RequestContext) {
	if rc.HasCredential() {
		outbound.Header.Set(AuthorizationHeader, rc.Credential)
	} else {
		outbound.Header.Del(AuthorizationHeader)
	}

	if rc.Role != "" {
		outbound.Header.Set(RoleHeader, rc.Role)
	} else {
		outbound.Header.Del(RoleHeader)
	}
}

var _ BeforeSender = (*AuthenticatedClient)(nil)
