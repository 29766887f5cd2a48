package authforward

import (
	"net/http"

	"github.com/jensneuse/abstractlogger"
)

type TransportOptions struct {
	Logger abstractlogger.Logger
}

type TransportOptionFunc func(opts *TransportOptions)

func WithLogger(logger abstractlogger.Logger) TransportOptionFunc {
	return func(opts *TransportOptions) {
		opts.Logger = logger
	}
}

// Transport is the http.RoundTripper used for every subgraph call. It looks up the
// AuthenticatedClient of the target subgraph and lets it decorate a clone of the request with
// the RequestContext found in that request's context.
type Transport struct {
	base    http.RoundTripper
	clients []*AuthenticatedClient
	logger  abstractlogger.Logger
}

func NewTransport(base http.RoundTripper, clients []*AuthenticatedClient, options ...TransportOptionFunc) *Transport {
	definedOptions := TransportOptions{
		Logger: abstractlogger.Noop{},
	}
	for _, optionFunc := range options {
		optionFunc(&definedOptions)
	}
	if definedOptions.Logger == nil {
		definedOptions.Logger = abstractlogger.Noop{}
	}

	if base == nil {
		base = http.DefaultTransport
	}

	return &Transport{
		base:    base,
		clients: append([]*AuthenticatedClient(nil), clients...),
		logger:  definedOptions.Logger,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	rc, _ := FromContext(req.Context())

	// RoundTrip must not modify the caller's request.
	outbound := req.Clone(req.Context())

	client, ok := t.clientFor(req)
	if !ok {
		t.logger.Debug("authforward.Transport.RoundTrip: on client lookup",
			abstractlogger.String("message", "no subgraph registered for host, credentials stripped"),
			abstractlogger.String("host", req.URL.Host),
		)
		outbound.Header.Del(AuthorizationHeader)
		outbound.Header.Del(RoleHeader)
		return t.base.RoundTrip(outbound)
	}

	client.BeforeSend(outbound, rc)

	t.logger.Debug("authforward.Transport.RoundTrip: on before send",
		abstractlogger.String("subgraph", client.Name()),
		abstractlogger.Bool("credential", rc.HasCredential()),
	)

	return t.base.RoundTrip(outbound)
}

func (t *Transport) clientFor(req *http.Request) (*AuthenticatedClient, bool) {
	for _, client := range t.clients {
		if client.Matches(req.URL) {
			return client, true
		}
	}
	return nil, false
}

var _ http.RoundTripper = (*Transport)(nil)
