// Package federation holds the static subgraph topology of the gateway and wires it into the
// graphql-go-tools federation engine.
package federation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jensneuse/abstractlogger"

	"github.com/planets/federation-gateway/pkg/authforward"
)

var (
	ErrNoSubgraphs        = errors.New("no subgraphs configured")
	ErrDuplicateSubgraph  = errors.New("duplicate subgraph name")
	ErrClientConstruction = errors.New("could not build subgraph client")
)

// ClientFactory builds the client used for all calls to one subgraph.
type ClientFactory func(descriptor SubgraphDescriptor) (*authforward.AuthenticatedClient, error)

func DefaultClientFactory(descriptor SubgraphDescriptor) (*authforward.AuthenticatedClient, error) {
	return authforward.NewAuthenticatedClient(descriptor.Name, descriptor.URL)
}

// Composer is the fixed topology of the gateway. Adding or removing a subgraph requires a
// restart.
type Composer struct {
	descriptors []SubgraphDescriptor
	clients     []*authforward.AuthenticatedClient
}

func NewComposer(descriptors []SubgraphDescriptor, factory ClientFactory) (*Composer, error) {
	if len(descriptors) == 0 {
		return nil, ErrNoSubgraphs
	}
	if factory == nil {
		factory = DefaultClientFactory
	}

	seen := make(map[string]struct{}, len(descriptors))
	composer := &Composer{
		descriptors: make([]SubgraphDescriptor, 0, len(descriptors)),
		clients:     make([]*authforward.AuthenticatedClient, 0, len(descriptors)),
	}

	for _, descriptor := range descriptors {
		if err := descriptor.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[descriptor.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSubgraph, descriptor.Name)
		}
		seen[descriptor.Name] = struct{}{}

		client, err := factory(descriptor)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrClientConstruction, descriptor.Name, err)
		}

		composer.descriptors = append(composer.descriptors, descriptor)
		composer.clients = append(composer.clients, client)
	}

	return composer, nil
}

func (c *Composer) Descriptors() []SubgraphDescriptor {
	out := make([]SubgraphDescriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

func (c *Composer) Clients() []*authforward.AuthenticatedClient {
	out := make([]*authforward.AuthenticatedClient, len(c.clients))
	copy(out, c.clients)
	return out
}

// HTTPClient returns the client the execution engine uses for subgraph fetches. Every request
// it sends passes through the authenticated client of its subgraph.
func (c *Composer) HTTPClient(base http.RoundTripper, logger abstractlogger.Logger) *http.Client {
	return &http.Client{
		Transport: authforward.NewTransport(base, c.clients, authforward.WithLogger(logger)),
	}
}
