// Package http exposes the federated schema over GraphQL-over-HTTP.
package http

//go:generate mockgen -destination=executor_mock_test.go -package=http . Executor

import (
	"bytes"
	"context"
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/jensneuse/abstractlogger"
	"go.uber.org/atomic"

	"github.com/TykTechnologies/graphql-go-tools/pkg/engine/resolve"
	"github.com/TykTechnologies/graphql-go-tools/pkg/graphql"
)

// Executor runs a GraphQL operation. The federation engine implements it.
type Executor interface {
	Execute(ctx context.Context, operation *graphql.Request, writer resolve.FlushWriter, options ...graphql.ExecutionOptionsV2) error
}

type GraphQLHTTPRequestHandler struct {
	log      abstractlogger.Logger
	executor Executor
	ready    *atomic.Bool
}

func NewGraphqlHTTPHandler(executor Executor, logger abstractlogger.Logger) *GraphQLHTTPRequestHandler {
	if logger == nil {
		logger = abstractlogger.Noop{}
	}

	return &GraphQLHTTPRequestHandler{
		log:      logger,
		executor: executor,
		ready:    atomic.NewBool(false),
	}
}

// SetReady toggles whether the handler accepts operations. It is flipped once the topology
// is resolved and the engine is built.
func (g *GraphQLHTTPRequestHandler) SetReady(ready bool) {
	g.ready.Store(ready)
}

func (g *GraphQLHTTPRequestHandler) IsReady() bool {
	return g.ready.Load()
}

func (g *GraphQLHTTPRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/health":
		g.handleHealth(w)
	case r.Method == http.MethodGet:
		playground.Handler("Federation gateway", r.URL.Path).ServeHTTP(w, r)
	case r.Method == http.MethodPost:
		g.handleHTTP(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		WriteGraphQLError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (g *GraphQLHTTPRequestHandler) handleHealth(w http.ResponseWriter) {
	if !g.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (g *GraphQLHTTPRequestHandler) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if !g.IsReady() {
		WriteGraphQLError(w, http.StatusServiceUnavailable, "gateway is not ready")
		return
	}

	var gqlRequest graphql.Request
	if err := graphql.UnmarshalHttpRequest(r, &gqlRequest); err != nil {
		g.log.Error("UnmarshalHttpRequest", abstractlogger.Error(err))
		WriteGraphQLError(w, http.StatusBadRequest, "could not read graphql request")
		return
	}

	buf := bytes.NewBuffer(make([]byte, 0, 4096))
	resultWriter := graphql.NewEngineResultWriterFromBuffer(buf)

	// r.Context() carries the RequestContext of this request down to every subgraph fetch.
	if err := g.executor.Execute(r.Context(), &gqlRequest, &resultWriter); err != nil {
		g.log.Error("engine.Execute", abstractlogger.Error(err))
		WriteGraphQLError(w, http.StatusInternalServerError, "could not execute graphql request")
		return
	}

	w.Header().Set(httpHeaderContentType, contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		g.log.Error("write response", abstractlogger.Error(err))
	}
}
