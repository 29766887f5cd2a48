package http

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/planets/federation-gateway/pkg/authforward"
)

type Middleware func(next http.Handler) http.Handler

type HandlerOptions struct {
	AllowedOrigins []string
	// Middlewares run after the request context was extracted, in the given order.
	Middlewares []Middleware
}

// NewHandler wraps the GraphQL handler with CORS and request context extraction.
func NewHandler(graphqlHandler http.Handler, options HandlerOptions) http.Handler {
	handler := graphqlHandler
	for i := len(options.Middlewares) - 1; i >= 0; i-- {
		handler = options.Middlewares[i](handler)
	}
	handler = authforward.Middleware(handler)

	allowedOrigins := options.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return c.Handler(handler)
}
