// Package jwtvalidation optionally verifies bearer tokens at the gateway edge and forwards the
// caller's role to the subgraphs.
package jwtvalidation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jensneuse/abstractlogger"

	"github.com/planets/federation-gateway/pkg/authforward"
	gatewayhttp "github.com/planets/federation-gateway/pkg/http"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingSecretKey  = errors.New("jwt secret key is empty")
	ErrMissingBearer     = errors.New("authorization header is not a bearer token")
	ErrMissingRole       = errors.New("token carries no role claim")
	ErrUnexpectedSigning = errors.New("unexpected signing method")
)

// Claims is the token payload issued by the auth subgraph.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Validator struct {
	secretKey []byte
	logger    abstractlogger.Logger
}

func NewValidator(secretKey string, logger abstractlogger.Logger) (*Validator, error) {
	if secretKey == "" {
		return nil, ErrMissingSecretKey
	}
	if logger == nil {
		logger = abstractlogger.Noop{}
	}

	return &Validator{
		secretKey: []byte(secretKey),
		logger:    logger,
	}, nil
}

// Validate verifies an Authorization header value and returns its claims.
func (v *Validator) Validate(authorization string) (*Claims, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, ErrMissingBearer
	}
	token := strings.TrimPrefix(authorization, bearerPrefix)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigning, token.Header["alg"])
		}
		return v.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Role == "" {
		return nil, ErrMissingRole
	}

	return claims, nil
}

// Middleware rejects requests carrying an invalid token with 400 and stores the role of a
// valid one on the request context. Requests without Authorization header pass untouched; the
// subgraphs decide whether anonymous access is allowed. It must run after
// authforward.Middleware.
func (v *Validator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, ok := authforward.FromContext(r.Context())
		if !ok {
			rc = authforward.Extract(r)
		}

		if !rc.HasCredential() {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := v.Validate(rc.Credential)
		if err != nil {
			v.logger.Debug("jwtvalidation.Validator.Middleware: on validating token",
				abstractlogger.Error(err),
			)
			gatewayhttp.WriteGraphQLError(w, http.StatusBadRequest, fmt.Sprintf("JWT is invalid: %s", err))
			return
		}

		v.logger.Debug("jwtvalidation.Validator.Middleware: on validating token",
			abstractlogger.String("role", claims.Role),
		)

		ctx := authforward.NewContext(r.Context(), rc.WithRole(claims.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
