package http

import (
	"net/http"

	"github.com/tidwall/sjson"
)

const (
	httpHeaderContentType = "Content-Type"
	contentTypeJSON       = "application/json"
)

// GraphQLErrorResponse renders {"errors":[{"message":message}]}.
func GraphQLErrorResponse(message string) []byte {
	out, err := sjson.SetBytes([]byte(`{"errors":[{"message":""}]}`), "errors.0.message", message)
	if err != nil {
		return []byte(`{"errors":[{"message":"internal error"}]}`)
	}
	return out
}

func WriteGraphQLError(w http.ResponseWriter, status int, message string) {
	w.Header().Set(httpHeaderContentType, contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(GraphQLErrorResponse(message))
}
