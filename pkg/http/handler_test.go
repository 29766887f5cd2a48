package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/jensneuse/abstractlogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TykTechnologies/graphql-go-tools/pkg/engine/resolve"
	"github.com/TykTechnologies/graphql-go-tools/pkg/graphql"

	"github.com/planets/federation-gateway/pkg/authforward"
)

const planetsQuery = `{"query":"{ getPlanets { name } }"}`

func newReadyHandler(executor Executor) http.Handler {
	handler := NewGraphqlHTTPHandler(executor, abstractlogger.NoopLogger)
	handler.SetReady(true)
	return authforward.Middleware(handler)
}

func TestGraphQLHTTPRequestHandler_ServeHTTP(t *testing.T) {
	t.Run("should execute with the request context of the inbound request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		executorMock := NewMockExecutor(ctrl)
		executorMock.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, operation *graphql.Request, writer resolve.FlushWriter, _ ...graphql.ExecutionOptionsV2) error {
				rc, ok := authforward.FromContext(ctx)
				require.True(t, ok)
				assert.Equal(t, "Bearer A", rc.Credential)
				assert.Equal(t, "{ getPlanets { name } }", operation.Query)

				_, err := writer.Write([]byte(`{"data":{"getPlanets":[{"name":"Mercury"}]}}`))
				return err
			}).
			Times(1)

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(planetsQuery))
		req.Header.Set("Authorization", "Bearer A")
		rec := httptest.NewRecorder()

		newReadyHandler(executorMock).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"data":{"getPlanets":[{"name":"Mercury"}]}}`, rec.Body.String())
	})

	t.Run("should not reject requests without credential", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		executorMock := NewMockExecutor(ctrl)
		executorMock.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ *graphql.Request, writer resolve.FlushWriter, _ ...graphql.ExecutionOptionsV2) error {
				rc, ok := authforward.FromContext(ctx)
				require.True(t, ok)
				assert.False(t, rc.HasCredential())
				_, err := writer.Write([]byte(`{"data":null}`))
				return err
			}).
			Times(1)

		rec := httptest.NewRecorder()
		newReadyHandler(executorMock).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(planetsQuery)))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should answer bad requests with graphql errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rec := httptest.NewRecorder()
		newReadyHandler(NewMockExecutor(ctrl)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"errors":[{"message":"could not read graphql request"}]}`, rec.Body.String())
	})

	t.Run("should report execution failures without internal details", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		executorMock := NewMockExecutor(ctrl)
		executorMock.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New(`dial tcp planets-service:8001: connect: connection refused`)).
			Times(1)

		rec := httptest.NewRecorder()
		newReadyHandler(executorMock).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(planetsQuery)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"errors":[{"message":"could not execute graphql request"}]}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "planets-service")
	})

	t.Run("should refuse operations before being ready", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		handler := NewGraphqlHTTPHandler(NewMockExecutor(ctrl), nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(planetsQuery)))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("should reject other methods", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rec := httptest.NewRecorder()
		newReadyHandler(NewMockExecutor(ctrl)).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("should serve the playground", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rec := httptest.NewRecorder()
		newReadyHandler(NewMockExecutor(ctrl)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<html")
	})
}

func TestGraphQLHTTPRequestHandler_Health(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewGraphqlHTTPHandler(NewMockExecutor(ctrl), abstractlogger.NoopLogger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	handler.SetReady(true)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestGraphQLErrorResponse(t *testing.T) {
	assert.JSONEq(t, `{"errors":[{"message":"JWT is invalid: \"quoted\""}]}`, string(GraphQLErrorResponse(`JWT is invalid: "quoted"`)))
}
