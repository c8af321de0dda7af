package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := zerolog.New(&buf)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()
	server.Use(RequestLogger(logger))

	var gotRequestID string

	server.GET("/ping", func(gctx *gin.Context) {
		zerolog.Ctx(gctx.Request.Context()).Info().Msg("inside")
		gotRequestID = gctx.Request.Header.Get(RequestIDHeader)
		gctx.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/ping", nil)

		server.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusNoContent, recorder.Code)
		require.NotEmpty(t, gotRequestID)
		require.Equal(t, gotRequestID, recorder.Header().Get(RequestIDHeader))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	// Request fields must not leak between requests.
	for _, line := range lines {
		require.Equal(t, 1, strings.Count(line, `"request_id"`), line)
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()
	server.Use(RequestLogger(zerolog.Nop()))
	server.GET("/ping", func(gctx *gin.Context) { gctx.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/ping", nil)
	request.Header.Set(RequestIDHeader, "abc")

	server.ServeHTTP(recorder, request)

	require.Equal(t, "abc", recorder.Header().Get(RequestIDHeader))
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()
	server.Use(Metrics())
	server.GET("/items/:id", func(gctx *gin.Context) { gctx.Status(http.StatusTeapot) })

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "418")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/items/1", "/items/2"} {
		server.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, before+2, testutil.ToFloat64(counter))
}
