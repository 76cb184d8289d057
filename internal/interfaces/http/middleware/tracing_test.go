package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracing(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestTracing(t *testing.T) {
	recorder := setupTracing(t)

	router := gin.New()
	router.Use(TracingWithConfig(DefaultTracingConfig()), SpanEnricher())
	router.GET("/projects/:id", func(c *gin.Context) {
		if c.Param("id") == "404" {
			c.Status(http.StatusNotFound)
			return
		}
		c.String(http.StatusOK, "ok")
	})

	t.Run("records project id and request id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/projects/7", nil)
		req.Header.Set("X-Request-ID", "req-7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		spans := recorder.Ended()
		require.NotEmpty(t, spans)
		attrs := map[string]string{}
		for _, kv := range spans[len(spans)-1].Attributes() {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		assert.Equal(t, "7", attrs["project.id"])
		assert.Equal(t, "req-7", attrs["request_id"])
	})

	t.Run("marks error responses", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/projects/404", nil))

		spans := recorder.Ended()
		require.NotEmpty(t, spans)
		assert.Equal(t, codes.Error, spans[len(spans)-1].Status().Code)
	})
}

func TestTracingDisabled(t *testing.T) {
	recorder := setupTracing(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}

func TestGetRequestID_Truncates(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set("X-Request-ID", strings.Repeat("a", 300))

	assert.Len(t, getRequestID(c), MaxRequestIDLength)
}
