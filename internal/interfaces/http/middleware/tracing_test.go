package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})
	return sr
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

// withPrincipal stands in for the JWT middleware
func withPrincipal(p identity.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	w := serve(okRouter(TracingWithConfig(TracingConfig{Enabled: false})), http.MethodGet, "/test", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_RecordsRequestAndCaller(t *testing.T) {
	sr := setupTestTracer(t)
	vendor := identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeVendor}

	router := gin.New()
	router.Use(RequestID(), Tracing(), withPrincipal(vendor), TracingAttributeInjector())
	router.GET("/api/v1/vendor/orders/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, http.MethodGet, "/api/v1/vendor/orders/42", map[string]string{RequestIDKey: "req-7"})
	assert.Equal(t, http.StatusOK, w.Code)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "req-7", attrs["request_id"].AsString())
	assert.Equal(t, vendor.ID.String(), attrs["user_id"].AsString())
	assert.Equal(t, "vendor", attrs["account_type"].AsString())
}

func TestTracingAttributeInjector_Anonymous(t *testing.T) {
	sr := setupTestTracer(t)
	router := okRouter(Tracing(), TracingAttributeInjector())

	serve(router, http.MethodGet, "/test", nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.NotContains(t, attrs, attribute.Key("user_id"))
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		status  int
		code    codes.Code
		message string
	}{
		{http.StatusOK, codes.Unset, ""},
		{http.StatusBadRequest, codes.Error, "Client Error"},
		{http.StatusUnauthorized, codes.Error, "Unauthorized"},
		{http.StatusForbidden, codes.Error, "Forbidden"},
		{http.StatusNotFound, codes.Error, "Not Found"},
		{http.StatusUnprocessableEntity, codes.Error, "Precondition Failed"},
		{http.StatusInternalServerError, codes.Error, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			sr := setupTestTracer(t)
			router := gin.New()
			router.Use(Tracing(), SpanErrorMarker())
			router.GET("/test", func(c *gin.Context) {
				c.Status(tt.status)
			})

			serve(router, http.MethodGet, "/test", nil)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			if tt.code == codes.Unset {
				assert.NotEqual(t, codes.Error, spans[0].Status().Code)
				return
			}
			assert.Equal(t, tt.code, spans[0].Status().Code)
			assert.Equal(t, tt.message, spans[0].Status().Description)
		})
	}
}

func TestSpanErrorMarker_WithNoSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanErrorMarker(), TracingAttributeInjector())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := serve(router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetRequestID(t *testing.T) {
	t.Run("context wins over header", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set(RequestIDKey, "from-header")
		c.Set("request_id", "from-context")
		assert.Equal(t, "from-context", getRequestID(c))
	})

	t.Run("long header is truncated", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set(RequestIDKey, strings.Repeat("a", MaxRequestIDLength*2))
		assert.Len(t, getRequestID(c), MaxRequestIDLength)
	})
}
