package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/babbageLabs/insta-lite/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := observability.Tracer
	observability.Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)).Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })
	return rec
}

func TestTracingMiddleware_NamesSpanByRoute(t *testing.T) {
	rec := withRecorder(t)
	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/api/photos/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/photos/42", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /api/photos/:id", ended[0].Name())
	assert.NotEqual(t, codes.Error, ended[0].Status().Code)
}

func TestTracingMiddleware_MarksServerErrors(t *testing.T) {
	rec := withRecorder(t)
	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/api/feed", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusInternalServerError)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/feed", nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestTracingMiddleware_SkipsProbes(t *testing.T) {
	rec := withRecorder(t)
	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
	assert.Empty(t, rec.Ended())
}
