package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicheck/clinicheck_backend/config"
)

func TestInitTelemetry_WithoutExporter(t *testing.T) {
	p, err := InitTelemetry(context.Background(), Config{ServiceName: "clinicheck_test", Environment: "test"})
	require.NoError(t, err)
	require.NotNil(t, p.PrometheusExporter)

	RecordNotification(context.Background(), "appointment_status", NotificationSent)

	_, span := StartSpan(context.Background(), "unit")
	assert.True(t, span.SpanContext().HasTraceID())
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestFiberMiddleware_SetsTraceHeader(t *testing.T) {
	p, err := InitTelemetry(context.Background(), Config{ServiceName: "clinicheck_test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	app := fiber.New()
	app.Use(FiberMiddleware("clinicheck_test"))
	app.Get("/ping", func(c fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/boom", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusInternalServerError) })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get("X-Trace-Id"), 32)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestFromCentralConfig(t *testing.T) {
	c := &config.Config{}
	c.Observability.ServiceName = "svc"
	c.Observability.Tracing.OTLPEndpoint = "otel:4318"
	c.Server.Environment = "staging"

	got := FromCentralConfig(c)
	assert.Equal(t, "svc", got.ServiceName)
	assert.Equal(t, "staging", got.Environment)
	assert.Empty(t, got.OTLPEndpoint, "endpoint ignored while tracing is disabled")

	c.Observability.Tracing.Enabled = true
	assert.Equal(t, "otel:4318", FromCentralConfig(c).OTLPEndpoint)
}
