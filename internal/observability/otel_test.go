package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" x-api-key = abc , broken, =v, tenant=acme ")
	assert.Equal(t, map[string]string{"x-api-key": "abc", "tenant": "acme"}, got)
	assert.Nil(t, parseHeaders(""))
	assert.Nil(t, parseHeaders("nope"))
}

func TestOtelConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("OTEL_SAMPLER_RATIO", "3")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")

	cfg := OtelConfigFromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SampleRatio)
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, "collector:4318", cfg.Endpoint)
}

func TestDisabledShutdownIsNoop(t *testing.T) {
	shutdown := InitOTel(t.Context(), nil, OtelConfig{Enabled: false})
	assert.NoError(t, shutdown(t.Context()))
}
