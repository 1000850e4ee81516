package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false, ServiceName: "pamoja-client"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_Enabled(t *testing.T) {
	cfg := Config{
		Enabled:     true,
		ServiceName: "pamoja-client",
		Environment: "test",
		Endpoint:    "localhost:4318",
		Headers:     map[string]string{"authorization": "test-key"},
		SampleRate:  1.0,
	}

	shutdown, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, LoggerProvider())

	// Nothing listens on the endpoint; only check shutdown returns.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{ServiceName: "svc", Endpoint: "localhost:4318", SampleRate: 0.5}},
		{name: "missing service name", cfg: Config{Endpoint: "localhost:4318"}, wantErr: true},
		{name: "missing endpoint", cfg: Config{ServiceName: "svc"}, wantErr: true},
		{name: "sample rate above one", cfg: Config{ServiceName: "svc", Endpoint: "x", SampleRate: 1.5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigEndpoint(t *testing.T) {
	host, insecure := Config{Endpoint: "https://otel.pamojavote.ke:4318"}.endpoint()
	assert.Equal(t, "otel.pamojavote.ke:4318", host)
	assert.False(t, insecure)

	host, insecure = Config{Endpoint: "http://collector:4318"}.endpoint()
	assert.Equal(t, "collector:4318", host)
	assert.True(t, insecure)

	host, insecure = Config{Endpoint: "localhost:4318"}.endpoint()
	assert.Equal(t, "localhost:4318", host)
	assert.True(t, insecure)
}

func TestNewResource(t *testing.T) {
	res := newResource(Config{ServiceName: "pamoja-devserver", Environment: "test"})
	require.NotNil(t, res)

	set := res.Set()
	name, ok := set.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "pamoja-devserver", name.AsString())

	version, ok := set.Value(attribute.Key("service.version"))
	require.True(t, ok)
	assert.Equal(t, Version, version.AsString())
}
