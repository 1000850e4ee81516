// Package otel wires OpenTelemetry tracing, metrics and log export for the
// client and the development backend.
package otel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/hyperdxio/opentelemetry-logs-go/exporters/otlp/otlplogs"
	"github.com/hyperdxio/opentelemetry-logs-go/exporters/otlp/otlplogs/otlplogshttp"
	sdk "github.com/hyperdxio/opentelemetry-logs-go/sdk/logs"

	"github.com/pamojavote/pamoja-go/otel/metrics"
)

// Version is reported as service.version on every resource.
const Version = "0.1.0"

type Config struct {
	Enabled     bool
	Endpoint    string            // OTLP HTTP endpoint, host:port or https://host:port
	ServiceName string
	Headers     map[string]string // e.g. {"authorization": "<api key>"}
	Environment string
	SampleRate  float64 // 0.0 to 1.0
}

// ShutdownFunc flushes and stops every provider started by Setup.
type ShutdownFunc func(context.Context) error

var loggerProvider *sdk.LoggerProvider

// Setup installs the global tracer and meter providers, starts the log
// exporter and creates the gateway instruments. With Enabled false it only
// sets the W3C propagator, so trace headers still flow between processes.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		if err := metrics.Init(cfg.ServiceName); err != nil {
			return nil, err
		}
		return func(context.Context) error { return nil }, nil
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	res := newResource(cfg)
	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	tracerShutdown, err := setupTracing(ctx, res, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup tracing: %w", err)
	}
	shutdowns = append(shutdowns, tracerShutdown)

	loggerShutdown, err := setupLogging(ctx, res, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	shutdowns = append(shutdowns, loggerShutdown)

	metricsShutdown, err := setupMetrics(ctx, res, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("failed to setup metrics: %w", err)
	}
	shutdowns = append(shutdowns, metricsShutdown)

	if err := metrics.Init(cfg.ServiceName); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return shutdown, nil
}

func (cfg Config) validate() error {
	if cfg.ServiceName == "" {
		return errors.New("service name is required")
	}
	if cfg.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("sample rate must be between 0.0 and 1.0, got %f", cfg.SampleRate)
	}
	return nil
}

// endpoint strips the scheme the OTLP exporters do not accept and reports
// whether the connection must be plaintext.
func (cfg Config) endpoint() (host string, insecure bool) {
	switch {
	case strings.HasPrefix(cfg.Endpoint, "https://"):
		return strings.TrimPrefix(cfg.Endpoint, "https://"), false
	case strings.HasPrefix(cfg.Endpoint, "http://"):
		return strings.TrimPrefix(cfg.Endpoint, "http://"), true
	}
	return cfg.Endpoint, true
}

func newResource(cfg Config) *resource.Resource {
	hostName, _ := os.Hostname()

	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(Version),
		semconv.DeploymentEnvironment(cfg.Environment),
		semconv.HostName(hostName),
	)
}

func setupTracing(ctx context.Context, res *resource.Resource, cfg Config) (ShutdownFunc, error) {
	host, insecure := cfg.endpoint()
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(host)}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

func setupLogging(ctx context.Context, res *resource.Resource, cfg Config) (ShutdownFunc, error) {
	host, insecure := cfg.endpoint()
	opts := []otlplogshttp.Option{otlplogshttp.WithEndpoint(host)}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlplogshttp.WithHeaders(cfg.Headers))
	}
	if insecure {
		opts = append(opts, otlplogshttp.WithInsecure())
	}

	exporter, err := otlplogs.New(ctx, otlplogshttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	loggerProvider = sdk.NewLoggerProvider(
		sdk.WithBatcher(exporter),
		sdk.WithResource(res),
	)

	return loggerProvider.Shutdown, nil
}

func setupMetrics(ctx context.Context, res *resource.Resource, cfg Config) (ShutdownFunc, error) {
	host, insecure := cfg.endpoint()
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(host)}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
	}
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// LoggerProvider returns the log provider started by Setup, or nil.
func LoggerProvider() *sdk.LoggerProvider {
	return loggerProvider
}
