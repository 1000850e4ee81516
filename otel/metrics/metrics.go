package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Renewal outcomes.
const (
	RenewalSuccess = "success"
	RenewalFailure = "failure"
	// RenewalReused: another caller already renewed the token.
	RenewalReused = "reused"
)

var (
	meter metric.Meter

	gatewayRequestsTotal    metric.Int64Counter
	gatewayRequestDuration  metric.Float64Histogram
	gatewayRequestsInFlight metric.Int64UpDownCounter
	gatewayRenewalsTotal    metric.Int64Counter
	gatewayAuthExpiredTotal metric.Int64Counter
)

// Init creates the gateway instruments on the global meter provider. Until it
// is called every Record function is a no-op.
func Init(serviceName string) error {
	meter = otel.Meter(serviceName)

	var err error

	gatewayRequestsTotal, err = meter.Int64Counter(
		"gateway_requests_total",
		metric.WithDescription("Total number of API calls issued by the gateway"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create gateway_requests_total counter: %w", err)
	}

	gatewayRequestDuration, err = meter.Float64Histogram(
		"gateway_request_duration_seconds",
		metric.WithDescription("API call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create gateway_request_duration_seconds histogram: %w", err)
	}

	gatewayRequestsInFlight, err = meter.Int64UpDownCounter(
		"gateway_requests_in_flight",
		metric.WithDescription("Number of API calls currently in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create gateway_requests_in_flight gauge: %w", err)
	}

	gatewayRenewalsTotal, err = meter.Int64Counter(
		"gateway_renewals_total",
		metric.WithDescription("Access token renewals by outcome"),
		metric.WithUnit("{renewal}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create gateway_renewals_total counter: %w", err)
	}

	gatewayAuthExpiredTotal, err = meter.Int64Counter(
		"gateway_auth_expired_total",
		metric.WithDescription("Sessions terminated because renewal was impossible"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create gateway_auth_expired_total counter: %w", err)
	}

	return nil
}

// RecordRequest records one completed API call. statusCode is 0 when no
// response was received.
func RecordRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)

	if gatewayRequestsTotal != nil {
		gatewayRequestsTotal.Add(ctx, 1, attrs)
	}
	if gatewayRequestDuration != nil {
		gatewayRequestDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

func IncrementInFlightRequests(ctx context.Context, method, route string) {
	addInFlight(ctx, method, route, 1)
}

func DecrementInFlightRequests(ctx context.Context, method, route string) {
	addInFlight(ctx, method, route, -1)
}

func addInFlight(ctx context.Context, method, route string, delta int64) {
	if gatewayRequestsInFlight == nil {
		return
	}
	gatewayRequestsInFlight.Add(ctx, delta, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	))
}

func RecordRenewal(ctx context.Context, outcome string) {
	if gatewayRenewalsTotal != nil {
		gatewayRenewalsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordAuthExpired(ctx context.Context) {
	if gatewayAuthExpiredTotal != nil {
		gatewayAuthExpiredTotal.Add(ctx, 1)
	}
}
