package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
	// Registry defaults to a fresh registry so that tests can run in parallel.
	Registry *prometheus.Registry
}

// InitMetrics initializes the Prometheus metrics exporter, installs the
// MeterProvider globally and returns it with an HTTP handler for /metrics.
func InitMetrics(cfg MetricsConfig) (*sdkmetric.MeterProvider, http.Handler, error) {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return provider, handler, nil
}

// RPCMetrics records request counts and latencies of an RPC surface.
type RPCMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewRPCMetrics creates the instruments on meter.
func NewRPCMetrics(meter metric.Meter) (*RPCMetrics, error) {
	requests, err := meter.Int64Counter("loancalc.rpc.requests",
		metric.WithDescription("Requests handled, by method and status code."))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("loancalc.rpc.duration",
		metric.WithDescription("Request latency."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &RPCMetrics{requests: requests, duration: duration}, nil
}

// Record adds one observation for method finishing with code.
func (m *RPCMetrics) Record(ctx context.Context, method, code string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("code", code),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// UnaryServerInterceptor records every unary call.
func (m *RPCMetrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.Record(ctx, info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}
