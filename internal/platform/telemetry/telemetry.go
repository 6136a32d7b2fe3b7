// Package telemetry sets up the OpenTelemetry tracer provider used by the
// generation pipeline and the inference adapters.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/phrazzld/cardsmith/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName is reported when the configuration names no service.
const DefaultServiceName = "cardsmith"

// Providers holds the tracer provider and its shutdown function.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	Shutdown       func(context.Context) error
}

// NewProviders creates a TracerProvider that batches spans to the OTLP
// collector at cfg.OTLPEndpoint. With no endpoint the provider records spans
// without exporting them, so trace IDs still propagate.
func NewProviders(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) (*Providers, error) {
	if logger == nil {
		logger = slog.Default()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	if endpoint == "" {
		tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
		logger.Debug("tracing enabled without exporter", "component", "telemetry")
		return &Providers{TracerProvider: tp, Shutdown: tp.Shutdown}, nil
	}

	target, secure, err := grpcTarget(endpoint)
	if err != nil {
		return nil, err
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
	if !secure || cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	logger.Info("exporting traces", "component", "telemetry", "endpoint", target)
	return &Providers{TracerProvider: tp, Shutdown: tp.Shutdown}, nil
}

// SetGlobal installs the tracer provider as the process-wide default.
func (p *Providers) SetGlobal() {
	otel.SetTracerProvider(p.TracerProvider)
}

// Tracer returns a named tracer from the provider.
func (p *Providers) Tracer(name string) trace.Tracer {
	return p.TracerProvider.Tracer(name)
}

// grpcTarget reduces endpoint to host:port. Paths are dropped; an https
// scheme selects TLS.
func grpcTarget(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: missing host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}
