package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes governance-level instruments.
type Metrics struct {
	quotaChecks      metric.Int64Counter
	quotaDenied      metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	usageBatchRuns   metric.Int64Counter
	usageBatchFailed metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "warden"
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the governance instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "warden"
	}
	meter := provider.Meter(name)

	quotaChecks, err := meter.Int64Counter("warden_quota_checks_total")
	if err != nil {
		return nil, err
	}
	quotaDenied, err := meter.Int64Counter("warden_quota_denied_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("warden_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("warden_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}
	usageBatchRuns, err := meter.Int64Counter("warden_usage_batch_runs_total")
	if err != nil {
		return nil, err
	}
	usageBatchFailed, err := meter.Int64Counter("warden_usage_batch_tenant_failures_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		quotaChecks:      quotaChecks,
		quotaDenied:      quotaDenied,
		rateLimitAllowed: rateLimitAllowed,
		rateLimitDenied:  rateLimitDenied,
		usageBatchRuns:   usageBatchRuns,
		usageBatchFailed: usageBatchFailed,
	}, nil
}

func (m *Metrics) RecordQuotaCheck(ctx context.Context, resource string, allowed bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("resource", resource))
	m.quotaChecks.Add(ctx, 1, attrs)
	if !allowed {
		m.quotaDenied.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, surface string) {
	if m == nil {
		return
	}
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attribute.String("surface", surface)))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, surface string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("surface", surface)))
}

func (m *Metrics) RecordUsageBatch(ctx context.Context, failed int) {
	if m == nil {
		return
	}
	m.usageBatchRuns.Add(ctx, 1)
	if failed > 0 {
		m.usageBatchFailed.Add(ctx, int64(failed))
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch protocol {
	case "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported metrics protocol %q", protocol)
	}
}
