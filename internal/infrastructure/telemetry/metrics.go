package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration // Default: 60s
	ServiceName       string
	Insecure          bool
}

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   MetricsConfig
}

// NewMeterProvider creates and configures a new MeterProvider.
// If metrics are disabled, Meter falls back to the global no-op meter.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{
		logger: logger,
		config: cfg,
	}

	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	exportInterval := cfg.ExportInterval
	if exportInterval == 0 {
		exportInterval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)),
		),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", exportInterval),
		zap.String("service_name", cfg.ServiceName),
	)

	return mp, nil
}

// Shutdown flushes pending metrics and stops the provider.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	return shutdownProvider(ctx, "meter", mp.provider.Shutdown)
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled returns whether metrics are enabled.
func (mp *MeterProvider) IsEnabled() bool {
	return mp.config.Enabled && mp.provider != nil
}

// Metric attribute keys
const (
	AttrOutcome = attribute.Key("outcome")
	AttrPath    = attribute.Key("path")
)

// RenderMetrics records document renders and preview outcomes
type RenderMetrics struct {
	duration metric.Float64Histogram
	outcomes metric.Int64Counter
	pdfBytes metric.Int64Histogram
}

// NewRenderMetrics creates the render instruments on meter
func NewRenderMetrics(meter metric.Meter) (*RenderMetrics, error) {
	duration, err := meter.Float64Histogram("document.render.duration",
		metric.WithDescription("Time to render one document"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create render duration histogram: %w", err)
	}

	outcomes, err := meter.Int64Counter("document.render.outcomes",
		metric.WithDescription("Render results by output path and outcome"),
		metric.WithUnit("{render}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create render outcome counter: %w", err)
	}

	pdfBytes, err := meter.Int64Histogram("document.render.size",
		metric.WithDescription("Size of assembled documents"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create document size histogram: %w", err)
	}

	return &RenderMetrics{duration: duration, outcomes: outcomes, pdfBytes: pdfBytes}, nil
}

// RecordRender records one finished render. size is ignored when zero.
func (m *RenderMetrics) RecordRender(ctx context.Context, path, outcome string, elapsed time.Duration, size int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrPath.String(path), AttrOutcome.String(outcome))
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	m.outcomes.Add(ctx, 1, attrs)
	if size > 0 {
		m.pdfBytes.Record(ctx, int64(size), metric.WithAttributes(AttrPath.String(path)))
	}
}
