// Package telemetry installs the OpenTelemetry meter provider that backs the agreement counters.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const DefaultExportInterval = 15 * time.Second

// Config selects where metrics go. An empty OTLPEndpoint keeps them in process.
type Config struct {
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string // e.g. "localhost:4317"
	Insecure       bool
	ExportInterval time.Duration
}

// NewMeterProvider builds an SDK meter provider. Extra readers are attached alongside the OTLP
// exporter, which is only created when an endpoint is configured.
func NewMeterProvider(ctx context.Context, cfg Config, readers ...sdkmetric.Reader) (*sdkmetric.MeterProvider, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	if cfg.OTLPEndpoint != "" {
		exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		interval := cfg.ExportInterval
		if interval <= 0 {
			interval = DefaultExportInterval
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))))
	}

	return sdkmetric.NewMeterProvider(opts...), nil
}

// Setup builds the meter provider and installs it globally. Callers shut it down on exit.
func Setup(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	provider, err := NewMeterProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(provider)
	if cfg.OTLPEndpoint != "" {
		log.Printf("Exporting metrics to %s", cfg.OTLPEndpoint)
	}
	return provider, nil
}
