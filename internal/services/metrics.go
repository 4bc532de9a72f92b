package services

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/rxtech-lab/actionkeeper"

// negotiationMetrics records transition and verification counts. A nil provider falls back to the
// global one installed by telemetry.Setup.
type negotiationMetrics struct {
	transitions   metric.Int64Counter
	verifications metric.Int64Counter
}

func newNegotiationMetrics(provider metric.MeterProvider) *negotiationMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	transitions, err := meter.Int64Counter("actionkeeper.agreement.transitions",
		metric.WithDescription("Committed agreement transitions by action"))
	if err != nil {
		log.Printf("Failed to create transitions counter: %v", err)
	}
	verifications, err := meter.Int64Counter("actionkeeper.hash.verifications",
		metric.WithDescription("Hash verification attempts by outcome"))
	if err != nil {
		log.Printf("Failed to create verifications counter: %v", err)
	}

	return &negotiationMetrics{transitions: transitions, verifications: verifications}
}

func (m *negotiationMetrics) transition(ctx context.Context, action TransitionAction) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(action))))
}

func (m *negotiationMetrics) verification(ctx context.Context, valid bool) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", valid)))
}
