package services_test

import (
	"context"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// counterPoints sums an int64 counter by the string form of one attribute.
func counterPoints(rm metricdata.ResourceMetrics, name string, key attribute.Key) map[string]int64 {
	out := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, point := range sum.DataPoints {
				value, _ := point.Attributes.Value(key)
				out[value.Emit()] += point.Value
			}
		}
	}
	return out
}

func (s *NegotiationServiceTestSuite) TestTransitionAndVerificationCounters() {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(ctx)

	negotiation, err := services.NewNegotiationService(services.NegotiationDeps{
		DB:                 s.db,
		Clock:              s.clock,
		Events:             s.eventService,
		Payments:           s.paymentService,
		Revisions:          s.revisionService,
		Artifacts:          s.artifactService,
		Hooks:              s.hookService,
		MeterProvider:      provider,
		PaymentBypassToken: "bypass-token",
	})
	s.Require().NoError(err)

	agreement, err := negotiation.CreateAgreement(ctx, services.CreateAgreementRequest{
		TermsVersion: "v1",
		Terms:        models.JSON{"stake_pct": 50.0},
		PaymentID:    s.paidPayment(),
		PartyALabel:  strPtr("A"),
		PartyBLabel:  strPtr("B"),
	})
	s.Require().NoError(err)

	_, err = negotiation.ProposeCounter(ctx, agreement.ID, services.CounterRequest{
		ProposerLabel: "B",
		Terms:         models.JSON{"stake_pct": 40.0},
	})
	s.Require().NoError(err)
	_, err = negotiation.AcceptAgreement(ctx, agreement.ID, "A")
	s.Require().NoError(err)
	accepted, err := negotiation.AcceptAgreement(ctx, agreement.ID, "B")
	s.Require().NoError(err)

	_, err = negotiation.VerifyAgreement(ctx, agreement.ID, accepted.CurrentHash())
	s.Require().NoError(err)
	_, err = negotiation.VerifyAgreement(ctx, agreement.ID, agreement.CurrentHash())
	s.Require().NoError(err)
	_, err = negotiation.VerifyAgreement(ctx, agreement.ID, "deadbeef")
	s.Require().NoError(err)

	// rejected transitions are not counted
	_, err = negotiation.AcceptAgreement(ctx, agreement.ID, "Mallory")
	s.Require().Error(err)

	var rm metricdata.ResourceMetrics
	s.Require().NoError(reader.Collect(ctx, &rm))

	s.Equal(map[string]int64{
		string(services.TransitionCreate):  1,
		string(services.TransitionCounter): 1,
		string(services.TransitionAccept):  2,
	}, counterPoints(rm, "actionkeeper.agreement.transitions", "action"))

	s.Equal(map[string]int64{
		"true":  1,
		"false": 2,
	}, counterPoints(rm, "actionkeeper.hash.verifications", "valid"))
}
