package hooks

import (
	"context"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"gorm.io/gorm"
)

type PaymentLinkHook struct {
	paymentService services.PaymentService
	bypassToken    string
}

// CanHandle implements Hook.
func (p *PaymentLinkHook) CanHandle(action services.TransitionAction) bool {
	return action == services.TransitionCreate
}

// OnTransition implements Hook.
func (p *PaymentLinkHook) OnTransition(ctx context.Context, tx *gorm.DB, action services.TransitionAction, agreement *models.Agreement) error {
	if agreement.PaymentID == nil || services.IsPaymentBypass(*agreement.PaymentID, p.bypassToken) {
		return nil
	}
	return p.paymentService.WithTx(tx).LinkToAgreement(*agreement.PaymentID, agreement.ID)
}

// NewPaymentLinkHook stamps the new agreement id on the payment that authorized it.
func NewPaymentLinkHook(paymentService services.PaymentService, bypassToken string) services.Hook {
	return &PaymentLinkHook{
		paymentService: paymentService,
		bypassToken:    bypassToken,
	}
}
