package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

type CheckoutRequest struct {
	AmountCents int64       `json:"amount_cents" validate:"required,gt=0"`
	Currency    string      `json:"currency" validate:"omitempty,max=10"`
	Metadata    models.JSON `json:"metadata"`
}

type CheckoutResponse struct {
	PaymentID   string               `json:"payment_id"`
	CheckoutURL string               `json:"checkout_url"`
	Status      models.PaymentStatus `json:"status"`
}

type WebhookEventRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	Event     string `json:"event" validate:"required"`
}

type PaymentResponse struct {
	ID          string               `json:"id"`
	Status      models.PaymentStatus `json:"status"`
	AmountCents int64                `json:"amount_cents"`
	Currency    string               `json:"currency"`
	CheckoutURL string               `json:"checkout_url"`
	AgreementID *string              `json:"agreement_id"`
	PaidAt      *time.Time           `json:"paid_at"`
}

func (s *APIServer) handleCreateCheckout(c *fiber.Ctx) error {
	var body CheckoutRequest
	if err := s.parseBody(c, &body); err != nil {
		return writeError(c, err)
	}

	session, err := s.payments.CreateCheckoutSession(body.AmountCents, body.Currency, body.Metadata)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CheckoutResponse{
		PaymentID:   session.Payment.ID,
		CheckoutURL: session.CheckoutURL,
		Status:      session.Payment.Status,
	})
}

// handlePaymentWebhook applies a provider event. Signature checks run in the webhook middleware.
func (s *APIServer) handlePaymentWebhook(c *fiber.Ctx) error {
	var body WebhookEventRequest
	if err := s.parseBody(c, &body); err != nil {
		return writeError(c, err)
	}

	payment, err := s.payments.HandleWebhook(body.PaymentID, body.Event)
	if err != nil {
		return writeError(c, err)
	}
	if payment == nil {
		return writeError(c, services.ErrNotFound.WithMessage("Payment not found or unsupported event"))
	}

	return c.JSON(fiber.Map{"status": payment.Status})
}

func (s *APIServer) handleGetPayment(c *fiber.Ctx) error {
	payment, err := s.payments.GetPayment(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(PaymentResponse{
		ID:          payment.ID,
		Status:      payment.Status,
		AmountCents: payment.AmountCents,
		Currency:    payment.Currency,
		CheckoutURL: s.payments.CheckoutURL(payment),
		AgreementID: payment.AgreementID,
		PaidAt:      payment.PaidAt,
	})
}
