package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/rxtech-lab/actionkeeper/internal/models"
	"gorm.io/gorm"
)

const (
	WebhookEventCheckoutCompleted = "checkout.session.completed"
	WebhookEventPaymentFailed     = "payment.failed"

	DefaultCurrency = "usd"

	checkoutBaseURL = "https://checkout.stripe.com/pay/"
)

// CheckoutSession is a freshly created pending payment plus the link the payer should follow.
type CheckoutSession struct {
	Payment     *models.Payment `json:"payment"`
	CheckoutURL string          `json:"checkout_url"`
}

// PaymentService gates agreement creation on a paid payment.
type PaymentService interface {
	CreateCheckoutSession(amountCents int64, currency string, metadata models.JSON) (*CheckoutSession, error)
	// HandleWebhook applies a provider event. Unknown payments and unknown events return nil, nil.
	HandleWebhook(paymentID string, event string) (*models.Payment, error)
	GetPayment(paymentID string) (*models.Payment, error)
	// RequirePaid returns ErrPaymentNotReady unless the payment exists and is paid.
	RequirePaid(paymentID string) (*models.Payment, error)
	LinkToAgreement(paymentID string, agreementID string) error
	CheckoutURL(payment *models.Payment) string
	WithTx(tx *gorm.DB) PaymentService
}

type paymentService struct {
	db    *gorm.DB
	clock Clock
}

func NewPaymentService(db *gorm.DB, clock Clock) PaymentService {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &paymentService{db: db, clock: clock}
}

func (s *paymentService) WithTx(tx *gorm.DB) PaymentService {
	return &paymentService{db: tx, clock: s.clock}
}

func (s *paymentService) CreateCheckoutSession(amountCents int64, currency string, metadata models.JSON) (*CheckoutSession, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidInput.WithMessage("amount_cents must be positive")
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if metadata == nil {
		metadata = models.JSON{}
	}

	payment := &models.Payment{
		ID:                uuid.New().String(),
		Status:            models.PaymentStatusPending,
		AmountCents:       amountCents,
		Currency:          currency,
		ExternalSessionID: "cs_test_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Metadata:          metadata,
	}
	if err := s.db.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	return &CheckoutSession{Payment: payment, CheckoutURL: s.CheckoutURL(payment)}, nil
}

func (s *paymentService) CheckoutURL(payment *models.Payment) string {
	return checkoutBaseURL + payment.ExternalSessionID
}

func (s *paymentService) HandleWebhook(paymentID string, event string) (*models.Payment, error) {
	var status models.PaymentStatus
	switch strings.ToLower(event) {
	case WebhookEventCheckoutCompleted:
		status = models.PaymentStatusPaid
	case WebhookEventPaymentFailed:
		status = models.PaymentStatusFailed
	default:
		return nil, nil
	}

	payment, err := s.GetPayment(paymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	payment.Status = status
	if status == models.PaymentStatusPaid {
		paidAt := s.clock.Now()
		payment.PaidAt = &paidAt
	}
	if err := s.db.Save(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to update payment %s: %w", paymentID, err)
	}
	return payment, nil
}

func (s *paymentService) GetPayment(paymentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", paymentID).Error; err != nil {
		return nil, notFoundOr(err, "payment", paymentID)
	}
	return &payment, nil
}

func (s *paymentService) RequirePaid(paymentID string) (*models.Payment, error) {
	if paymentID == "" {
		return nil, ErrPaymentNotReady.WithMessage("payment_id is required")
	}
	payment, err := s.GetPayment(paymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrPaymentNotReady.WithMessagef("payment %s not found", paymentID)
		}
		return nil, err
	}
	if payment.Status != models.PaymentStatusPaid {
		return nil, ErrPaymentNotReady.WithMessagef("payment %s is %s", paymentID, payment.Status)
	}
	return payment, nil
}

// LinkToAgreement stamps the agreement id on the payment. Re-linking overwrites; a missing payment is a no-op.
func (s *paymentService) LinkToAgreement(paymentID string, agreementID string) error {
	payment, err := s.GetPayment(paymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if payment.AgreementID != nil && *payment.AgreementID != agreementID {
		log.Printf("Payment %s re-linked from agreement %s to %s", paymentID, *payment.AgreementID, agreementID)
	}

	err = s.db.Model(&models.Payment{}).Where("id = ?", paymentID).Update("agreement_id", agreementID).Error
	if err != nil {
		return fmt.Errorf("failed to link payment %s: %w", paymentID, err)
	}
	return nil
}
