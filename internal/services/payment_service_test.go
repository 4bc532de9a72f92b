package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	dbService      services.DBService
	paymentService services.PaymentService
	clock          *steppingClock
}

func (s *PaymentServiceTestSuite) SetupTest() {
	db, err := services.NewSqliteDBService(":memory:")
	s.Require().NoError(err)
	s.dbService = db
	s.clock = &steppingClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s.paymentService = services.NewPaymentService(db.GetDB(), s.clock)
}

func (s *PaymentServiceTestSuite) TearDownTest() {
	if s.dbService != nil {
		s.dbService.Close()
	}
}

func (s *PaymentServiceTestSuite) TestCreateCheckoutSession() {
	session, err := s.paymentService.CreateCheckoutSession(2500, " USD ", models.JSON{"purpose": "staking"})
	s.Require().NoError(err)

	payment := session.Payment
	s.Equal(models.PaymentStatusPending, payment.Status)
	s.Equal(int64(2500), payment.AmountCents)
	s.Equal("usd", payment.Currency)
	s.True(strings.HasPrefix(payment.ExternalSessionID, "cs_test_"))
	s.Len(payment.ExternalSessionID, len("cs_test_")+32)
	s.Equal("https://checkout.stripe.com/pay/"+payment.ExternalSessionID, session.CheckoutURL)

	stored, err := s.paymentService.GetPayment(payment.ID)
	s.Require().NoError(err)
	s.Equal("staking", stored.Metadata["purpose"])

	s.Run("default currency", func() {
		session, err := s.paymentService.CreateCheckoutSession(100, "", nil)
		s.Require().NoError(err)
		s.Equal(services.DefaultCurrency, session.Payment.Currency)
	})

	s.Run("non positive amount", func() {
		_, err := s.paymentService.CreateCheckoutSession(0, "usd", nil)
		s.ErrorIs(err, services.ErrInvalidInput)
	})
}

func (s *PaymentServiceTestSuite) TestHandleWebhook() {
	session, err := s.paymentService.CreateCheckoutSession(2500, "usd", nil)
	s.Require().NoError(err)
	paymentID := session.Payment.ID

	s.Run("unknown event is a no-op", func() {
		payment, err := s.paymentService.HandleWebhook(paymentID, "invoice.created")
		s.NoError(err)
		s.Nil(payment)

		stored, err := s.paymentService.GetPayment(paymentID)
		s.Require().NoError(err)
		s.Equal(models.PaymentStatusPending, stored.Status)
	})

	s.Run("unknown payment is a no-op", func() {
		payment, err := s.paymentService.HandleWebhook("missing", services.WebhookEventCheckoutCompleted)
		s.NoError(err)
		s.Nil(payment)
	})

	s.Run("completed marks paid", func() {
		payment, err := s.paymentService.HandleWebhook(paymentID, "Checkout.Session.Completed")
		s.Require().NoError(err)
		s.Equal(models.PaymentStatusPaid, payment.Status)
		s.Require().NotNil(payment.PaidAt)

		_, err = s.paymentService.RequirePaid(paymentID)
		s.NoError(err)
	})

	s.Run("failed marks failed", func() {
		payment, err := s.paymentService.HandleWebhook(paymentID, services.WebhookEventPaymentFailed)
		s.Require().NoError(err)
		s.Equal(models.PaymentStatusFailed, payment.Status)

		_, err = s.paymentService.RequirePaid(paymentID)
		s.ErrorIs(err, services.ErrPaymentNotReady)
	})
}

func (s *PaymentServiceTestSuite) TestLinkToAgreementLastWriteWins() {
	session, err := s.paymentService.CreateCheckoutSession(2500, "usd", nil)
	s.Require().NoError(err)

	s.Require().NoError(s.paymentService.LinkToAgreement(session.Payment.ID, "agreement-1"))
	s.Require().NoError(s.paymentService.LinkToAgreement(session.Payment.ID, "agreement-2"))

	stored, err := s.paymentService.GetPayment(session.Payment.ID)
	s.Require().NoError(err)
	s.Equal("agreement-2", *stored.AgreementID)

	s.NoError(s.paymentService.LinkToAgreement("missing", "agreement-3"))
}

func (s *PaymentServiceTestSuite) TestRequirePaid() {
	_, err := s.paymentService.RequirePaid("")
	s.ErrorIs(err, services.ErrPaymentNotReady)

	_, err = s.paymentService.RequirePaid("missing")
	s.ErrorIs(err, services.ErrPaymentNotReady)

	session, err := s.paymentService.CreateCheckoutSession(2500, "usd", nil)
	s.Require().NoError(err)
	_, err = s.paymentService.RequirePaid(session.Payment.ID)
	s.ErrorIs(err, services.ErrPaymentNotReady)
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
