package api

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/receipt"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"github.com/rxtech-lab/actionkeeper/internal/utils"
)

const dateLayout = "2006-01-02"

type CreateAgreementRequest struct {
	AgreementType     string      `json:"agreement_type" validate:"omitempty,max=50"`
	TermsVersion      string      `json:"terms_version" validate:"required,max=50"`
	Terms             models.JSON `json:"terms" validate:"required"`
	PaymentID         string      `json:"payment_id" validate:"required"`
	ProposerLabel     *string     `json:"proposer_label" validate:"omitempty,max=100"`
	NegotiationAction string      `json:"negotiation_action" validate:"omitempty,oneof=proposed draft counter accepted"`
	CounterNotes      *string     `json:"counter_notes"`
	PartyALabel       *string     `json:"party_a_label" validate:"omitempty,max=100"`
	PartyBLabel       *string     `json:"party_b_label" validate:"omitempty,max=100"`

	StructuredOverrides
}

type CounterAgreementRequest struct {
	ProposerLabel string      `json:"proposer_label" validate:"required,max=100"`
	Terms         models.JSON `json:"terms" validate:"required"`
	CounterNotes  *string     `json:"counter_notes"`

	StructuredOverrides
}

// StructuredOverrides take precedence over the values parsed out of the terms.
type StructuredOverrides struct {
	StakePercent     *float64   `json:"stake_percent" validate:"omitempty,gte=0,lte=100"`
	BuyInAmountCents *int64     `json:"buy_in_amount_cents" validate:"omitempty,gte=0"`
	PayoutBasis      *string    `json:"payout_basis" validate:"omitempty,max=30"`
	BulletCap        *int       `json:"bullet_cap" validate:"omitempty,gte=0"`
	EventDate        *string    `json:"event_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate          *string    `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	FundsLoggedAt    *time.Time `json:"funds_logged_at"`
}

type AcceptAgreementRequest struct {
	AccepterLabel string `json:"accepter_label" validate:"required,max=100"`
}

type DeclineAgreementRequest struct {
	DeclinerLabel string  `json:"decliner_label" validate:"required,max=100"`
	Reason        *string `json:"reason"`
}

type QRPayload struct {
	VerificationURL string `json:"verification_url"`
}

// AgreementCreatedResponse is the agreement plus what a client needs to print or share it.
type AgreementCreatedResponse struct {
	*models.Agreement
	QRPayload QRPayload                 `json:"qr_payload"`
	Artifact  *models.AgreementArtifact `json:"artifact"`
}

// toStructuredFields parses the date overrides.
func (o StructuredOverrides) toStructuredFields() (services.StructuredFields, error) {
	fields := services.StructuredFields{
		StakePercent:     o.StakePercent,
		BuyInAmountCents: o.BuyInAmountCents,
		BulletCap:        o.BulletCap,
		PayoutBasis:      o.PayoutBasis,
		FundsLoggedAt:    o.FundsLoggedAt,
	}

	var err error
	if fields.EventDate, err = parseOptionalDate("event_date", o.EventDate); err != nil {
		return services.StructuredFields{}, err
	}
	if fields.DueDate, err = parseOptionalDate("due_date", o.DueDate); err != nil {
		return services.StructuredFields{}, err
	}
	return fields, nil
}

func (r CreateAgreementRequest) toServiceRequest() (services.CreateAgreementRequest, error) {
	overrides, err := r.toStructuredFields()
	if err != nil {
		return services.CreateAgreementRequest{}, err
	}

	return services.CreateAgreementRequest{
		AgreementType:     r.AgreementType,
		TermsVersion:      r.TermsVersion,
		Terms:             r.Terms,
		PaymentID:         r.PaymentID,
		ProposerLabel:     r.ProposerLabel,
		PartyALabel:       r.PartyALabel,
		PartyBLabel:       r.PartyBLabel,
		NegotiationAction: r.NegotiationAction,
		CounterNotes:      r.CounterNotes,
		Overrides:         overrides,
	}, nil
}

func parseOptionalDate(name string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, services.ErrInvalidInput.WithMessagef("%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}

// parseBody decodes and validates the request body into dst.
func (s *APIServer) parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		log.Printf("Error parsing body on %s: %v", c.Path(), err)
		return services.ErrInvalidInput.WithMessage("Invalid request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return services.ErrInvalidInput.WithMessagef("Invalid request: %v", err)
	}
	return nil
}

func (s *APIServer) handleCreateAgreement(c *fiber.Ctx) error {
	var body CreateAgreementRequest
	if err := s.parseBody(c, &body); err != nil {
		return writeError(c, err)
	}

	req, err := body.toServiceRequest()
	if err != nil {
		return writeError(c, err)
	}

	agreement, err := s.negotiation.CreateAgreement(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	artifact, err := s.negotiation.GetLatestArtifact(c.UserContext(), agreement.ID)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			log.Printf("Error loading artifact for agreement %s: %v", agreement.ID, err)
		}
		artifact = nil
	}

	return c.Status(fiber.StatusCreated).JSON(AgreementCreatedResponse{
		Agreement: agreement,
		QRPayload: QRPayload{
			VerificationURL: utils.BuildVerificationURL(agreement.ID, agreement.CurrentHash(), s.config.VerifyBaseURL),
		},
		Artifact: artifact,
	})
}

func (s *APIServer) handleListAgreements(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", services.DefaultListLimit)
	offset := c.QueryInt("offset", 0)
	if limit < 1 || limit > services.MaxListLimit {
		return badRequest(c, fmt.Sprintf("limit must be between 1 and %d", services.MaxListLimit))
	}
	if offset < 0 {
		return badRequest(c, "offset must not be negative")
	}

	agreements, err := s.negotiation.ListAgreements(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agreements)
}

func (s *APIServer) handleGetAgreement(c *fiber.Ctx) error {
	agreement, err := s.negotiation.GetAgreement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agreement)
}

func (s *APIServer) handleCounterAgreement(c *fiber.Ctx) error {
	var body CounterAgreementRequest
	if err := s.parseBody(c, &body); err != nil {
		return writeError(c, err)
	}

	overrides, err := body.toStructuredFields()
	if err != nil {
		return writeError(c, err)
	}

	agreement, err := s.negotiation.ProposeCounter(c.UserContext(), c.Params("id"), services.CounterRequest{
		ProposerLabel: body.ProposerLabel,
		Terms:         body.Terms,
		Notes:         body.CounterNotes,
		Overrides:     overrides,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agreement)
}

func (s *APIServer) handleAcceptAgreement(c *fiber.Ctx) error {
	var body AcceptAgreementRequest
	if err := s.parseBody(c, &body); err != nil {
		return writeError(c, err)
	}

	agreement, err := s.negotiation.AcceptAgreement(c.UserContext(), c.Params("id"), body.AccepterLabel)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agreement)
}

func (s *APIServer) handleDeclineAgreement(c *fiber.Ctx) error {
	var body DeclineAgreementRequest
	if err := s.parseBody(c, &body); err != nil {
		return writeError(c, err)
	}

	agreement, err := s.negotiation.DeclineAgreement(c.UserContext(), c.Params("id"), body.DeclinerLabel, body.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agreement)
}

func (s *APIServer) handleListEvents(c *fiber.Ctx) error {
	events, err := s.negotiation.ListEvents(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(events)
}

func (s *APIServer) handleListRevisions(c *fiber.Ctx) error {
	revisions, err := s.negotiation.ListRevisions(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(revisions)
}

// handleGetArtifact streams the latest receipt PDF.
func (s *APIServer) handleGetArtifact(c *fiber.Ctx) error {
	agreementID := c.Params("id")
	artifact, data, err := s.negotiation.ReadLatestArtifact(c.UserContext(), agreementID)
	if err != nil {
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, receipt.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s%s"`, agreementID, receipt.Extension))
	c.Set("X-Agreement-Hash", artifact.HashSnapshot)
	return c.Send(data)
}
