package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/utils"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

const (
	NegotiationActionCounter  = "counter"
	NegotiationActionAccepted = "accepted"
)

// counterDiffKeys are the terms keys compared between the committed terms and a counter-offer.
var counterDiffKeys = []string{"stake_pct", "markup", "buy_in_amount", "payout_basis", "bullet_cap"}

type CreateAgreementRequest struct {
	AgreementType string      `json:"agreement_type,omitempty"`
	TermsVersion  string      `json:"terms_version"`
	Terms         models.JSON `json:"terms"`
	PaymentID     string      `json:"payment_id"`
	ProposerLabel *string     `json:"proposer_label,omitempty"`
	PartyALabel   *string     `json:"party_a_label,omitempty"`
	PartyBLabel   *string     `json:"party_b_label,omitempty"`
	// NegotiationAction selects the initial state: "counter", "accepted", anything else is draft.
	NegotiationAction string           `json:"negotiation_action,omitempty"`
	CounterNotes      *string          `json:"counter_notes,omitempty"`
	Overrides         StructuredFields `json:"overrides"`
}

type CounterRequest struct {
	ProposerLabel string           `json:"proposer_label"`
	Terms         models.JSON      `json:"terms"`
	Notes         *string          `json:"counter_notes,omitempty"`
	Overrides     StructuredFields `json:"overrides"`
}

type AgreementSummary struct {
	AgreementType string                 `json:"agreement_type"`
	Status        models.AgreementStatus `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
}

type VerificationResult struct {
	Valid            bool             `json:"valid"`
	AgreementID      string           `json:"agreement_id"`
	StoredHash       string           `json:"stored_hash"`
	ProvidedHash     string           `json:"provided_hash"`
	HashVersion      string           `json:"hash_version"`
	VerifiedAt       time.Time        `json:"verified_at"`
	AgreementSummary AgreementSummary `json:"agreement_summary"`
}

// NegotiationService owns the agreement lifecycle: creation behind the payment gate, counter-offers,
// two-party acceptance, decline, and hash verification.
type NegotiationService interface {
	CreateAgreement(ctx context.Context, req CreateAgreementRequest) (*models.Agreement, error)
	ProposeCounter(ctx context.Context, agreementID string, req CounterRequest) (*models.Agreement, error)
	AcceptAgreement(ctx context.Context, agreementID string, accepterLabel string) (*models.Agreement, error)
	DeclineAgreement(ctx context.Context, agreementID string, declinerLabel string, reason *string) (*models.Agreement, error)
	VerifyAgreement(ctx context.Context, agreementID string, providedHash string) (*VerificationResult, error)
	LookupByHash(ctx context.Context, hash string) (*models.Agreement, error)
	GetAgreement(ctx context.Context, agreementID string) (*models.Agreement, error)
	ListAgreements(ctx context.Context, limit, offset int) ([]models.Agreement, error)
	ListEvents(ctx context.Context, agreementID string) ([]models.Event, error)
	ListRevisions(ctx context.Context, agreementID string) ([]models.AgreementRevision, error)
	GetLatestArtifact(ctx context.Context, agreementID string) (*models.AgreementArtifact, error)
	ReadLatestArtifact(ctx context.Context, agreementID string) (*models.AgreementArtifact, []byte, error)
}

// NegotiationDeps wires the negotiation core. DB, Events and Payments are required. Revisions, Artifacts and
// Hooks are optional; a nil one turns its step into a no-op. Clock and IDs default to the system ones.
type NegotiationDeps struct {
	DB         *gorm.DB
	Clock      Clock
	IDs        IDGenerator
	Agreements AgreementService
	Events     EventService
	Payments   PaymentService
	Revisions  RevisionService
	Artifacts  ArtifactService
	Hooks      HookService
	// MeterProvider receives transition and verification counters. Nil uses the global provider.
	MeterProvider metric.MeterProvider
	// PaymentBypassToken, when set, is a payment id that skips the payment gate. Leave empty in production.
	PaymentBypassToken string
}

type negotiationService struct {
	db          *gorm.DB
	clock       Clock
	ids         IDGenerator
	agreements  AgreementService
	events      EventService
	payments    PaymentService
	revisions   RevisionService
	artifacts   ArtifactService
	hooks       HookService
	bypassToken string
	locks       *agreementLocks
	metrics     *negotiationMetrics
}

func NewNegotiationService(deps NegotiationDeps) (NegotiationService, error) {
	if deps.DB == nil {
		return nil, errors.New("negotiation service requires a database")
	}
	if deps.Events == nil {
		return nil, errors.New("negotiation service requires an event service")
	}
	if deps.Payments == nil {
		return nil, errors.New("negotiation service requires a payment service")
	}
	if deps.Clock == nil {
		deps.Clock = NewSystemClock()
	}
	if deps.IDs == nil {
		deps.IDs = NewUUIDGenerator()
	}
	if deps.Agreements == nil {
		deps.Agreements = NewAgreementService(deps.DB)
	}

	return &negotiationService{
		db:          deps.DB,
		clock:       deps.Clock,
		ids:         deps.IDs,
		agreements:  deps.Agreements,
		events:      deps.Events,
		payments:    deps.Payments,
		revisions:   deps.Revisions,
		artifacts:   deps.Artifacts,
		hooks:       deps.Hooks,
		bypassToken: deps.PaymentBypassToken,
		locks:       newAgreementLocks(),
		metrics:     newNegotiationMetrics(deps.MeterProvider),
	}, nil
}

// IsPaymentBypass reports whether paymentID is the configured gate bypass token.
func IsPaymentBypass(paymentID, bypassToken string) bool {
	return bypassToken != "" && paymentID == bypassToken
}

func (s *negotiationService) CreateAgreement(ctx context.Context, req CreateAgreementRequest) (*models.Agreement, error) {
	if strings.TrimSpace(req.TermsVersion) == "" {
		return nil, ErrInvalidInput.WithMessage("terms_version is required")
	}
	if req.Terms == nil {
		return nil, ErrInvalidInput.WithMessage("terms are required")
	}

	terms := req.Terms.Clone()
	structured := HydrateStructuredFields(req.Overrides, terms)

	state := models.NegotiationStateDraft
	var pending models.JSON
	switch req.NegotiationAction {
	case NegotiationActionCounter:
		state = models.NegotiationStateCountered
		pending = terms.Clone()
	case NegotiationActionAccepted:
		state = models.NegotiationStateAwaitingConfirmation
	}

	agreementType := strings.TrimSpace(req.AgreementType)
	if agreementType == "" {
		agreementType = models.DefaultAgreementType
	}

	now := s.clock.Now()
	agreement := &models.Agreement{
		ID:               s.ids.NewID(),
		AgreementType:    agreementType,
		TermsVersion:     req.TermsVersion,
		Terms:            terms,
		Status:           state.DerivedStatus(),
		NegotiationState: state,
		PendingTerms:     pending,
		LastProposedBy:   req.ProposerLabel,
		PartyALabel:      labelOrTerm(req.PartyALabel, terms, "party_a_label"),
		PartyBLabel:      labelOrTerm(req.PartyBLabel, terms, "party_b_label"),
		FundsLoggedAt:    structured.FundsLoggedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.PaymentID != "" {
		paymentID := req.PaymentID
		agreement.PaymentID = &paymentID
	}
	structured.applyHashedFields(agreement)

	unlock := s.locks.Lock(agreement.ID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !IsPaymentBypass(req.PaymentID, s.bypassToken) {
			if _, err := s.payments.WithTx(tx).RequirePaid(req.PaymentID); err != nil {
				return err
			}
		} else {
			log.Printf("Payment gate bypassed for agreement %s", agreement.ID)
		}

		if err := rehash(agreement); err != nil {
			return err
		}
		if err := s.agreements.WithTx(tx).CreateAgreement(agreement); err != nil {
			return err
		}
		if err := s.runHooks(ctx, tx, TransitionCreate, agreement); err != nil {
			return err
		}
		if err := s.appendRevision(tx, agreement.ID, string(state), req.ProposerLabel, terms, req.CounterNotes); err != nil {
			return err
		}

		events := s.events.WithTx(tx)
		_, err := events.AppendEvent(agreement.ID, creationEventType(state), models.JSON{
			"hash":              agreement.CurrentHash(),
			"hash_version":      utils.HashVersion,
			"negotiation_state": string(state),
			"proposer":          derefAny(req.ProposerLabel),
			"structured":        structured.summary(),
		})
		if err != nil {
			return err
		}

		if agreement.FundsLoggedAt != nil {
			_, err := events.AppendEvent(agreement.ID, models.EventTypeFundsLogged, models.JSON{
				"funds_logged_at": formatInstant(agreement.FundsLoggedAt),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Failed to create agreement: %v", err)
		return nil, err
	}

	s.metrics.transition(ctx, TransitionCreate)
	return agreement, nil
}

func (s *negotiationService) ProposeCounter(ctx context.Context, agreementID string, req CounterRequest) (*models.Agreement, error) {
	if req.Terms == nil {
		return nil, ErrInvalidInput.WithMessage("terms are required")
	}

	agreement, err := s.mutate(ctx, agreementID, TransitionCounter, func(tx *gorm.DB, agreement *models.Agreement) error {
		if agreement.NegotiationState.IsTerminal() {
			return ErrInvalidTransition.WithMessagef("cannot counter an agreement that is %s", agreement.NegotiationState)
		}

		oldTerms := agreement.Terms
		newTerms := req.Terms.Clone()
		proposer := req.ProposerLabel

		agreement.PendingTerms = newTerms
		agreement.LastProposedBy = &proposer
		agreement.NegotiationState = models.NegotiationStateCountered
		agreement.Status = agreement.NegotiationState.DerivedStatus()
		agreement.PartyAConfirmedAt = nil
		agreement.PartyBConfirmedAt = nil
		HydrateStructuredFields(req.Overrides, newTerms).applyHashedFields(agreement)
		// the hash keeps certifying the committed terms until the counter-offer is accepted

		if err := s.agreements.WithTx(tx).UpdateAgreement(agreement); err != nil {
			return err
		}
		if err := s.runHooks(ctx, tx, TransitionCounter, agreement); err != nil {
			return err
		}
		if err := s.appendRevision(tx, agreement.ID, string(models.NegotiationStateCountered), &proposer, newTerms, req.Notes); err != nil {
			return err
		}

		_, err := s.events.WithTx(tx).AppendEvent(agreement.ID, models.EventTypeNegotiationCountered, models.JSON{
			"proposer":      proposer,
			"notes":         derefAny(req.Notes),
			"pending_terms": map[string]interface{}(newTerms.Clone()),
			"diff":          diffTerms(oldTerms, newTerms),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return agreement, nil
}

func (s *negotiationService) AcceptAgreement(ctx context.Context, agreementID string, accepterLabel string) (*models.Agreement, error) {
	return s.mutate(ctx, agreementID, TransitionAccept, func(tx *gorm.DB, agreement *models.Agreement) error {
		if agreement.NegotiationState == models.NegotiationStateDeclined {
			return ErrInvalidTransition.WithMessage("cannot accept a declined agreement")
		}
		party, err := matchParty(agreement, accepterLabel)
		if err != nil {
			return err
		}

		fromState := agreement.NegotiationState
		if fromState == models.NegotiationStateCountered && agreement.PendingTerms != nil {
			agreement.Terms = agreement.PendingTerms
			agreement.PendingTerms = nil
		}

		now := s.clock.Now()
		if party == partyA {
			agreement.PartyAConfirmedAt = &now
		} else {
			agreement.PartyBConfirmedAt = &now
		}

		bothConfirmed := agreement.BothConfirmed()
		if bothConfirmed {
			agreement.NegotiationState = models.NegotiationStateAccepted
		} else {
			agreement.NegotiationState = models.NegotiationStateAwaitingConfirmation
		}
		agreement.Status = agreement.NegotiationState.DerivedStatus()

		if err := rehash(agreement); err != nil {
			return err
		}
		if err := s.agreements.WithTx(tx).UpdateAgreement(agreement); err != nil {
			return err
		}
		if err := s.runHooks(ctx, tx, TransitionAccept, agreement); err != nil {
			return err
		}
		if err := s.appendRevision(tx, agreement.ID, string(models.NegotiationStateAccepted), &accepterLabel, agreement.Terms, nil); err != nil {
			return err
		}

		_, err = s.events.WithTx(tx).AppendEvent(agreement.ID, models.EventTypeAgreementAccepted, models.JSON{
			"accepter":          accepterLabel,
			"both_confirmed":    bothConfirmed,
			"from_state":        string(fromState),
			"negotiation_state": string(agreement.NegotiationState),
			"hash":              agreement.CurrentHash(),
		})
		return err
	})
}

func (s *negotiationService) DeclineAgreement(ctx context.Context, agreementID string, declinerLabel string, reason *string) (*models.Agreement, error) {
	return s.mutate(ctx, agreementID, TransitionDecline, func(tx *gorm.DB, agreement *models.Agreement) error {
		if agreement.NegotiationState.IsTerminal() {
			return ErrInvalidTransition.WithMessagef("cannot decline an agreement that is %s", agreement.NegotiationState)
		}
		if _, err := matchParty(agreement, declinerLabel); err != nil {
			return err
		}

		agreement.NegotiationState = models.NegotiationStateDeclined
		agreement.Status = agreement.NegotiationState.DerivedStatus()
		agreement.PendingTerms = nil

		if err := rehash(agreement); err != nil {
			return err
		}
		if err := s.agreements.WithTx(tx).UpdateAgreement(agreement); err != nil {
			return err
		}
		if err := s.runHooks(ctx, tx, TransitionDecline, agreement); err != nil {
			return err
		}
		if err := s.appendRevision(tx, agreement.ID, string(models.NegotiationStateDeclined), &declinerLabel, agreement.Terms, nil); err != nil {
			return err
		}

		_, err := s.events.WithTx(tx).AppendEvent(agreement.ID, models.EventTypeAgreementDeclined, models.JSON{
			"decliner": declinerLabel,
			"reason":   derefAny(reason),
		})
		return err
	})
}

func (s *negotiationService) VerifyAgreement(ctx context.Context, agreementID string, providedHash string) (*VerificationResult, error) {
	var result *VerificationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agreement, err := s.agreements.WithTx(tx).GetAgreement(agreementID)
		if err != nil {
			return err
		}

		stored := agreement.CurrentHash()
		hashVersion := utils.HashVersion
		if agreement.HashVersion != nil {
			hashVersion = *agreement.HashVersion
		}
		result = &VerificationResult{
			Valid:        stored != "" && stored == providedHash,
			AgreementID:  agreement.ID,
			StoredHash:   stored,
			ProvidedHash: providedHash,
			HashVersion:  hashVersion,
			VerifiedAt:   s.clock.Now(),
			AgreementSummary: AgreementSummary{
				AgreementType: agreement.AgreementType,
				Status:        agreement.Status,
				CreatedAt:     agreement.CreatedAt,
			},
		}

		_, err = s.events.WithTx(tx).AppendEvent(agreement.ID, models.EventTypeHashVerified, models.JSON{
			"valid":         result.Valid,
			"provided_hash": providedHash,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.verification(ctx, result.Valid)
	return result, nil
}

func (s *negotiationService) LookupByHash(ctx context.Context, hash string) (*models.Agreement, error) {
	return s.agreements.WithTx(s.db.WithContext(ctx)).GetAgreementByHash(hash)
}

func (s *negotiationService) GetAgreement(ctx context.Context, agreementID string) (*models.Agreement, error) {
	return s.agreements.WithTx(s.db.WithContext(ctx)).GetAgreement(agreementID)
}

func (s *negotiationService) ListAgreements(ctx context.Context, limit, offset int) ([]models.Agreement, error) {
	return s.agreements.WithTx(s.db.WithContext(ctx)).ListAgreements(limit, offset)
}

// ListEvents returns the audit trail oldest first, or ErrNotFound for an unknown agreement.
func (s *negotiationService) ListEvents(ctx context.Context, agreementID string) ([]models.Event, error) {
	if _, err := s.GetAgreement(ctx, agreementID); err != nil {
		return nil, err
	}
	return s.events.WithTx(s.db.WithContext(ctx)).ListEventsByAgreement(agreementID)
}

func (s *negotiationService) ListRevisions(ctx context.Context, agreementID string) ([]models.AgreementRevision, error) {
	if _, err := s.GetAgreement(ctx, agreementID); err != nil {
		return nil, err
	}
	if s.revisions == nil {
		return []models.AgreementRevision{}, nil
	}
	return s.revisions.WithTx(s.db.WithContext(ctx)).ListRevisionsByAgreement(agreementID)
}

func (s *negotiationService) GetLatestArtifact(ctx context.Context, agreementID string) (*models.AgreementArtifact, error) {
	if s.artifacts == nil {
		return nil, ErrNotFound.WithMessagef("artifact for agreement %s not found", agreementID)
	}
	return s.artifacts.WithTx(s.db.WithContext(ctx)).GetLatestArtifact(agreementID)
}

func (s *negotiationService) ReadLatestArtifact(ctx context.Context, agreementID string) (*models.AgreementArtifact, []byte, error) {
	artifact, err := s.GetLatestArtifact(ctx, agreementID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.artifacts.ReadArtifact(ctx, artifact)
	if err != nil {
		return nil, nil, err
	}
	return artifact, data, nil
}

// mutate runs fn against a freshly loaded agreement while holding the agreement's lock, inside one transaction.
func (s *negotiationService) mutate(ctx context.Context, agreementID string, action TransitionAction, fn func(tx *gorm.DB, agreement *models.Agreement) error) (*models.Agreement, error) {
	unlock := s.locks.Lock(agreementID)
	defer unlock()

	var result *models.Agreement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agreement, err := s.agreements.WithTx(tx).GetAgreement(agreementID)
		if err != nil {
			return err
		}
		if err := fn(tx, agreement); err != nil {
			return err
		}
		result = agreement
		return nil
	})
	if err != nil {
		log.Printf("Failed to %s agreement %s: %v", action, agreementID, err)
		return nil, err
	}

	s.metrics.transition(ctx, action)
	return result, nil
}

func (s *negotiationService) runHooks(ctx context.Context, tx *gorm.DB, action TransitionAction, agreement *models.Agreement) error {
	if s.hooks == nil {
		return nil
	}
	if err := s.hooks.OnTransition(ctx, tx, action, agreement); err != nil {
		return fmt.Errorf("%s hook failed for agreement %s: %w", action, agreement.ID, err)
	}
	return nil
}

func (s *negotiationService) appendRevision(tx *gorm.DB, agreementID string, status string, proposer *string, terms models.JSON, notes *string) error {
	if s.revisions == nil {
		return nil
	}
	_, err := s.revisions.WithTx(tx).AppendRevision(agreementID, status, proposer, terms, notes)
	return err
}

func rehash(agreement *models.Agreement) error {
	hash, err := utils.ComputeAgreementHash(agreement.HashableData())
	if err != nil {
		return fmt.Errorf("failed to hash agreement %s: %w", agreement.ID, err)
	}
	version := utils.HashVersion
	agreement.Hash = &hash
	agreement.HashVersion = &version
	return nil
}

func creationEventType(state models.NegotiationState) models.EventType {
	switch state {
	case models.NegotiationStateCountered:
		return models.EventTypeNegotiationCountered
	case models.NegotiationStateAwaitingConfirmation:
		return models.EventTypeAwaitingConfirmation
	default:
		return models.EventTypeAgreementCreated
	}
}

type party int

const (
	partyA party = iota
	partyB
)

// matchParty compares label exactly against the registered party labels, party A first.
func matchParty(agreement *models.Agreement, label string) (party, error) {
	if agreement.PartyALabel != nil && *agreement.PartyALabel == label {
		return partyA, nil
	}
	if agreement.PartyBLabel != nil && *agreement.PartyBLabel == label {
		return partyB, nil
	}
	return 0, ErrInvalidParty.WithMessagef("%q is not a party to agreement %s", label, agreement.ID)
}

func labelOrTerm(label *string, terms models.JSON, key string) *string {
	if label != nil && *label != "" {
		return label
	}
	if v, ok := parseString(terms[key]); ok {
		return &v
	}
	return nil
}

// diffTerms reports {from, to} for every tracked key whose canonical value changed.
func diffTerms(oldTerms, newTerms models.JSON) map[string]interface{} {
	diff := map[string]interface{}{}
	for _, key := range counterDiffKeys {
		from, to := oldTerms[key], newTerms[key]
		if sameCanonical(from, to) {
			continue
		}
		diff[key] = map[string]interface{}{"from": from, "to": to}
	}
	return diff
}

func sameCanonical(a, b interface{}) bool {
	ca, errA := utils.CanonicalJSON(a)
	cb, errB := utils.CanonicalJSON(b)
	if errA != nil || errB != nil {
		return false
	}
	return ca == cb
}
