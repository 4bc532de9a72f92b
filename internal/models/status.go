package models

type AgreementStatus string

type NegotiationState string

type PaymentStatus string

type EventType string

const (
	AgreementStatusDraft     AgreementStatus = "draft"
	AgreementStatusActive    AgreementStatus = "active"
	AgreementStatusCancelled AgreementStatus = "cancelled"
)

const (
	NegotiationStateDraft                NegotiationState = "draft"
	NegotiationStateCountered            NegotiationState = "countered"
	NegotiationStateAwaitingConfirmation NegotiationState = "awaiting_confirmation"
	NegotiationStateAccepted             NegotiationState = "accepted"
	NegotiationStateDeclined             NegotiationState = "declined"
)

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

const (
	EventTypeAgreementCreated     EventType = "agreement_created"
	EventTypeNegotiationCountered EventType = "negotiation_countered"
	EventTypeAwaitingConfirmation EventType = "awaiting_confirmation"
	EventTypeAgreementAccepted    EventType = "agreement_accepted"
	EventTypeAgreementDeclined    EventType = "agreement_declined"
	EventTypeHashVerified         EventType = "hash_verified"
	EventTypeFundsLogged          EventType = "funds_logged"
)

// IsTerminal reports whether no further negotiation is possible.
func (s NegotiationState) IsTerminal() bool {
	return s == NegotiationStateAccepted || s == NegotiationStateDeclined
}

// DerivedStatus maps a negotiation state to the user-facing agreement status.
func (s NegotiationState) DerivedStatus() AgreementStatus {
	switch s {
	case NegotiationStateAccepted:
		return AgreementStatusActive
	case NegotiationStateDeclined:
		return AgreementStatusCancelled
	default:
		return AgreementStatusDraft
	}
}
