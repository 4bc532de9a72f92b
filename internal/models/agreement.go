package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultAgreementType = "poker_staking"
	DefaultPayoutBasis   = "gross_payout"
)

// Agreement is the negotiable contract record. Terms is the free-form payload; the structured fields mirror
// values parsed out of it so they can be queried.
type Agreement struct {
	ID               string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AgreementType    string           `gorm:"type:varchar(50);not null;default:poker_staking" json:"agreement_type"`
	TermsVersion     string           `gorm:"type:varchar(50);not null" json:"terms_version"`
	Terms            JSON             `gorm:"type:text;not null" json:"terms"`
	Status           AgreementStatus  `gorm:"type:varchar(20);not null;default:draft" json:"status"`
	NegotiationState NegotiationState `gorm:"type:varchar(30);not null;default:draft" json:"negotiation_state"`
	PendingTerms     JSON             `gorm:"type:text" json:"pending_terms"`
	LastProposedBy   *string          `gorm:"type:varchar(100)" json:"last_proposed_by"`

	PaymentID   *string `gorm:"type:varchar(64);index" json:"payment_id"`
	Hash        *string `gorm:"type:varchar(64);index" json:"hash"`
	HashVersion *string `gorm:"type:varchar(10)" json:"hash_version"`

	PayoutBasis      string          `gorm:"type:varchar(30);not null;default:gross_payout" json:"payout_basis"`
	StakePercent     *float64        `json:"stake_percent"`
	BuyInAmountCents *int64          `json:"buy_in_amount_cents"`
	BulletCap        *int            `json:"bullet_cap"`
	EventDate        *datatypes.Date `gorm:"type:date" json:"event_date"`
	DueDate          *datatypes.Date `gorm:"type:date" json:"due_date"`

	PartyALabel       *string    `gorm:"type:varchar(100)" json:"party_a_label"`
	PartyBLabel       *string    `gorm:"type:varchar(100)" json:"party_b_label"`
	PartyAConfirmedAt *time.Time `json:"party_a_confirmed_at"`
	PartyBConfirmedAt *time.Time `json:"party_b_confirmed_at"`
	FundsLoggedAt     *time.Time `json:"funds_logged_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Revisions []AgreementRevision `gorm:"foreignKey:AgreementID;constraint:OnDelete:CASCADE" json:"-"`
	Events    []Event             `gorm:"foreignKey:AgreementID;constraint:OnDelete:CASCADE" json:"-"`
}

// HashableData returns the projection fed to the canonical hasher. Pending terms, party labels, confirmations
// and timestamps are deliberately left out.
func (a *Agreement) HashableData() map[string]interface{} {
	return map[string]interface{}{
		"agreement_type":      a.AgreementType,
		"terms_version":       a.TermsVersion,
		"terms":               map[string]interface{}(a.Terms),
		"status":              string(a.Status),
		"payout_basis":        a.PayoutBasis,
		"stake_percent":       derefOrNil(a.StakePercent),
		"buy_in_amount_cents": derefOrNil(a.BuyInAmountCents),
		"bullet_cap":          derefOrNil(a.BulletCap),
		"event_date":          formatDate(a.EventDate),
		"due_date":            formatDate(a.DueDate),
	}
}

// BothConfirmed reports whether both parties have stamped a confirmation.
func (a *Agreement) BothConfirmed() bool {
	return a.PartyAConfirmedAt != nil && a.PartyBConfirmedAt != nil
}

// CurrentHash returns the stored hash or an empty string.
func (a *Agreement) CurrentHash() string {
	if a.Hash == nil {
		return ""
	}
	return *a.Hash
}

func derefOrNil[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func formatDate(d *datatypes.Date) interface{} {
	if d == nil {
		return nil
	}
	return time.Time(*d).Format("2006-01-02")
}
