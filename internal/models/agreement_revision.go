package models

import "time"

// AgreementRevision is an append-only snapshot of the terms taken at each negotiation step.
type AgreementRevision struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AgreementID   string    `gorm:"type:varchar(36);not null;index" json:"agreement_id"`
	Status        string    `gorm:"type:varchar(30);not null" json:"status"`
	ProposerLabel *string   `gorm:"type:varchar(100)" json:"proposer_label"`
	Terms         JSON      `gorm:"type:text;not null" json:"terms"`
	Notes         *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
