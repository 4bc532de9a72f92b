package models

import "time"

// Payment tracks a checkout session. Agreements reference it only by id.
type Payment struct {
	ID                string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Status            PaymentStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	AmountCents       int64         `gorm:"not null" json:"amount_cents"`
	Currency          string        `gorm:"type:varchar(10);not null;default:usd" json:"currency"`
	ExternalSessionID string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"external_session_id"`
	AgreementID       *string       `gorm:"type:varchar(36);index" json:"agreement_id"`
	Metadata          JSON          `gorm:"type:text" json:"metadata"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	PaidAt            *time.Time    `json:"paid_at"`
}
