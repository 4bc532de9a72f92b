package models

import "time"

// Event is an immutable audit record. Rows are only ever inserted.
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AgreementID string    `gorm:"type:varchar(36);not null;index" json:"agreement_id"`
	EventType   EventType `gorm:"type:varchar(50);not null" json:"event_type"`
	Payload     JSON      `gorm:"type:text;not null" json:"payload"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
