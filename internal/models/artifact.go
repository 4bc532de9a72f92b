package models

import "time"

// AgreementArtifact points at a generated receipt for one hash snapshot. A new row is written for every
// generation; the most recent one is the current receipt.
type AgreementArtifact struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AgreementID     string    `gorm:"type:varchar(36);not null;index" json:"agreement_id"`
	StorageKey      string    `gorm:"type:varchar(255);not null" json:"storage_key"`
	FilePath        string    `gorm:"type:varchar(512);not null" json:"file_path"`
	VerificationURL string    `gorm:"type:varchar(512);not null" json:"verification_url"`
	HashSnapshot    string    `gorm:"type:varchar(64);not null" json:"hash_snapshot"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}
