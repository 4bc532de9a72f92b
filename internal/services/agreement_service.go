package services

import (
	"fmt"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// AgreementService is the storage layer for agreements.
type AgreementService interface {
	CreateAgreement(agreement *models.Agreement) error
	GetAgreement(id string) (*models.Agreement, error)
	GetAgreementByHash(hash string) (*models.Agreement, error)
	ListAgreements(limit, offset int) ([]models.Agreement, error)
	UpdateAgreement(agreement *models.Agreement) error
	WithTx(tx *gorm.DB) AgreementService
}

type agreementService struct {
	db *gorm.DB
}

func NewAgreementService(db *gorm.DB) AgreementService {
	return &agreementService{db: db}
}

func (s *agreementService) WithTx(tx *gorm.DB) AgreementService {
	return &agreementService{db: tx}
}

func (s *agreementService) CreateAgreement(agreement *models.Agreement) error {
	if err := s.db.Create(agreement).Error; err != nil {
		return fmt.Errorf("failed to create agreement: %w", err)
	}
	return nil
}

func (s *agreementService) GetAgreement(id string) (*models.Agreement, error) {
	var agreement models.Agreement
	if err := s.db.First(&agreement, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "agreement", id)
	}
	return &agreement, nil
}

// GetAgreementByHash returns the oldest agreement carrying hash.
func (s *agreementService) GetAgreementByHash(hash string) (*models.Agreement, error) {
	var agreement models.Agreement
	err := s.db.Where("hash = ?", hash).Order("created_at ASC").Order("id ASC").First(&agreement).Error
	if err != nil {
		return nil, notFoundOr(err, "agreement with hash", hash)
	}
	return &agreement, nil
}

func (s *agreementService) ListAgreements(limit, offset int) ([]models.Agreement, error) {
	limit, offset = ClampPage(limit, offset)

	var agreements []models.Agreement
	err := s.db.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&agreements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list agreements: %w", err)
	}
	return agreements, nil
}

// UpdateAgreement writes every column, including cleared ones.
func (s *agreementService) UpdateAgreement(agreement *models.Agreement) error {
	if err := s.db.Save(agreement).Error; err != nil {
		return fmt.Errorf("failed to update agreement %s: %w", agreement.ID, err)
	}
	return nil
}

// ClampPage applies the default page size and bounds.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
