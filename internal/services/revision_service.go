package services

import (
	"fmt"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"gorm.io/gorm"
)

// RevisionService stores immutable terms snapshots, one per negotiation step.
type RevisionService interface {
	AppendRevision(agreementID string, status string, proposer *string, terms models.JSON, notes *string) (*models.AgreementRevision, error)
	ListRevisionsByAgreement(agreementID string) ([]models.AgreementRevision, error)
	WithTx(tx *gorm.DB) RevisionService
}

type revisionService struct {
	db    *gorm.DB
	clock Clock
}

func NewRevisionService(db *gorm.DB, clock Clock) RevisionService {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &revisionService{db: db, clock: clock}
}

func (s *revisionService) WithTx(tx *gorm.DB) RevisionService {
	return &revisionService{db: tx, clock: s.clock}
}

func (s *revisionService) AppendRevision(agreementID string, status string, proposer *string, terms models.JSON, notes *string) (*models.AgreementRevision, error) {
	snapshot := terms.Clone()
	if snapshot == nil {
		snapshot = models.JSON{}
	}
	revision := &models.AgreementRevision{
		AgreementID:   agreementID,
		Status:        status,
		ProposerLabel: proposer,
		Terms:         snapshot,
		Notes:         notes,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.db.Create(revision).Error; err != nil {
		return nil, fmt.Errorf("failed to append revision for agreement %s: %w", agreementID, err)
	}
	return revision, nil
}

func (s *revisionService) ListRevisionsByAgreement(agreementID string) ([]models.AgreementRevision, error) {
	var revisions []models.AgreementRevision
	err := s.db.Where("agreement_id = ?", agreementID).Order("created_at ASC").Order("id ASC").Find(&revisions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions for agreement %s: %w", agreementID, err)
	}
	return revisions, nil
}
