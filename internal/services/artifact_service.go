package services

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/actionkeeper/internal/blobstore"
	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/receipt"
	"github.com/rxtech-lab/actionkeeper/internal/utils"
	"gorm.io/gorm"
)

// ArtifactService renders, stores and indexes agreement receipts. Every generation adds a new row;
// the current receipt is the newest one.
type ArtifactService interface {
	GenerateArtifact(ctx context.Context, agreement *models.Agreement) (*models.AgreementArtifact, error)
	GetLatestArtifact(agreementID string) (*models.AgreementArtifact, error)
	ListArtifacts(agreementID string) ([]models.AgreementArtifact, error)
	ReadArtifact(ctx context.Context, artifact *models.AgreementArtifact) ([]byte, error)
	VerificationURL(agreement *models.Agreement) string
	WithTx(tx *gorm.DB) ArtifactService
}

type artifactService struct {
	db            *gorm.DB
	renderer      receipt.Renderer
	store         blobstore.Store
	verifyBaseURL string
	clock         Clock
}

func NewArtifactService(db *gorm.DB, renderer receipt.Renderer, store blobstore.Store, verifyBaseURL string, clock Clock) ArtifactService {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &artifactService{
		db:            db,
		renderer:      renderer,
		store:         store,
		verifyBaseURL: verifyBaseURL,
		clock:         clock,
	}
}

func (s *artifactService) WithTx(tx *gorm.DB) ArtifactService {
	return &artifactService{
		db:            tx,
		renderer:      s.renderer,
		store:         s.store,
		verifyBaseURL: s.verifyBaseURL,
		clock:         s.clock,
	}
}

func (s *artifactService) VerificationURL(agreement *models.Agreement) string {
	return utils.BuildVerificationURL(agreement.ID, agreement.CurrentHash(), s.verifyBaseURL)
}

// artifactKey groups receipts by agreement and names them after the hash they certify.
func artifactKey(agreementID, hash string) string {
	return agreementID + "/" + hash + receipt.Extension
}

func (s *artifactService) GenerateArtifact(ctx context.Context, agreement *models.Agreement) (*models.AgreementArtifact, error) {
	hash := agreement.CurrentHash()
	if hash == "" {
		return nil, fmt.Errorf("agreement %s has no hash to certify", agreement.ID)
	}

	verificationURL := s.VerificationURL(agreement)
	data, err := s.renderer.Render(receipt.Fields{
		AgreementID:     agreement.ID,
		AgreementType:   agreement.AgreementType,
		Status:          string(agreement.Status),
		Hash:            hash,
		VerificationURL: verificationURL,
		Terms:           map[string]interface{}(agreement.Terms),
		CreatedAt:       agreement.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt for agreement %s: %w", agreement.ID, err)
	}

	key := artifactKey(agreement.ID, hash)
	location, err := s.store.Put(ctx, key, receipt.ContentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store receipt for agreement %s: %w", agreement.ID, err)
	}

	artifact := &models.AgreementArtifact{
		AgreementID:     agreement.ID,
		StorageKey:      key,
		FilePath:        location,
		VerificationURL: verificationURL,
		HashSnapshot:    hash,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.db.Create(artifact).Error; err != nil {
		return nil, fmt.Errorf("failed to record receipt for agreement %s: %w", agreement.ID, err)
	}
	return artifact, nil
}

func (s *artifactService) GetLatestArtifact(agreementID string) (*models.AgreementArtifact, error) {
	var artifact models.AgreementArtifact
	err := s.db.Where("agreement_id = ?", agreementID).Order("created_at DESC").Order("id DESC").First(&artifact).Error
	if err != nil {
		return nil, notFoundOr(err, "artifact for agreement", agreementID)
	}
	return &artifact, nil
}

func (s *artifactService) ListArtifacts(agreementID string) ([]models.AgreementArtifact, error) {
	var artifacts []models.AgreementArtifact
	err := s.db.Where("agreement_id = ?", agreementID).Order("created_at ASC").Order("id ASC").Find(&artifacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts for agreement %s: %w", agreementID, err)
	}
	return artifacts, nil
}

func (s *artifactService) ReadArtifact(ctx context.Context, artifact *models.AgreementArtifact) ([]byte, error) {
	data, err := s.store.Get(ctx, artifact.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt %s: %w", artifact.StorageKey, err)
	}
	return data, nil
}
