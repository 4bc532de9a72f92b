package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

type VerifyRequest struct {
	AgreementID string `json:"agreement_id" validate:"required"`
	Hash        string `json:"hash" validate:"required"`
}

type HashLookupResponse struct {
	Found         bool                   `json:"found"`
	AgreementID   string                 `json:"agreement_id"`
	Hash          *string                `json:"hash"`
	HashVersion   *string                `json:"hash_version"`
	AgreementType string                 `json:"agreement_type"`
	Status        models.AgreementStatus `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
}

func (s *APIServer) handleVerifyQuery(c *fiber.Ctx) error {
	id := c.Query("id")
	hash := c.Query("hash")
	if id == "" || hash == "" {
		return badRequest(c, "id and hash query parameters are required")
	}
	return s.verify(c, id, hash)
}

func (s *APIServer) handleVerifyBody(c *fiber.Ctx) error {
	var body VerifyRequest
	if err := s.parseBody(c, &body); err != nil {
		return writeError(c, err)
	}
	return s.verify(c, body.AgreementID, body.Hash)
}

// verify records a hash_verified event whether or not the hash matches.
func (s *APIServer) verify(c *fiber.Ctx, agreementID, hash string) error {
	result, err := s.negotiation.VerifyAgreement(c.UserContext(), agreementID, hash)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

func (s *APIServer) handleLookupByHash(c *fiber.Ctx) error {
	agreement, err := s.negotiation.LookupByHash(c.UserContext(), c.Params("hash"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return writeError(c, services.ErrNotFound.WithMessage("No agreement found with this hash"))
		}
		return writeError(c, err)
	}

	return c.JSON(HashLookupResponse{
		Found:         true,
		AgreementID:   agreement.ID,
		Hash:          agreement.Hash,
		HashVersion:   agreement.HashVersion,
		AgreementType: agreement.AgreementType,
		Status:        agreement.Status,
		CreatedAt:     agreement.CreatedAt,
	})
}
