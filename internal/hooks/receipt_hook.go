package hooks

import (
	"context"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"gorm.io/gorm"
)

type ReceiptHook struct {
	artifactService services.ArtifactService
}

// CanHandle implements Hook. Accept regenerates even when the hash did not move.
func (r *ReceiptHook) CanHandle(action services.TransitionAction) bool {
	return action == services.TransitionCreate || action == services.TransitionAccept
}

// OnTransition implements Hook.
func (r *ReceiptHook) OnTransition(ctx context.Context, tx *gorm.DB, action services.TransitionAction, agreement *models.Agreement) error {
	_, err := r.artifactService.WithTx(tx).GenerateArtifact(ctx, agreement)
	return err
}

func NewReceiptHook(artifactService services.ArtifactService) services.Hook {
	return &ReceiptHook{
		artifactService: artifactService,
	}
}
