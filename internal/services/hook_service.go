package services

import (
	"context"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"gorm.io/gorm"
)

type HookService interface {
	AddHook(hook Hook) error
	OnTransition(ctx context.Context, tx *gorm.DB, action TransitionAction, agreement *models.Agreement) error
}

type hookService struct {
	hooks []Hook
}

func NewHookService() HookService {
	return &hookService{
		hooks: []Hook{},
	}
}

func (h *hookService) AddHook(hook Hook) error {
	h.hooks = append(h.hooks, hook)
	return nil
}

// OnTransition runs matching hooks in registration order and stops at the first error.
func (h *hookService) OnTransition(ctx context.Context, tx *gorm.DB, action TransitionAction, agreement *models.Agreement) error {
	for _, hook := range h.hooks {
		if hook.CanHandle(action) {
			if err := hook.OnTransition(ctx, tx, action, agreement); err != nil {
				return err
			}
		}
	}
	return nil
}
