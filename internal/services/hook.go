package services

import (
	"context"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"gorm.io/gorm"
)

// TransitionAction names the negotiation operation that produced a state change.
type TransitionAction string

const (
	TransitionCreate  TransitionAction = "create"
	TransitionCounter TransitionAction = "counter"
	TransitionAccept  TransitionAction = "accept"
	TransitionDecline TransitionAction = "decline"
)

// Hook is used to perform side effects after an agreement transition has been persisted and hashed
type Hook interface {
	// CanHandle is used to check if the hook cares about the action
	CanHandle(action TransitionAction) bool
	// OnTransition runs inside the transition's transaction. Returning an error rolls the transition back.
	OnTransition(ctx context.Context, tx *gorm.DB, action TransitionAction, agreement *models.Agreement) error
}
