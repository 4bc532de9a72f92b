package services

import (
	"fmt"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"gorm.io/gorm"
)

// EventService appends to and reads the append-only agreement audit log.
type EventService interface {
	AppendEvent(agreementID string, eventType models.EventType, payload models.JSON) (*models.Event, error)
	ListEventsByAgreement(agreementID string) ([]models.Event, error)
	WithTx(tx *gorm.DB) EventService
}

type eventService struct {
	db    *gorm.DB
	clock Clock
}

func NewEventService(db *gorm.DB, clock Clock) EventService {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &eventService{db: db, clock: clock}
}

func (s *eventService) WithTx(tx *gorm.DB) EventService {
	return &eventService{db: tx, clock: s.clock}
}

func (s *eventService) AppendEvent(agreementID string, eventType models.EventType, payload models.JSON) (*models.Event, error) {
	if payload == nil {
		payload = models.JSON{}
	}
	event := &models.Event{
		AgreementID: agreementID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.db.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to append %s event for agreement %s: %w", eventType, agreementID, err)
	}
	return event, nil
}

// ListEventsByAgreement returns events oldest first.
func (s *eventService) ListEventsByAgreement(agreementID string) ([]models.Event, error) {
	var events []models.Event
	err := s.db.Where("agreement_id = ?", agreementID).Order("created_at ASC").Order("id ASC").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for agreement %s: %w", agreementID, err)
	}
	return events, nil
}
