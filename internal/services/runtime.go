package services

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current UTC time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique opaque identifiers for new entities.
type IDGenerator interface {
	NewID() string
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type uuidGenerator struct{}

// NewUUIDGenerator returns an IDGenerator producing random v4 UUIDs
func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	return uuid.New().String()
}
