package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// AgreementError is a machine-readable error class surfaced by the agreement core.
type AgreementError struct {
	Code    string
	Message string
}

func (e *AgreementError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AgreementError) Is(target error) bool {
	t, ok := target.(*AgreementError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new AgreementError with the same Code but a specific message.
func (e *AgreementError) WithMessage(msg string) *AgreementError {
	return &AgreementError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new AgreementError with a formatted message.
func (e *AgreementError) WithMessagef(format string, args ...any) *AgreementError {
	return &AgreementError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrNotFound          = &AgreementError{Code: "NOT_FOUND"}
	ErrInvalidTransition = &AgreementError{Code: "INVALID_TRANSITION"}
	ErrInvalidParty      = &AgreementError{Code: "INVALID_PARTY"}
	ErrPaymentNotReady   = &AgreementError{Code: "PAYMENT_NOT_READY"}
	ErrInvalidInput      = &AgreementError{Code: "INVALID_INPUT"}
)

// notFoundOr translates gorm's missing-row error into ErrNotFound and wraps everything else.
func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound.WithMessagef("%s %s not found", entity, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", entity, id, err)
}
