package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/actionkeeper/internal/services"
)

// statusForError maps an agreement error class to its HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidParty):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrPaymentNotReady):
		return fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusForError(err)

	var agreementErr *services.AgreementError
	if !errors.As(err, &agreementErr) {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{
			"error": "Internal server error",
			"code":  "INTERNAL",
		})
	}

	message := agreementErr.Message
	if message == "" {
		message = agreementErr.Code
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  agreementErr.Code,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return writeError(c, services.ErrInvalidInput.WithMessage(message))
}
