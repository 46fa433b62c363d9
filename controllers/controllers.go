package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-queue/services"
)

var (
	Ledger     *services.QueueLedger
	Registry   *services.AvailabilityRegistry
	Calculator *services.PositionCalculator
)

// Init wires the handler package to the queue services. Called once from
// main after the database connection is up.
func Init(ledger *services.QueueLedger, registry *services.AvailabilityRegistry, calculator *services.PositionCalculator) {
	Ledger = ledger
	Registry = registry
	Calculator = calculator
}

// errorStatus maps the service failure taxonomy to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrDuplicateEntry), errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrInvalidSchedule):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// parseDateQuery reads the optional ?date=YYYY-MM-DD parameter, defaulting
// to today.
func parseDateQuery(c *fiber.Ctx) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}
