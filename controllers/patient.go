package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-queue/services"
	"github.com/meinhoongagan/clinic-queue/utils"
)

// GetQueuePosition returns the patient's current rank, estimated wait and
// the single notification state the UI should display. Polling clients
// re-invoke this; every call recomputes from current state.
func GetQueuePosition(c *fiber.Ctx) error {
	entryID, err := c.ParamsInt("entryId")
	if err != nil || entryID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid entry ID",
			Error:   "entryId must be a positive integer",
		})
	}

	pos, err := Calculator.Position(c.Context(), uint(entryID))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Failed to compute queue position",
			Error:   err.Error(),
		})
	}

	notification := services.ComposeNotification(pos)

	return c.JSON(fiber.Map{
		"entry_id":               pos.Entry.ID,
		"queue_number":           pos.Entry.QueueNumber,
		"status":                 pos.Entry.Status,
		"is_emergency":           pos.Entry.IsEmergency,
		"rank":                   pos.Rank,
		"estimated_wait_minutes": pos.EstimatedWaitMinutes,
		"queue_active":           pos.QueueActive,
		"notification":           notification,
	})
}
