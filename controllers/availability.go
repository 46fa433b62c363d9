package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-queue/models"
	"github.com/meinhoongagan/clinic-queue/utils"
)

// doctorIDParam parses the :doctorId route parameter; ok is false when the
// 400 response has already been written.
func doctorIDParam(c *fiber.Ctx) (uint, bool) {
	doctorID, err := c.ParamsInt("doctorId")
	if err != nil || doctorID <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid doctor ID",
			Error:   "doctorId must be a positive integer",
		})
		return 0, false
	}
	return uint(doctorID), true
}

// GetAvailability returns the doctor's status, working hours and queue
// toggle.
func GetAvailability(c *fiber.Ctx) error {
	doctorID, ok := doctorIDParam(c)
	if !ok {
		return nil
	}

	avail, err := Registry.Get(c.Context(), doctorID)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Doctor availability not found",
			Error:   err.Error(),
		})
	}
	return c.JSON(avail)
}

type statusRequest struct {
	Status models.DoctorStatus `json:"status"`
}

// UpdateDoctorStatus sets the doctor's live status (available/busy/offline).
func UpdateDoctorStatus(c *fiber.Ctx) error {
	doctorID, ok := doctorIDParam(c)
	if !ok {
		return nil
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	avail, err := Registry.SetStatus(c.Context(), doctorID, req.Status)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Failed to update doctor status",
			Error:   err.Error(),
		})
	}
	return c.JSON(avail)
}

// UpdateWorkingHours replaces the doctor's weekly schedule.
func UpdateWorkingHours(c *fiber.Ctx) error {
	doctorID, ok := doctorIDParam(c)
	if !ok {
		return nil
	}

	var hours models.WeekSchedule
	if err := c.BodyParser(&hours); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	avail, err := Registry.SetWorkingHours(c.Context(), doctorID, hours)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Failed to update working hours",
			Error:   err.Error(),
		})
	}
	return c.JSON(avail)
}

type queueActiveRequest struct {
	Active bool `json:"active"`
}

// UpdateQueueActive pauses or resumes the doctor's queue. Pausing only
// blocks new calls; a patient already with the doctor is unaffected.
func UpdateQueueActive(c *fiber.Ctx) error {
	doctorID, ok := doctorIDParam(c)
	if !ok {
		return nil
	}

	var req queueActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	avail, err := Registry.SetQueueActive(c.Context(), doctorID, req.Active)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Failed to update queue state",
			Error:   err.Error(),
		})
	}
	return c.JSON(avail)
}
