package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-queue/models"
	"github.com/meinhoongagan/clinic-queue/services"
	"github.com/meinhoongagan/clinic-queue/utils"
)

type checkInRequest struct {
	DoctorID      uint   `json:"doctor_id"`
	PatientID     uint   `json:"patient_id"`
	AppointmentID uint   `json:"appointment_id"`
	ServiceDate   string `json:"service_date"`
	IsEmergency   bool   `json:"is_emergency"`
}

// CheckIn creates a queue entry for a confirmed appointment and hands back
// the assigned queue number.
func CheckIn(c *fiber.Ctx) error {
	var req checkInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if req.DoctorID == 0 || req.PatientID == 0 || req.AppointmentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "doctor_id, patient_id and appointment_id are required",
			Error:   "missing identifiers",
		})
	}

	serviceDate := time.Now()
	if req.ServiceDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ServiceDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "service_date must be an ISO date (YYYY-MM-DD)",
				Error:   err.Error(),
			})
		}
		serviceDate = parsed
	}

	entry, err := Ledger.CreateEntry(c.Context(), services.CreateEntryInput{
		DoctorID:      req.DoctorID,
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		ServiceDate:   serviceDate,
		IsEmergency:   req.IsEmergency,
	})
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Failed to check in patient",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

type boardItem struct {
	EntryID              uint               `json:"entry_id"`
	QueueNumber          uint               `json:"queue_number"`
	Status               models.QueueStatus `json:"status"`
	IsEmergency          bool               `json:"is_emergency"`
	Rank                 *int               `json:"rank"`
	EstimatedWaitMinutes *int               `json:"estimated_wait_minutes"`
}

// GetQueueBoard returns the doctor's queue for one day in serving order,
// each entry annotated with rank and estimated wait.
func GetQueueBoard(c *fiber.Ctx) error {
	doctorID, err := c.ParamsInt("doctorId")
	if err != nil || doctorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid doctor ID",
			Error:   "doctorId must be a positive integer",
		})
	}
	date, err := parseDateQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "date must be an ISO date (YYYY-MM-DD)",
			Error:   err.Error(),
		})
	}

	entries, err := Ledger.ListEntries(c.Context(), uint(doctorID), date)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Failed to fetch queue",
			Error:   err.Error(),
		})
	}

	queueActive := false
	if avail, err := Registry.Get(c.Context(), uint(doctorID)); err == nil {
		queueActive = avail.QueueActive
	}

	// Entries arrive in serving order, so rank is a running count over the
	// non-terminal ones.
	board := make([]boardItem, 0, len(entries))
	rank := 0
	for _, e := range entries {
		item := boardItem{
			EntryID:     e.ID,
			QueueNumber: e.QueueNumber,
			Status:      e.Status,
			IsEmergency: e.IsEmergency,
		}
		if !e.IsTerminal() {
			rank++
			r := rank
			item.Rank = &r
			if queueActive {
				wait := (r - 1) * Calculator.AvgConsultMinutes
				item.EstimatedWaitMinutes = &wait
			}
		}
		board = append(board, item)
	}

	return c.JSON(fiber.Map{
		"doctor_id":    doctorID,
		"date":         date.Format("2006-01-02"),
		"queue_active": queueActive,
		"count":        len(board),
		"entries":      board,
	})
}

// CallNext calls the first waiting patient in serving order.
func CallNext(c *fiber.Ctx) error {
	doctorID, err := c.ParamsInt("doctorId")
	if err != nil || doctorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid doctor ID",
			Error:   "doctorId must be a positive integer",
		})
	}
	date, err := parseDateQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "date must be an ISO date (YYYY-MM-DD)",
			Error:   err.Error(),
		})
	}

	entry, err := Ledger.CallNext(c.Context(), uint(doctorID), date)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Failed to call next patient",
			Error:   err.Error(),
		})
	}
	return c.JSON(entry)
}

// setEntryStatus is the shared body of the explicit transition endpoints.
func setEntryStatus(c *fiber.Ctx, newStatus models.QueueStatus, failMessage string) error {
	entryID, err := c.ParamsInt("id")
	if err != nil || entryID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid entry ID",
			Error:   "id must be a positive integer",
		})
	}

	entry, err := Ledger.SetStatus(c.Context(), uint(entryID), newStatus)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: failMessage,
			Error:   err.Error(),
		})
	}
	return c.JSON(entry)
}

// CallEntry calls a specific waiting patient (out-of-order call).
func CallEntry(c *fiber.Ctx) error {
	return setEntryStatus(c, models.StatusCalled, "Failed to call patient")
}

// StartConsultation moves a called patient into consultation.
func StartConsultation(c *fiber.Ctx) error {
	return setEntryStatus(c, models.StatusInProgress, "Failed to start consultation")
}

// CompleteConsultation finishes the current consultation and frees the
// doctor for the next call.
func CompleteConsultation(c *fiber.Ctx) error {
	return setEntryStatus(c, models.StatusCompleted, "Failed to complete consultation")
}

// CancelEntry cancels a non-terminal queue entry.
func CancelEntry(c *fiber.Ctx) error {
	return setEntryStatus(c, models.StatusCancelled, "Failed to cancel queue entry")
}

type paymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

// UpdatePaymentStatus lets the billing collaborator record the payment
// state on a queue entry.
func UpdatePaymentStatus(c *fiber.Ctx) error {
	entryID, err := c.ParamsInt("id")
	if err != nil || entryID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid entry ID",
			Error:   "id must be a positive integer",
		})
	}

	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	entry, err := Ledger.SetPaymentStatus(c.Context(), uint(entryID), req.PaymentStatus)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Failed to update payment status",
			Error:   err.Error(),
		})
	}
	return c.JSON(entry)
}

// GetQueueOverview returns per-status counts for the doctor dashboard.
func GetQueueOverview(c *fiber.Ctx) error {
	doctorID, err := c.ParamsInt("doctorId")
	if err != nil || doctorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid doctor ID",
			Error:   "doctorId must be a positive integer",
		})
	}
	date, err := parseDateQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "date must be an ISO date (YYYY-MM-DD)",
			Error:   err.Error(),
		})
	}

	overview, err := Ledger.Overview(c.Context(), uint(doctorID), date)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(utils.ErrorResponse{
			Message: "Failed to fetch queue overview",
			Error:   err.Error(),
		})
	}
	return c.JSON(overview)
}
