package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type QueueStatus string

const (
	StatusScheduled  QueueStatus = "scheduled"
	StatusCalled     QueueStatus = "called"
	StatusInProgress QueueStatus = "in_progress"
	StatusCompleted  QueueStatus = "completed"
	StatusCancelled  QueueStatus = "cancelled"
	StatusNoShow     QueueStatus = "no_show"
)

type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
	PaymentRefunded      PaymentStatus = "refunded"
)

// ActiveStatuses are the non-terminal entry states. An appointment with an
// entry in one of these states cannot check in again.
var ActiveStatuses = []QueueStatus{StatusScheduled, StatusCalled, StatusInProgress}

// TerminalStatuses never transition again.
var TerminalStatuses = []QueueStatus{StatusCompleted, StatusCancelled, StatusNoShow}

// QueueEntry is one patient's slot in one doctor's queue for one service day.
// QueueNumber is unique within (doctor, service date) and never reused.
type QueueEntry struct {
	gorm.Model
	DoctorID        uint          `json:"doctor_id" gorm:"index:idx_doctor_day_number,unique;index:idx_doctor_status"`
	PatientID       uint          `json:"patient_id"`
	AppointmentID   uint          `json:"appointment_id" gorm:"index"`
	ServiceDate     time.Time     `json:"service_date" gorm:"index:idx_doctor_day_number,unique"`
	QueueNumber     uint          `json:"queue_number" gorm:"index:idx_doctor_day_number,unique"`
	IsEmergency     bool          `json:"is_emergency"`
	Status          QueueStatus   `json:"status" gorm:"index:idx_doctor_status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	StatusChangedAt time.Time     `json:"status_changed_at"`
}

func (e *QueueEntry) BeforeCreate(tx *gorm.DB) error {
	if e.Status == "" {
		e.Status = StatusScheduled
	}
	if e.PaymentStatus == "" {
		e.PaymentStatus = PaymentUnpaid
	}
	if e.StatusChangedAt.IsZero() {
		e.StatusChangedAt = time.Now()
	}
	return nil
}

// IsTerminal reports whether the entry has reached a final state.
func (e *QueueEntry) IsTerminal() bool {
	switch e.Status {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// TransitionTo validates the status edge and applies it to the struct.
// Persistence is the caller's job; callers run this inside their transaction.
func (e *QueueEntry) TransitionTo(newStatus QueueStatus, at time.Time) error {
	switch e.Status {
	case StatusScheduled:
		if newStatus != StatusCalled && newStatus != StatusCancelled && newStatus != StatusNoShow {
			return fmt.Errorf("invalid transition from scheduled to %s", newStatus)
		}
	case StatusCalled:
		if newStatus != StatusInProgress && newStatus != StatusCancelled {
			return fmt.Errorf("invalid transition from called to %s", newStatus)
		}
	case StatusInProgress:
		if newStatus != StatusCompleted && newStatus != StatusCancelled {
			return fmt.Errorf("invalid transition from in_progress to %s", newStatus)
		}
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return fmt.Errorf("no transitions allowed from %s", e.Status)
	default:
		return fmt.Errorf("unknown status %s", e.Status)
	}

	e.Status = newStatus
	e.StatusChangedAt = at
	return nil
}
