package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/meinhoongagan/clinic-queue/logger"
	"github.com/meinhoongagan/clinic-queue/models"
)

// AvailabilityRegistry owns the per-doctor availability row: live status,
// weekly working hours and the queue toggle.
type AvailabilityRegistry struct {
	db *gorm.DB
}

func NewAvailabilityRegistry(db *gorm.DB) *AvailabilityRegistry {
	return &AvailabilityRegistry{db: db}
}

// Get returns the doctor's availability row.
func (r *AvailabilityRegistry) Get(ctx context.Context, doctorID uint) (*models.DoctorAvailability, error) {
	var avail models.DoctorAvailability
	if err := r.db.WithContext(ctx).Where("doctor_id = ?", doctorID).First(&avail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &avail, nil
}

// ensure loads the doctor's row, creating it with defaults (offline, queue
// inactive) on first contact.
func (r *AvailabilityRegistry) ensure(ctx context.Context, doctorID uint) (*models.DoctorAvailability, error) {
	var avail models.DoctorAvailability
	err := r.db.WithContext(ctx).Where("doctor_id = ?", doctorID).
		FirstOrCreate(&avail, models.DoctorAvailability{DoctorID: doctorID}).Error
	if err != nil {
		return nil, err
	}
	return &avail, nil
}

// SetStatus updates the doctor's live status. Pure state update; queue
// entries are untouched.
func (r *AvailabilityRegistry) SetStatus(ctx context.Context, doctorID uint, status models.DoctorStatus) (*models.DoctorAvailability, error) {
	switch status {
	case models.DoctorAvailable, models.DoctorBusy, models.DoctorOffline:
	default:
		return nil, fmt.Errorf("%w: unknown doctor status %q", ErrInvalidSchedule, status)
	}

	avail, err := r.ensure(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	avail.Status = status
	if err := r.db.WithContext(ctx).Save(avail).Error; err != nil {
		return nil, err
	}
	return avail, nil
}

// SetWorkingHours replaces the doctor's weekly schedule after validating
// that every enabled day starts before it ends.
func (r *AvailabilityRegistry) SetWorkingHours(ctx context.Context, doctorID uint, hours models.WeekSchedule) (*models.DoctorAvailability, error) {
	if err := hours.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	avail, err := r.ensure(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	avail.WorkingHours = hours
	if err := r.db.WithContext(ctx).Save(avail).Error; err != nil {
		return nil, err
	}
	return avail, nil
}

// SetQueueActive toggles the doctor's queue. Deactivating only blocks new
// scheduled→called transitions; an already called or in-progress patient
// is unaffected.
func (r *AvailabilityRegistry) SetQueueActive(ctx context.Context, doctorID uint, active bool) (*models.DoctorAvailability, error) {
	avail, err := r.ensure(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	avail.QueueActive = active
	if err := r.db.WithContext(ctx).Model(avail).Update("queue_active", active).Error; err != nil {
		return nil, err
	}

	logger.Log.Info("doctor queue toggled",
		zap.Uint("doctor_id", doctorID),
		zap.Bool("queue_active", active))
	return avail, nil
}
