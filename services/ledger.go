package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/meinhoongagan/clinic-queue/logger"
	"github.com/meinhoongagan/clinic-queue/models"
	"github.com/meinhoongagan/clinic-queue/utils"
)

// queueOrder is the single source of truth for queue ordering: terminal
// entries sort last, emergencies ahead of regular entries, ties broken by
// queue number.
const queueOrder = "CASE WHEN status IN ('completed','cancelled','no_show') THEN 1 ELSE 0 END ASC, is_emergency DESC, queue_number ASC"

// QueueLedger owns queue-number assignment and entry status transitions.
// All mutation of queue_entries goes through it so the numbering and
// single-active-patient invariants stay enforced in one place.
type QueueLedger struct {
	db    *gorm.DB
	lock  Locker
	clock utils.Clock
}

func NewQueueLedger(db *gorm.DB, lock Locker, clock utils.Clock) *QueueLedger {
	return &QueueLedger{db: db, lock: lock, clock: clock}
}

type CreateEntryInput struct {
	DoctorID      uint      `json:"doctor_id"`
	PatientID     uint      `json:"patient_id"`
	AppointmentID uint      `json:"appointment_id"`
	ServiceDate   time.Time `json:"service_date"`
	IsEmergency   bool      `json:"is_emergency"`
}

// CreateEntry checks a patient in and assigns the next queue number for the
// doctor's day. Runs under the per-(doctor, day) lock plus a transaction so
// two concurrent check-ins never share a number and a failed creation never
// consumes one.
func (l *QueueLedger) CreateEntry(ctx context.Context, in CreateEntryInput) (*models.QueueEntry, error) {
	day := utils.DayOf(in.ServiceDate)

	release, err := l.lock.Acquire(ctx, lockKey(in.DoctorID, day))
	if err != nil {
		return nil, err
	}
	defer release()

	var entry *models.QueueEntry
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.QueueEntry{}).
			Where("doctor_id = ? AND appointment_id = ? AND status IN ?", in.DoctorID, in.AppointmentID, models.ActiveStatuses).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrDuplicateEntry
		}

		var maxNumber int64
		if err := tx.Model(&models.QueueEntry{}).
			Where("doctor_id = ? AND service_date = ?", in.DoctorID, day).
			Select("COALESCE(MAX(queue_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return err
		}

		entry = &models.QueueEntry{
			DoctorID:        in.DoctorID,
			PatientID:       in.PatientID,
			AppointmentID:   in.AppointmentID,
			ServiceDate:     day,
			QueueNumber:     uint(maxNumber) + 1,
			IsEmergency:     in.IsEmergency,
			Status:          models.StatusScheduled,
			StatusChangedAt: l.clock.Now(),
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		// First contact with this doctor creates the availability row
		// (offline, queue inactive) so later reads never miss.
		var avail models.DoctorAvailability
		return tx.Where("doctor_id = ?", in.DoctorID).
			FirstOrCreate(&avail, models.DoctorAvailability{DoctorID: in.DoctorID}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("queue entry created",
		zap.Uint("doctor_id", entry.DoctorID),
		zap.Uint("queue_number", entry.QueueNumber),
		zap.Bool("is_emergency", entry.IsEmergency))
	return entry, nil
}

// ListEntries returns the doctor's queue for one day in serving order.
func (l *QueueLedger) ListEntries(ctx context.Context, doctorID uint, serviceDate time.Time) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := l.db.WithContext(ctx).
		Where("doctor_id = ? AND service_date = ?", doctorID, utils.DayOf(serviceDate)).
		Order(queueOrder).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetEntry loads one entry by ID.
func (l *QueueLedger) GetEntry(ctx context.Context, entryID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := l.db.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// SetStatus applies one state-machine transition. Calling a patient is
// additionally guarded: the doctor's queue must be active and no other
// patient may be called or in consultation; concurrent callers for the same
// doctor are serialized and the loser gets ErrConflict.
func (l *QueueLedger) SetStatus(ctx context.Context, entryID uint, newStatus models.QueueStatus) (*models.QueueEntry, error) {
	entry, err := l.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if newStatus == models.StatusCalled {
		release, err := l.lock.Acquire(ctx, lockKey(entry.DoctorID, entry.ServiceDate))
		if err != nil {
			return nil, err
		}
		defer release()
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read inside the transaction; the status may have moved while
		// we waited on the lock.
		if err := tx.First(entry, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var avail models.DoctorAvailability
		if err := tx.Where("doctor_id = ?", entry.DoctorID).
			FirstOrCreate(&avail, models.DoctorAvailability{DoctorID: entry.DoctorID}).Error; err != nil {
			return err
		}

		if newStatus == models.StatusCalled {
			if !avail.QueueActive {
				return fmt.Errorf("%w: doctor %d queue is not active", ErrConflict, entry.DoctorID)
			}
			var activeOthers int64
			if err := tx.Model(&models.QueueEntry{}).
				Where("doctor_id = ? AND id <> ? AND status IN ?", entry.DoctorID, entry.ID,
					[]models.QueueStatus{models.StatusCalled, models.StatusInProgress}).
				Count(&activeOthers).Error; err != nil {
				return err
			}
			if activeOthers > 0 {
				return fmt.Errorf("%w: doctor %d already has an active patient", ErrConflict, entry.DoctorID)
			}
		}

		wasCurrent := avail.CurrentNumber != nil && *avail.CurrentNumber == entry.QueueNumber

		if err := entry.TransitionTo(newStatus, l.clock.Now()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		if err := tx.Save(entry).Error; err != nil {
			return err
		}

		switch newStatus {
		case models.StatusCalled:
			avail.CurrentNumber = &entry.QueueNumber
			return tx.Save(&avail).Error
		case models.StatusCompleted:
			avail.CurrentNumber = nil
			return tx.Model(&avail).Update("current_number", nil).Error
		case models.StatusCancelled:
			if wasCurrent {
				avail.CurrentNumber = nil
				return tx.Model(&avail).Update("current_number", nil).Error
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("queue entry status changed",
		zap.Uint("entry_id", entry.ID),
		zap.Uint("doctor_id", entry.DoctorID),
		zap.String("status", string(entry.Status)))
	return entry, nil
}

// CallNext calls the first scheduled entry in serving order for the
// doctor's day.
func (l *QueueLedger) CallNext(ctx context.Context, doctorID uint, serviceDate time.Time) (*models.QueueEntry, error) {
	entries, err := l.ListEntries(ctx, doctorID, serviceDate)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Status == models.StatusScheduled {
			return l.SetStatus(ctx, e.ID, models.StatusCalled)
		}
	}
	return nil, fmt.Errorf("%w: no scheduled entries for doctor %d", ErrNotFound, doctorID)
}

// SetPaymentStatus records the billing collaborator's payment state. The
// queue state machine is not involved; queue logic only ever reads this.
func (l *QueueLedger) SetPaymentStatus(ctx context.Context, entryID uint, status models.PaymentStatus) (*models.QueueEntry, error) {
	switch status {
	case models.PaymentUnpaid, models.PaymentPartiallyPaid, models.PaymentPaid, models.PaymentRefunded:
	default:
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalidTransition, status)
	}

	entry, err := l.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	entry.PaymentStatus = status
	if err := l.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// SweepNoShows marks entries still scheduled for the closing service day
// (or any earlier day) as no-shows and returns them so the caller can send
// notices. Invoked by the nightly cron job.
func (l *QueueLedger) SweepNoShows(ctx context.Context, asOf time.Time) ([]models.QueueEntry, error) {
	var stale []models.QueueEntry
	err := l.db.WithContext(ctx).
		Where("status = ? AND service_date <= ?", models.StatusScheduled, utils.DayOf(asOf)).
		Order("doctor_id ASC, queue_number ASC").
		Find(&stale).Error
	if err != nil {
		return nil, err
	}

	swept := make([]models.QueueEntry, 0, len(stale))
	for _, e := range stale {
		updated, err := l.SetStatus(ctx, e.ID, models.StatusNoShow)
		if err != nil {
			logger.Log.Error("no-show sweep failed for entry",
				zap.Uint("entry_id", e.ID), zap.Error(err))
			continue
		}
		swept = append(swept, *updated)
	}
	return swept, nil
}

// QueueOverview summarizes one doctor's day for the dashboard.
type QueueOverview struct {
	DoctorID       uint      `json:"doctor_id"`
	ServiceDate    time.Time `json:"service_date"`
	TotalEntries   int64     `json:"total_entries"`
	WaitingCount   int64     `json:"waiting_count"`
	CalledCount    int64     `json:"called_count"`
	InProgress     int64     `json:"in_progress_count"`
	CompletedCount int64     `json:"completed_count"`
	CancelledCount int64     `json:"cancelled_count"`
	NoShowCount    int64     `json:"no_show_count"`
	EmergencyCount int64     `json:"emergency_count"`
	CurrentNumber  *uint     `json:"current_number"`
	QueueActive    bool      `json:"queue_active"`
}

// Overview aggregates per-status counts for the doctor's day.
func (l *QueueLedger) Overview(ctx context.Context, doctorID uint, serviceDate time.Time) (*QueueOverview, error) {
	day := utils.DayOf(serviceDate)
	overview := &QueueOverview{DoctorID: doctorID, ServiceDate: day}

	base := func() *gorm.DB {
		return l.db.WithContext(ctx).Model(&models.QueueEntry{}).
			Where("doctor_id = ? AND service_date = ?", doctorID, day)
	}

	if err := base().Count(&overview.TotalEntries).Error; err != nil {
		return nil, err
	}
	counts := []struct {
		status models.QueueStatus
		dest   *int64
	}{
		{models.StatusScheduled, &overview.WaitingCount},
		{models.StatusCalled, &overview.CalledCount},
		{models.StatusInProgress, &overview.InProgress},
		{models.StatusCompleted, &overview.CompletedCount},
		{models.StatusCancelled, &overview.CancelledCount},
		{models.StatusNoShow, &overview.NoShowCount},
	}
	for _, c := range counts {
		if err := base().Where("status = ?", c.status).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	if err := base().Where("is_emergency = ?", true).Count(&overview.EmergencyCount).Error; err != nil {
		return nil, err
	}

	var avail models.DoctorAvailability
	if err := l.db.WithContext(ctx).Where("doctor_id = ?", doctorID).First(&avail).Error; err == nil {
		overview.CurrentNumber = avail.CurrentNumber
		overview.QueueActive = avail.QueueActive
	}
	return overview, nil
}
