package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/meinhoongagan/clinic-queue/models"
)

// DefaultAvgConsultMinutes is the flat per-consultation estimate used when
// no override is configured.
const DefaultAvgConsultMinutes = 15

// Position is a patient's derived place in the queue. Rank is nil for
// terminal entries; EstimatedWaitMinutes is nil when the doctor's queue is
// not active (wait is unknown, not zero).
type Position struct {
	Entry                models.QueueEntry `json:"entry"`
	Rank                 *int              `json:"rank"`
	EstimatedWaitMinutes *int              `json:"estimated_wait_minutes"`
	QueueActive          bool              `json:"queue_active"`
}

// PositionCalculator derives rank and estimated wait from current ledger
// and availability state. It holds no state of its own beyond the
// configured average; every call re-reads, so results are never stale.
type PositionCalculator struct {
	db                *gorm.DB
	AvgConsultMinutes int
}

func NewPositionCalculator(db *gorm.DB, avgConsultMinutes int) *PositionCalculator {
	if avgConsultMinutes <= 0 {
		avgConsultMinutes = DefaultAvgConsultMinutes
	}
	return &PositionCalculator{db: db, AvgConsultMinutes: avgConsultMinutes}
}

// Position computes the entry's rank among not-yet-served entries of the
// same doctor and day, counting everything strictly ahead in serving order
// (emergencies first, then queue number).
func (p *PositionCalculator) Position(ctx context.Context, entryID uint) (*Position, error) {
	var entry models.QueueEntry
	if err := p.db.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	pos := &Position{Entry: entry}

	var avail models.DoctorAvailability
	err := p.db.WithContext(ctx).Where("doctor_id = ?", entry.DoctorID).First(&avail).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	pos.QueueActive = avail.QueueActive

	if entry.IsTerminal() {
		return pos, nil
	}

	ahead := p.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("doctor_id = ? AND service_date = ? AND status IN ?",
			entry.DoctorID, entry.ServiceDate, models.ActiveStatuses)
	if entry.IsEmergency {
		ahead = ahead.Where("is_emergency = ? AND queue_number < ?", true, entry.QueueNumber)
	} else {
		ahead = ahead.Where("is_emergency = ? OR (is_emergency = ? AND queue_number < ?)",
			true, false, entry.QueueNumber)
	}

	var aheadCount int64
	if err := ahead.Count(&aheadCount).Error; err != nil {
		return nil, err
	}

	rank := int(aheadCount) + 1
	pos.Rank = &rank

	if pos.QueueActive {
		wait := (rank - 1) * p.AvgConsultMinutes
		pos.EstimatedWaitMinutes = &wait
	}
	return pos, nil
}
