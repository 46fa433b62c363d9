package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/meinhoongagan/clinic-queue/models"
	"github.com/meinhoongagan/clinic-queue/utils"
)

// serviceDay is the fixed service date used across the service tests.
var serviceDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// newTestDB opens a per-test in-memory sqlite database. A single connection
// keeps sqlite from tripping over concurrent writers; the Locker already
// serializes the critical sections the same way production does.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.QueueEntry{}, &models.DoctorAvailability{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestLedger(t *testing.T) (*QueueLedger, *AvailabilityRegistry, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	ledger := NewQueueLedger(db, NewMutexLocker(), utils.FixedClock{At: serviceDay.Add(9 * time.Hour)})
	registry := NewAvailabilityRegistry(db)
	return ledger, registry, db
}

// checkIn creates an entry or fails the test.
func checkIn(t *testing.T, ledger *QueueLedger, doctorID, appointmentID uint, emergency bool) *models.QueueEntry {
	t.Helper()
	entry, err := ledger.CreateEntry(context.Background(), CreateEntryInput{
		DoctorID:      doctorID,
		PatientID:     appointmentID + 1000,
		AppointmentID: appointmentID,
		ServiceDate:   serviceDay,
		IsEmergency:   emergency,
	})
	if err != nil {
		t.Fatalf("check-in for appointment %d failed: %v", appointmentID, err)
	}
	return entry
}
