package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/meinhoongagan/clinic-queue/models"
)

func TestCreateEntryAssignsSequentialNumbers(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	for i := 1; i <= 5; i++ {
		entry := checkIn(t, ledger, 1, uint(i), false)
		if entry.QueueNumber != uint(i) {
			t.Errorf("check-in %d: expected queue number %d, got %d", i, i, entry.QueueNumber)
		}
	}
}

func TestCreateEntryConcurrentNumbering(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan uint, n)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(appointmentID uint) {
			defer wg.Done()
			entry, err := ledger.CreateEntry(context.Background(), CreateEntryInput{
				DoctorID:      1,
				PatientID:     appointmentID,
				AppointmentID: appointmentID,
				ServiceDate:   serviceDay,
			})
			if err != nil {
				errs <- err
				return
			}
			numbers <- entry.QueueNumber
		}(uint(i + 1))
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent check-in failed: %v", err)
	}

	seen := make(map[uint]bool)
	for num := range numbers {
		if seen[num] {
			t.Errorf("queue number %d assigned twice", num)
		}
		seen[num] = true
	}
	for i := uint(1); i <= n; i++ {
		if !seen[i] {
			t.Errorf("queue number %d missing; numbers must be 1..%d with no gaps", i, n)
		}
	}
}

func TestCreateEntryRejectsDuplicateActiveAppointment(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	first := checkIn(t, ledger, 1, 42, false)

	_, err := ledger.CreateEntry(context.Background(), CreateEntryInput{
		DoctorID:      1,
		PatientID:     7,
		AppointmentID: 42,
		ServiceDate:   serviceDay,
	})
	if !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}

	// After the first entry terminates, re-check-in is allowed and the old
	// number is not reused.
	if _, err := ledger.SetStatus(context.Background(), first.ID, models.StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	second, err := ledger.CreateEntry(context.Background(), CreateEntryInput{
		DoctorID:      1,
		PatientID:     7,
		AppointmentID: 42,
		ServiceDate:   serviceDay,
	})
	if err != nil {
		t.Fatalf("re-check-in after cancel failed: %v", err)
	}
	if second.QueueNumber <= first.QueueNumber {
		t.Errorf("queue number %d reused or regressed after %d", second.QueueNumber, first.QueueNumber)
	}
}

func TestCreateEntryNumbersIndependentPerDoctorAndDay(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	checkIn(t, ledger, 1, 1, false)
	checkIn(t, ledger, 1, 2, false)

	otherDoctor := checkIn(t, ledger, 2, 3, false)
	if otherDoctor.QueueNumber != 1 {
		t.Errorf("doctor 2 should start at 1, got %d", otherDoctor.QueueNumber)
	}

	nextDay, err := ledger.CreateEntry(context.Background(), CreateEntryInput{
		DoctorID:      1,
		PatientID:     4,
		AppointmentID: 4,
		ServiceDate:   serviceDay.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("next-day check-in failed: %v", err)
	}
	if nextDay.QueueNumber != 1 {
		t.Errorf("doctor 1 next day should start at 1, got %d", nextDay.QueueNumber)
	}
}

func TestListEntriesOrdering(t *testing.T) {
	ledger, registry, _ := newTestLedger(t)

	regular1 := checkIn(t, ledger, 1, 1, false)
	emergency := checkIn(t, ledger, 1, 2, true)
	regular2 := checkIn(t, ledger, 1, 3, false)
	done := checkIn(t, ledger, 1, 4, true)

	// Terminate the last emergency so terminal-last beats emergency-first.
	if _, err := registry.SetQueueActive(context.Background(), 1, true); err != nil {
		t.Fatalf("queue activation failed: %v", err)
	}
	for _, s := range []models.QueueStatus{models.StatusCalled, models.StatusInProgress, models.StatusCompleted} {
		if _, err := ledger.SetStatus(context.Background(), done.ID, s); err != nil {
			t.Fatalf("transition to %s failed: %v", s, err)
		}
	}

	entries, err := ledger.ListEntries(context.Background(), 1, serviceDay)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	want := []uint{emergency.ID, regular1.ID, regular2.ID, done.ID}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, id := range want {
		if entries[i].ID != id {
			t.Errorf("position %d: expected entry %d, got %d", i, id, entries[i].ID)
		}
	}
}

func TestSetStatusCallRequiresActiveQueue(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	entry := checkIn(t, ledger, 1, 1, false)
	_, err := ledger.SetStatus(context.Background(), entry.ID, models.StatusCalled)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while queue inactive, got %v", err)
	}
}

func TestSetStatusSingleActivePatientPerDoctor(t *testing.T) {
	ledger, registry, _ := newTestLedger(t)

	e1 := checkIn(t, ledger, 1, 1, false)
	e2 := checkIn(t, ledger, 1, 2, false)
	if _, err := registry.SetQueueActive(context.Background(), 1, true); err != nil {
		t.Fatalf("queue activation failed: %v", err)
	}

	if _, err := ledger.SetStatus(context.Background(), e1.ID, models.StatusCalled); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	_, err := ledger.SetStatus(context.Background(), e2.ID, models.StatusCalled)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for second call, got %v", err)
	}
}

func TestSetStatusConcurrentCallsExactlyOneWins(t *testing.T) {
	ledger, registry, _ := newTestLedger(t)

	e1 := checkIn(t, ledger, 1, 1, false)
	e2 := checkIn(t, ledger, 1, 2, false)
	if _, err := registry.SetQueueActive(context.Background(), 1, true); err != nil {
		t.Fatalf("queue activation failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, id := range []uint{e1.ID, e2.ID} {
		wg.Add(1)
		go func(entryID uint) {
			defer wg.Done()
			_, err := ledger.SetStatus(context.Background(), entryID, models.StatusCalled)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("expected exactly one winner and one conflict, got %d wins, %d conflicts", wins, conflicts)
	}
}

func TestSetStatusTracksCurrentNumber(t *testing.T) {
	ledger, registry, _ := newTestLedger(t)

	entry := checkIn(t, ledger, 1, 1, false)
	if _, err := registry.SetQueueActive(context.Background(), 1, true); err != nil {
		t.Fatalf("queue activation failed: %v", err)
	}

	if _, err := ledger.SetStatus(context.Background(), entry.ID, models.StatusCalled); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	avail, err := registry.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("availability read failed: %v", err)
	}
	if avail.CurrentNumber == nil || *avail.CurrentNumber != entry.QueueNumber {
		t.Fatalf("current_number not set after call: %+v", avail.CurrentNumber)
	}

	if _, err := ledger.SetStatus(context.Background(), entry.ID, models.StatusInProgress); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := ledger.SetStatus(context.Background(), entry.ID, models.StatusCompleted); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	avail, err = registry.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("availability read failed: %v", err)
	}
	if avail.CurrentNumber != nil {
		t.Errorf("current_number not cleared after completion: %d", *avail.CurrentNumber)
	}
}

func TestSetStatusRejectsInvalidTransition(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	entry := checkIn(t, ledger, 1, 1, false)
	_, err := ledger.SetStatus(context.Background(), entry.ID, models.StatusCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	_, err = ledger.SetStatus(context.Background(), 9999, models.StatusCalled)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown entry, got %v", err)
	}
}

func TestCallNextFollowsServingOrder(t *testing.T) {
	ledger, registry, _ := newTestLedger(t)

	checkIn(t, ledger, 1, 1, false)
	emergency := checkIn(t, ledger, 1, 2, true)
	if _, err := registry.SetQueueActive(context.Background(), 1, true); err != nil {
		t.Fatalf("queue activation failed: %v", err)
	}

	called, err := ledger.CallNext(context.Background(), 1, serviceDay)
	if err != nil {
		t.Fatalf("call-next failed: %v", err)
	}
	if called.ID != emergency.ID {
		t.Errorf("expected emergency entry %d to be called first, got %d", emergency.ID, called.ID)
	}
}

func TestSetPaymentStatus(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	entry := checkIn(t, ledger, 1, 1, false)
	if entry.PaymentStatus != models.PaymentUnpaid {
		t.Fatalf("new entries default to unpaid, got %s", entry.PaymentStatus)
	}

	updated, err := ledger.SetPaymentStatus(context.Background(), entry.ID, models.PaymentPaid)
	if err != nil {
		t.Fatalf("payment update failed: %v", err)
	}
	if updated.PaymentStatus != models.PaymentPaid {
		t.Errorf("expected paid, got %s", updated.PaymentStatus)
	}

	if _, err := ledger.SetPaymentStatus(context.Background(), entry.ID, "gratis"); err == nil {
		t.Error("expected error for unknown payment status")
	}
}

func TestSweepNoShows(t *testing.T) {
	ledger, registry, _ := newTestLedger(t)

	stale := checkIn(t, ledger, 1, 1, false)
	active := checkIn(t, ledger, 1, 2, false)
	if _, err := registry.SetQueueActive(context.Background(), 1, true); err != nil {
		t.Fatalf("queue activation failed: %v", err)
	}
	if _, err := ledger.SetStatus(context.Background(), active.ID, models.StatusCalled); err != nil {
		t.Fatalf("call failed: %v", err)
	}

	tomorrow, err := ledger.CreateEntry(context.Background(), CreateEntryInput{
		DoctorID:      1,
		PatientID:     3,
		AppointmentID: 3,
		ServiceDate:   serviceDay.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("next-day check-in failed: %v", err)
	}

	swept, err := ledger.SweepNoShows(context.Background(), serviceDay.Add(23*time.Hour+30*time.Minute))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(swept) != 1 || swept[0].ID != stale.ID {
		t.Fatalf("expected only entry %d swept, got %+v", stale.ID, swept)
	}
	if swept[0].Status != models.StatusNoShow {
		t.Errorf("expected no_show, got %s", swept[0].Status)
	}

	// The called entry and tomorrow's entry are untouched.
	if got, _ := ledger.GetEntry(context.Background(), active.ID); got.Status != models.StatusCalled {
		t.Errorf("called entry mutated by sweep: %s", got.Status)
	}
	if got, _ := ledger.GetEntry(context.Background(), tomorrow.ID); got.Status != models.StatusScheduled {
		t.Errorf("future entry mutated by sweep: %s", got.Status)
	}
}

func TestOverviewCounts(t *testing.T) {
	ledger, registry, _ := newTestLedger(t)

	checkIn(t, ledger, 1, 1, false)
	emergency := checkIn(t, ledger, 1, 2, true)
	cancelled := checkIn(t, ledger, 1, 3, false)

	if _, err := registry.SetQueueActive(context.Background(), 1, true); err != nil {
		t.Fatalf("queue activation failed: %v", err)
	}
	if _, err := ledger.SetStatus(context.Background(), cancelled.ID, models.StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := ledger.SetStatus(context.Background(), emergency.ID, models.StatusCalled); err != nil {
		t.Fatalf("call failed: %v", err)
	}

	overview, err := ledger.Overview(context.Background(), 1, serviceDay)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.TotalEntries != 3 || overview.WaitingCount != 1 ||
		overview.CalledCount != 1 || overview.CancelledCount != 1 ||
		overview.EmergencyCount != 1 {
		t.Errorf("unexpected overview: %+v", overview)
	}
	if !overview.QueueActive {
		t.Error("overview should report the queue active")
	}
	if overview.CurrentNumber == nil || *overview.CurrentNumber != emergency.QueueNumber {
		t.Errorf("overview current number wrong: %+v", overview.CurrentNumber)
	}
}
