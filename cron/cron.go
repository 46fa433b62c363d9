package cron

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/meinhoongagan/clinic-queue/logger"
	"github.com/meinhoongagan/clinic-queue/models"
	"github.com/meinhoongagan/clinic-queue/services"
	"github.com/meinhoongagan/clinic-queue/utils"
)

// StartCronJobs initializes and starts the cron scheduler for the nightly
// no-show sweep
func StartCronJobs(ledger *services.QueueLedger) {
	fmt.Println("Starting cron job scheduler...")
	c := cron.New()
	// Close out the service day: patients still scheduled at 23:30 were
	// never called and get marked no_show.
	_, err := c.AddFunc("30 23 * * *", func() { sweepNoShows(ledger) })
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}
	c.Start()
	log.Println("Cron job scheduler started for the no-show sweep")
}

// sweepNoShows marks stale scheduled entries and notifies the clinic inbox
func sweepNoShows(ledger *services.QueueLedger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	swept, err := ledger.SweepNoShows(ctx, time.Now())
	if err != nil {
		logger.Log.Error("no-show sweep failed", zap.Error(err))
		return
	}
	if len(swept) == 0 {
		return
	}

	logger.Log.Info("no-show sweep finished", zap.Int("swept", len(swept)))

	notifyAddr := os.Getenv("CLINIC_NOTIFY_EMAIL")
	if notifyAddr == "" {
		return
	}
	for _, entry := range swept {
		if err := sendNoShowNotice(notifyAddr, &entry); err != nil {
			logger.Log.Error("failed to send no-show notice",
				zap.Uint("entry_id", entry.ID), zap.Error(err))
		}
	}
}

// sendNoShowNotice constructs and sends the no-show notice email
func sendNoShowNotice(to string, entry *models.QueueEntry) error {
	subject := fmt.Sprintf("No-show: queue number %d (doctor %d)", entry.QueueNumber, entry.DoctorID)
	body := fmt.Sprintf(`
		<p>The following patient was never called and has been marked as a no-show.</p>
		<p><strong>Details:</strong></p>
		<ul>
			<li><strong>Doctor:</strong> %d</li>
			<li><strong>Patient:</strong> %d</li>
			<li><strong>Appointment:</strong> %d</li>
			<li><strong>Service Date:</strong> %s</li>
			<li><strong>Queue Number:</strong> %d</li>
		</ul>
		<p>Please follow up with the patient to rebook if needed.</p>
	`, entry.DoctorID, entry.PatientID, entry.AppointmentID,
		entry.ServiceDate.Format("2006-01-02"), entry.QueueNumber)

	return utils.SendEmail(to, subject, body)
}
