package services

import "github.com/meinhoongagan/clinic-queue/models"

// NotificationState is the closed set of patient-facing queue states. The
// patient UI branches on State only; Message is a default the gateway may
// localize over.
type NotificationState string

const (
	NotificationBeReady         NotificationState = "be_ready"
	NotificationPrepare         NotificationState = "prepare"
	NotificationWaiting         NotificationState = "waiting"
	NotificationPaymentRequired NotificationState = "payment_required"
	NotificationQueueNotActive  NotificationState = "queue_not_active"
	NotificationCompleted       NotificationState = "completed"
	NotificationCurrentOrMissed NotificationState = "current_or_missed"
)

type Notification struct {
	State   NotificationState `json:"state"`
	Message string            `json:"message"`
	Rank    *int              `json:"rank"`
}

// ComposeNotification maps a computed position to exactly one notification.
// Precedence: terminal status, then payment, then queue toggle, then rank.
// Every input produces one defined output.
func ComposeNotification(pos *Position) Notification {
	n := Notification{Rank: pos.Rank}

	switch pos.Entry.Status {
	case models.StatusCompleted:
		n.State = NotificationCompleted
		n.Message = "Your consultation is complete."
		return n
	case models.StatusCancelled, models.StatusNoShow:
		n.State = NotificationCurrentOrMissed
		n.Message = "Your queue entry is no longer active. Please contact the front desk."
		return n
	}

	if pos.Entry.PaymentStatus == models.PaymentUnpaid {
		n.State = NotificationPaymentRequired
		n.Message = "Please complete your payment at the billing counter."
		return n
	}

	if !pos.QueueActive {
		n.State = NotificationQueueNotActive
		n.Message = "The doctor's queue is currently paused. Please wait for it to resume."
		return n
	}

	rank := 0
	if pos.Rank != nil {
		rank = *pos.Rank
	}
	switch {
	case rank == 1:
		n.State = NotificationBeReady
		n.Message = "You are next. Please be ready at the consultation room."
	case rank == 2 || rank == 3:
		n.State = NotificationPrepare
		n.Message = "Your turn is coming up soon. Please stay nearby."
	default:
		n.State = NotificationWaiting
		n.Message = "You are in the queue. We will notify you as your turn approaches."
	}
	return n
}
