package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
)

const reminderJobTimeout = 2 * time.Minute

// reminderKey identifies one meeting. Rescheduling produces a new key, so the
// new time gets its own reminder.
type reminderKey struct {
	rentalID uuid.UUID
	at       int64
}

// SendExchangeReminders emails both parties of every scheduled rental whose
// meeting starts within the reminder window. Each meeting is reminded once per
// process. Rental state is never modified.
func (jr *JobRunner) SendExchangeReminders() {
	jr.runWithRecovery("SendExchangeReminders", func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
		defer cancel()

		now := jr.now().UTC()
		rentals, err := jr.deps.Rentals.ListScheduledBetween(ctx, now, now.Add(jr.config.ReminderWindow()))
		if err != nil {
			logger.Error("Failed to list scheduled rentals", "error", err)
			return
		}

		sent := 0
		for i := range rentals {
			rt := &rentals[i]
			if rt.ScheduledTime == nil {
				continue
			}
			key := reminderKey{rentalID: rt.ID, at: rt.ScheduledTime.Unix()}
			if !jr.markReminded(key, *rt.ScheduledTime) {
				continue
			}
			sent += jr.remindParties(ctx, rt)
		}
		jr.pruneReminded(now)

		logger.Info("Sent exchange reminders", "rentals", len(rentals), "emails", sent)
	})
}

func (jr *JobRunner) remindParties(ctx context.Context, rt *domain.Rental) int {
	title := "your rental"
	if item, err := jr.deps.Items.GetByID(ctx, rt.ItemID); err == nil {
		title = item.Title
	}

	sent := 0
	for _, userID := range []uuid.UUID{rt.RenterID, rt.OwnerID} {
		user, err := jr.deps.Users.GetByID(ctx, userID)
		if err != nil {
			logger.Warn("Skipping reminder for unknown user", "rental_id", rt.ID, "user_id", userID, "error", err)
			continue
		}
		if err := jr.deps.Email.SendExchangeReminder(ctx, user.Email, title, *rt.ScheduledTime, rt.ScheduledLocation); err != nil {
			logger.BestEffortFailure("email", err, "rental_id", rt.ID, "kind", "reminder")
			continue
		}
		sent++
	}
	logger.Debug("Reminded rental parties", "rental_id", rt.ID, "scheduled_time", rt.ScheduledTime, "emails", sent)
	return sent
}

func (jr *JobRunner) markReminded(key reminderKey, at time.Time) bool {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	if _, ok := jr.reminded[key]; ok {
		return false
	}
	jr.reminded[key] = at
	return true
}

func (jr *JobRunner) pruneReminded(now time.Time) {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	for key, at := range jr.reminded {
		if at.Before(now) {
			delete(jr.reminded, key)
		}
	}
}
