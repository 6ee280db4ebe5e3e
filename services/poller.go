// services/poller.go
package services

import (
	"errors"
	"log"
	"os"
	"sync/atomic"
	"time"

	"propcare-backend/models"

	"github.com/robfig/cron/v3"
)

// ErrPassInProgress is returned when a pass is requested while the
// previous one is still running. The skipped tick is not an error
// condition for the caller; the next tick is imminent.
var ErrPassInProgress = errors.New("notification pass already in progress")

// PassResult is what a notification pass reports back. A mismatch
// between Found and Dispatched is visible partial failure, not a
// hard error.
type PassResult struct {
	Found       int       `json:"found"`
	Dispatched  int       `json:"dispatched"`
	CompletedAt time.Time `json:"completedAt"`
}

// Poller runs the recurring notification pass. One instance per
// process, started once by main; manual trigger calls RunPass
// directly.
type Poller struct {
	scheduler  *ReminderScheduler
	dispatcher *Dispatcher
	cron       *cron.Cron
	running    atomic.Bool
}

func NewPoller(scheduler *ReminderScheduler, dispatcher *Dispatcher) *Poller {
	return &Poller{scheduler: scheduler, dispatcher: dispatcher}
}

// Start schedules the recurring pass. Calling it a second time is an
// error rather than a silent double-schedule.
func (p *Poller) Start() error {
	if p.cron != nil {
		return errors.New("poller already started")
	}

	// Every 30 minutes during business hours, hourly otherwise.
	spec := os.Getenv("REMINDER_CRON")
	if spec == "" {
		spec = "*/30 8-20 * * *"
	}
	offSpec := os.Getenv("REMINDER_CRON_OFFHOURS")
	if offSpec == "" {
		offSpec = "0 0-7,21-23 * * *"
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, p.tick); err != nil {
		return err
	}
	if _, err := c.AddFunc(offSpec, p.tick); err != nil {
		return err
	}

	c.Start()
	p.cron = c
	log.Printf("Reminder poller started (business: %q, off-hours: %q)", spec, offSpec)
	return nil
}

func (p *Poller) Stop() {
	if p.cron != nil {
		p.cron.Stop()
		log.Println("Reminder poller stopped")
	}
}

func (p *Poller) tick() {
	result, err := p.RunPass(time.Now())
	if err != nil {
		if errors.Is(err, ErrPassInProgress) {
			log.Println("Skipping tick: previous pass still running")
			return
		}
		log.Printf("Notification pass failed: %v", err)
		return
	}
	log.Printf("Notification pass done: found=%d dispatched=%d", result.Found, result.Dispatched)
}

// RunPass executes one full notification pass: the due set, then the
// stale-overdue set. Each reminder is processed on its own; one bad
// record or failed delivery never aborts the rest.
func (p *Poller) RunPass(now time.Time) (PassResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		return PassResult{}, ErrPassInProgress
	}
	defer p.running.Store(false)

	var result PassResult

	due, err := p.scheduler.FindDueReminders(now)
	if err != nil {
		return result, err
	}
	result.Found += len(due)
	for i := range due {
		reminder := &due[i]
		notificationType, err := p.scheduler.ClassifyNotification(reminder, now)
		if err != nil {
			log.Printf("Skipping reminder %s: %v", reminder.ID, err)
			continue
		}
		if p.process(reminder, notificationType, now) {
			result.Dispatched++
		}
	}

	stale, err := p.scheduler.FindStaleOverdueReminders(now)
	if err != nil {
		return result, err
	}
	result.Found += len(stale)
	for i := range stale {
		if p.process(&stale[i], models.NotificationOverdue, now) {
			result.Dispatched++
		}
	}

	result.CompletedAt = time.Now()
	return result, nil
}

// process delivers one notification and records it. Delivery comes
// first; a failed send leaves the reminder untouched so the next pass
// retries it. The conditional record is the backstop against a racing
// pass that already sent for this reminder.
func (p *Poller) process(reminder *models.Reminder, notificationType string, now time.Time) bool {
	message := p.dispatcher.Format(reminder, notificationType, now)

	if err := p.dispatcher.Dispatch(reminder, message); err != nil {
		log.Printf("Failed to send %s notification for %s: %v",
			notificationType, reminder.PropertyName, err)
		return false
	}

	applied, err := p.scheduler.RecordNotification(reminder.ID, notificationType, message, now)
	if err != nil {
		log.Printf("Failed to record notification for reminder %s: %v", reminder.ID, err)
		return false
	}
	if !applied {
		log.Printf("Notification for reminder %s already recorded by another pass", reminder.ID)
		return false
	}
	return true
}
