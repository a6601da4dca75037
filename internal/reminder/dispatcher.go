package reminder

import (
	"context"
	"fmt"
	"time"

	"slack-taskbot/internal/observability/jsonlog"
)

// DueReminder is an unsent reminder row joined to its owning task.
type DueReminder struct {
	ID         string
	TaskID     string
	Title      string
	AssignedTo string
	RemindAt   time.Time
}

// Source is the store contract for the dispatcher. ClaimDue hands each unsent
// due row to exactly one caller, flipping its sent flag as part of the claim,
// so an overlapping pass (ticker, CLI, debug endpoint) never sees the same
// row. Release reverts a claimed row to unsent for the next tick.
type Source interface {
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]DueReminder, error)
	Release(ctx context.Context, id string) error
}

// Sender delivers one direct message.
type Sender interface {
	SendDM(ctx context.Context, userID, text string) error
}

type Config struct {
	Interval time.Duration // polling interval
	Batch    int           // max reminders per pass
}

func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
		Batch:    50,
	}
}

// Dispatcher polls for due reminders and delivers each at most once. A
// reminder is claimed (marked sent) before its message goes out; a failed
// send releases the row so the next tick retries it, which degrades to
// at-least-once when Slack is flaky. A failed release drops the reminder
// rather than risking a double send, and is logged.
type Dispatcher struct {
	src  Source
	send Sender
	log  *jsonlog.Logger
	cfg  Config
	now  func() time.Time
}

func New(src Source, send Sender, log *jsonlog.Logger, cfg Config) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Batch <= 0 {
		cfg.Batch = DefaultConfig().Batch
	}
	return &Dispatcher{
		src:  src,
		send: send,
		log:  log,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the clock, for tests.
func (d *Dispatcher) SetNow(now func() time.Time) { d.now = now }

// Run polls until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	d.log.Info("dispatcher_started", map[string]any{"interval": d.cfg.Interval.String()})

	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher_stopping", map[string]any{"reason": ctx.Err().Error()})
			return
		case <-ticker.C:
			sent, err := d.DispatchOnce(ctx)
			if err != nil {
				d.log.Error("dispatch_pass_failed", map[string]any{"err": err.Error()})
				continue
			}
			if sent > 0 {
				d.log.Info("reminders_sent", map[string]any{"count": sent})
			}
		}
	}
}

// DispatchOnce runs a single dispatch pass and returns how many reminders
// were delivered. A failed delivery for one reminder does not block the
// others.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	claimed, err := d.src.ClaimDue(ctx, d.now(), d.cfg.Batch)
	if err != nil {
		return 0, fmt.Errorf("claim due reminders: %w", err)
	}

	sent := 0
	for _, r := range claimed {
		text := fmt.Sprintf(":alarm_clock: Reminder: *%s*", r.Title)
		if err := d.send.SendDM(ctx, r.AssignedTo, text); err != nil {
			d.log.Error("reminder_send_failed", map[string]any{
				"reminder": r.ID, "task": r.TaskID, "user": r.AssignedTo, "err": err.Error(),
			})
			if relErr := d.src.Release(ctx, r.ID); relErr != nil {
				d.log.Error("reminder_release_failed", map[string]any{
					"reminder": r.ID, "err": relErr.Error(),
				})
			}
			continue
		}
		sent++
	}
	return sent, nil
}
