package postgres

import (
	"context"
	"fmt"
	"time"

	"slack-taskbot/internal/model"
	"slack-taskbot/internal/reminder"
)

func (s *Store) CreateReminder(ctx context.Context, r model.Reminder) (model.Reminder, error) {
	r.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	const q = `
INSERT INTO reminders (id, task_id, remind_at, sent, created_at)
VALUES ($1, $2, $3, false, $4);
`
	_, err := s.pool.Exec(ctx, q, r.ID, r.TaskID, r.RemindAt.UTC(), r.CreatedAt)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	return r, nil
}

// ClaimDue selects the unsent due reminders, joined to their tasks, and flips
// them sent in the same statement. SKIP LOCKED keeps overlapping passes off
// rows while the claim runs; once it commits, the sent flag keeps them off.
// A claimed row is never handed to a second caller.
func (s *Store) ClaimDue(ctx context.Context, now time.Time, limit int) ([]reminder.DueReminder, error) {
	const q = `
WITH due AS (
	SELECT id
	FROM reminders
	WHERE NOT sent
	  AND remind_at <= $1
	ORDER BY remind_at
	FOR UPDATE SKIP LOCKED
	LIMIT $2
)
UPDATE reminders r
SET sent = true
FROM due, tasks t
WHERE r.id = due.id
  AND t.id = r.task_id
RETURNING r.id, r.task_id, t.title, t.assigned_to, r.remind_at;
`
	rows, err := s.pool.Query(ctx, q, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("claim due reminders: %w", err)
	}
	defer rows.Close()

	out := make([]reminder.DueReminder, 0)
	for rows.Next() {
		var d reminder.DueReminder
		if err := rows.Scan(&d.ID, &d.TaskID, &d.Title, &d.AssignedTo, &d.RemindAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Release reverts a claimed reminder to unsent, keyed by the reminder's own
// id, so the next tick retries it after a failed send.
func (s *Store) Release(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE reminders SET sent = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("release reminder %s: %w", id, err)
	}
	return nil
}
