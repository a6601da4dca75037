package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"slack-taskbot/internal/model"
	"slack-taskbot/internal/task"
)

const taskColumns = `id, title, note, status, created_by, assigned_to, watchers, due_at, recurring, channel_id, created_at, updated_at`

func (s *Store) Create(ctx context.Context, t model.Task) (model.Task, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Watchers == nil {
		t.Watchers = []string{}
	}

	const q = `
INSERT INTO tasks (id, title, note, status, created_by, assigned_to, watchers, due_at, recurring, channel_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
`
	_, err := s.pool.Exec(ctx, q,
		t.ID, t.Title, t.Note, string(t.Status), t.CreatedBy, t.AssignedTo,
		t.Watchers, t.DueAt, string(t.Recurring), t.ChannelID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Task{}, model.ErrNotFound
		}
		return model.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// Update is a single-statement read-modify-write; two concurrent updates on
// the same row resolve last-write-wins.
func (s *Store) Update(ctx context.Context, id string, p task.Patch) (model.Task, error) {
	set := "updated_at = $1"
	args := []any{time.Now().UTC().Truncate(time.Microsecond)}

	add := func(col string, v any) {
		args = append(args, v)
		set += fmt.Sprintf(", %s = $%d", col, len(args))
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Note != nil {
		add("note", *p.Note)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.AssignedTo != nil {
		add("assigned_to", *p.AssignedTo)
	}
	if p.Watchers != nil {
		add("watchers", *p.Watchers)
	}
	if p.DueAt != nil {
		add("due_at", *p.DueAt)
	}
	if p.Recurring != nil {
		add("recurring", string(*p.Recurring))
	}

	args = append(args, id)
	q := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING `+taskColumns, set, len(args))

	row := s.pool.QueryRow(ctx, q, args...)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Task{}, model.ErrNotFound
		}
		return model.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	return t, nil
}

// Delete hard-removes the row; reminders cascade with it.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) ListView(ctx context.Context, userID string, tab task.Tab) ([]model.Task, error) {
	var where string
	switch tab {
	case task.TabHome:
		where = `status = 'open' AND (assigned_to = $1 OR created_by = $1)`
	case task.TabAssigned:
		where = `status = 'open' AND assigned_to = $1`
	case task.TabCompleted:
		where = `status = 'done' AND (assigned_to = $1 OR created_by = $1)`
	case task.TabArchived:
		where = `status = 'archived' AND (assigned_to = $1 OR created_by = $1)`
	case task.TabDelegated:
		where = `created_by = $1 AND assigned_to <> $1`
	case task.TabWatching:
		where = `$1 = ANY(watchers)`
	default:
		return nil, task.ErrUnknownTab
	}

	q := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where + ` ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s view: %w", tab, err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *Store) Search(ctx context.Context, query, userID string) ([]model.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE title ILIKE '%' || $1 || '%'`
	args := []any{query}
	if userID != "" {
		q += ` AND (assigned_to = $2 OR created_by = $2)`
		args = append(args, userID)
	}
	q += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var status, recurring string
	err := row.Scan(&t.ID, &t.Title, &t.Note, &status, &t.CreatedBy, &t.AssignedTo,
		&t.Watchers, &t.DueAt, &recurring, &t.ChannelID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Task{}, err
	}
	t.Status = model.Status(status)
	t.Recurring = model.Recurrence(recurring)
	return t, nil
}

func scanTasks(rows pgx.Rows) ([]model.Task, error) {
	out := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
