package model

import (
	"errors"
	"slices"
	"time"
)

var ErrNotFound = errors.New("task not found")

type Status string

const (
	StatusOpen     Status = "open"
	StatusDone     Status = "done"
	StatusArchived Status = "archived"
)

type Recurrence string

const (
	RecurNone    Recurrence = ""
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurDaily, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// Next returns the due date for the successor task spawned when a recurring
// task is completed. The offset is taken from the completion time, not the
// old due date, so a task completed late does not drift further behind.
func (r Recurrence) Next(from time.Time) time.Time {
	switch r {
	case RecurDaily:
		return from.AddDate(0, 0, 1)
	case RecurWeekly:
		return from.AddDate(0, 0, 7)
	case RecurMonthly:
		return from.AddDate(0, 1, 0)
	}
	return from
}

type Task struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Note       string     `json:"note,omitempty"`
	Status     Status     `json:"status"`
	CreatedBy  string     `json:"created_by"`
	AssignedTo string     `json:"assigned_to"`
	Watchers   []string   `json:"watchers"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	Recurring  Recurrence `json:"recurring,omitempty"`
	ChannelID  string     `json:"channel_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (t *Task) IsOwner(userID string) bool {
	return t.CreatedBy == userID
}

func (t *Task) HasWatcher(userID string) bool {
	return slices.Contains(t.Watchers, userID)
}

// AddWatcher keeps watchers a set: adding an existing watcher is a no-op.
func (t *Task) AddWatcher(userID string) {
	if userID == "" || t.HasWatcher(userID) {
		return
	}
	t.Watchers = append(t.Watchers, userID)
}

// Successor clones the fields a recurring task carries forward.
func (t *Task) Successor(completedAt time.Time) Task {
	due := t.Recurring.Next(completedAt)
	return Task{
		Title:      t.Title,
		Note:       t.Note,
		Status:     StatusOpen,
		CreatedBy:  t.CreatedBy,
		AssignedTo: t.AssignedTo,
		Watchers:   slices.Clone(t.Watchers),
		DueAt:      &due,
		Recurring:  t.Recurring,
		ChannelID:  t.ChannelID,
	}
}

// Reminder is a single-shot scheduled notification for a task. Sent goes
// false->true exactly once and never reverts.
type Reminder struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	RemindAt  time.Time `json:"remind_at"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"created_at"`
}
