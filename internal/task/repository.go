package task

import (
	"context"
	"time"

	"slack-taskbot/internal/model"
)

// Tab selects one of the role-based task views.
type Tab string

const (
	TabHome      Tab = "home"      // open, assigned to or created by the user
	TabAssigned  Tab = "assigned"  // open, assigned to the user
	TabCompleted Tab = "completed" // done, assigned to or created by the user
	TabArchived  Tab = "archived"  // archived, assigned to or created by the user
	TabDelegated Tab = "delegated" // created by the user, assigned to someone else
	TabWatching  Tab = "watching"  // user is in the watcher set
)

func (t Tab) Valid() bool {
	switch t {
	case TabHome, TabAssigned, TabCompleted, TabArchived, TabDelegated, TabWatching:
		return true
	}
	return false
}

// Patch is a partial update. nil pointer => "no change".
type Patch struct {
	Title      *string
	Note       *string
	Status     *model.Status
	AssignedTo *string
	Watchers   *[]string
	DueAt      *time.Time
	Recurring  *model.Recurrence
}

// Repository is the store contract the lifecycle manager depends on.
// Update must be an atomic read-modify-write on the single row; that
// atomicity is the only ordering primitive the system relies on.
type Repository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id string) (model.Task, error)
	Update(ctx context.Context, id string, p Patch) (model.Task, error)
	Delete(ctx context.Context, id string) error

	// ListView returns the tasks visible to userID under tab, ordered by
	// created_at ascending (oldest first). That ordering is a stable contract.
	ListView(ctx context.Context, userID string, tab Tab) ([]model.Task, error)

	// Search matches query as a case-insensitive substring of the title,
	// any status. Empty userID searches globally; otherwise results are
	// limited to tasks the user created or is assigned.
	Search(ctx context.Context, query, userID string) ([]model.Task, error)
}

// ReminderWriter schedules single-shot reminders; the reminder package owns
// the due-side of the contract.
type ReminderWriter interface {
	CreateReminder(ctx context.Context, r model.Reminder) (model.Reminder, error)
}
