package task

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"slack-taskbot/internal/model"
	"slack-taskbot/internal/observability/jsonlog"
)

// Notifier delivers a direct message to a single user. The Slack client
// implements it; tests substitute a fake.
type Notifier interface {
	SendDM(ctx context.Context, userID, text string) error
}

// Service owns the task lifecycle rules: who may change what, who gets
// notified, and what completing a recurring task spawns. It is stateless;
// every operation re-reads current state from the repository.
type Service struct {
	tasks     Repository
	reminders ReminderWriter
	notify    Notifier
	log       *jsonlog.Logger
	now       func() time.Time
}

func NewService(tasks Repository, reminders ReminderWriter, notify Notifier, log *jsonlog.Logger) *Service {
	return &Service{
		tasks:     tasks,
		reminders: reminders,
		notify:    notify,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the clock, for tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// Create inserts a new open task from a parsed intent. Every watcher, and the
// assignee when different from the actor, is notified exactly once. If the
// intent carries a reminder spec, one reminder row is scheduled. A rejected
// intent mutates nothing: the remind spec is resolved before the insert, and
// a failed reminder insert removes the task again.
func (s *Service) Create(ctx context.Context, actorID, channelID string, in Intent) (model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	remindAt, err := ResolveRemind(in.Remind, in.DueAt, s.now())
	if err != nil {
		return model.Task{}, err
	}

	assignee := actorID
	t := model.Task{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Title:      title,
		Note:       in.Note,
		Status:     model.StatusOpen,
		CreatedBy:  actorID,
		AssignedTo: assignee,
		Watchers:   dedupe(in.Watchers),
		DueAt:      in.DueAt,
		Recurring:  in.Recurring,
		ChannelID:  channelID,
	}

	created, err := s.tasks.Create(ctx, t)
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}

	if remindAt != nil {
		_, err := s.reminders.CreateReminder(ctx, model.Reminder{
			ID:       uuid.Must(uuid.NewV7()).String(),
			TaskID:   created.ID,
			RemindAt: *remindAt,
		})
		if err != nil {
			// The user was promised a reminder; a task without one must not
			// linger behind the failure message.
			if delErr := s.tasks.Delete(ctx, created.ID); delErr != nil {
				s.log.Error("orphaned_task_cleanup_failed", map[string]any{
					"task": created.ID, "err": delErr.Error(),
				})
			}
			return model.Task{}, fmt.Errorf("schedule reminder: %w", err)
		}
	}

	recipients := slices.Clone(created.Watchers)
	if created.AssignedTo != actorID && !slices.Contains(recipients, created.AssignedTo) {
		recipients = append(recipients, created.AssignedTo)
	}
	s.fanout(ctx, recipients, fmt.Sprintf("New task: *%s* (ID: %s)", created.Title, created.ID))

	return created, nil
}

// Update applies a partial edit. Only the owner may edit; a non-owner attempt
// returns ErrNotOwner and changes nothing. A reassignment notifies the new
// assignee once; watchers newly added (by set difference, not position) are
// each notified once, removed watchers hear nothing.
func (s *Service) Update(ctx context.Context, taskID, actorID string, p Patch) (model.Task, error) {
	cur, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return model.Task{}, err
	}
	if !cur.IsOwner(actorID) {
		return model.Task{}, ErrNotOwner
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return model.Task{}, ErrEmptyTitle
	}
	if p.Watchers != nil {
		deduped := dedupe(*p.Watchers)
		p.Watchers = &deduped
	}

	updated, err := s.tasks.Update(ctx, taskID, p)
	if err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}

	if p.AssignedTo != nil && updated.AssignedTo != cur.AssignedTo && updated.AssignedTo != actorID {
		s.fanout(ctx, []string{updated.AssignedTo},
			fmt.Sprintf("You were assigned: *%s* (ID: %s)", updated.Title, updated.ID))
	}
	if p.Watchers != nil {
		added := diff(updated.Watchers, cur.Watchers)
		s.fanout(ctx, added, fmt.Sprintf("You are now watching: *%s*", updated.Title))
	}

	return updated, nil
}

// Complete marks a task done. A recurring task also spawns exactly one open
// successor with the due date advanced by one interval from now. Watchers are
// told the task was completed. Returns the completed task and the successor,
// if any. Completing a task that is no longer open (a double-clicked Done
// button) returns it unchanged and spawns nothing.
func (s *Service) Complete(ctx context.Context, taskID, actorID string) (model.Task, *model.Task, error) {
	cur, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return model.Task{}, nil, err
	}
	if cur.Status != model.StatusOpen {
		return cur, nil, nil
	}

	done := model.StatusDone
	completed, err := s.tasks.Update(ctx, taskID, Patch{Status: &done})
	if err != nil {
		return model.Task{}, nil, fmt.Errorf("complete task: %w", err)
	}

	var successor *model.Task
	if cur.Recurring.Valid() {
		next := cur.Successor(s.now())
		next.ID = uuid.Must(uuid.NewV7()).String()
		created, err := s.tasks.Create(ctx, next)
		if err != nil {
			return model.Task{}, nil, fmt.Errorf("spawn recurring successor: %w", err)
		}
		successor = &created
	}

	s.fanout(ctx, completed.Watchers, fmt.Sprintf("Task completed: *%s*", completed.Title))
	return completed, successor, nil
}

// Delete hard-removes a task. Owner-only; deletion is final.
func (s *Service) Delete(ctx context.Context, taskID, actorID string) error {
	cur, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !cur.IsOwner(actorID) {
		return ErrNotOwner
	}
	return s.tasks.Delete(ctx, taskID)
}

func (s *Service) Get(ctx context.Context, taskID string) (model.Task, error) {
	return s.tasks.Get(ctx, taskID)
}

// ListView returns the tasks visible to the user under the given tab, oldest
// first.
func (s *Service) ListView(ctx context.Context, userID string, tab Tab) ([]model.Task, error) {
	if !tab.Valid() {
		return nil, ErrUnknownTab
	}
	return s.tasks.ListView(ctx, userID, tab)
}

// Search matches query case-insensitively against titles. An empty result is
// a normal outcome.
func (s *Service) Search(ctx context.Context, query, userID string) ([]model.Task, error) {
	return s.tasks.Search(ctx, strings.TrimSpace(query), userID)
}

// fanout sends one DM per recipient, sequentially. A failed send is logged
// and does not cancel the remaining sends.
func (s *Service) fanout(ctx context.Context, recipients []string, text string) {
	for _, userID := range recipients {
		if err := s.notify.SendDM(ctx, userID, text); err != nil {
			s.log.Error("notify_failed", map[string]any{"user": userID, "err": err.Error()})
		}
	}
}

func dedupe(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x != "" && !slices.Contains(out, x) {
			out = append(out, x)
		}
	}
	return out
}

// diff returns the members of a that are not in b.
func diff(a, b []string) []string {
	var out []string
	for _, x := range a {
		if !slices.Contains(b, x) {
			out = append(out, x)
		}
	}
	return out
}
