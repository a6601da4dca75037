package task

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"slack-taskbot/internal/model"
)

// MemoryRepo is an in-memory Repository and ReminderWriter, used by tests and
// local development. It mirrors the store contract, including the ascending
// created_at ordering of ListView.
type MemoryRepo struct {
	mu        sync.RWMutex
	tasks     map[string]model.Task
	reminders map[string]model.Reminder
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		tasks:     map[string]model.Task{},
		reminders: map[string]model.Reminder{},
	}
}

func (r *MemoryRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Watchers == nil {
		t.Watchers = []string{}
	}
	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (model.Task, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, model.ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, p Patch) (model.Task, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, model.ErrNotFound
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Watchers != nil {
		t.Watchers = slices.Clone(*p.Watchers)
	}
	if p.DueAt != nil {
		due := *p.DueAt
		t.DueAt = &due
	}
	if p.Recurring != nil {
		t.Recurring = *p.Recurring
	}
	t.UpdatedAt = time.Now().UTC()
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.tasks, id)
	for rid, rem := range r.reminders {
		if rem.TaskID == id {
			delete(r.reminders, rid)
		}
	}
	return nil
}

func (r *MemoryRepo) ListView(ctx context.Context, userID string, tab Tab) ([]model.Task, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := func(t model.Task) bool {
		mine := t.AssignedTo == userID || t.CreatedBy == userID
		switch tab {
		case TabHome:
			return t.Status == model.StatusOpen && mine
		case TabAssigned:
			return t.Status == model.StatusOpen && t.AssignedTo == userID
		case TabCompleted:
			return t.Status == model.StatusDone && mine
		case TabArchived:
			return t.Status == model.StatusArchived && mine
		case TabDelegated:
			return t.CreatedBy == userID && t.AssignedTo != userID
		case TabWatching:
			return t.HasWatcher(userID)
		}
		return false
	}

	out := make([]model.Task, 0)
	for _, t := range r.tasks {
		if matches(t) {
			out = append(out, t)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (r *MemoryRepo) Search(ctx context.Context, query, userID string) ([]model.Task, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]model.Task, 0)
	for _, t := range r.tasks {
		if !strings.Contains(strings.ToLower(t.Title), q) {
			continue
		}
		if userID != "" && t.AssignedTo != userID && t.CreatedBy != userID {
			continue
		}
		out = append(out, t)
	}
	sortByCreated(out)
	return out, nil
}

func (r *MemoryRepo) CreateReminder(ctx context.Context, rem model.Reminder) (model.Reminder, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if rem.ID == "" {
		rem.ID = uuid.Must(uuid.NewV7()).String()
	}
	rem.CreatedAt = time.Now().UTC()
	r.reminders[rem.ID] = rem
	return rem, nil
}

// Reminders returns all reminder rows, for test assertions.
func (r *MemoryRepo) Reminders() []model.Reminder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Reminder, 0, len(r.reminders))
	for _, rem := range r.reminders {
		out = append(out, rem)
	}
	return out
}

func sortByCreated(ts []model.Task) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].ID < ts[j].ID
		}
		return ts[i].CreatedAt.Before(ts[j].CreatedAt)
	})
}
