package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"slack-taskbot/internal/model"
	"slack-taskbot/internal/reminder"
)

func seedReminder(t *testing.T, s *Store, taskID string, remindAt time.Time) model.Reminder {
	t.Helper()
	created, err := s.CreateReminder(context.Background(), model.Reminder{
		ID:       uniqueID("rem"),
		TaskID:   taskID,
		RemindAt: remindAt,
	})
	if err != nil {
		t.Fatal(err)
	}
	return created
}

func TestClaimDue_DueAndUnsentOnly(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tk := seedTask(t, s, model.Task{Title: "Reminder target", CreatedBy: "U1", AssignedTo: "U1"})
	past := seedReminder(t, s, tk.ID, now.Add(-time.Minute))
	future := seedReminder(t, s, tk.ID, now.Add(time.Hour))

	claimed, err := s.ClaimDue(ctx, now, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !containsReminder(claimed, past.ID) {
		t.Errorf("due reminder %s missing", past.ID)
	}
	if containsReminder(claimed, future.ID) {
		t.Errorf("future reminder %s handed out early", future.ID)
	}

	for _, d := range claimed {
		if d.ID == past.ID && d.Title != tk.Title {
			t.Errorf("joined title = %q, want %q", d.Title, tk.Title)
		}
	}
}

func TestClaimDue_SecondPassSkipsClaimed(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tk := seedTask(t, s, model.Task{Title: "Once only", CreatedBy: "U1", AssignedTo: "U1"})
	rem := seedReminder(t, s, tk.ID, now.Add(-time.Minute))

	first, err := s.ClaimDue(ctx, now, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !containsReminder(first, rem.ID) {
		t.Fatalf("first pass did not claim %s", rem.ID)
	}

	second, err := s.ClaimDue(ctx, now, 100)
	if err != nil {
		t.Fatal(err)
	}
	if containsReminder(second, rem.ID) {
		t.Errorf("claimed reminder handed out again with the same now")
	}

	// a released reminder is claimable again
	if err := s.Release(ctx, rem.ID); err != nil {
		t.Fatal(err)
	}
	third, err := s.ClaimDue(ctx, now, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !containsReminder(third, rem.ID) {
		t.Errorf("released reminder not handed out on the next pass")
	}
}

func TestClaimDue_ConcurrentPassesClaimOnce(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tk := seedTask(t, s, model.Task{Title: "Contended", CreatedBy: "U1", AssignedTo: "U1"})
	rem := seedReminder(t, s, tk.ID, now.Add(-time.Minute))

	// Overlapping dispatcher passes: exactly one may walk away with the row.
	const N = 8
	var wg sync.WaitGroup
	wg.Add(N)

	var mu sync.Mutex
	handed := 0
	errs := make([]error, 0)

	for i := 0; i < N; i++ {
		go func() {
			defer wg.Done()
			claimed, err := s.ClaimDue(ctx, now, 100)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			if containsReminder(claimed, rem.ID) {
				mu.Lock()
				handed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if handed != 1 {
		t.Fatalf("reminder handed out %d times, want exactly 1", handed)
	}

	claimed, err := s.ClaimDue(ctx, now, 100)
	if err != nil {
		t.Fatal(err)
	}
	if containsReminder(claimed, rem.ID) {
		t.Errorf("reminder still claimable after being claimed")
	}
}

func containsReminder(ds []reminder.DueReminder, id string) bool {
	for _, d := range ds {
		if d.ID == id {
			return true
		}
	}
	return false
}
