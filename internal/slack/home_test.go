package slack

import (
	"testing"
	"time"

	"slack-taskbot/internal/model"
	"slack-taskbot/internal/task"
)

func homeBlocks(t *testing.T, view map[string]any) []map[string]any {
	t.Helper()
	blocks, ok := view["blocks"].([]map[string]any)
	if !ok {
		t.Fatalf("view has no blocks: %#v", view)
	}
	return blocks
}

func TestRenderHome_EmptyTab(t *testing.T) {
	view := RenderHome(task.TabHome, nil)

	if view["type"] != "home" {
		t.Errorf("view type = %v, want home", view["type"])
	}
	blocks := homeBlocks(t, view)
	// header, tab bar, empty-state section
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if blocks[1]["type"] != "actions" {
		t.Errorf("second block = %v, want the tab bar", blocks[1]["type"])
	}
}

func TestRenderHome_ActiveTabMarked(t *testing.T) {
	view := RenderHome(task.TabCompleted, nil)
	bar := homeBlocks(t, view)[1]

	elements := bar["elements"].([]map[string]any)
	if len(elements) != 6 {
		t.Fatalf("got %d tab buttons, want 6", len(elements))
	}
	marked := 0
	for _, el := range elements {
		label := el["text"].(map[string]any)["text"].(string)
		if label == "• Completed" {
			marked++
		}
	}
	if marked != 1 {
		t.Errorf("active marker count = %d, want exactly 1 on Completed", marked)
	}
}

func TestRenderHome_DoneButtonOnlyOnOpenRows(t *testing.T) {
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "t1", Title: "Open task", Status: model.StatusOpen, DueAt: &due},
		{ID: "t2", Title: "Done task", Status: model.StatusDone},
	}

	blocks := homeBlocks(t, RenderHome(task.TabHome, tasks))
	rows := blocks[2:]
	if len(rows) != 2 {
		t.Fatalf("got %d task rows, want 2", len(rows))
	}

	if _, ok := rows[0]["accessory"]; !ok {
		t.Error("open row is missing its Done button")
	}
	if _, ok := rows[1]["accessory"]; ok {
		t.Error("done row must not have a Done button")
	}

	btn := rows[0]["accessory"].(map[string]any)
	if btn["action_id"] != ActionTaskDone {
		t.Errorf("button action_id = %v, want %q", btn["action_id"], ActionTaskDone)
	}
	if btn["value"] != "t1" {
		t.Errorf("button value = %v, want the task id", btn["value"])
	}
}

func TestRenderHome_WatchingRowsReadOnly(t *testing.T) {
	tasks := []model.Task{
		{ID: "t1", Title: "Someone else's", Status: model.StatusOpen},
	}

	blocks := homeBlocks(t, RenderHome(task.TabWatching, tasks))
	if _, ok := blocks[2]["accessory"]; ok {
		t.Error("watching row must not have a Done button")
	}
}

func TestRenderEditModal(t *testing.T) {
	tk := model.Task{
		ID:         "t1",
		Title:      "Edit me",
		Note:       "some note",
		AssignedTo: "U2",
		Watchers:   []string{"U3", "U4"},
	}

	view := RenderEditModal(tk)
	if view["callback_id"] != EditCallbackID {
		t.Errorf("callback_id = %v, want %q", view["callback_id"], EditCallbackID)
	}
	if view["private_metadata"] != "t1" {
		t.Errorf("private_metadata = %v, want the task id", view["private_metadata"])
	}
}

func TestRenderEditModal_NoWatchers(t *testing.T) {
	view := RenderEditModal(model.Task{ID: "t1", Title: "Bare"})

	blocks := view["blocks"].([]map[string]any)
	var watchersEl map[string]any
	for _, b := range blocks {
		if b["block_id"] == "watchers" {
			watchersEl = b["element"].(map[string]any)
		}
	}
	if watchersEl == nil {
		t.Fatal("watchers block missing")
	}
	if _, ok := watchersEl["initial_users"]; ok {
		t.Error("empty watcher list must not set initial_users")
	}
}
