package slack

import (
	"fmt"

	"slack-taskbot/internal/model"
	"slack-taskbot/internal/task"
)

// Action ids the interaction handler dispatches on.
const (
	ActionTaskDone = "task_done"
	ActionHomeTab  = "home_tab"

	EditCallbackID = "task_edit_submit"
)

var homeTabs = []struct {
	tab   task.Tab
	label string
}{
	{task.TabHome, "Open"},
	{task.TabAssigned, "Assigned"},
	{task.TabDelegated, "Delegated"},
	{task.TabWatching, "Watching"},
	{task.TabCompleted, "Completed"},
	{task.TabArchived, "Archived"},
}

// RenderHome builds the App Home view for one user and tab. It is a pure
// function of its inputs; publishing it is the caller's concern.
func RenderHome(tab task.Tab, tasks []model.Task) map[string]any {
	blocks := []map[string]any{
		header("Your Tasks"),
		tabBar(tab),
	}

	if len(tasks) == 0 {
		blocks = append(blocks, section("_No tasks here_ :tada:"))
	}
	for _, t := range tasks {
		blocks = append(blocks, taskRow(tab, t))
	}

	return map[string]any{
		"type":   "home",
		"blocks": blocks,
	}
}

func taskRow(tab task.Tab, t model.Task) map[string]any {
	text := fmt.Sprintf("*%s*\nID: %s", t.Title, t.ID)
	if t.DueAt != nil {
		text += "\nDue: " + t.DueAt.Format("2006-01-02")
	}
	if t.Recurring.Valid() {
		text += fmt.Sprintf(" (recurring %s)", t.Recurring)
	}

	row := section(text)
	// Completed and archived rows are read-only; watching rows get no button
	// either, since watchers cannot complete someone else's task.
	if t.Status == model.StatusOpen && tab != task.TabWatching {
		row["accessory"] = map[string]any{
			"type":      "button",
			"text":      map[string]any{"type": "plain_text", "text": "Done"},
			"action_id": ActionTaskDone,
			"value":     t.ID,
		}
	}
	return row
}

func tabBar(active task.Tab) map[string]any {
	elements := make([]map[string]any, 0, len(homeTabs))
	for _, tb := range homeTabs {
		label := tb.label
		if tb.tab == active {
			label = "• " + label
		}
		elements = append(elements, map[string]any{
			"type":      "button",
			"text":      map[string]any{"type": "plain_text", "text": label},
			"action_id": ActionHomeTab + ":" + string(tb.tab),
			"value":     string(tb.tab),
		})
	}
	return map[string]any{"type": "actions", "elements": elements}
}

// RenderEditModal builds the owner's edit modal for a task. The task id rides
// along in private_metadata.
func RenderEditModal(t model.Task) map[string]any {
	watchersEl := map[string]any{
		"type":      "multi_users_select",
		"action_id": "watchers",
	}
	if len(t.Watchers) > 0 {
		watchersEl["initial_users"] = t.Watchers
	}
	return map[string]any{
		"type":             "modal",
		"callback_id":      EditCallbackID,
		"private_metadata": t.ID,
		"title":            map[string]any{"type": "plain_text", "text": "Edit task"},
		"submit":           map[string]any{"type": "plain_text", "text": "Save"},
		"close":            map[string]any{"type": "plain_text", "text": "Cancel"},
		"blocks": []map[string]any{
			inputBlock("title", "Title", map[string]any{
				"type":          "plain_text_input",
				"action_id":     "title",
				"initial_value": t.Title,
			}),
			inputBlock("note", "Note", map[string]any{
				"type":          "plain_text_input",
				"action_id":     "note",
				"multiline":     true,
				"initial_value": t.Note,
			}),
			inputBlock("assignee", "Assignee", map[string]any{
				"type":         "users_select",
				"action_id":    "assignee",
				"initial_user": t.AssignedTo,
			}),
			inputBlock("watchers", "Watchers", watchersEl),
		},
	}
}

func header(text string) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{"type": "plain_text", "text": text},
	}
}

func section(mrkdwn string) map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": mrkdwn},
	}
}

func inputBlock(blockID, label string, element map[string]any) map[string]any {
	return map[string]any{
		"type":     "input",
		"block_id": blockID,
		"label":    map[string]any{"type": "plain_text", "text": label},
		"element":  element,
		"optional": blockID != "title",
	}
}
