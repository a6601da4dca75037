package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"slack-taskbot/internal/slack"
	"slack-taskbot/internal/task"
)

// InteractionsHandler receives block action clicks and view submissions.
// Like the slash handler it acks first; errors past the ack reach the user
// as a direct message.
func InteractionsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		body, err := readBody(r, maxBodyBytes)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := d.verify(r, body); err != nil {
			writeVerifyError(w, err)
			return
		}
		form, err := url.ParseQuery(string(body))
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed form body")
			return
		}
		in, err := slack.ParseInteraction([]byte(form.Get("payload")))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		switch in.Type {
		case "block_actions":
			d.run(func(ctx context.Context) { d.handleBlockActions(ctx, in) })
			w.WriteHeader(http.StatusOK)
		case "view_submission":
			d.run(func(ctx context.Context) { d.handleViewSubmission(ctx, in) })
			writeJSON(w, http.StatusOK, map[string]any{"response_action": "clear"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}
}

func (d Deps) handleBlockActions(ctx context.Context, in slack.Interaction) {
	userID := in.User.ID
	for _, a := range in.Actions {
		switch {
		case a.ActionID == slack.ActionTaskDone:
			_, _, err := d.Tasks.Complete(ctx, a.Value, userID)
			if err != nil {
				if isInternal(err) {
					d.Log.Error("complete_failed", map[string]any{"task": a.Value, "err": err.Error()})
				}
				d.dm(ctx, userID, userMessage(err))
				continue
			}
			d.publishHome(ctx, userID, task.TabHome)

		case strings.HasPrefix(a.ActionID, slack.ActionHomeTab+":"):
			tab := task.Tab(a.Value)
			if !tab.Valid() {
				tab = task.TabHome
			}
			d.publishHome(ctx, userID, tab)
		}
	}
}

func (d Deps) handleViewSubmission(ctx context.Context, in slack.Interaction) {
	if in.View == nil || in.View.CallbackID != slack.EditCallbackID {
		return
	}
	userID := in.User.ID
	taskID := in.View.PrivateMetadata

	title := in.View.Field("title", "title").Value
	note := in.View.Field("note", "note").Value
	watchers := in.View.Field("watchers", "watchers").SelectedUsers
	if watchers == nil {
		watchers = []string{}
	}

	p := task.Patch{
		Title:    &title,
		Note:     &note,
		Watchers: &watchers,
	}
	if assignee := in.View.Field("assignee", "assignee").SelectedUser; assignee != "" {
		p.AssignedTo = &assignee
	}

	if _, err := d.Tasks.Update(ctx, taskID, userID, p); err != nil {
		if isInternal(err) {
			d.Log.Error("edit_failed", map[string]any{"task": taskID, "err": err.Error()})
		}
		d.dm(ctx, userID, userMessage(err))
		return
	}
	d.publishHome(ctx, userID, task.TabHome)
}

func (d Deps) dm(ctx context.Context, userID, text string) {
	if err := d.Slack.SendDM(ctx, userID, text); err != nil {
		d.Log.Error("dm_failed", map[string]any{"user": userID, "err": err.Error()})
	}
}
