package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"slack-taskbot/internal/slack"
	"slack-taskbot/internal/task"
)

const usage = "Usage: `/todo add <title> [<@user> ...] [due:2026-01-31] [recurring:daily|weekly|monthly] [remind:morning|after-lunch|eod]` | `list` | `done <id>` | `edit <id>` | `delete <id>` | `search <keyword>`"

// SlashCommandHandler receives /todo invocations. It acknowledges within
// Slack's deadline and runs the actual mutation afterwards; failures past the
// ack surface through response_url, never through the ack itself.
func SlashCommandHandler(d Deps) http.HandlerFunc {
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
		cmd := slack.ParseSlashCommand(form)

		d.run(func(ctx context.Context) { d.handleSlash(ctx, cmd) })

		// The ack body is what the user sees immediately.
		writeJSON(w, http.StatusOK, map[string]any{
			"response_type": "ephemeral",
			"text":          "On it...",
		})
	}
}

func (d Deps) handleSlash(ctx context.Context, cmd slack.SlashCommand) {
	sub, rest := splitSubcommand(cmd.Text)

	var msg string
	var err error
	switch sub {
	case "add":
		msg, err = d.slashAdd(ctx, cmd, rest)
	case "list":
		msg, err = d.slashList(ctx, cmd.UserID)
	case "done":
		msg, err = d.slashDone(ctx, cmd.UserID, rest)
	case "edit":
		msg, err = d.slashEdit(ctx, cmd, rest)
	case "delete":
		msg, err = d.slashDelete(ctx, cmd.UserID, rest)
	case "search":
		msg, err = d.slashSearch(ctx, rest)
	default:
		msg = ":question: Unknown subcommand. " + usage
	}

	if err != nil {
		if isInternal(err) {
			d.Log.Error("slash_command_failed", map[string]any{
				"sub": sub, "user": cmd.UserID, "err": err.Error(),
			})
		}
		msg = userMessage(err)
	}
	if msg == "" {
		return
	}
	if err := d.Slack.Respond(ctx, cmd.ResponseURL, msg, true); err != nil {
		d.Log.Error("slash_respond_failed", map[string]any{"user": cmd.UserID, "err": err.Error()})
	}
}

func (d Deps) slashAdd(ctx context.Context, cmd slack.SlashCommand, args string) (string, error) {
	in, err := task.ParseAdd(args)
	if err != nil {
		return "", err
	}
	t, err := d.Tasks.Create(ctx, cmd.UserID, cmd.ChannelID, in)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(":white_check_mark: Task added: *%s* (ID: %s)", t.Title, t.ID), nil
}

func (d Deps) slashList(ctx context.Context, userID string) (string, error) {
	tasks, err := d.Tasks.ListView(ctx, userID, task.TabAssigned)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return ":tada: No tasks assigned to you.", nil
	}
	var b strings.Builder
	b.WriteString(":clipboard: Your open tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "• %s (ID: %s)\n", t.Title, t.ID)
	}
	return b.String(), nil
}

func (d Deps) slashDone(ctx context.Context, userID, args string) (string, error) {
	id := strings.TrimSpace(args)
	if id == "" {
		return ":warning: Missing task id. Usage: `/todo done <task-id>`", nil
	}
	completed, successor, err := d.Tasks.Complete(ctx, id, userID)
	if err != nil {
		return "", err
	}
	msg := fmt.Sprintf(":white_check_mark: Task *%s* marked as complete.", completed.Title)
	if successor != nil {
		msg += fmt.Sprintf("\n:repeat: Next occurrence due %s (ID: %s). Find it in your Home tab.",
			successor.DueAt.Format("2006-01-02"), successor.ID)
	}
	return msg, nil
}

func (d Deps) slashEdit(ctx context.Context, cmd slack.SlashCommand, args string) (string, error) {
	id := strings.TrimSpace(args)
	if id == "" {
		return ":warning: Missing task id. Usage: `/todo edit <task-id>`", nil
	}
	t, err := d.Tasks.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !t.IsOwner(cmd.UserID) {
		return "", task.ErrNotOwner
	}
	if err := d.Slack.OpenView(ctx, cmd.TriggerID, slack.RenderEditModal(t)); err != nil {
		return "", err
	}
	return "", nil // the modal is the response
}

func (d Deps) slashDelete(ctx context.Context, userID, args string) (string, error) {
	id := strings.TrimSpace(args)
	if id == "" {
		return ":warning: Missing task id. Usage: `/todo delete <task-id>`", nil
	}
	if err := d.Tasks.Delete(ctx, id, userID); err != nil {
		return "", err
	}
	return ":wastebasket: Task deleted.", nil
}

func (d Deps) slashSearch(ctx context.Context, args string) (string, error) {
	query := strings.TrimSpace(args)
	if query == "" {
		return ":warning: Missing keyword. Usage: `/todo search <keyword>`", nil
	}
	tasks, err := d.Tasks.Search(ctx, query, "")
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return ":mag: No matching tasks found.", nil
	}
	var b strings.Builder
	b.WriteString(":mag_right: Search results:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "• %s [%s] (ID: %s)\n", t.Title, t.Status, t.ID)
	}
	return b.String(), nil
}

func splitSubcommand(text string) (sub, rest string) {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	sub = strings.ToLower(parts[0])
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return sub, rest
}
