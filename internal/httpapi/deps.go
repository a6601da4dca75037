package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"slack-taskbot/internal/model"
	"slack-taskbot/internal/observability/jsonlog"
	"slack-taskbot/internal/slack"
	"slack-taskbot/internal/task"
)

// SlackGateway is the outbound surface the handlers need; *slack.Client
// implements it, tests substitute a fake.
type SlackGateway interface {
	Respond(ctx context.Context, responseURL, text string, ephemeral bool) error
	SendDM(ctx context.Context, userID, text string) error
	PublishHome(ctx context.Context, userID string, view map[string]any) error
	OpenView(ctx context.Context, triggerID string, view map[string]any) error
}

// Deps wires one set of collaborators into all Slack-facing handlers.
type Deps struct {
	SigningSecret string
	Tasks         *task.Service
	Slack         SlackGateway
	Log           *jsonlog.Logger

	// Now overrides the clock for signature checks, for tests.
	Now func() time.Time

	// ProcessTimeout bounds the post-ack processing phase.
	ProcessTimeout time.Duration

	// RunAsync runs the post-ack phase; nil means "go func". Tests set it to
	// run inline.
	RunAsync func(fn func())
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

func (d Deps) verify(r *http.Request, body []byte) error {
	return slack.VerifySignature(slack.SignatureInput{
		SigningSecret:   d.SigningSecret,
		TimestampHeader: r.Header.Get("X-Slack-Request-Timestamp"),
		SignatureHeader: r.Header.Get("X-Slack-Signature"),
		Body:            body,
		Now:             d.now(),
	})
}

// writeVerifyError mirrors the split between malformed requests and failed
// authentication.
func writeVerifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slack.ErrInvalidTimestamp),
		errors.Is(err, slack.ErrTimestampOutsideWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusUnauthorized, err.Error())
	}
}

// run executes the post-ack phase with its own timeout context, detached from
// the (already answered) request.
func (d Deps) run(fn func(ctx context.Context)) {
	timeout := d.ProcessTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	spawn := d.RunAsync
	if spawn == nil {
		spawn = func(f func()) { go f() }
	}
	spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		fn(ctx)
	})
}

// userMessage converts an operation error into the short message the invoking
// user sees. Store failures stay generic here and detailed in the log.
func userMessage(err error) string {
	switch {
	case task.IsUserError(err):
		return ":warning: " + err.Error()
	case errors.Is(err, task.ErrNotOwner):
		return ":no_entry: Only the task owner can do that."
	case errors.Is(err, model.ErrNotFound):
		return ":mag: Task not found."
	default:
		return ":x: Something went wrong. Please try again."
	}
}

func isInternal(err error) bool {
	return err != nil &&
		!task.IsUserError(err) &&
		!errors.Is(err, task.ErrNotOwner) &&
		!errors.Is(err, model.ErrNotFound)
}

// publishHome renders and publishes one user's App Home tab.
func (d Deps) publishHome(ctx context.Context, userID string, tab task.Tab) {
	tasks, err := d.Tasks.ListView(ctx, userID, tab)
	if err != nil {
		d.Log.Error("home_list_failed", map[string]any{"user": userID, "tab": string(tab), "err": err.Error()})
		return
	}
	if err := d.Slack.PublishHome(ctx, userID, slack.RenderHome(tab, tasks)); err != nil {
		d.Log.Error("home_publish_failed", map[string]any{"user": userID, "err": err.Error()})
	}
}
