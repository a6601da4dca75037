package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"slack-taskbot/internal/task"
)

func slashForm(userID, text string) string {
	form := url.Values{}
	form.Set("command", "/todo")
	form.Set("text", text)
	form.Set("user_id", userID)
	form.Set("channel_id", "C123")
	form.Set("trigger_id", "trig-1")
	form.Set("response_url", "https://hooks.slack.test/resp")
	return form.Encode()
}

func TestSlashCommand_AddAcksAndCreatesTask(t *testing.T) {
	d, repo, gw := newTestDeps()

	body := slashForm("U1", "add Buy milk <@U2> due:2026-09-10")
	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, signedRequest("/slack/command", "application/x-www-form-urlencoded", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var ack map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack["response_type"] != "ephemeral" {
		t.Errorf("ack response_type = %v, want ephemeral", ack["response_type"])
	}

	tasks, err := repo.ListView(context.Background(), "U1", task.TabHome)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Title != "Buy milk" {
		t.Errorf("title = %q, want %q", tasks[0].Title, "Buy milk")
	}
	if len(gw.responses) != 1 || !strings.Contains(gw.responses[0], "Task added") {
		t.Errorf("responses = %v, want one confirmation", gw.responses)
	}
}

func TestSlashCommand_AcksBeforeProcessing(t *testing.T) {
	d, repo, _ := newTestDeps()

	var deferred func()
	d.RunAsync = func(fn func()) { deferred = fn }

	body := slashForm("U1", "add Deferred work")
	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, signedRequest("/slack/command", "application/x-www-form-urlencoded", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	tasks, _ := repo.ListView(context.Background(), "U1", task.TabHome)
	if len(tasks) != 0 {
		t.Fatal("mutation ran before the ack phase handed it off")
	}

	deferred()
	tasks, _ = repo.ListView(context.Background(), "U1", task.TabHome)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks after processing, want 1", len(tasks))
	}
}

func TestSlashCommand_InvalidSignatureRejected(t *testing.T) {
	d, repo, _ := newTestDeps()

	body := slashForm("U1", "add Buy milk")
	r := signedRequest("/slack/command", "application/x-www-form-urlencoded", body)
	r.Header.Set("X-Slack-Signature", "v0=deadbeef")

	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	tasks, _ := repo.ListView(context.Background(), "U1", task.TabHome)
	if len(tasks) != 0 {
		t.Errorf("task created despite rejected request")
	}
}

func TestSlashCommand_StaleTimestampRejected(t *testing.T) {
	d, _, _ := newTestDeps()

	body := slashForm("U1", "add Buy milk")
	r := signedRequest("/slack/command", "application/x-www-form-urlencoded", body)
	old := strconv.FormatInt(testNow.Add(-10*time.Minute).Unix(), 10)
	r.Header.Set("X-Slack-Request-Timestamp", old)

	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSlashCommand_MethodNotAllowed(t *testing.T) {
	d, _, _ := newTestDeps()

	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, httptest.NewRequest(http.MethodGet, "/slack/command", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestSlashCommand_UnknownSubcommandShowsUsage(t *testing.T) {
	d, _, gw := newTestDeps()

	body := slashForm("U1", "frobnicate")
	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, signedRequest("/slack/command", "application/x-www-form-urlencoded", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(gw.responses) != 1 || !strings.Contains(gw.responses[0], "Usage:") {
		t.Errorf("responses = %v, want usage help", gw.responses)
	}
}

func TestSlashCommand_EmptyTitleReportedViaResponseURL(t *testing.T) {
	d, _, gw := newTestDeps()

	body := slashForm("U1", "add   ")
	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, signedRequest("/slack/command", "application/x-www-form-urlencoded", body))

	// ack still succeeds; the validation error goes out-of-band
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(gw.responses) != 1 || !strings.Contains(gw.responses[0], ":warning:") {
		t.Errorf("responses = %v, want a warning", gw.responses)
	}
}

func TestSlashCommand_DoneCompletesAndReportsSuccessor(t *testing.T) {
	d, _, gw := newTestDeps()

	created, err := d.Tasks.Create(context.Background(), "U1", "C123", task.Intent{
		Title: "Weekly report", Recurring: "weekly",
	})
	if err != nil {
		t.Fatal(err)
	}

	body := slashForm("U1", "done "+created.ID)
	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, signedRequest("/slack/command", "application/x-www-form-urlencoded", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	last := gw.responses[len(gw.responses)-1]
	if !strings.Contains(last, "marked as complete") || !strings.Contains(last, "Next occurrence") {
		t.Errorf("response = %q, want completion with successor note", last)
	}
	if !strings.Contains(last, "Home tab") {
		t.Errorf("response = %q, want the Home tab hint", last)
	}
}

func TestSlashCommand_DeleteByNonOwnerRefused(t *testing.T) {
	d, repo, gw := newTestDeps()

	created, err := d.Tasks.Create(context.Background(), "U1", "C123", task.Intent{Title: "Keep me"})
	if err != nil {
		t.Fatal(err)
	}

	body := slashForm("U2", "delete "+created.ID)
	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, signedRequest("/slack/command", "application/x-www-form-urlencoded", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	last := gw.responses[len(gw.responses)-1]
	if !strings.Contains(last, "owner") {
		t.Errorf("response = %q, want owner refusal", last)
	}
	if _, err := repo.Get(context.Background(), created.ID); err != nil {
		t.Errorf("task gone after refused delete: %v", err)
	}
}

func TestSlashCommand_EditOpensModal(t *testing.T) {
	d, _, gw := newTestDeps()

	created, err := d.Tasks.Create(context.Background(), "U1", "C123", task.Intent{Title: "Edit me"})
	if err != nil {
		t.Fatal(err)
	}

	body := slashForm("U1", "edit "+created.ID)
	rec := httptest.NewRecorder()
	SlashCommandHandler(d)(rec, signedRequest("/slack/command", "application/x-www-form-urlencoded", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(gw.opened) != 1 {
		t.Fatalf("opened %d modals, want 1", len(gw.opened))
	}
	if got := gw.opened[0]["private_metadata"]; got != created.ID {
		t.Errorf("modal private_metadata = %v, want %q", got, created.ID)
	}
}
