package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"slack-taskbot/internal/observability/jsonlog"
	"slack-taskbot/internal/slack"
	"slack-taskbot/internal/task"
)

const testSecret = "test-signing-secret"

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// fakeGateway records every outbound Slack call.
type fakeGateway struct {
	mu        sync.Mutex
	responses []string // response_url messages
	dms       []string // "user|text"
	homes     []string // user ids whose home was published
	homeViews []map[string]any
	opened    []map[string]any // modals
}

func (g *fakeGateway) Respond(ctx context.Context, responseURL, text string, ephemeral bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, text)
	return nil
}

func (g *fakeGateway) SendDM(ctx context.Context, userID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dms = append(g.dms, userID+"|"+text)
	return nil
}

func (g *fakeGateway) PublishHome(ctx context.Context, userID string, view map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.homes = append(g.homes, userID)
	g.homeViews = append(g.homeViews, view)
	return nil
}

func (g *fakeGateway) OpenView(ctx context.Context, triggerID string, view map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opened = append(g.opened, view)
	return nil
}

// newTestDeps wires handlers against the in-memory repo with the post-ack
// phase running inline, so assertions can follow the request directly.
func newTestDeps() (Deps, *task.MemoryRepo, *fakeGateway) {
	repo := task.NewMemoryRepo()
	gw := &fakeGateway{}
	log := jsonlog.New(io.Discard)

	svc := task.NewService(repo, repo, gw, log)
	svc.SetNow(func() time.Time { return testNow })

	d := Deps{
		SigningSecret: testSecret,
		Tasks:         svc,
		Slack:         gw,
		Log:           log,
		Now:           func() time.Time { return testNow },
		RunAsync:      func(fn func()) { fn() },
	}
	return d, repo, gw
}

// signedRequest builds a POST with a valid v0 signature for testNow.
func signedRequest(target, contentType, body string) *http.Request {
	ts := strconv.FormatInt(testNow.Unix(), 10)
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("X-Slack-Request-Timestamp", ts)
	r.Header.Set("X-Slack-Signature", slack.Sign(testSecret, ts, []byte(body)))
	return r
}
