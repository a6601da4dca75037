package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://slack.com/api"

// Client is a minimal Web API client covering the calls this service makes:
// chat.postMessage, chat.postEphemeral, views.publish, views.open, and
// response_url follow-ups.
type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL points the client at a test server.
func (c *Client) SetBaseURL(url string) { c.baseURL = url }

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("slack %s: decode response: %w", method, err)
	}
	if !out.OK {
		return fmt.Errorf("slack %s: %s", method, out.Error)
	}
	return nil
}

// PostMessage posts text to a channel or user id (a user id opens a DM).
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	return c.call(ctx, "chat.postMessage", map[string]any{
		"channel": channel,
		"text":    text,
	})
}

// SendDM delivers a direct message to a single user.
func (c *Client) SendDM(ctx context.Context, userID, text string) error {
	return c.PostMessage(ctx, userID, text)
}

// PostEphemeral posts text visible only to one user in a channel.
func (c *Client) PostEphemeral(ctx context.Context, channel, userID, text string) error {
	return c.call(ctx, "chat.postEphemeral", map[string]any{
		"channel": channel,
		"user":    userID,
		"text":    text,
	})
}

// PublishHome publishes a user's App Home view.
func (c *Client) PublishHome(ctx context.Context, userID string, view map[string]any) error {
	return c.call(ctx, "views.publish", map[string]any{
		"user_id": userID,
		"view":    view,
	})
}

// OpenView opens a modal against a trigger id.
func (c *Client) OpenView(ctx context.Context, triggerID string, view map[string]any) error {
	return c.call(ctx, "views.open", map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	})
}

// Respond posts a follow-up through a slash command's response_url.
// Ephemeral responses are visible only to the invoking user.
func (c *Client) Respond(ctx context.Context, responseURL, text string, ephemeral bool) error {
	rtype := "in_channel"
	if ephemeral {
		rtype = "ephemeral"
	}
	b, err := json.Marshal(map[string]any{
		"response_type": rtype,
		"text":          text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("slack response_url: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack response_url: status %d", resp.StatusCode)
	}
	return nil
}
