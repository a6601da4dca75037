package slack

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// SlashCommand is the form payload of a slash command invocation.
type SlashCommand struct {
	Command     string
	Text        string
	UserID      string
	ChannelID   string
	TriggerID   string
	ResponseURL string
}

func ParseSlashCommand(form url.Values) SlashCommand {
	return SlashCommand{
		Command:     form.Get("command"),
		Text:        strings.TrimSpace(form.Get("text")),
		UserID:      form.Get("user_id"),
		ChannelID:   form.Get("channel_id"),
		TriggerID:   form.Get("trigger_id"),
		ResponseURL: form.Get("response_url"),
	}
}

// Interaction is the decoded `payload` field of an interactivity POST:
// a block action click or a view submission.
type Interaction struct {
	Type      string `json:"type"` // block_actions | view_submission
	TriggerID string `json:"trigger_id"`
	User      struct {
		ID string `json:"id"`
	} `json:"user"`
	Actions []Action `json:"actions"`
	View    *View    `json:"view"`
}

type Action struct {
	ActionID string `json:"action_id"`
	Value    string `json:"value"`
}

// View carries a modal submission. PrivateMetadata round-trips opaque state
// (here: the task id being edited).
type View struct {
	CallbackID      string `json:"callback_id"`
	PrivateMetadata string `json:"private_metadata"`
	State           struct {
		Values map[string]map[string]BlockValue `json:"values"`
	} `json:"state"`
}

type BlockValue struct {
	Value         string   `json:"value"`
	SelectedUser  string   `json:"selected_user"`
	SelectedUsers []string `json:"selected_users"`
}

// Field digs a named input out of the submission state by block and action id.
func (v *View) Field(blockID, actionID string) BlockValue {
	if v == nil {
		return BlockValue{}
	}
	return v.State.Values[blockID][actionID]
}

func ParseInteraction(payload []byte) (Interaction, error) {
	var in Interaction
	if err := json.Unmarshal(payload, &in); err != nil {
		return Interaction{}, fmt.Errorf("decode interaction payload: %w", err)
	}
	if in.Type == "" {
		return Interaction{}, fmt.Errorf("interaction payload missing type")
	}
	return in, nil
}

// EventCallback is the Events API envelope. url_verification carries a
// challenge to echo; event_callback wraps the inner event.
type EventCallback struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Event     struct {
		Type string `json:"type"`
		User string `json:"user"`
	} `json:"event"`
}

func ParseEventCallback(body []byte) (EventCallback, error) {
	var ev EventCallback
	if err := json.Unmarshal(body, &ev); err != nil {
		return EventCallback{}, fmt.Errorf("decode event callback: %w", err)
	}
	return ev, nil
}
