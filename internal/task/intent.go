package task

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"slack-taskbot/internal/model"
)

// Intent is the structured form of a free-text `add` invocation.
type Intent struct {
	Title     string
	Note      string
	Watchers  []string
	DueAt     *time.Time
	Recurring model.Recurrence
	Remind    string // raw remind: token value, resolved later against the due date
}

var mentionRe = regexp.MustCompile(`^<@([A-Z0-9]+)(\|[^>]*)?>$`)

// ParseAdd scans the argument string for <@user> mentions and due:/recurring:/
// remind: tokens. Anything it does not recognize stays in the title verbatim.
func ParseAdd(text string) (Intent, error) {
	var in Intent
	var title []string

	for _, tok := range strings.Fields(text) {
		if m := mentionRe.FindStringSubmatch(tok); m != nil {
			if !slices.Contains(in.Watchers, m[1]) {
				in.Watchers = append(in.Watchers, m[1])
			}
			continue
		}
		switch {
		case strings.HasPrefix(tok, "due:"):
			d, err := time.Parse("2006-01-02", strings.TrimPrefix(tok, "due:"))
			if err != nil {
				return Intent{}, ErrBadDueDate
			}
			d = d.UTC()
			in.DueAt = &d
		case strings.HasPrefix(tok, "recurring:"):
			r := model.Recurrence(strings.TrimPrefix(tok, "recurring:"))
			if !r.Valid() {
				return Intent{}, ErrBadRecurrence
			}
			in.Recurring = r
		case strings.HasPrefix(tok, "remind:"):
			in.Remind = strings.TrimPrefix(tok, "remind:")
		default:
			title = append(title, tok)
		}
	}

	in.Title = strings.Join(title, " ")
	return in, nil
}

// Preset reminder times, combined with the due date (or today when the task
// has no due date).
var remindPresets = map[string]int{
	"morning":     9,  // beginning of day
	"after-lunch": 14, // after lunch
	"eod":         17, // end of day
}

// ResolveRemind turns a remind: token into a concrete timestamp. Presets land
// on the due date at their fixed clock time; anything else must be an explicit
// 2006-01-02T15:04 value.
func ResolveRemind(spec string, due *time.Time, now time.Time) (*time.Time, error) {
	if spec == "" {
		return nil, nil
	}
	if hour, ok := remindPresets[spec]; ok {
		day := now.UTC()
		if due != nil {
			day = due.UTC()
		}
		at := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
		return &at, nil
	}
	at, err := time.Parse("2006-01-02T15:04", spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadRemind, spec)
	}
	at = at.UTC()
	return &at, nil
}
