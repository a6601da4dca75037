package httpapi

import (
	"context"
	"net/http"

	"slack-taskbot/internal/slack"
	"slack-taskbot/internal/task"
)

// EventsHandler receives the Events API: the one-time url_verification
// challenge and app_home_opened notifications.
func EventsHandler(d Deps) http.HandlerFunc {
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
		ev, err := slack.ParseEventCallback(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		switch ev.Type {
		case "url_verification":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(ev.Challenge))

		case "event_callback":
			if ev.Event.Type == "app_home_opened" && ev.Event.User != "" {
				userID := ev.Event.User
				d.run(func(ctx context.Context) { d.publishHome(ctx, userID, task.TabHome) })
			}
			w.WriteHeader(http.StatusOK)

		default:
			w.WriteHeader(http.StatusOK)
		}
	}
}
