package httpapi

import (
	"net/http"

	"slack-taskbot/internal/reminder"
)

// RemindOnceHandler runs a single dispatcher pass. Debug endpoint; the
// production path is the background dispatcher.
func RemindOnceHandler(d *reminder.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		sent, err := d.DispatchOnce(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
	}
}
