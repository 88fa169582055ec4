// Package channels serves the settled channel table over HTTP.
package channels

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kilianp07/benchpsu/core/dispatch"
)

// StatusSource returns the current channel table.
type StatusSource interface {
	Status() []dispatch.ChannelStatus
}

// NewStatusHandler returns an HTTP handler exposing channel status via GET /api/channels/status.
// An optional channel parameter selects one channel.
func NewStatusHandler(src StatusSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		entries := src.Status()
		if s := r.URL.Query().Get("channel"); s != "" {
			idx, err := strconv.Atoi(s)
			if err != nil || idx < 0 || idx >= len(entries) {
				http.Error(w, "invalid channel", http.StatusBadRequest)
				return
			}
			entries = entries[idx : idx+1]
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
