// Package events serves the topology event log over HTTP.
package events

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	coreevents "github.com/kilianp07/benchpsu/core/events"
	"github.com/kilianp07/benchpsu/infra/eventlog"
	"github.com/kilianp07/benchpsu/pkg/export"
)

// NewHandler returns an HTTP handler exposing the event log via GET /api/events.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
//
// Query parameters: start and end (RFC 3339), kind (comma separated), limit,
// and format ("json" or "csv").
func NewHandler(store eventlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		evs, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			_ = export.WriteCSV(w, evs)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = export.WriteJSON(w, evs)
	})
}

func parseQuery(r *http.Request) (eventlog.Query, error) {
	v := r.URL.Query()
	var q eventlog.Query
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("kind"); s != "" {
		for _, name := range strings.Split(s, ",") {
			k, err := coreevents.ParseKind(strings.TrimSpace(name))
			if err != nil {
				return q, err
			}
			q.Kinds = append(q.Kinds, k)
		}
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	return q, nil
}
