// Package export writes event log extracts for offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/kilianp07/benchpsu/core/events"
)

// WriteJSON writes the events to w as a JSON array.
func WriteJSON(w io.Writer, evs []events.Event) error {
	if evs == nil {
		evs = []events.Event{}
	}
	return json.NewEncoder(w).Encode(evs)
}

// WriteCSV writes the events to w with a header row.
func WriteCSV(w io.Writer, evs []events.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "time", "kind"}); err != nil {
		return err
	}
	for _, ev := range evs {
		rec := []string{ev.ID, ev.Time.UTC().Format(time.RFC3339Nano), ev.Kind.String()}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
