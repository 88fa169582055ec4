package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/core/events"
)

func TestWriteCSV(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	evs := []events.Event{
		{ID: "a", Kind: events.KindCoupledInParallel, Time: ts},
		{ID: "b", Kind: events.KindChannelsUncoupled, Time: ts.Add(time.Second)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, evs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "time", "kind"}, rows[0])
	assert.Equal(t, []string{"a", "2024-03-01T10:00:00Z", "coupled_in_parallel"}, rows[1])
	assert.Equal(t, "channels_uncoupled", rows[2][2])
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}
