package eventlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/core/events"
	"github.com/kilianp07/benchpsu/core/factory"
)

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	for _, ev := range sampleEvents(base) {
		require.NoError(t, store.Append(context.Background(), ev))
	}

	all, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, events.Event{ID: "coupled_in_series", Kind: events.KindCoupledInSeries, Name: "coupled_in_series", Time: base}, all[0])

	coupling, err := store.Query(context.Background(), Query{
		Kinds: []events.Kind{events.KindCoupledInSeries, events.KindChannelsUncoupled},
		Start: base.Add(time.Second),
	})
	require.NoError(t, err)
	require.Len(t, coupling, 1)
	assert.Equal(t, events.KindChannelsUncoupled, coupling[0].Kind)

	limited, err := store.Query(context.Background(), Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestNew_FromModuleConfig(t *testing.T) {
	dir := t.TempDir()

	s, err := New(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(dir, "a.db")}})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = New(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(dir, "a.jsonl"), "max_size_mb": 2}})
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(factory.ModuleConfig{Type: "csv"})
	assert.Error(t, err)
}
