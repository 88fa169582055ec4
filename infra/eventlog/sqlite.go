package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/benchpsu/core/events"
)

// SQLiteStore persists events in a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("eventlog: sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS topology_events (
        seq  INTEGER PRIMARY KEY AUTOINCREMENT,
        id   TEXT NOT NULL,
        ts   INTEGER NOT NULL,
        kind INTEGER NOT NULL,
        name TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS topology_events_ts ON topology_events (ts);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, ev events.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topology_events (id, ts, kind, name) VALUES (?, ?, ?, ?)`,
		ev.ID, ev.Time.UnixNano(), int(ev.Kind), ev.Name)
	return err
}

func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]events.Event, error) {
	var (
		where []string
		args  []any
	)
	if !q.Start.IsZero() {
		where = append(where, `ts >= ?`)
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		where = append(where, `ts <= ?`)
		args = append(args, q.End.UnixNano())
	}
	if len(q.Kinds) > 0 {
		marks := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			marks[i] = "?"
			args = append(args, int(k))
		}
		where = append(where, `kind IN (`+strings.Join(marks, ",")+`)`)
	}
	query := `SELECT id, ts, kind, name FROM topology_events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY ts, seq`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []events.Event
	for rows.Next() {
		var (
			ev   events.Event
			ts   int64
			kind int
		)
		if err := rows.Scan(&ev.ID, &ts, &kind, &ev.Name); err != nil {
			return nil, err
		}
		ev.Time = time.Unix(0, ts).UTC()
		ev.Kind = events.Kind(kind)
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
