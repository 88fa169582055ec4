package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/benchpsu/core/events"
)

// JSONLConfig sets the file and its rotation policy.
type JSONLConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// RotatingJSONLStore writes one JSON event per line and rotates the file
// with lumberjack.
type RotatingJSONLStore struct {
	mu   sync.Mutex
	out  *lumberjack.Logger
	path string
}

func NewRotatingJSONLStore(cfg JSONLConfig) (*RotatingJSONLStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("eventlog: jsonl path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		},
		path: cfg.Path,
	}, nil
}

func (s *RotatingJSONLStore) Append(_ context.Context, ev events.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.out.Write(append(b, '\n'))
	return err
}

// Query scans the active file and its uncompressed backups. Undecodable
// lines are skipped.
func (s *RotatingJSONLStore) Query(ctx context.Context, q Query) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ext := filepath.Ext(s.path)
	base := s.path[:len(s.path)-len(ext)]
	files, err := filepath.Glob(base + "*" + ext)
	if err != nil {
		return nil, err
	}
	var res []events.Event
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := scanFile(f, q)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		res = append(res, found...)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Time.Before(res[j].Time) })
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[:q.Limit]
	}
	return res, nil
}

func scanFile(path string, q Query) ([]events.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var res []events.Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev events.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if q.match(ev) {
			res = append(res, ev)
		}
	}
	return res, scanner.Err()
}

// Rotate closes the active file and starts a new one.
func (s *RotatingJSONLStore) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Rotate()
}

func (s *RotatingJSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}
