// internal/store/memory/memory.go
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/models"
	"signal-explorer/internal/store"
)

const Driver = "memory"

var ErrSessionClosed = errors.New("SESSION_CLOSED")

// Store serves records from a JSON dataset file, re-read on every Open, or
// from a fixed slice.
type Store struct {
	mu      sync.Mutex
	path    string
	records []models.Record
	fixed   bool
}

// New returns a store backed by the JSON array at path.
func New(path string) *Store {
	return &Store{path: path}
}

// NewFromRecords returns a store over records, without a backing file.
func NewFromRecords(records []models.Record) *Store {
	cp := make([]models.Record, len(records))
	copy(cp, records)
	return &Store{records: cp, fixed: true}
}

func (s *Store) Driver() string { return Driver }

func (s *Store) Open(ctx context.Context) (store.Session, error) {
	if !s.fixed && s.path == "" {
		return nil, apperrors.NewConfigurationError("store.url")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fixed {
		cp := make([]models.Record, len(s.records))
		copy(cp, s.records)
		return &session{owner: s, records: cp}, nil
	}

	records, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	return &session{owner: s, records: records}, nil
}

func readFile(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return records, nil
}

type session struct {
	owner   *Store
	records []models.Record
	closed  bool
}

func (s *session) Find(ctx context.Context, q models.Query) ([]models.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []models.Record{}
	if q.Unsatisfiable() {
		return out, nil
	}
	for _, r := range s.records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *session) Distinct(ctx context.Context, f models.Field) ([]string, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []string{}
	seen := make(map[string]bool)
	for _, r := range s.records {
		v, ok := r.Lookup(f)
		if !ok {
			continue
		}
		key := v.Str()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out, nil
}

// Insert appends records and persists them to the backing file.
func (s *session) Insert(ctx context.Context, records []models.Record) (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()

	if s.owner.fixed {
		s.owner.records = append(s.owner.records, records...)
		s.records = append(s.records, records...)
		return len(records), nil
	}

	current, err := readFile(s.owner.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}
	current = append(current, records...)

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode dataset: %w", err)
	}
	if err := os.WriteFile(s.owner.path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write dataset: %w", err)
	}
	s.records = current
	return len(records), nil
}

func (s *session) Close() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	s.records = nil
	return nil
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Session = (*session)(nil)
	_ store.Writer  = (*session)(nil)
)
