package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"spesometro/internal/storage"
)

// Store is a process-local substrate. Nothing written to it survives the
// process.
type Store struct {
	mu     sync.Mutex
	values map[string]string
	writes int
}

var _ storage.KeyValue = (*Store)(nil)

func New() *Store {
	return &Store{values: map[string]string{}}
}

// NewFromDir preloads every <key>.json file found in base. Missing or
// unreadable directories yield an empty store, so a scratch session can be
// started on top of existing file data without ever writing back to it.
func NewFromDir(base string) *Store {
	s := New()
	entries, err := os.ReadDir(base)
	if err != nil {
		return s
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(base, e.Name()))
		if err != nil {
			continue
		}
		s.values[strings.TrimSuffix(e.Name(), ".json")] = string(b)
	}
	return s
}

// Get implements storage.KeyValue
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements storage.KeyValue
func (s *Store) Set(_ context.Context, key, value string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes++
	return nil
}

// Writes returns how many Set calls have succeeded.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
