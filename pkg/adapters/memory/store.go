package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/disbotter/disbotter/pkg/domain"
)

// Store implements ports.ProgramStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]domain.File
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]domain.File),
	}
}

// Save stores a copy of the program's files.
func (s *Store) Save(ctx context.Context, key string, program *domain.Program) error {
	files := program.Files()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = files
	return nil
}

// Load rebuilds the program stored under key.
func (s *Store) Load(ctx context.Context, key string) (*domain.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, ok := s.data[key]
	if !ok {
		return nil, domain.ErrProgramNotFound
	}

	// Rebuild on read so callers can't mutate the stored files.
	p := domain.NewProgram()
	for _, f := range files {
		p.Add(f)
	}
	return p, nil
}

// Delete removes the program.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
