package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disbotter/disbotter/pkg/domain"
)

// Store implements ports.ProgramStore using the local filesystem.
// It stores programs as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".disbotter/programs".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".disbotter", "programs")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("program key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid program key %q", key)
	}
	return filepath.Join(s.BasePath, key+".json"), nil
}

// Save persists the program to a JSON file atomically.
func (s *Store) Save(ctx context.Context, key string, program *domain.Program) error {
	dest, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(program, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal program: %w", err)
	}
	return writeAtomic(dest, data)
}

// Load retrieves the program from its JSON file.
func (s *Store) Load(ctx context.Context, key string) (*domain.Program, error) {
	src, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}

	program := domain.NewProgram()
	if err := json.Unmarshal(data, program); err != nil {
		return nil, fmt.Errorf("failed to unmarshal program: %w", err)
	}
	return program, nil
}

// Delete removes the program file.
func (s *Store) Delete(ctx context.Context, key string) error {
	src, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete program file: %w", err)
	}
	return nil
}

// List returns the keys of all stored programs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}
