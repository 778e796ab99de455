package ports

import (
	"context"

	"github.com/disbotter/disbotter/pkg/domain"
)

// ProgramStore defines the interface for caching compiled programs.
// Keys are opaque; the HTTP service uses a digest of the project document.
type ProgramStore interface {
	// Save persists the program under key.
	Save(ctx context.Context, key string, program *domain.Program) error

	// Load retrieves the program stored under key.
	// Returns domain.ErrProgramNotFound if there is none.
	Load(ctx context.Context, key string) (*domain.Program, error)

	// Delete removes the program stored under key.
	Delete(ctx context.Context, key string) error

	// List returns the keys of every stored program.
	List(ctx context.Context) ([]string, error)
}
