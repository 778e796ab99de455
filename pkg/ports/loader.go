package ports

import (
	"context"

	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/registry"
)

// TemplateLoader defines how node templates are discovered.
// This allows template sources (Lua scripts, Go code, memory) to be decoupled.
type TemplateLoader interface {
	// Load returns a catalog holding every template the loader knows about.
	Load(ctx context.Context) (*registry.Registry, error)
}

// ProjectLoader defines how a project is retrieved.
type ProjectLoader interface {
	// LoadProject reads the whole project with all of its commands.
	LoadProject(ctx context.Context) (*domain.Project, error)
}

// ProgramExporter writes compiled programs to their destination.
type ProgramExporter interface {
	Export(ctx context.Context, program *domain.Program) error
}
