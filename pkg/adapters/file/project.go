package file

import (
	"context"
	"fmt"
	"os"

	"github.com/disbotter/disbotter/internal/compiler"
	"github.com/disbotter/disbotter/pkg/domain"
)

// ProjectExtension is the extension of project documents saved by the editor.
const ProjectExtension = ".dbp"

// ProjectLoader implements ports.ProjectLoader for a single .dbp document.
type ProjectLoader struct {
	Path   string
	parser *compiler.Parser
}

// NewProjectLoader creates a loader for the project document at path.
func NewProjectLoader(path string) *ProjectLoader {
	return &ProjectLoader{Path: path, parser: compiler.NewParser()}
}

// LoadProject reads and parses the document.
func (l *ProjectLoader) LoadProject(ctx context.Context) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	project, err := l.parser.ParseProject(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", l.Path, err)
	}
	return project, nil
}
