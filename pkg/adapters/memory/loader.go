package memory

import (
	"context"
	"fmt"

	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/registry"
)

// TemplateLoader implements ports.TemplateLoader over templates defined in Go.
type TemplateLoader struct {
	templates []registry.Template
}

// NewTemplateLoader creates a loader serving the given templates.
func NewTemplateLoader(templates ...registry.Template) *TemplateLoader {
	return &TemplateLoader{templates: templates}
}

// Load registers every template in a fresh registry.
// Later templates overwrite earlier ones with the same type.
func (l *TemplateLoader) Load(ctx context.Context) (*registry.Registry, error) {
	r := registry.NewRegistry()
	for _, t := range l.templates {
		if t.Type == "" {
			return nil, fmt.Errorf("template missing type")
		}
		r.Register(t)
	}
	return r, nil
}

// ProjectLoader implements ports.ProjectLoader for a project held in memory.
type ProjectLoader struct {
	project *domain.Project
}

// NewProjectLoader creates a loader serving project.
func NewProjectLoader(project *domain.Project) *ProjectLoader {
	return &ProjectLoader{project: project}
}

// NewFromCommands creates a project loader from commands.
// This improves DX for tests.
func NewFromCommands(name string, commands ...domain.Command) (*ProjectLoader, error) {
	seen := make(map[string]bool, len(commands))
	for _, c := range commands {
		if c.Name == "" {
			return nil, fmt.Errorf("command missing name")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate command: %s", c.Name)
		}
		seen[c.Name] = true
	}
	return NewProjectLoader(&domain.Project{
		Metadata: domain.ProjectMetadata{Name: name},
		Content:  domain.ProjectContent{Commands: commands},
	}), nil
}

// LoadProject returns the project.
func (l *ProjectLoader) LoadProject(ctx context.Context) (*domain.Project, error) {
	if l.project == nil {
		return nil, fmt.Errorf("no project loaded")
	}
	return l.project, nil
}
