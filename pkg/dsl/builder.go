package dsl

import (
	"fmt"

	"github.com/disbotter/disbotter/pkg/adapters/memory"
	"github.com/disbotter/disbotter/pkg/domain"
)

// Builder manages the project construction.
type Builder struct {
	name     string
	commands []*CommandBuilder
}

// New creates a new project builder.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Command returns the builder of the command called name, creating it on
// first use.
func (b *Builder) Command(name string) *CommandBuilder {
	for _, c := range b.commands {
		if c.cmd.Name == name {
			return c
		}
	}
	c := &CommandBuilder{
		cmd:   domain.Command{UID: fmt.Sprintf("%d", len(b.commands)+1), Name: name},
		nodes: make(map[string]*NodeBuilder),
	}
	b.commands = append(b.commands, c)
	return c
}

// Project returns the project built so far.
func (b *Builder) Project() *domain.Project {
	commands := make([]domain.Command, 0, len(b.commands))
	for _, c := range b.commands {
		commands = append(commands, c.Build())
	}
	return &domain.Project{
		Metadata: domain.ProjectMetadata{Name: b.name},
		Content:  domain.ProjectContent{Commands: commands},
	}
}

// Build returns a project loader serving the built project.
func (b *Builder) Build() (*memory.ProjectLoader, error) {
	p := b.Project()
	loader, err := memory.NewFromCommands(p.Metadata.Name, p.Content.Commands...)
	if err != nil {
		return nil, fmt.Errorf("failed to build project: %w", err)
	}
	return loader, nil
}
