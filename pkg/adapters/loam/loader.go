package loam

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts a Loam vault to the ports.ProjectLoader interface.
// Every document in the vault is one command; its body is used as the
// description when the front matter has none.
type Loader struct {
	Repo *loam.TypedRepository[CommandMetadata]
	name string
}

// Option configures a Loader.
type Option func(*Loader)

// WithProjectName sets the name reported in the project metadata.
func WithProjectName(name string) Option {
	return func(l *Loader) {
		l.name = name
	}
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[CommandMetadata], opts ...Option) *Loader {
	l := &Loader{Repo: repo}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes a read-only Loam vault at dir and wraps it.
func Open(dir string, opts ...Option) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open loam vault %s: %w", absPath, err)
	}
	opts = append([]Option{WithProjectName(filepath.Base(absPath))}, opts...)
	return New(loam.NewTypedRepository[CommandMetadata](repo), opts...), nil
}

// LoadProject reads every command document, ordered by command name.
func (l *Loader) LoadProject(ctx context.Context) (*domain.Project, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	commands := make([]domain.Command, 0, len(docs))
	for _, doc := range docs {
		cmd, err := decodeCommand(doc.ID, doc.Data, doc.Content)
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[cmd.Name]; ok {
			return nil, fmt.Errorf("collision detected: command '%s' is defined in both '%s' and '%s'", cmd.Name, existing, doc.ID)
		}
		seen[cmd.Name] = doc.ID
		commands = append(commands, *cmd)
	}

	sort.Slice(commands, func(i, j int) bool { return commands[i].Name < commands[j].Name })
	return &domain.Project{
		Metadata: domain.ProjectMetadata{Name: l.name},
		Content:  domain.ProjectContent{Commands: commands},
	}, nil
}

// GetCommand reads a single command document by id.
func (l *Loader) GetCommand(ctx context.Context, id string) (*domain.Command, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return decodeCommand(doc.ID, doc.Data, doc.Content)
}

func decodeCommand(docID string, meta CommandMetadata, content string) (*domain.Command, error) {
	cmd := &domain.Command{
		UID:         meta.UID,
		Name:        meta.Name,
		Description: meta.Description,
	}
	if cmd.Name == "" {
		cmd.Name = path.Base(trimExtension(docID))
	}
	if cmd.UID == "" {
		cmd.UID = cmd.Name
	}
	if cmd.Description == "" {
		cmd.Description = strings.TrimSpace(content)
	}

	if len(meta.Options) > 0 {
		if err := mapstructure.Decode(meta.Options, &cmd.Options); err != nil {
			return nil, fmt.Errorf("command %s: invalid options: %w", docID, err)
		}
	}
	if len(meta.Flow) > 0 {
		if err := mapstructure.Decode(meta.Flow, &cmd.Flow); err != nil {
			return nil, fmt.Errorf("command %s: invalid flow: %w", docID, err)
		}
	}
	return cmd, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
