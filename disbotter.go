package disbotter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/disbotter/disbotter/internal/compiler"
	"github.com/disbotter/disbotter/internal/logging"
	"github.com/disbotter/disbotter/pkg/adapters/lua"
	"github.com/disbotter/disbotter/pkg/builder"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/ports"
	"github.com/disbotter/disbotter/pkg/registry"
)

// Generator is the high-level entry point of the library.
// It owns a template catalog and compiles projects against it.
type Generator struct {
	templates *registry.Registry
	dirs      []string
	loaders   []ports.TemplateLoader
	logger    *slog.Logger
	hooks     domain.CompileHooks
	policy    builder.InputPolicy
	indent    string
	workers   int
	revision  string

	compiler *compiler.Compiler
}

// Option defines a functional option for configuring the Generator.
type Option func(*Generator)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithTemplates adds the templates of reg to the catalog.
// Actions written in Go are opaque to Fingerprint: set Template.Digest or
// pass WithRevision so changing one invalidates cached programs.
func WithTemplates(reg *registry.Registry) Option {
	return func(g *Generator) {
		g.templates.Merge(reg)
	}
}

// WithTemplateLoader adds a template source, loaded by New.
func WithTemplateLoader(l ports.TemplateLoader) Option {
	return func(g *Generator) {
		g.loaders = append(g.loaders, l)
	}
}

// WithTemplateDirs loads Lua node scripts from dirs, before any other loader.
func WithTemplateDirs(dirs ...string) Option {
	return func(g *Generator) {
		g.dirs = append(g.dirs, dirs...)
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.CompileHooks) Option {
	return func(g *Generator) {
		g.hooks = hooks
	}
}

// WithInputPolicy sets what node actions get for unbound inputs.
func WithInputPolicy(p builder.InputPolicy) Option {
	return func(g *Generator) {
		g.policy = p
	}
}

// WithIndent sets the indentation unit of generated code.
func WithIndent(unit string) Option {
	return func(g *Generator) {
		if unit != "" {
			g.indent = unit
		}
	}
}

// WithWorkers bounds how many commands compile in parallel.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		g.workers = n
	}
}

// WithRevision mixes rev into Fingerprint, typically the build version of
// the program defining templates in Go.
func WithRevision(rev string) Option {
	return func(g *Generator) {
		g.revision = rev
	}
}

// New initializes a Generator and loads its templates.
func New(ctx context.Context, opts ...Option) (*Generator, error) {
	g := &Generator{
		templates: registry.NewRegistry(),
		policy:    builder.PolicyStrict,
		indent:    builder.DefaultIndent,
		workers:   1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logging.NewNop()
	}

	loaders := g.loaders
	if len(g.dirs) > 0 {
		loaders = append([]ports.TemplateLoader{lua.New(g.dirs, lua.WithLogger(g.logger))}, loaders...)
	}
	for _, l := range loaders {
		if err := g.LoadTemplates(ctx, l); err != nil {
			return nil, err
		}
	}

	g.compiler = compiler.New(g.templates,
		compiler.WithLogger(g.logger),
		compiler.WithHooks(g.hooks),
		compiler.WithInputPolicy(g.policy),
		compiler.WithIndent(g.indent),
		compiler.WithWorkers(g.workers),
	)
	return g, nil
}

// LoadTemplates merges the templates of l into the catalog.
// Templates loaded later replace earlier ones of the same type.
func (g *Generator) LoadTemplates(ctx context.Context, l ports.TemplateLoader) error {
	reg, err := l.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	g.templates.Merge(reg)
	g.logger.Debug("templates loaded", "added", reg.Len(), "total", g.templates.Len())
	return nil
}

// Templates returns the template catalog.
func (g *Generator) Templates() *registry.Registry {
	return g.templates
}

// Declarations returns the editor declarations of every template.
func (g *Generator) Declarations() []registry.Declaration {
	return g.templates.Declarations()
}

// Fingerprint identifies the template catalog and the generator version.
// It changes when a template is added, removed, redeclared, when its Digest
// changes (script templates hash their source) or when the revision does.
func (g *Generator) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%q\x00%d\n", Version, g.revision, g.indent, g.policy)
	enc := json.NewEncoder(h)
	for _, t := range g.templates.Templates() {
		fmt.Fprintf(h, "%s\x00%s\n", t.Type, t.Digest)
		_ = enc.Encode(t.Declaration())
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Compile compiles every command of project.
// Commands that fail are left out of the program and reported through a
// *domain.ProjectError; the program holds every command that compiled.
func (g *Generator) Compile(ctx context.Context, project *domain.Project) (*domain.Program, error) {
	return g.compiler.CompileProject(ctx, project)
}

// CompileFrom loads a project through l and compiles it.
func (g *Generator) CompileFrom(ctx context.Context, l ports.ProjectLoader) (*domain.Program, error) {
	project, err := l.LoadProject(ctx)
	if err != nil {
		return nil, err
	}
	return g.Compile(ctx, project)
}

// CompileCommand compiles the single command called name.
func (g *Generator) CompileCommand(ctx context.Context, project *domain.Project, name string) (domain.File, error) {
	cmd, ok := project.Command(name)
	if !ok {
		return domain.File{}, fmt.Errorf("%w: %s", domain.ErrCommandNotFound, name)
	}
	return g.compiler.Clone().CompileCommand(ctx, cmd)
}
