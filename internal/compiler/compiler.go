package compiler

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/disbotter/disbotter/internal/logging"
	"github.com/disbotter/disbotter/pkg/builder"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/registry"
)

// Compiler lowers flows into target-language source.
//
// A Compiler holds configuration plus the state of the unit it is currently
// compiling. It is not safe for concurrent use; CompileProject gives every
// unit its own clone.
type Compiler struct {
	templates *registry.Registry
	logger    *slog.Logger
	hooks     domain.CompileHooks
	policy    builder.InputPolicy
	indent    string
	names     builder.NameFunc
	workers   int

	ctx     context.Context
	flow    *domain.Flow
	command *domain.Command
	active  map[string]bool // nodes on the compile stack
	done    map[string]bool // impure nodes compiled in flow order
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets a custom logger for the compiler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.CompileHooks) Option {
	return func(c *Compiler) {
		c.hooks = hooks
	}
}

// WithInputPolicy sets what node actions get for unbound inputs.
func WithInputPolicy(p builder.InputPolicy) Option {
	return func(c *Compiler) {
		c.policy = p
	}
}

// WithIndent sets the indentation unit of generated code.
func WithIndent(unit string) Option {
	return func(c *Compiler) {
		c.indent = unit
	}
}

// WithNameFunc overrides variable name generation.
func WithNameFunc(fn builder.NameFunc) Option {
	return func(c *Compiler) {
		c.names = fn
	}
}

// WithWorkers bounds the number of units CompileProject compiles at once.
// Values below 1 mean one unit at a time.
func WithWorkers(n int) Option {
	return func(c *Compiler) {
		c.workers = n
	}
}

// New creates a compiler over the given template catalog.
func New(templates *registry.Registry, opts ...Option) *Compiler {
	if templates == nil {
		templates = registry.NewRegistry()
	}
	c := &Compiler{
		templates: templates,
		logger:    logging.NewNop(),
		policy:    builder.PolicyStrict,
		indent:    builder.DefaultIndent,
		workers:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone returns a compiler with the same configuration and template catalog
// and no unit state.
func (c *Compiler) Clone() *Compiler {
	return &Compiler{
		templates: c.templates,
		logger:    c.logger,
		hooks:     c.hooks,
		policy:    c.policy,
		indent:    c.indent,
		names:     c.names,
		workers:   c.workers,
	}
}

// Templates returns the template catalog.
func (c *Compiler) Templates() *registry.Registry {
	return c.templates
}

// NewBuilder creates a builder for path configured like this compiler and
// wired back to it for nested flow compilation.
func (c *Compiler) NewBuilder(path string) *builder.Builder {
	opts := []builder.Option{
		builder.WithIndent(c.indent),
		builder.WithInputPolicy(c.policy),
		builder.WithCompiler(c),
	}
	if c.names != nil {
		opts = append(opts, builder.WithNameFunc(c.names))
	}
	return builder.New(path, builder.NewVarCache(), opts...)
}

func (c *Compiler) context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *Compiler) commandName() string {
	if c.command == nil {
		return ""
	}
	return c.command.Name
}

func (c *Compiler) resetUnit(flow *domain.Flow) {
	c.flow = flow
	c.active = make(map[string]bool)
	c.done = make(map[string]bool)
}

// CompileFlow compiles flow into b, starting at the node of type startType.
// It clears the variable cache and seeds the globals every handler has.
func (c *Compiler) CompileFlow(b *builder.Builder, flow *domain.Flow, startType string) error {
	b.SetCompiler(c)
	c.resetUnit(flow)

	start, ok := flow.NodeOfType(startType)
	if !ok {
		return domain.NewCompileError(domain.ErrNoStartNode, "no node of type %q", startType)
	}

	cache := b.Cache()
	cache.Clear()
	cache.Set(domain.GlobalPort(domain.GlobalInteraction), domain.InteractionIdent)
	cache.Set(domain.GlobalPort(domain.GlobalGuild), domain.InteractionIdent+".guild")
	cache.Set(domain.GlobalPort(domain.GlobalTranslations), domain.TranslationsIdent)

	if err := c.compileNode(b, start, false); err != nil {
		return err
	}
	return c.CompileFlowFromPort(b, start.PortOut(domain.PortFlowOut))
}

// CompileFlowFromPort follows the flow chain leaving port, compiling each
// node it reaches into b. It stops at the first flow output with no wire.
func (c *Compiler) CompileFlowFromPort(b *builder.Builder, port domain.PortIdentifier) error {
	if port.Kind != domain.PortOutput {
		return domain.NewCompileError(domain.ErrInvalidPortIdentifier, "flow can only continue from an output").WithPort(port)
	}
	if c.flow == nil {
		return domain.NewCompileError(domain.ErrBadContext, "no flow is being compiled").WithPort(port)
	}

	visited := make(map[string]bool)
	current := port
	for {
		target, ok := c.flow.Target(current)
		if !ok {
			return nil
		}
		if target.PortKey != domain.PortFlowIn {
			return domain.NewCompileError(domain.ErrInvalidPortIdentifier,
				"flow output %s is wired to a data input", current).WithPort(target)
		}
		node, ok := c.flow.Node(target.NodeID)
		if !ok {
			return domain.NewCompileError(domain.ErrNodeNotFound, "node %q is not part of the flow", target.NodeID).
				WithPort(target)
		}
		if visited[node.UID] {
			return domain.NewCompileError(domain.ErrInvalidPortIdentifier, "flow loops back to node %s", node.UID).
				WithNode(node.UID, node.Type).WithPort(target)
		}
		visited[node.UID] = true

		if err := c.compileNode(b, node, false); err != nil {
			return err
		}
		current = node.PortOut(domain.PortFlowOut)
	}
}

// CompileNode resolves the inputs of node and runs its template action.
func (c *Compiler) CompileNode(b *builder.Builder, node *domain.Node) error {
	return c.compileNode(b, node, false)
}

func (c *Compiler) compileNode(b *builder.Builder, node *domain.Node, lazy bool) error {
	if c.flow == nil {
		return domain.NewCompileError(domain.ErrBadContext, "no flow is being compiled").WithNode(node.UID, node.Type)
	}
	if c.active == nil {
		c.resetUnit(c.flow)
	}
	if c.active[node.UID] {
		return domain.NewCompileError(domain.ErrInvalidPortIdentifier, "node %s depends on itself", node.UID).
			WithNode(node.UID, node.Type)
	}
	c.active[node.UID] = true
	defer delete(c.active, node.UID)

	if err := c.mapNodeInputs(b, node); err != nil {
		return err
	}

	tpl, ok := c.templates.Get(node.Type)
	if !ok {
		handled, err := c.compileSpecial(b, node)
		if err != nil {
			return err
		}
		if !handled && node.Type != domain.StartNodeType {
			return domain.NewCompileError(domain.ErrNodeNotFound, "no template for node type %q", node.Type).
				WithNode(node.UID, node.Type)
		}
	} else if tpl.Action != nil {
		if err := tpl.Action(b.ForNode(node)); err != nil {
			return actionError(err, node)
		}
	}

	if !tpl.Pure {
		c.done[node.UID] = true
	}

	c.logger.Debug("compiled node", "command", c.commandName(), "node", node.UID, "type", node.Type, "lazy", lazy)
	if c.hooks.OnNodeCompiled != nil {
		c.hooks.OnNodeCompiled(c.context(), &domain.NodeEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventNodeCompiled,
				Command:   c.commandName(),
			},
			NodeID:   node.UID,
			NodeType: node.Type,
			Lazy:     lazy,
		})
	}
	return nil
}

// actionError keeps compile errors raised inside an action intact and wraps
// anything else as a script error.
func actionError(err error, node *domain.Node) error {
	var ce *domain.CompileError
	if errors.As(err, &ce) {
		return ce.WithNode(node.UID, node.Type)
	}
	return (&domain.CompileError{Kind: domain.ErrScript, Err: err}).WithNode(node.UID, node.Type)
}

// mapNodeInputs binds every input of node in the cache, compiling pure and
// special producers on demand. Wires win over hardcoded literals.
func (c *Compiler) mapNodeInputs(b *builder.Builder, node *domain.Node) error {
	cache := b.Cache()

	for _, conn := range c.flow.Incoming(node.UID) {
		if conn.ToKey == domain.PortFlowIn {
			continue
		}
		src, dst := conn.Source(), conn.Target()
		if cache.Alias(src, dst) {
			continue
		}

		producer, ok := c.flow.Node(conn.From)
		if !ok {
			return domain.NewCompileError(domain.ErrNodeNotFound, "producer %q of input %q is not part of the flow", conn.From, conn.ToKey).
				WithNode(node.UID, node.Type).WithPort(src)
		}

		tpl, ok := c.templates.Get(producer.Type)
		switch {
		case !ok:
			handled, err := c.compileSpecial(b, producer)
			if err != nil {
				return err
			}
			if !handled {
				return domain.NewCompileError(domain.ErrNodeNotFound, "no template for node type %q", producer.Type).
					WithNode(producer.UID, producer.Type)
			}
		case tpl.Pure:
			if err := c.compileNode(b, producer, true); err != nil {
				return err
			}
		case c.done[producer.UID]:
			// Compiled in flow order but the output was never bound.
		default:
			return domain.NewCompileError(domain.ErrInvalidPortIdentifier,
				"impure node %s is consumed before it is compiled", producer.UID).
				WithNode(node.UID, node.Type).WithPort(src)
		}

		if !cache.Alias(src, dst) {
			return domain.NewCompileError(domain.ErrInvalidPortIdentifier, "output %q was not bound by its node", conn.FromKey).
				WithNode(producer.UID, producer.Type).WithPort(src)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(node.InputHardcoded)) {
		port := node.PortIn(key)
		if !cache.Has(port) {
			cache.Set(port, RenderLiteral(node.InputHardcoded[key]))
		}
	}
	return nil
}
