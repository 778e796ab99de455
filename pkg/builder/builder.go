package builder

import (
	"fmt"
	"strings"
	"sync"

	"github.com/disbotter/disbotter/pkg/domain"
)

// DefaultIndent is one indentation level.
const DefaultIndent = "    "

// Undefined is substituted for unresolved inputs under PolicyUndefined.
const Undefined = "undefined"

// InputPolicy decides what GetInVar does when an input has no binding.
type InputPolicy int

const (
	// PolicyStrict fails with a domain.ErrBadContext error.
	PolicyStrict InputPolicy = iota
	// PolicyUndefined returns the literal "undefined".
	PolicyUndefined
)

// ParseInputPolicy converts a config value ("strict", "undefined") to a policy.
func ParseInputPolicy(s string) (InputPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "undefined", "lenient":
		return PolicyUndefined, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown input policy: %q", s)
	}
}

// FlowCompiler compiles the flow chain reachable from an output port into b.
// The flow compiler implements it so node actions can emit nested blocks.
type FlowCompiler interface {
	CompileFlowFromPort(b *Builder, port domain.PortIdentifier) error
}

// buffer is the state shared by all clones of a builder.
type buffer struct {
	mu     sync.Mutex
	lines  []string
	indent int
	scopes []map[domain.PortIdentifier]string
}

type settings struct {
	indent   string
	policy   InputPolicy
	names    NameFunc
	compiler FlowCompiler
}

// Option configures a Builder.
type Option func(*settings)

// WithIndent sets the string emitted per indentation level.
func WithIndent(unit string) Option {
	return func(s *settings) {
		s.indent = unit
	}
}

// WithInputPolicy sets the behavior for unresolved inputs.
func WithInputPolicy(p InputPolicy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithNameFunc overrides variable name generation.
func WithNameFunc(fn NameFunc) Option {
	return func(s *settings) {
		s.names = fn
	}
}

// WithCompiler attaches the flow compiler used by CompileFlowOutputHere.
func WithCompiler(fc FlowCompiler) Option {
	return func(s *settings) {
		s.compiler = fc
	}
}

// Builder accumulates the lines of one output file and mediates the
// variable handoff between nodes.
//
// A Builder is a handle: ForNode returns a new handle over the same lines,
// indentation, scope stack and cache. Only Empty creates a private line buffer.
type Builder struct {
	path  string
	buf   *buffer
	cache *VarCache
	cfg   *settings
	node  *domain.Node
}

// New creates a builder for the file at path, bound to cache.
func New(path string, cache *VarCache, opts ...Option) *Builder {
	cfg := &settings{
		indent: DefaultIndent,
		policy: PolicyStrict,
		names:  RandomName,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cache == nil {
		cache = NewVarCache()
	}
	return &Builder{
		path:  path,
		buf:   &buffer{},
		cache: cache,
		cfg:   cfg,
	}
}

// ForNode returns a handle sharing all state, with node as the current node.
func (b *Builder) ForNode(node *domain.Node) *Builder {
	nb := *b
	nb.node = node
	return &nb
}

// Empty returns a handle with a fresh line buffer, indentation and scope
// stack, sharing the cache, current node and compiler.
func (b *Builder) Empty() *Builder {
	nb := *b
	nb.buf = &buffer{}
	return &nb
}

// Path returns the output file path.
func (b *Builder) Path() string { return b.path }

// Cache returns the shared variable cache.
func (b *Builder) Cache() *VarCache { return b.cache }

// Node returns the current node, or nil outside of a node action.
func (b *Builder) Node() *domain.Node { return b.node }

// SetCompiler attaches the flow compiler after construction.
func (b *Builder) SetCompiler(fc FlowCompiler) { b.cfg.compiler = fc }

// AddLine appends text at the current indentation. Empty lines stay empty.
func (b *Builder) AddLine(text string) {
	b.buf.mu.Lock()
	defer b.buf.mu.Unlock()
	if text == "" {
		b.buf.lines = append(b.buf.lines, "")
		return
	}
	b.buf.lines = append(b.buf.lines, strings.Repeat(b.cfg.indent, b.buf.indent)+text)
}

// AddLines appends each line in order.
func (b *Builder) AddLines(lines ...string) {
	for _, l := range lines {
		b.AddLine(l)
	}
}

// AddOnTop inserts line before every other line, without indentation.
func (b *Builder) AddOnTop(line string) {
	b.buf.mu.Lock()
	defer b.buf.mu.Unlock()
	b.buf.lines = append([]string{line}, b.buf.lines...)
}

// AddImport inserts an import statement on top. The last import added ends up first.
func (b *Builder) AddImport(symbols, module string) {
	b.AddOnTop(fmt.Sprintf("import {%s} from %q", symbols, module))
}

// IncreaseIndent raises the indentation without opening a variable scope.
func (b *Builder) IncreaseIndent(n int) {
	b.buf.mu.Lock()
	defer b.buf.mu.Unlock()
	b.buf.indent += n
}

// DecreaseIndent lowers the indentation without closing a variable scope.
func (b *Builder) DecreaseIndent(n int) {
	b.buf.mu.Lock()
	defer b.buf.mu.Unlock()
	b.buf.indent = max(0, b.buf.indent-n)
}

// Indent returns the current indentation level.
func (b *Builder) Indent() int {
	b.buf.mu.Lock()
	defer b.buf.mu.Unlock()
	return b.buf.indent
}

// BeginBlock indents one level and snapshots the variable cache.
func (b *Builder) BeginBlock() {
	snap := b.cache.Snapshot()
	b.buf.mu.Lock()
	defer b.buf.mu.Unlock()
	b.buf.indent++
	b.buf.scopes = append(b.buf.scopes, snap)
}

// EndBlock dedents one level and restores the cache to the snapshot taken by
// the matching BeginBlock, discarding every binding made inside the block.
func (b *Builder) EndBlock() {
	b.buf.mu.Lock()
	b.buf.indent = max(0, b.buf.indent-1)
	var snap map[domain.PortIdentifier]string
	ok := len(b.buf.scopes) > 0
	if ok {
		snap = b.buf.scopes[len(b.buf.scopes)-1]
		b.buf.scopes = b.buf.scopes[:len(b.buf.scopes)-1]
	}
	b.buf.mu.Unlock()

	if ok {
		b.cache.Restore(snap)
	}
}

// Depth returns the number of open blocks.
func (b *Builder) Depth() int {
	b.buf.mu.Lock()
	defer b.buf.mu.Unlock()
	return len(b.buf.scopes)
}

func (b *Builder) nodeID() string {
	if b.node == nil {
		return ""
	}
	return b.node.UID
}

func (b *Builder) nodeType() string {
	if b.node == nil {
		return ""
	}
	return b.node.Type
}

func (b *Builder) contextError(format string, args ...any) *domain.CompileError {
	return domain.NewCompileError(domain.ErrBadContext, format, args...).WithNode(b.nodeID(), b.nodeType())
}

// GetInVar resolves the variable bound to the current node's input key.
// A global binding with the same key wins over the node input.
func (b *Builder) GetInVar(key string) (string, error) {
	if v, ok := b.cache.Get(domain.GlobalPort(key)); ok {
		return v, nil
	}
	port := domain.InputPort(b.nodeID(), key)
	if v, ok := b.cache.Get(port); ok {
		return v, nil
	}
	if b.cfg.policy == PolicyUndefined {
		return Undefined, nil
	}
	return "", b.contextError("input %q is not bound", key).WithPort(port)
}

// GetOutVar returns the variable for the current node's output key,
// allocating a fresh name on first use.
func (b *Builder) GetOutVar(key string) string {
	nodeType := b.nodeType()
	return b.cache.GetOrSet(domain.OutputPort(b.nodeID(), key), func() string {
		return b.cfg.names(nodeType, key)
	})
}

// SetOutput allocates the output variable and emits its definition.
func (b *Builder) SetOutput(key, expr string) string {
	v := b.GetOutVar(key)
	b.AddLine(fmt.Sprintf("const %s = %s", v, expr))
	return v
}

// BindIO relays an input value unchanged onto an output, without emitting code.
func (b *Builder) BindIO(inputKey, outputKey string) error {
	v, err := b.GetInVar(inputKey)
	if err != nil {
		return err
	}
	b.cache.Set(domain.OutputPort(b.nodeID(), outputKey), v)
	return nil
}

// MapIO binds an output directly to a literal expression.
func (b *Builder) MapIO(outputKey, literal string) {
	b.cache.Set(domain.OutputPort(b.nodeID(), outputKey), literal)
}

// SetCompTime stores compile-time data for a port of the current node.
func (b *Builder) SetCompTime(portKey, dataKey, value string) {
	b.cache.Set(domain.CompTimePort(b.nodeID(), portKey, dataKey), value)
}

// GetCompTime reads compile-time data for a port of the current node.
func (b *Builder) GetCompTime(portKey, dataKey string) (string, bool) {
	return b.cache.Get(domain.CompTimePort(b.nodeID(), portKey, dataKey))
}

// CompileFlowOutputHere compiles the flow chain leaving the current node's
// flow output into a private buffer, then splices it in at the current
// indentation.
func (b *Builder) CompileFlowOutputHere(flowPort string) error {
	if b.cfg.compiler == nil {
		return b.contextError("no flow compiler attached to builder")
	}
	sub := b.Empty()
	if err := b.cfg.compiler.CompileFlowFromPort(sub, domain.OutputPort(b.nodeID(), flowPort)); err != nil {
		return err
	}
	b.AddLines(sub.FinalizeLines()...)
	return nil
}

// Lines returns a copy of the accumulated lines.
func (b *Builder) Lines() []string {
	b.buf.mu.Lock()
	defer b.buf.mu.Unlock()
	out := make([]string, len(b.buf.lines))
	copy(out, b.buf.lines)
	return out
}

// FinalizeLines drains and returns the accumulated lines.
func (b *Builder) FinalizeLines() []string {
	b.buf.mu.Lock()
	defer b.buf.mu.Unlock()
	lines := b.buf.lines
	b.buf.lines = nil
	return lines
}

// Finalize renders the accumulated lines, each terminated by a newline.
func (b *Builder) Finalize() domain.File {
	lines := b.FinalizeLines()
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return domain.File{Path: b.path, Code: sb.String()}
}
