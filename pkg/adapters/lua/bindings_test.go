package lua

import (
	"errors"
	"testing"

	"github.com/disbotter/disbotter/pkg/builder"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFlowCompiler struct {
	lines []string
	err   error
	ports []domain.PortIdentifier
}

func (s *stubFlowCompiler) CompileFlowFromPort(b *builder.Builder, port domain.PortIdentifier) error {
	s.ports = append(s.ports, port)
	b.AddLines(s.lines...)
	return s.err
}

func newNodeBuilder(opts ...builder.Option) *builder.Builder {
	opts = append([]builder.Option{builder.WithNameFunc(func(nodeType, portKey string) string {
		return "out_" + portKey
	})}, opts...)
	b := builder.New("commands/t.ts", nil, opts...)
	return b.ForNode(&domain.Node{UID: "n1", Type: "test:node"})
}

func runAction(t *testing.T, b *builder.Builder, body string) error {
	t.Helper()
	script, err := Compile("test.lua", `id = "test:node"
function action(builder)
`+body+`
end`)
	require.NoError(t, err)
	return script.Run(b)
}

func TestBindings_Lines(t *testing.T) {
	b := newNodeBuilder()
	err := runAction(t, b, `
  builder:add_line("a();")
  builder:begin_block()
  builder:add_lines({"b();", "c();"})
  builder:add_lines("d();", "e();")
  builder:end_block()
  builder:increase_indent(2)
  builder:add_line("f();")
  builder:decrease_indent(2)
  builder:add_line()
  builder:add_on_top("// top")
  builder:add_import("Thing", "lib")
`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`import {Thing} from "lib"`,
		"// top",
		"a();",
		"    b();",
		"    c();",
		"    d();",
		"    e();",
		"        f();",
		"",
	}, b.Lines())
}

func TestBindings_Variables(t *testing.T) {
	b := newNodeBuilder()
	b.Cache().Set(domain.InputPort("n1", "value"), "x")

	err := runAction(t, b, `
  local v = builder:get_in_var("value")
  local out = builder:set_output("doubled", v .. " * 2")
  builder:add_line("use(" .. out .. ", " .. builder:get_out_var("doubled") .. ");")
  builder:bind_io("value", "same")
  builder:map_io("constant", "42")
  builder:set_comptime("value", "kind", "number")
  builder:add_line("// " .. builder:get_comptime("value", "kind"))
  if builder:get_comptime("value", "missing") == nil then
    builder:add_line("// none")
  end
  builder:add_line("// " .. builder:node_id() .. " " .. builder:node_type())
`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"const out_doubled = x * 2",
		"use(out_doubled, out_doubled);",
		"// number",
		"// none",
		"// n1 test:node",
	}, b.Lines())

	same, ok := b.Cache().Get(domain.OutputPort("n1", "same"))
	require.True(t, ok)
	assert.Equal(t, "x", same)
	constant, _ := b.Cache().Get(domain.OutputPort("n1", "constant"))
	assert.Equal(t, "42", constant)
}

func TestBindings_UnboundInputKeepsErrorKind(t *testing.T) {
	b := newNodeBuilder()
	err := runAction(t, b, `builder:get_in_var("missing")`)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadContext)
	var ce *domain.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "n1", ce.NodeID)
}

func TestBindings_UndefinedPolicy(t *testing.T) {
	b := newNodeBuilder(builder.WithInputPolicy(builder.PolicyUndefined))
	require.NoError(t, runAction(t, b, `builder:add_line(builder:get_in_var("missing"))`))
	assert.Equal(t, []string{"undefined"}, b.Lines())
}

func TestBindings_ScriptErrorAfterProtectedCall(t *testing.T) {
	b := newNodeBuilder()
	err := runAction(t, b, `
  local ok = pcall(function() builder:get_in_var("missing") end)
  if not ok then
    builder:add_line("recovered")
  end
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"recovered"}, b.Lines())
}

func TestBindings_RecoveredErrorDoesNotMaskLaterFailure(t *testing.T) {
	b := newNodeBuilder()
	err := runAction(t, b, `
  pcall(function() builder:get_in_var("missing") end)
  builder:add_line("recovered")
  error("real failure")
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "real failure")
	assert.False(t, errors.Is(err, domain.ErrBadContext))
	assert.Equal(t, []string{"recovered"}, b.Lines())
}

func TestBindings_CaughtErrorKeepsMessageAndKind(t *testing.T) {
	b := newNodeBuilder()
	err := runAction(t, b, `
  local ok, e = pcall(function() builder:get_in_var("missing") end)
  builder:add_line(tostring(e))
  error(e)
`)
	require.Len(t, b.Lines(), 1)
	assert.Contains(t, b.Lines()[0], `input "missing" is not bound`)
	assert.ErrorIs(t, err, domain.ErrBadContext)
}

func TestBindings_SandboxedGlobals(t *testing.T) {
	b := newNodeBuilder()
	require.NoError(t, runAction(t, b, `
  for _, name in ipairs({"dofile", "loadfile", "load", "loadstring", "require", "module"}) do
    if _G[name] ~= nil then
      builder:add_line(name)
    end
  end
`))
	assert.Empty(t, b.Lines())

	err := runAction(t, newNodeBuilder(), `dofile("/etc/passwd")`)
	assert.Error(t, err)
}

func TestBindings_RuntimeError(t *testing.T) {
	b := newNodeBuilder()
	err := runAction(t, b, `error("nope")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.False(t, errors.Is(err, domain.ErrBadContext))
}

func TestBindings_CompileFlowOutputHere(t *testing.T) {
	stub := &stubFlowCompiler{lines: []string{"inner();"}}
	b := newNodeBuilder(builder.WithCompiler(stub))

	err := runAction(t, b, `
  builder:add_line("if (c) {")
  builder:begin_block()
  builder:compile_flow_output_here("then")
  builder:end_block()
  builder:add_line("}")
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"if (c) {", "    inner();", "}"}, b.Lines())
	assert.Equal(t, []domain.PortIdentifier{domain.OutputPort("n1", "then")}, stub.ports)
}

func TestBindings_CompileFlowOutputHereError(t *testing.T) {
	failure := domain.NewCompileError(domain.ErrNodeNotFound, "gone")
	b := newNodeBuilder(builder.WithCompiler(&stubFlowCompiler{err: failure}))

	err := runAction(t, b, `builder:compile_flow_output_here("then")`)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}
