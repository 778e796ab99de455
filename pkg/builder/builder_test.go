package builder

import (
	"fmt"
	"testing"

	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialNames() NameFunc {
	n := 0
	return func(nodeType, portKey string) string {
		n++
		return fmt.Sprintf("%s_%s_%d", Sanitize(nodeType), portKey, n)
	}
}

func newTestBuilder(opts ...Option) (*Builder, *domain.Node) {
	node := &domain.Node{UID: "n1", Type: "builtin:add"}
	opts = append([]Option{WithNameFunc(sequentialNames())}, opts...)
	b := New("commands/test.ts", NewVarCache(), opts...)
	return b.ForNode(node), node
}

func TestBuilder_AddLineIndentation(t *testing.T) {
	b, _ := newTestBuilder()

	b.AddLine("a")
	b.BeginBlock()
	b.AddLines("b", "c")
	b.BeginBlock()
	b.AddLine("d")
	b.EndBlock()
	b.EndBlock()
	b.AddLine("e")

	assert.Equal(t, []string{"a", "    b", "    c", "        d", "e"}, b.Lines())
	assert.Equal(t, 0, b.Indent())
	assert.Equal(t, 0, b.Depth())
}

func TestBuilder_CustomIndent(t *testing.T) {
	b, _ := newTestBuilder(WithIndent("\t"))
	b.IncreaseIndent(2)
	b.AddLine("x")
	b.DecreaseIndent(5)
	b.AddLine("y")

	assert.Equal(t, []string{"\t\tx", "y"}, b.Lines())
}

func TestBuilder_AddOnTopAndImports(t *testing.T) {
	b, _ := newTestBuilder()
	b.AddLine("body")
	b.AddImport("A, B", "first")
	b.AddImport("C", "second")
	b.AddOnTop("// banner")

	assert.Equal(t, []string{
		"// banner",
		`import {C} from "second"`,
		`import {A, B} from "first"`,
		"body",
	}, b.Lines())
}

func TestBuilder_GlobalShadowsInput(t *testing.T) {
	b, node := newTestBuilder()
	b.Cache().Set(domain.GlobalPort("x"), "__GLOBAL__")
	b.Cache().Set(node.PortIn("x"), "local")

	v, err := b.GetInVar("x")
	require.NoError(t, err)
	assert.Equal(t, "__GLOBAL__", v)
}

func TestBuilder_GetInVar_Policies(t *testing.T) {
	t.Run("Strict", func(t *testing.T) {
		b, _ := newTestBuilder()
		_, err := b.GetInVar("missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBadContext)
		assert.Contains(t, err.Error(), `"missing"`)
	})

	t.Run("Undefined", func(t *testing.T) {
		b, _ := newTestBuilder(WithInputPolicy(PolicyUndefined))
		v, err := b.GetInVar("missing")
		require.NoError(t, err)
		assert.Equal(t, Undefined, v)
	})
}

func TestParseInputPolicy(t *testing.T) {
	p, err := ParseInputPolicy("Undefined")
	require.NoError(t, err)
	assert.Equal(t, PolicyUndefined, p)

	p, err = ParseInputPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParseInputPolicy("whatever")
	assert.Error(t, err)
}

func TestBuilder_GetOutVarMemoized(t *testing.T) {
	b, node := newTestBuilder()

	first := b.GetOutVar("result")
	second := b.GetOutVar("result")
	other := b.GetOutVar("carry")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	v, ok := b.Cache().Get(node.PortOut("result"))
	require.True(t, ok)
	assert.Equal(t, first, v)
}

func TestBuilder_SetOutput(t *testing.T) {
	b, _ := newTestBuilder()
	v := b.SetOutput("sum", "(1 + 2)")

	assert.Equal(t, []string{"const " + v + " = (1 + 2)"}, b.Lines())
}

func TestBuilder_BindAndMapIO(t *testing.T) {
	b, node := newTestBuilder()
	b.Cache().Set(node.PortIn("value"), "src")

	require.NoError(t, b.BindIO("value", "out"))
	b.MapIO("literal", "42")

	out, _ := b.Cache().Get(node.PortOut("out"))
	lit, _ := b.Cache().Get(node.PortOut("literal"))
	assert.Equal(t, "src", out)
	assert.Equal(t, "42", lit)
	assert.Empty(t, b.Lines(), "aliasing must not emit statements")

	assert.ErrorIs(t, b.BindIO("nope", "out2"), domain.ErrBadContext)
}

func TestBuilder_CompTime(t *testing.T) {
	b, _ := newTestBuilder()
	b.SetCompTime("list", "length", "3")

	v, ok := b.GetCompTime("list", "length")
	require.True(t, ok)
	assert.Equal(t, "3", v)

	_, ok = b.GetCompTime("list", "other")
	assert.False(t, ok)
}

func TestBuilder_BlockHygiene(t *testing.T) {
	b, node := newTestBuilder()
	outer := b.SetOutput("outer", "1")

	b.BeginBlock()
	inner := b.SetOutput("inner", "2")
	// Bindings from before the block stay visible inside it.
	assert.Equal(t, outer, b.GetOutVar("outer"))
	b.Cache().Set(node.PortIn("scoped"), inner)
	b.EndBlock()

	assert.Equal(t, outer, b.GetOutVar("outer"))
	assert.False(t, b.Cache().Has(node.PortIn("scoped")))
	assert.NotEqual(t, inner, b.GetOutVar("inner"), "inner binding must be discarded after the block")
}

func TestBuilder_EndBlockWithoutBegin(t *testing.T) {
	b, node := newTestBuilder()
	b.Cache().Set(node.PortIn("x"), "v")

	b.EndBlock()

	assert.Equal(t, 0, b.Indent())
	assert.True(t, b.Cache().Has(node.PortIn("x")))
}

type recordingCompiler struct {
	ports []domain.PortIdentifier
	lines []string
	err   error
}

func (r *recordingCompiler) CompileFlowFromPort(b *Builder, port domain.PortIdentifier) error {
	r.ports = append(r.ports, port)
	b.AddLines(r.lines...)
	return r.err
}

func TestBuilder_CompileFlowOutputHere(t *testing.T) {
	rc := &recordingCompiler{lines: []string{"inner();"}}
	b, node := newTestBuilder(WithCompiler(rc))

	b.AddLine("if (x) {")
	b.BeginBlock()
	require.NoError(t, b.CompileFlowOutputHere("then"))
	b.EndBlock()
	b.AddLine("}")

	assert.Equal(t, []string{"if (x) {", "    inner();", "}"}, b.Lines())
	assert.Equal(t, []domain.PortIdentifier{node.PortOut("then")}, rc.ports)
}

func TestBuilder_CompileFlowOutputHere_Errors(t *testing.T) {
	b, _ := newTestBuilder()
	assert.ErrorIs(t, b.CompileFlowOutputHere("then"), domain.ErrBadContext)

	rc := &recordingCompiler{err: domain.NewCompileError(domain.ErrNodeNotFound, "x")}
	b, _ = newTestBuilder(WithCompiler(rc))
	assert.ErrorIs(t, b.CompileFlowOutputHere("then"), domain.ErrNodeNotFound)
}

func TestBuilder_ClonesShareState(t *testing.T) {
	b, _ := newTestBuilder()
	other := b.ForNode(&domain.Node{UID: "n2", Type: "t"})

	other.AddLine("from clone")
	b.AddLine("from original")
	empty := b.Empty()
	empty.AddLine("private")

	assert.Equal(t, []string{"from clone", "from original"}, b.Lines())
	assert.Equal(t, []string{"private"}, empty.Lines())
	assert.Same(t, b.Cache(), empty.Cache())
}

func TestBuilder_Finalize(t *testing.T) {
	b, _ := newTestBuilder()
	b.AddLines("a", "b")

	f := b.Finalize()
	assert.Equal(t, "commands/test.ts", f.Path)
	assert.Equal(t, "a\nb\n", f.Code)
	assert.Empty(t, b.Lines(), "finalize drains the buffer")
}

func TestRandomName(t *testing.T) {
	a := RandomName("builtin:text combine", "result")
	b := RandomName("builtin:text combine", "result")

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^__io_N_builtin_text_combine_Oresult_[0-9a-f]{12}$`, a)
}
