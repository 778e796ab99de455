package lua

import (
	"errors"

	glua "github.com/yuin/gopher-lua"

	"github.com/disbotter/disbotter/pkg/builder"
)

const (
	builderTypeName = "disbotter.builder"
	errorTypeName   = "disbotter.error"
)

// builderCall is the userdata payload handed to a script's action.
type builderCall struct {
	b *builder.Builder
}

// raise throws err as the Lua error object. A script catching it with pcall
// sees its message through tostring; an uncaught one is unwrapped by
// goError once the action returns.
func raise(L *glua.LState, err error) int {
	ud := L.NewUserData()
	ud.Value = err
	L.SetMetatable(ud, L.GetTypeMetatable(errorTypeName))
	L.Error(ud, 1)
	return 0
}

// goError returns the Go error carried by a failed call, if the error
// object is one raised by a builder method.
func goError(err error) error {
	var apiErr *glua.ApiError
	if !errors.As(err, &apiErr) {
		return nil
	}
	if ud, ok := apiErr.Object.(*glua.LUserData); ok {
		if e, ok := ud.Value.(error); ok {
			return e
		}
	}
	return nil
}

func errorToString(L *glua.LState) int {
	if e, ok := L.CheckUserData(1).Value.(error); ok {
		L.Push(glua.LString(e.Error()))
		return 1
	}
	L.Push(glua.LString("error"))
	return 1
}

var builderMethods = map[string]glua.LGFunction{
	"add_line":                 builderAddLine,
	"add_lines":                builderAddLines,
	"add_on_top":               builderAddOnTop,
	"add_import":               builderAddImport,
	"begin_block":              builderBeginBlock,
	"end_block":                builderEndBlock,
	"increase_indent":          builderIncreaseIndent,
	"decrease_indent":          builderDecreaseIndent,
	"get_in_var":               builderGetInVar,
	"get_out_var":              builderGetOutVar,
	"set_output":               builderSetOutput,
	"bind_io":                  builderBindIO,
	"map_io":                   builderMapIO,
	"set_comptime":             builderSetCompTime,
	"get_comptime":             builderGetCompTime,
	"compile_flow_output_here": builderCompileFlowOutputHere,
	"node_id":                  builderNodeID,
	"node_type":                builderNodeType,
}

func registerBuilderType(L *glua.LState) {
	mt := L.NewTypeMetatable(builderTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), builderMethods))

	emt := L.NewTypeMetatable(errorTypeName)
	L.SetField(emt, "__tostring", L.NewFunction(errorToString))
}

func newBuilderValue(L *glua.LState, call *builderCall) *glua.LUserData {
	ud := L.NewUserData()
	ud.Value = call
	L.SetMetatable(ud, L.GetTypeMetatable(builderTypeName))
	return ud
}

func checkBuilder(L *glua.LState) *builderCall {
	ud := L.CheckUserData(1)
	if call, ok := ud.Value.(*builderCall); ok {
		return call
	}
	L.ArgError(1, "builder expected")
	return nil
}

func builderAddLine(L *glua.LState) int {
	c := checkBuilder(L)
	c.b.AddLine(L.OptString(2, ""))
	return 0
}

// add_lines accepts either a list table or varargs.
func builderAddLines(L *glua.LState) int {
	c := checkBuilder(L)
	var lines []string
	if tbl, ok := L.Get(2).(*glua.LTable); ok {
		tbl.ForEach(func(_, v glua.LValue) {
			lines = append(lines, v.String())
		})
	} else {
		for i := 2; i <= L.GetTop(); i++ {
			lines = append(lines, L.CheckString(i))
		}
	}
	c.b.AddLines(lines...)
	return 0
}

func builderAddOnTop(L *glua.LState) int {
	c := checkBuilder(L)
	c.b.AddOnTop(L.CheckString(2))
	return 0
}

func builderAddImport(L *glua.LState) int {
	c := checkBuilder(L)
	c.b.AddImport(L.CheckString(2), L.CheckString(3))
	return 0
}

func builderBeginBlock(L *glua.LState) int {
	checkBuilder(L).b.BeginBlock()
	return 0
}

func builderEndBlock(L *glua.LState) int {
	checkBuilder(L).b.EndBlock()
	return 0
}

func builderIncreaseIndent(L *glua.LState) int {
	c := checkBuilder(L)
	c.b.IncreaseIndent(L.OptInt(2, 1))
	return 0
}

func builderDecreaseIndent(L *glua.LState) int {
	c := checkBuilder(L)
	c.b.DecreaseIndent(L.OptInt(2, 1))
	return 0
}

func builderGetInVar(L *glua.LState) int {
	c := checkBuilder(L)
	v, err := c.b.GetInVar(L.CheckString(2))
	if err != nil {
		return raise(L, err)
	}
	L.Push(glua.LString(v))
	return 1
}

func builderGetOutVar(L *glua.LState) int {
	c := checkBuilder(L)
	L.Push(glua.LString(c.b.GetOutVar(L.CheckString(2))))
	return 1
}

func builderSetOutput(L *glua.LState) int {
	c := checkBuilder(L)
	L.Push(glua.LString(c.b.SetOutput(L.CheckString(2), L.CheckString(3))))
	return 1
}

func builderBindIO(L *glua.LState) int {
	c := checkBuilder(L)
	if err := c.b.BindIO(L.CheckString(2), L.CheckString(3)); err != nil {
		return raise(L, err)
	}
	return 0
}

func builderMapIO(L *glua.LState) int {
	c := checkBuilder(L)
	c.b.MapIO(L.CheckString(2), L.CheckString(3))
	return 0
}

func builderSetCompTime(L *glua.LState) int {
	c := checkBuilder(L)
	c.b.SetCompTime(L.CheckString(2), L.CheckString(3), L.CheckString(4))
	return 0
}

// get_comptime returns nil when nothing was stored.
func builderGetCompTime(L *glua.LState) int {
	c := checkBuilder(L)
	v, ok := c.b.GetCompTime(L.CheckString(2), L.CheckString(3))
	if !ok {
		L.Push(glua.LNil)
		return 1
	}
	L.Push(glua.LString(v))
	return 1
}

func builderCompileFlowOutputHere(L *glua.LState) int {
	c := checkBuilder(L)
	if err := c.b.CompileFlowOutputHere(L.CheckString(2)); err != nil {
		return raise(L, err)
	}
	return 0
}

func builderNodeID(L *glua.LState) int {
	c := checkBuilder(L)
	if n := c.b.Node(); n != nil {
		L.Push(glua.LString(n.UID))
		return 1
	}
	L.Push(glua.LNil)
	return 1
}

func builderNodeType(L *glua.LState) int {
	c := checkBuilder(L)
	if n := c.b.Node(); n != nil {
		L.Push(glua.LString(n.Type))
		return 1
	}
	L.Push(glua.LNil)
	return 1
}
