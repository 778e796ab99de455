package lua

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	glua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/disbotter/disbotter/pkg/builder"
	"github.com/disbotter/disbotter/pkg/registry"
)

var (
	// ErrInvalidScript is returned when a script does not parse or its top level fails.
	ErrInvalidScript = errors.New("invalid script")

	// ErrMissingValue is returned when a required declaration is absent.
	ErrMissingValue = errors.New("missing value")

	// ErrInvalidIODeclaration is returned when an input or output lacks its type or name.
	ErrInvalidIODeclaration = errors.New("invalid io declaration")
)

// ActionFunc is the global function every script defines to emit code.
const ActionFunc = "action"

type scriptMeta struct {
	ID          string              `mapstructure:"id"`
	Title       string              `mapstructure:"title"`
	Description string              `mapstructure:"description"`
	Category    string              `mapstructure:"category"`
	Pure        bool                `mapstructure:"pure"`
	NoFlowIn    bool                `mapstructure:"noFlowIn"`
	NoFlowOut   bool                `mapstructure:"noFlowOut"`
	Inputs      map[string]portMeta `mapstructure:"inputs"`
	Outputs     map[string]portMeta `mapstructure:"outputs"`
}

type portMeta struct {
	Type       string   `mapstructure:"type"`
	Name       string   `mapstructure:"name"`
	Index      *int     `mapstructure:"index"`
	StartValue any      `mapstructure:"start_value"`
	StructTags []string `mapstructure:"struct_tags"`
}

// sandboxed globals are removed from the base library so scripts cannot
// reach the file system or load other code.
var sandboxed = []string{"dofile", "loadfile", "load", "loadstring", "require", "module"}

var metaGlobals = []string{"id", "title", "description", "category", "pure", "noFlowIn", "noFlowOut", "inputs", "outputs"}

// Script is a compiled node script. The compiled chunk is immutable, so one
// Script serves concurrent actions; every action runs in a fresh Lua state.
type Script struct {
	name   string
	digest string
	proto  *glua.FunctionProto
}

// Compile parses and compiles src. name is used in error messages.
func Compile(name, src string) (*Script, error) {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScript, name, err)
	}
	proto, err := glua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScript, name, err)
	}
	sum := sha256.Sum256([]byte(src))
	return &Script{name: name, digest: hex.EncodeToString(sum[:]), proto: proto}, nil
}

// Name returns the script's name.
func (s *Script) Name() string {
	return s.name
}

// open creates a sandboxed state and runs the script's top level in it.
func (s *Script) open() (*glua.LState, error) {
	L := glua.NewState(glua.Options{SkipOpenLibs: true})
	libs := []struct {
		name string
		fn   glua.LGFunction
	}{
		{glua.BaseLibName, glua.OpenBase},
		{glua.TabLibName, glua.OpenTable},
		{glua.StringLibName, glua.OpenString},
		{glua.MathLibName, glua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(glua.P{Fn: L.NewFunction(lib.fn), NRet: 0, Protect: true}, glua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open lua library %s: %w", lib.name, err)
		}
	}
	for _, name := range sandboxed {
		L.SetGlobal(name, glua.LNil)
	}
	registerBuilderType(L)

	L.Push(L.NewFunctionFromProto(s.proto))
	if err := L.PCall(0, glua.MultRet, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScript, s.name, err)
	}
	return L, nil
}

// Template evaluates the script's declarations and returns the template
// whose action runs the script's action function.
func (s *Script) Template() (registry.Template, error) {
	L, err := s.open()
	if err != nil {
		return registry.Template{}, err
	}
	defer L.Close()

	raw := make(map[string]any)
	for _, name := range metaGlobals {
		if v := L.GetGlobal(name); v != glua.LNil {
			raw[name] = toGo(v)
		}
	}
	if _, ok := L.GetGlobal(ActionFunc).(*glua.LFunction); !ok {
		return registry.Template{}, fmt.Errorf("%w: %s: function %s", ErrMissingValue, s.name, ActionFunc)
	}

	var meta scriptMeta
	if err := mapstructure.Decode(raw, &meta); err != nil {
		return registry.Template{}, fmt.Errorf("%w: %s: %v", ErrInvalidScript, s.name, err)
	}
	if meta.ID == "" {
		return registry.Template{}, fmt.Errorf("%w: %s: id", ErrMissingValue, s.name)
	}

	inputs, err := ports(s.name, meta.Inputs)
	if err != nil {
		return registry.Template{}, err
	}
	outputs, err := ports(s.name, meta.Outputs)
	if err != nil {
		return registry.Template{}, err
	}

	return registry.Template{
		Type:        meta.ID,
		Title:       meta.Title,
		Description: meta.Description,
		Category:    meta.Category,
		Pure:        meta.Pure,
		NoFlowIn:    meta.NoFlowIn,
		NoFlowOut:   meta.NoFlowOut,
		Inputs:      inputs,
		Outputs:     outputs,
		Source:      s.name,
		Digest:      s.digest,
		Action:      s.Run,
	}, nil
}

func ports(script string, decls map[string]portMeta) ([]registry.Port, error) {
	out := make([]registry.Port, 0, len(decls))
	for key, d := range decls {
		if d.Type == "" || d.Name == "" {
			return nil, fmt.Errorf("%w: %s: port %q needs a type and a name", ErrInvalidIODeclaration, script, key)
		}
		index := registry.DefaultPortIndex
		if d.Index != nil {
			index = *d.Index
		}
		out = append(out, registry.Port{
			Key:        key,
			Name:       d.Name,
			Type:       registry.ParseDataType(d.Type),
			StructTags: d.StructTags,
			Index:      index,
			StartValue: d.StartValue,
		})
	}
	return out, nil
}

// Run executes the script's action function against b.
// Uncaught errors raised by builder methods are returned as they are; other
// runtime errors are returned wrapped.
func (s *Script) Run(b *builder.Builder) error {
	L, err := s.open()
	if err != nil {
		return err
	}
	defer L.Close()

	fn, ok := L.GetGlobal(ActionFunc).(*glua.LFunction)
	if !ok {
		return fmt.Errorf("%w: %s: function %s", ErrMissingValue, s.name, ActionFunc)
	}

	call := &builderCall{b: b}
	if err := L.CallByParam(glua.P{Fn: fn, NRet: 0, Protect: true}, newBuilderValue(L, call)); err != nil {
		if gerr := goError(err); gerr != nil {
			return gerr
		}
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

// toGo converts a Lua value into plain Go values: tables with a sequence
// part become slices, other tables become maps with string keys.
func toGo(v glua.LValue) any {
	switch x := v.(type) {
	case glua.LString:
		return string(x)
	case glua.LNumber:
		f := float64(x)
		if f == float64(int64(f)) {
			return int(f)
		}
		return f
	case glua.LBool:
		return bool(x)
	case *glua.LTable:
		if n := x.MaxN(); n > 0 {
			list := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				list = append(list, toGo(x.RawGetInt(i)))
			}
			return list
		}
		m := make(map[string]any)
		x.ForEach(func(k, val glua.LValue) {
			m[k.String()] = toGo(val)
		})
		return m
	default:
		return nil
	}
}
