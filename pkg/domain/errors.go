package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Compile error kinds. Every *CompileError reports one of them through errors.Is.
var (
	// ErrScript is returned when a node action or special-node routine fails.
	ErrScript = errors.New("script error")

	// ErrInvalidPortIdentifier is returned when a wire connects incompatible ports.
	ErrInvalidPortIdentifier = errors.New("invalid port identifier")

	// ErrNodeNotFound is returned when a node type has no template and is not special.
	ErrNodeNotFound = errors.New("node not found")

	// ErrBadContext is returned when required ambient data is missing or unknown.
	ErrBadContext = errors.New("bad context")

	// ErrNoStartNode is returned when a flow lacks its entry node.
	ErrNoStartNode = errors.New("no start node")
)

var (
	// ErrCommandNotFound is returned when a named compile unit does not exist.
	ErrCommandNotFound = errors.New("command not found")

	// ErrProgramNotFound is returned by program stores for unknown keys.
	ErrProgramNotFound = errors.New("program not found")
)

// CompileError describes why a compile unit failed.
type CompileError struct {
	Kind     error           // One of the Err* kinds above
	Command  string          // Compile unit name, filled in by the project compiler
	NodeID   string          // Node being compiled, if known
	NodeType string          // Its type, if known
	Port     *PortIdentifier // Offending port, if any
	Detail   string          // Human-readable explanation
	Err      error           // Underlying cause (e.g. a script runtime error)
}

// NewCompileError creates a CompileError of the given kind.
func NewCompileError(kind error, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *CompileError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Command != "" {
		fmt.Fprintf(&sb, " in command %q", e.Command)
	}
	if e.NodeID != "" {
		fmt.Fprintf(&sb, " at node %s", e.NodeID)
		if e.NodeType != "" {
			fmt.Fprintf(&sb, " (%s)", e.NodeType)
		}
	}
	if e.Port != nil {
		fmt.Fprintf(&sb, " [%s]", e.Port)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Is matches the error kind so callers can use errors.Is(err, domain.ErrNodeNotFound).
func (e *CompileError) Is(target error) bool {
	return target == e.Kind
}

// WithNode fills in node information if not already set.
func (e *CompileError) WithNode(id, nodeType string) *CompileError {
	if e.NodeID == "" {
		e.NodeID = id
		e.NodeType = nodeType
	}
	return e
}

// WithPort attaches the offending port.
func (e *CompileError) WithPort(p PortIdentifier) *CompileError {
	e.Port = &p
	return e
}

// ProjectError aggregates the failed units of a project compile.
// Units not listed here compiled successfully.
type ProjectError struct {
	Units []*CompileError
}

func (e *ProjectError) Error() string {
	msgs := make([]string, 0, len(e.Units))
	for _, u := range e.Units {
		msgs = append(msgs, u.Error())
	}
	return fmt.Sprintf("%d command(s) failed to compile:\n- %s", len(e.Units), strings.Join(msgs, "\n- "))
}

// Unwrap allows errors.Is/As to inspect individual unit failures.
func (e *ProjectError) Unwrap() []error {
	errs := make([]error, 0, len(e.Units))
	for _, u := range e.Units {
		errs = append(errs, u)
	}
	return errs
}

// AsCompileError converts any error into a *CompileError, wrapping foreign
// errors as script errors.
func AsCompileError(err error) *CompileError {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce
	}
	return &CompileError{Kind: ErrScript, Err: err}
}
