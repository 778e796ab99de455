package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// NewOutput returns a termenv output for w. Anything that is not an
// interactive terminal gets plain ASCII.
func NewOutput(w io.Writer) *termenv.Output {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return termenv.NewOutput(w)
	}
	return termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
}

// Status prints one-line progress messages.
type Status struct {
	w   io.Writer
	out *termenv.Output
}

// NewStatus creates a status printer writing to w.
func NewStatus(w io.Writer) *Status {
	return &Status{w: w, out: NewOutput(w)}
}

// OK reports a success.
func (s *Status) OK(format string, args ...any) {
	s.line("✓", "#22c55e", format, args...)
}

// Fail reports a failure.
func (s *Status) Fail(format string, args ...any) {
	s.line("✗", "#ef4444", format, args...)
}

// Info reports a neutral message.
func (s *Status) Info(format string, args ...any) {
	s.line("•", "#60a5fa", format, args...)
}

func (s *Status) line(mark, color, format string, args ...any) {
	prefix := s.out.String(mark).Foreground(s.out.Color(color)).Bold()
	fmt.Fprintf(s.w, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}
