// Package lua loads node templates from Lua scripts.
//
// A script declares its template through globals and emits code from a
// global function named action, which receives the builder:
//
//	id = "builtin:reply"
//	title = "Reply"
//	category = "Messages"
//	inputs = { text = { type = "text", name = "Text", start_value = "" } }
//	outputs = {}
//
//	function action(builder)
//	  local text = builder:get_in_var("text")
//	  builder:add_line("await __INTERACTION__.reply(" .. text .. ");")
//	end
package lua

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disbotter/disbotter/internal/logging"
	"github.com/disbotter/disbotter/pkg/registry"
)

// Extension is the file extension of node scripts.
const Extension = ".lua"

// Loader implements ports.TemplateLoader over directories of Lua scripts.
type Loader struct {
	dirs   []string
	logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used while scanning directories.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loader over dirs. Directories are scanned recursively and
// in order; a later script with the same id replaces an earlier one.
func New(dirs []string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dirs:   dirs,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load compiles every script under the loader's directories.
func (l *Loader) Load(ctx context.Context) (*registry.Registry, error) {
	reg := registry.NewRegistry()
	for _, dir := range l.dirs {
		if err := l.loadDir(ctx, reg, dir); err != nil {
			return nil, err
		}
	}
	l.logger.Debug("loaded node templates", "dirs", len(l.dirs), "templates", reg.Len())
	return reg, nil
}

func (l *Loader) loadDir(ctx context.Context, reg *registry.Registry, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil
		}

		tmpl, err := LoadFile(path)
		if err != nil {
			return err
		}
		if prev, ok := reg.Get(tmpl.Type); ok {
			l.logger.Warn("node template redefined", "type", tmpl.Type, "previous", prev.Source, "source", path)
		}
		reg.Register(tmpl)
		return nil
	})
}

// LoadFile compiles the script at path into a template.
func LoadFile(path string) (registry.Template, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return registry.Template{}, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return LoadScript(path, string(src))
}

// LoadScript compiles src into a template. name identifies the script.
func LoadScript(name, src string) (registry.Template, error) {
	script, err := Compile(name, src)
	if err != nil {
		return registry.Template{}, err
	}
	return script.Template()
}
