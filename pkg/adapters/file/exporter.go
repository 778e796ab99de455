// Package file provides filesystem adapters: a program exporter, a project
// loader for .dbp documents and a JSON program store.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/disbotter/disbotter/internal/logging"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/registry"
)

// DefaultOutputDir is where programs are exported when no directory is given.
const DefaultOutputDir = "out"

// Exporter implements ports.ProgramExporter by writing every program file
// under a root directory.
type Exporter struct {
	Root   string
	logger *slog.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithLogger sets the exporter's logger.
func WithLogger(logger *slog.Logger) ExporterOption {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExporter creates an exporter rooted at root.
// If root is empty, it defaults to DefaultOutputDir.
func NewExporter(root string, opts ...ExporterOption) *Exporter {
	if root == "" {
		root = DefaultOutputDir
	}
	e := &Exporter{Root: root, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes each file of program to Root/<file path>.
// Paths that would escape Root are rejected before anything is written.
func (e *Exporter) Export(ctx context.Context, program *domain.Program) error {
	files := program.Files()
	for _, f := range files {
		if !filepath.IsLocal(filepath.FromSlash(f.Path)) {
			return fmt.Errorf("refusing to export %q outside of %s", f.Path, e.Root)
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		dest := filepath.Join(e.Root, filepath.FromSlash(f.Path))
		if err := writeAtomic(dest, []byte(f.Code)); err != nil {
			return fmt.Errorf("failed to export %s: %w", f.Path, err)
		}
		e.logger.Debug("exported file", "path", dest)
	}
	e.logger.Info("exported program", "dir", e.Root, "files", len(files))
	return nil
}

// WriteDeclarations writes decls as an indented JSON array to path.
func WriteDeclarations(path string, decls []registry.Declaration) error {
	if decls == nil {
		decls = []registry.Declaration{}
	}
	data, err := json.MarshalIndent(decls, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal declarations: %w", err)
	}
	return writeAtomic(path, append(data, '\n'))
}
