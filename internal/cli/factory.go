// Package cli wires configuration, adapters and the generator together for
// the disbotter command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/disbotter/disbotter"
	"github.com/disbotter/disbotter/internal/config"
	"github.com/disbotter/disbotter/internal/logging"
	"github.com/disbotter/disbotter/pkg/adapters/file"
	loamAdapter "github.com/disbotter/disbotter/pkg/adapters/loam"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/ports"
)

// LoadConfig reads the configuration file. A path given explicitly must
// exist; the default one may be absent.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path, path != "")
}

// NewLogger configures the application logger from cfg.
// It only reports warnings unless debug is set.
func NewLogger(cfg *config.Config, debug bool) (*slog.Logger, error) {
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithWriter(os.Stderr, level, format), nil
}

// NewGenerator initializes a Generator with standard CLI conventions.
// Node directories that do not exist are skipped.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger, hooks ...domain.CompileHooks) (*disbotter.Generator, error) {
	policy, err := cfg.InputPolicy()
	if err != nil {
		return nil, err
	}

	gen, err := disbotter.New(ctx,
		disbotter.WithLogger(logger),
		disbotter.WithTemplateDirs(existingDirs(cfg.Nodes, logger)...),
		disbotter.WithHooks(domain.ChainHooks(hooks...)),
		disbotter.WithInputPolicy(policy),
		disbotter.WithIndent(cfg.Indent),
		disbotter.WithWorkers(cfg.Workers),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing generator: %w", err)
	}
	return gen, nil
}

func existingDirs(dirs []string, logger *slog.Logger) []string {
	var out []string
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("node directory not found", "dir", dir)
		case err != nil:
			// Let the loader report the real error.
			out = append(out, dir)
		case !info.IsDir():
			logger.Warn("node path is not a directory", "dir", dir)
		default:
			out = append(out, dir)
		}
	}
	return out
}

// NewProjectLoader picks the project source for path: a directory is read
// as a Loam vault with one document per command, anything else as a
// project file.
func NewProjectLoader(path string) (ports.ProjectLoader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open project: %w", err)
	}
	if info.IsDir() {
		l, err := loamAdapter.Open(path)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return file.NewProjectLoader(path), nil
}

// DebugHooks logs every compile event at debug level.
func DebugHooks(logger *slog.Logger) domain.CompileHooks {
	return domain.CompileHooks{
		OnNodeCompiled: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Node Compiled", "command", e.Command, "node_id", e.NodeID, "type", e.NodeType, "lazy", e.Lazy)
		},
		OnUnitDone: func(ctx context.Context, e *domain.UnitEvent) {
			if e.Err != nil {
				logger.Debug("Unit Failed", "command", e.Command, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.Debug("Unit Compiled", "command", e.Command, "path", e.Path, "duration", e.Duration)
		},
	}
}

// Trace records which nodes compiled and where compilation stopped.
// It is safe for concurrent use by parallel units.
type Trace struct {
	mu       sync.Mutex
	compiled []string
	failed   map[string]error
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{failed: make(map[string]error)}
}

// Hooks returns the callbacks feeding the trace.
func (t *Trace) Hooks() domain.CompileHooks {
	return domain.CompileHooks{
		OnNodeCompiled: func(ctx context.Context, e *domain.NodeEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.compiled = append(t.compiled, e.NodeID)
		},
		OnUnitDone: func(ctx context.Context, e *domain.UnitEvent) {
			if e.Err == nil {
				return
			}
			t.mu.Lock()
			defer t.mu.Unlock()
			t.failed[e.Command] = e.Err
		},
	}
}

// Compiled returns the ids of compiled nodes in compile order.
func (t *Trace) Compiled() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.compiled...)
}

// FailedNode returns the node that stopped command, if the failure names one.
func (t *Trace) FailedNode(command string) string {
	t.mu.Lock()
	err := t.failed[command]
	t.mu.Unlock()

	var cerr *domain.CompileError
	if errors.As(err, &cerr) {
		return cerr.NodeID
	}
	return ""
}
