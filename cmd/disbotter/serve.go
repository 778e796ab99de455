package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/disbotter/disbotter"
	"github.com/disbotter/disbotter/internal/cli"
	"github.com/disbotter/disbotter/internal/metrics"
	"github.com/disbotter/disbotter/internal/presentation/tui"
	httpAdapter "github.com/disbotter/disbotter/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the compile server",
	Long: `Starts the compiler as an HTTP service for the web editor. Compiled programs
are cached in Redis when redis.addr is configured, on disk when
server.cache_dir is set and in memory otherwise.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config)")
	serveCmd.Flags().StringSliceP("nodes", "n", nil, "Directories containing the nodes, comma separated")
	serveCmd.Flags().Bool("undefined-inputs", false, "Compile unbound inputs as undefined instead of failing")
	serveCmd.Flags().Bool("quiet", false, "Do not print the banner")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := settings(cmd)
	if err != nil {
		return err
	}
	applyNodeFlags(cmd, cfg)
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx := cmd.Context()
	collector := metrics.New()
	hooks := append(compileHooks(cmd, logger), collector.Hooks())

	gen, err := cli.NewGenerator(ctx, cfg, logger, hooks...)
	if err != nil {
		return err
	}
	cache, err := cli.NewCache(ctx, cfg, logger, gen.Fingerprint())
	if err != nil {
		return err
	}
	defer cache.Close()

	ttl, _ := cfg.Redis.TTLDuration()
	handler := httpAdapter.NewHandler(gen,
		httpAdapter.WithStore(cache.Store),
		httpAdapter.WithLocker(cache.Locker, ttl),
		httpAdapter.WithMetrics(collector),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithVersion(disbotter.Version),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	out := cmd.OutOrStdout()
	status := tui.NewStatus(out)
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		tui.PrintBanner(out)
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		status.Info("Starting Disbotter Server on %s", srv.Addr)
		status.Info("Serving %d node templates (catalog %s), %s cache", gen.Templates().Len(), gen.Fingerprint(), cache.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		if sc, ok := ctx.(*cli.SignalContext); ok && sc.Signal() != nil {
			status.Info("Start shutdown... Signal: %v", sc.Signal())
		}

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		status.OK("Disbotter Server stopped gracefully")
		return nil
	}
}

var _ httpAdapter.Generator = (*disbotter.Generator)(nil)
