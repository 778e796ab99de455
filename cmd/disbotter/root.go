package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/disbotter/disbotter/internal/cli"
	"github.com/disbotter/disbotter/internal/config"
	"github.com/disbotter/disbotter/internal/presentation/tui"
	"github.com/disbotter/disbotter/pkg/domain"
)

var rootCmd = &cobra.Command{
	Use:   "disbotter",
	Short: "Disbotter compiles visual command flows into Discord bots",
	Long: `Disbotter turns the node graphs drawn in the web editor into discord.js
slash command handlers written in TypeScript.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	sc := cli.NewSignalContext(context.Background())
	defer sc.Stop()

	if err := rootCmd.ExecuteContext(sc); err != nil {
		tui.NewStatus(os.Stderr).Fail("%v", err)
		sc.Stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

// settings loads the configuration and logger shared by every command.
func settings(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := cli.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.NewLogger(cfg, debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// compileHooks returns the debug hooks when --debug is set.
func compileHooks(cmd *cobra.Command, logger *slog.Logger) []domain.CompileHooks {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		return []domain.CompileHooks{cli.DebugHooks(logger)}
	}
	return nil
}

// applyNodeFlags overrides the template settings of cfg with the flags that were set.
func applyNodeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("nodes") {
		cfg.Nodes, _ = cmd.Flags().GetStringSlice("nodes")
	}
	if undefined, _ := cmd.Flags().GetBool("undefined-inputs"); undefined {
		cfg.Inputs = "undefined"
	}
}

// projectPath reads --path, falling back to the first argument.
func projectPath(cmd *cobra.Command, args []string) (string, error) {
	path, _ := cmd.Flags().GetString("path")
	if !cmd.Flags().Changed("path") && len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return "", errMissingProject
	}
	return path, nil
}
