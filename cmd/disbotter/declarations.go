package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/disbotter/disbotter/internal/cli"
	"github.com/disbotter/disbotter/internal/presentation/tui"
	"github.com/disbotter/disbotter/pkg/adapters/file"
)

var declarationsCmd = &cobra.Command{
	Use:   "gen-node-declarations",
	Short: "Generates node declarations for the web editor",
	Long: `Loads every node script under the node directories and writes the JSON
declarations the web editor uses to draw them. With --catalog the nodes are
listed in the terminal instead.`,
	RunE: runDeclarations,
}

func init() {
	rootCmd.AddCommand(declarationsCmd)
	declarationsCmd.Flags().StringSliceP("path", "p", nil, "Directories containing the nodes, comma separated")
	declarationsCmd.Flags().StringP("output", "o", "", "Path to the output file (default from config)")
	declarationsCmd.Flags().Bool("catalog", false, "Print a catalog of the nodes instead of writing declarations")
}

func runDeclarations(cmd *cobra.Command, args []string) error {
	cfg, logger, err := settings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("path") {
		cfg.Nodes, _ = cmd.Flags().GetStringSlice("path")
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Declarations = out
	}

	gen, err := cli.NewGenerator(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	if catalog, _ := cmd.Flags().GetBool("catalog"); catalog {
		out, err := tui.NewRenderer()(tui.CatalogMarkdown(gen.Templates().Templates()))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}

	decls := gen.Declarations()
	if err := file.WriteDeclarations(cfg.Declarations, decls); err != nil {
		return err
	}
	tui.NewStatus(cmd.OutOrStdout()).OK("Successfully generated %d node declarations: %s", len(decls), cfg.Declarations)
	return nil
}
