package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/disbotter/disbotter/internal/cli"
	"github.com/disbotter/disbotter/internal/presentation/graph"
	"github.com/disbotter/disbotter/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [project]",
	Short: "Export the flow graph visualization of a command",
	Long: `Outputs a Mermaid diagram (graph TD) of a command's flow. With --trace the
command is compiled first and the diagram marks the nodes that compiled and
the node that failed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("path", "p", "", "Path to the .dbp file or command directory")
	graphCmd.Flags().StringP("command", "c", "", "Command to draw (required when the project has several)")
	graphCmd.Flags().StringSliceP("nodes", "n", nil, "Directories containing the nodes, comma separated")
	graphCmd.Flags().Bool("undefined-inputs", false, "Compile unbound inputs as undefined instead of failing")
	graphCmd.Flags().Bool("trace", false, "Compile the command and overlay the result")
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, logger, err := settings(cmd)
	if err != nil {
		return err
	}
	applyNodeFlags(cmd, cfg)

	path, err := projectPath(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	loader, err := cli.NewProjectLoader(path)
	if err != nil {
		return err
	}
	project, err := loader.LoadProject(ctx)
	if err != nil {
		return fmt.Errorf("failed to load project %s: %w", path, err)
	}

	name, _ := cmd.Flags().GetString("command")
	command, err := pickCommand(project, name)
	if err != nil {
		return err
	}

	trace := cli.NewTrace()
	gen, err := cli.NewGenerator(ctx, cfg, logger, append(compileHooks(cmd, logger), trace.Hooks())...)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if traced, _ := cmd.Flags().GetBool("trace"); traced {
		if _, err := gen.CompileCommand(ctx, project, command.Name); err != nil {
			logger.Debug("traced command failed", "command", command.Name, "err", err)
		}
		overlay = &graph.Overlay{
			CompiledNodes: trace.Compiled(),
			FailedNode:    trace.FailedNode(command.Name),
		}
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(&command.Flow, gen.Templates(), overlay))
	return err
}

// pickCommand returns the named command, or the only one when name is empty.
func pickCommand(project *domain.Project, name string) (*domain.Command, error) {
	if name != "" {
		c, ok := project.Command(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrCommandNotFound, name)
		}
		return c, nil
	}
	if len(project.Content.Commands) != 1 {
		return nil, fmt.Errorf("project has %d commands, choose one with --command", len(project.Content.Commands))
	}
	return &project.Content.Commands[0], nil
}
