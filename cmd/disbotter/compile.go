package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/disbotter/disbotter/internal/cli"
	"github.com/disbotter/disbotter/internal/presentation/tui"
	"github.com/disbotter/disbotter/pkg/adapters/file"
	"github.com/disbotter/disbotter/pkg/domain"
)

var errMissingProject = errors.New("no project given: use --path or pass it as an argument")

var compileCmd = &cobra.Command{
	Use:   "compile [project]",
	Short: "Compile a project from a .dbp file",
	Long: `Compiles every command of a project into commands/<name>.ts under the output
directory. The project is either a .dbp file exported by the editor or a
directory holding one document per command.

Nothing is written when a command fails to compile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("path", "p", "", "Path to the .dbp file or command directory")
	compileCmd.Flags().StringP("output", "o", "", "Path to the output directory (default from config)")
	compileCmd.Flags().StringSliceP("nodes", "n", nil, "Directories containing the nodes, comma separated")
	compileCmd.Flags().Bool("undefined-inputs", false, "Compile unbound inputs as undefined instead of failing")
	compileCmd.Flags().StringP("command", "c", "", "Compile only the named command")
	compileCmd.Flags().Bool("stdout", false, "Print the generated files instead of writing them")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, logger, err := settings(cmd)
	if err != nil {
		return err
	}
	applyNodeFlags(cmd, cfg)
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Output = out
	}

	path, err := projectPath(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	status := tui.NewStatus(cmd.OutOrStdout())

	gen, err := cli.NewGenerator(ctx, cfg, logger, compileHooks(cmd, logger)...)
	if err != nil {
		return err
	}
	loader, err := cli.NewProjectLoader(path)
	if err != nil {
		return err
	}
	project, err := loader.LoadProject(ctx)
	if err != nil {
		return fmt.Errorf("failed to load project %s: %w", path, err)
	}

	var program *domain.Program
	if name, _ := cmd.Flags().GetString("command"); name != "" {
		f, cerr := gen.CompileCommand(ctx, project, name)
		if cerr != nil {
			status.Fail("Failed to compile command: %s", name)
			return cerr
		}
		program = domain.NewProgram()
		program.Add(f)
	} else {
		program, err = gen.Compile(ctx, project)
		if err != nil {
			status.Fail("Failed to compile project: %s", path)
			var perr *domain.ProjectError
			if errors.As(err, &perr) {
				for _, u := range perr.Units {
					status.Info("%v", u)
				}
				return fmt.Errorf("%d of %d commands failed to compile", len(perr.Units), len(project.Content.Commands))
			}
			return err
		}
	}

	if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
		_, err := fmt.Fprint(cmd.OutOrStdout(), program.ExportString())
		return err
	}

	if err := file.NewExporter(cfg.Output, file.WithLogger(logger)).Export(ctx, program); err != nil {
		return err
	}
	status.OK("Successfully compiled project: %s", path)
	for _, p := range program.Paths() {
		status.Info("%s", p)
	}
	return nil
}
