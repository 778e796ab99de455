package compiler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/disbotter/disbotter/pkg/builder"
	"github.com/disbotter/disbotter/pkg/domain"
)

// Banner lines placed on top of every generated command file.
const (
	BannerGenerated = "// This file is automatically generated by Disbotter"
	BannerNoCheck   = "// @ts-nocheck"
)

// CommandPath returns the program path of a command's file.
func CommandPath(name string) string {
	return "commands/" + name + ".ts"
}

// CompileProject compiles every command of project.
//
// Commands compile in parallel, each on its own clone with its own cache.
// The returned program holds the files of every command that succeeded, in
// project order. If any command failed, the error is a *domain.ProjectError
// listing them. Cancelling ctx stops new commands from starting.
func (c *Compiler) CompileProject(ctx context.Context, project *domain.Project) (*domain.Program, error) {
	commands := project.Content.Commands
	files := make([]*domain.File, len(commands))
	failures := make([]*domain.CompileError, len(commands))

	g := new(errgroup.Group)
	g.SetLimit(max(1, c.workers))

	for i := range commands {
		if ctx.Err() != nil {
			break
		}
		cmd := &commands[i]
		g.Go(func() error {
			f, err := c.Clone().CompileCommand(ctx, cmd)
			if err != nil {
				ce := domain.AsCompileError(err)
				if ce.Command == "" {
					ce.Command = cmd.Name
				}
				failures[i] = ce
				return nil
			}
			files[i] = &f
			return nil
		})
	}
	_ = g.Wait()

	program := domain.NewProgram()
	for _, f := range files {
		if f != nil {
			program.Add(*f)
		}
	}

	var perr domain.ProjectError
	for _, ce := range failures {
		if ce != nil {
			perr.Units = append(perr.Units, ce)
		}
	}

	c.logger.Info("compiled project", "name", project.Metadata.Name, "files", program.Len(), "failed", len(perr.Units))
	if len(perr.Units) > 0 {
		return program, &perr
	}
	if err := ctx.Err(); err != nil {
		return program, fmt.Errorf("project compile interrupted: %w", err)
	}
	return program, nil
}

// CompileCommand compiles one command into its file.
// Nothing is returned for the command if any part of it fails.
func (c *Compiler) CompileCommand(ctx context.Context, cmd *domain.Command) (domain.File, error) {
	c.ctx = ctx
	c.command = cmd
	start := time.Now()

	path := CommandPath(cmd.Name)
	b := c.NewBuilder(path)

	err := c.emitCommand(b, cmd)
	var file domain.File
	if err == nil {
		file = b.Finalize()
	} else {
		ce := domain.AsCompileError(err)
		if ce.Command == "" {
			ce.Command = cmd.Name
		}
		err = ce
		c.logger.Warn("command failed to compile", "command", cmd.Name, "error", err)
	}

	if c.hooks.OnUnitDone != nil {
		ev := &domain.UnitEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventUnitCompiled,
				Command:   cmd.Name,
			},
			Duration: time.Since(start),
			Err:      err,
		}
		if err == nil {
			ev.Path = path
		}
		c.hooks.OnUnitDone(c.context(), ev)
	}
	return file, err
}

// emitCommand writes the command class around the compiled handler body.
func (c *Compiler) emitCommand(b *builder.Builder, cmd *domain.Command) error {
	b.AddLine("export default class extends Command {")
	b.IncreaseIndent(1)
	b.AddLine("public readonly builder = new SlashCommandBuilder()")
	b.IncreaseIndent(1)
	b.AddLine(fmt.Sprintf(".setName(%s)", Quote(cmd.Name)))
	b.AddLine(fmt.Sprintf(".setDescription(%s)", Quote(cmd.Description)))

	for _, opt := range cmd.Options {
		kind, err := opt.Kind.Name()
		if err != nil {
			return domain.NewCompileError(domain.ErrBadContext, "option %q: %v", opt.Name, err)
		}
		b.AddLine(fmt.Sprintf(".add%sOption(option => option", kind))
		b.IncreaseIndent(1)
		b.AddLine(fmt.Sprintf(".setName(%s)", Quote(opt.Name)))
		b.AddLine(fmt.Sprintf(".setDescription(%s)", Quote(opt.Description)))
		b.AddLine(fmt.Sprintf(".setRequired(%t)", opt.Required))
		if opt.Kind == domain.OptionString {
			for _, choice := range opt.Choices {
				b.AddLine(fmt.Sprintf(".addChoices({ name: %s, value: %s })", Quote(choice), Quote(choice)))
			}
		}
		b.DecreaseIndent(1)
		b.AddLine(")")
	}
	b.DecreaseIndent(1)

	b.AddLine("")
	b.AddLine(fmt.Sprintf("public async handle(%s: LocalizedTranslations, %s: CommandInteraction): Promise<void> {",
		domain.TranslationsIdent, domain.InteractionIdent))
	b.IncreaseIndent(1)

	if err := c.CompileFlow(b, &cmd.Flow, domain.StartNodeType); err != nil {
		return err
	}

	b.DecreaseIndent(1)
	b.AddLine("}")
	b.DecreaseIndent(1)
	b.AddLine("}")

	b.AddImport("CommandInteraction, SlashCommandBuilder", "discord.js")
	b.AddImport("Command, LocalizedTranslations", "disbotter")
	b.AddOnTop(BannerNoCheck)
	b.AddOnTop(BannerGenerated)
	return nil
}
