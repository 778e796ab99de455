/*
Package disbotter compiles visual node flows into TypeScript commands for a
Discord bot framework.

A project holds commands. Each command carries a flow: nodes placed from a
catalog of node templates, joined by flow wires (execution order) and data
wires (values). The compiler walks the flow wires from the start node, runs
every node's template action to emit code, and inlines pure producer nodes
wherever their outputs are consumed.

# Templates

Templates come from Lua scripts (see package pkg/adapters/lua) or from Go:

	reg := registry.NewRegistry()
	reg.RegisterFunc("builtin:log", false, func(b *builder.Builder) error {
		v, err := b.GetInVar("value")
		if err != nil {
			return err
		}
		b.AddLine("console.log(" + v + ");")
		return nil
	})

# Usage

	gen, err := disbotter.New(ctx,
		disbotter.WithTemplateDirs("nodes"),
		disbotter.WithTemplates(reg),
	)
	if err != nil {
		log.Fatal(err)
	}

	program, err := gen.CompileFrom(ctx, file.NewProjectLoader("bot.dbp"))
	if err != nil {
		// program still holds every command that compiled
		log.Print(err)
	}
	if err := file.NewExporter("out").Export(ctx, program); err != nil {
		log.Fatal(err)
	}
*/
package disbotter
