package disbotter_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/disbotter/disbotter"
	"github.com/disbotter/disbotter/internal/testutils"
	"github.com/disbotter/disbotter/pkg/adapters/memory"
	"github.com/disbotter/disbotter/pkg/builder"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replyScript = `
id = "builtin:reply"
title = "Reply"
category = "Messages"
inputs = { text = { type = "text", name = "Text", start_value = "" } }
outputs = {}

function action(builder)
  builder:add_line("await __INTERACTION__.reply(" .. builder:get_in_var("text") .. ");")
end
`

func replyProject() *domain.Project {
	flow := func(text string) domain.Flow {
		return domain.Flow{
			Nodes: []domain.Node{
				{UID: "s", Type: domain.StartNodeType},
				{UID: "r", Type: "builtin:reply", InputHardcoded: map[string]any{"text": text}},
			},
			Connections: []domain.Connection{
				{From: "s", FromKey: domain.PortFlowOut, To: "r", ToKey: domain.PortFlowIn},
			},
		}
	}
	return &domain.Project{
		Metadata: domain.ProjectMetadata{Name: "bot"},
		Content: domain.ProjectContent{Commands: []domain.Command{
			{UID: "1", Name: "ping", Description: "Ping", Flow: flow("pong")},
			{UID: "2", Name: "hello", Description: "Hello", Flow: flow("hi")},
		}},
	}
}

func TestGenerator_CompileWithLuaTemplates(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteTree(t, dir, map[string]string{"reply.lua": replyScript})

	var units atomic.Int32
	gen, err := disbotter.New(context.Background(),
		disbotter.WithTemplateDirs(dir),
		disbotter.WithWorkers(2),
		disbotter.WithHooks(domain.CompileHooks{
			OnUnitDone: func(context.Context, *domain.UnitEvent) { units.Add(1) },
		}),
	)
	require.NoError(t, err)
	assert.True(t, gen.Templates().Has("builtin:reply"))

	program, err := gen.Compile(context.Background(), replyProject())
	require.NoError(t, err)
	assert.Equal(t, []string{"commands/hello.ts", "commands/ping.ts"}, program.Paths())

	f, _ := program.File("commands/ping.ts")
	assert.Contains(t, f.Code, `        await __INTERACTION__.reply("pong");`+"\n")
	assert.Equal(t, int32(2), units.Load())
}

func TestGenerator_CompileCommand(t *testing.T) {
	reg := registry.NewRegistry()
	reg.RegisterFunc("builtin:reply", false, func(b *builder.Builder) error {
		text, err := b.GetInVar("text")
		if err != nil {
			return err
		}
		b.AddLine("reply(" + text + ");")
		return nil
	})

	gen, err := disbotter.New(context.Background(), disbotter.WithTemplates(reg), disbotter.WithIndent("\t"))
	require.NoError(t, err)

	f, err := gen.CompileCommand(context.Background(), replyProject(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "commands/hello.ts", f.Path)
	assert.Contains(t, f.Code, "\t\treply(\"hi\");\n")

	_, err = gen.CompileCommand(context.Background(), replyProject(), "missing")
	assert.ErrorIs(t, err, domain.ErrCommandNotFound)
}

func TestGenerator_LoaderOrderAndDeclarations(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteTree(t, dir, map[string]string{"reply.lua": replyScript})

	override := memory.NewTemplateLoader(registry.Template{
		Type:   "builtin:reply",
		Title:  "Custom reply",
		Action: func(*builder.Builder) error { return nil },
	})

	gen, err := disbotter.New(context.Background(),
		disbotter.WithTemplateLoader(override),
		disbotter.WithTemplateDirs(dir),
	)
	require.NoError(t, err)

	decls := gen.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, "Custom reply", decls[0].Title)
}

func TestGenerator_MissingTemplates(t *testing.T) {
	gen, err := disbotter.New(context.Background())
	require.NoError(t, err)

	program, err := gen.CompileFrom(context.Background(), memory.NewProjectLoader(replyProject()))
	require.Error(t, err)

	var perr *domain.ProjectError
	require.True(t, errors.As(err, &perr))
	assert.Len(t, perr.Units, 2)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.Equal(t, 0, program.Len())
}

func TestGenerator_BadTemplateDir(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteTree(t, dir, map[string]string{"broken.lua": "id ="})

	_, err := disbotter.New(context.Background(), disbotter.WithTemplateDirs(dir))
	assert.Error(t, err)
}

func TestGenerator_Fingerprint(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteTree(t, dir, map[string]string{"reply.lua": replyScript})
	ctx := context.Background()

	a, err := disbotter.New(ctx, disbotter.WithTemplateDirs(dir))
	require.NoError(t, err)
	b, err := disbotter.New(ctx, disbotter.WithTemplateDirs(dir))
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 16)

	// Same declarations, different body.
	testutils.WriteTree(t, dir, map[string]string{"reply.lua": replyScript + "\n-- edited\n"})
	c, err := disbotter.New(ctx, disbotter.WithTemplateDirs(dir))
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d, err := disbotter.New(ctx, disbotter.WithTemplateDirs(dir), disbotter.WithInputPolicy(builder.PolicyUndefined))
	require.NoError(t, err)
	assert.NotEqual(t, c.Fingerprint(), d.Fingerprint())
}

func TestGenerator_Fingerprint_GoTemplates(t *testing.T) {
	ctx := context.Background()
	catalog := func(digest string) *registry.Registry {
		reg := registry.NewRegistry()
		reg.Register(registry.Template{
			Type:   "go:reply",
			Digest: digest,
			Action: func(*builder.Builder) error { return nil },
		})
		return reg
	}
	fingerprint := func(digest string, opts ...disbotter.Option) string {
		g, err := disbotter.New(ctx, append([]disbotter.Option{disbotter.WithTemplates(catalog(digest))}, opts...)...)
		require.NoError(t, err)
		return g.Fingerprint()
	}

	base := fingerprint("")
	assert.Equal(t, base, fingerprint(""))
	assert.NotEqual(t, base, fingerprint("v2"), "digest set by the caller")
	assert.NotEqual(t, base, fingerprint("", disbotter.WithRevision("build-42")))
	assert.Equal(t, fingerprint("", disbotter.WithRevision("build-42")), fingerprint("", disbotter.WithRevision("build-42")))
}
