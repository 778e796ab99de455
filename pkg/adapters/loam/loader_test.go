package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/disbotter/disbotter/internal/testutils"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pingJSON = `{
  "name": "ping",
  "description": "Replies with pong",
  "options": [{"name": "who", "description": "Target", "type": 1, "required": true, "choices": []}],
  "flow": {
    "nodes": [
      {"uid": "s", "type": "__start__", "inputHardcoded": {}},
      {"uid": "r", "type": "builtin:reply", "inputHardcoded": {"text": "pong", "delay": 2}}
    ],
    "connections": [
      {"type": 0, "from": "s", "fromKey": "__flow_out__", "to": "r", "toKey": "__flow_in__"}
    ]
  }
}`

const helloMD = `---
flow:
  nodes:
    - uid: s
      type: __start__
    - uid: r
      type: builtin:reply
      inputHardcoded:
        text: hello
  connections:
    - type: 0
      from: s
      fromKey: __flow_out__
      to: r
      toKey: __flow_in__
---
Greets the caller`

func TestLoader_LoadProject(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)
	testutils.WriteTree(t, tmpDir, map[string]string{
		"ping.json": pingJSON,
		"hello.md":  helloMD,
	})

	loader := New(loam.NewTypedRepository[CommandMetadata](repo), WithProjectName("bot"))
	project, err := loader.LoadProject(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "bot", project.Metadata.Name)
	require.Len(t, project.Content.Commands, 2)
	assert.Equal(t, "hello", project.Content.Commands[0].Name)
	assert.Equal(t, "ping", project.Content.Commands[1].Name)

	hello := project.Content.Commands[0]
	assert.Equal(t, "Greets the caller", hello.Description)
	target, ok := hello.Flow.Target(domain.OutputPort("s", domain.PortFlowOut))
	require.True(t, ok)
	assert.Equal(t, domain.InputPort("r", domain.PortFlowIn), target)

	ping := project.Content.Commands[1]
	assert.Equal(t, "Replies with pong", ping.Description)
	require.Len(t, ping.Options, 1)
	assert.Equal(t, domain.OptionUser, ping.Options[0].Kind)
	assert.True(t, ping.Options[0].Required)
	r, ok := ping.Flow.Node("r")
	require.True(t, ok)
	assert.Equal(t, "pong", r.InputHardcoded["text"])
}

func TestLoader_LoadProject_DetectsCollisions(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)
	testutils.WriteTree(t, tmpDir, map[string]string{
		"a.json": `{"name": "same"}`,
		"b.json": `{"name": "same"}`,
	})

	loader := New(loam.NewTypedRepository[CommandMetadata](repo))
	_, err := loader.LoadProject(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "same")
}

func TestLoader_GetCommand(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, core.Document{
		ID: "greet.md",
		Content: `---
description: Waves
---
`,
	}))

	loader := New(loam.NewTypedRepository[CommandMetadata](repo))
	cmd, err := loader.GetCommand(ctx, "greet.md")
	require.NoError(t, err)
	assert.Equal(t, "greet", cmd.Name)
	assert.Equal(t, "greet", cmd.UID)
	assert.Equal(t, "Waves", cmd.Description)
	assert.Empty(t, cmd.Flow.Nodes)
}
