package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disbotter/disbotter/internal/config"
	"github.com/disbotter/disbotter/internal/logging"
	"github.com/disbotter/disbotter/internal/testutils"
	"github.com/disbotter/disbotter/pkg/adapters/file"
	loamAdapter "github.com/disbotter/disbotter/pkg/adapters/loam"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/persistence/middleware"
)

const replyScript = `
id = "builtin:reply"
title = "Reply"
category = "Messages"
inputs = {
  text = { type = "text", name = "Text", start_value = "" },
}

function action(builder)
  builder:add_line("await __INTERACTION__.reply(" .. builder:get_in_var("text") .. ");")
end
`

const botProject = `{
  "metadata": {"name": "bot"},
  "content": {"commands": [
    {"uid": "1", "name": "ping", "description": "Ping", "options": [],
     "flow": {
       "nodes": [{"uid": "s", "type": "__start__"}, {"uid": "r", "type": "builtin:reply", "inputHardcoded": {"text": "pong"}}],
       "connections": [{"type": 0, "from": "s", "fromKey": "__flow_out__", "to": "r", "toKey": "__flow_in__"}]
     }},
    {"uid": "2", "name": "broken", "description": "Unbound input", "options": [],
     "flow": {
       "nodes": [{"uid": "s", "type": "__start__"}, {"uid": "bad", "type": "builtin:reply"}],
       "connections": [{"type": 0, "from": "s", "fromKey": "__flow_out__", "to": "bad", "toKey": "__flow_in__"}]
     }}
  ]}
}`

func setupProject(t *testing.T) (nodesDir, projectPath string) {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteTree(t, dir, map[string]string{
		"nodes/messages/reply.lua": replyScript,
		"bot.dbp":                  botProject,
	})
	return filepath.Join(dir, "nodes"), filepath.Join(dir, "bot.dbp")
}

func TestNewGenerator_SkipsMissingNodeDirs(t *testing.T) {
	nodesDir, _ := setupProject(t)
	cfg := config.Default()
	cfg.Nodes = []string{filepath.Join(t.TempDir(), "absent"), nodesDir}

	gen, err := NewGenerator(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)

	_, ok := gen.Templates().Get("builtin:reply")
	assert.True(t, ok)
}

func TestNewGenerator_InvalidPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Nodes = nil
	cfg.Inputs = "lenient"

	_, err := NewGenerator(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNewProjectLoader(t *testing.T) {
	_, projectPath := setupProject(t)

	l, err := NewProjectLoader(projectPath)
	require.NoError(t, err)
	assert.IsType(t, &file.ProjectLoader{}, l)

	vault, _ := testutils.SetupTestRepo(t)
	l, err = NewProjectLoader(vault)
	require.NoError(t, err)
	assert.IsType(t, &loamAdapter.Loader{}, l)

	_, err = NewProjectLoader(filepath.Join(t.TempDir(), "missing.dbp"))
	assert.Error(t, err)
}

func TestTrace_RecordsCompiledAndFailedNodes(t *testing.T) {
	nodesDir, projectPath := setupProject(t)
	cfg := config.Default()
	cfg.Nodes = []string{nodesDir}

	trace := NewTrace()
	gen, err := NewGenerator(context.Background(), cfg, logging.NewNop(), DebugHooks(logging.NewNop()), trace.Hooks())
	require.NoError(t, err)

	loader, err := NewProjectLoader(projectPath)
	require.NoError(t, err)

	program, err := gen.CompileFrom(context.Background(), loader)
	var perr *domain.ProjectError
	require.ErrorAs(t, err, &perr)
	require.NotNil(t, program)
	assert.Equal(t, []string{"commands/ping.ts"}, program.Paths())

	assert.Contains(t, trace.Compiled(), "r")
	assert.Equal(t, "bad", trace.FailedNode("broken"))
	assert.Empty(t, trace.FailedNode("ping"))
}

func TestNewCache_Memory(t *testing.T) {
	c, err := NewCache(context.Background(), config.Default(), logging.NewNop(), "")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "memory", c.Backend)
	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.Locker)
}

func TestNewCache_File(t *testing.T) {
	cfg := config.Default()
	cfg.Server.CacheDir = t.TempDir()

	c, err := NewCache(context.Background(), cfg, logging.NewNop(), "")
	require.NoError(t, err)
	assert.Equal(t, "file", c.Backend)
	assert.IsType(t, &file.Store{}, c.Store)
}

func TestNewCache_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Prefix = "test:"
	cfg.Redis.TTL = "1m"

	ctx := context.Background()
	c, err := NewCache(ctx, cfg, logging.NewNop(), "")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "redis", c.Backend)

	program := domain.NewProgram()
	program.Add(domain.File{Path: "commands/ping.ts", Code: "pong();\n"})
	require.NoError(t, c.Store.Save(ctx, "k1", program))
	assert.True(t, mr.Exists("test:program:k1"))

	unlock, err := c.Locker.Lock(ctx, "k1", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:k1"))
	require.NoError(t, unlock(ctx))
}

func TestNewCache_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Redis.Addr = addr

	_, err := NewCache(context.Background(), cfg, logging.NewNop(), "")
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestSignalContext_Stop(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Stop()

	select {
	case <-sc.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
	assert.Nil(t, sc.Signal())
}

func TestNewCache_NamespacedAndEncrypted(t *testing.T) {
	cfg := config.Default()
	cfg.Server.CacheDir = t.TempDir()
	cfg.Server.CacheKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	ctx := context.Background()

	c, err := NewCache(ctx, cfg, logging.NewNop(), "abc")
	require.NoError(t, err)

	program := domain.NewProgram()
	program.Add(domain.File{Path: "commands/ping.ts", Code: "pong();\n"})
	require.NoError(t, c.Store.Save(ctx, "k1", program))

	raw := file.NewStore(cfg.Server.CacheDir)
	sealed, err := raw.Load(ctx, "abc.k1")
	require.NoError(t, err)
	assert.Equal(t, []string{middleware.EnvelopePath}, sealed.Paths())

	loaded, err := c.Store.Load(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []string{"commands/ping.ts"}, loaded.Paths())

	// Another catalog does not see the entry.
	other, err := NewCache(ctx, cfg, logging.NewNop(), "def")
	require.NoError(t, err)
	_, err = other.Store.Load(ctx, "k1")
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)
}
