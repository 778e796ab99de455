package ports

import (
	"context"
	"testing"
	"time"

	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunProgramStoreContract runs a suite of tests to verify that a ProgramStore
// implementation adheres to the defined interface contract.
func RunProgramStoreContract(t *testing.T, store ProgramStore) {
	ctx := context.Background()
	key := "contract-test-program-" + time.Now().Format("20060102150405")

	newProgram := func(code string) *domain.Program {
		p := domain.NewProgram()
		p.Add(domain.File{Path: "commands/a.ts", Code: code})
		p.Add(domain.File{Path: "commands/b.ts", Code: "b();\n"})
		return p
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, key, newProgram("a();\n"))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, []string{"commands/a.ts", "commands/b.ts"}, loaded.Paths())
		f, ok := loaded.File("commands/a.ts")
		require.True(t, ok)
		assert.Equal(t, "a();\n", f.Code)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, newProgram("again();\n")))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		f, _ := loaded.File("commands/a.ts")
		assert.Equal(t, "again();\n", f.Code)
	})

	t.Run("Stored Copy Is Isolated", func(t *testing.T) {
		p := newProgram("x();\n")
		require.NoError(t, store.Save(ctx, key, p))
		p.Add(domain.File{Path: "commands/late.ts"})

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Len())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrProgramNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, newProgram("a();\n")))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrProgramNotFound, "Load after Delete should return ErrProgramNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, newProgram("1"))
		_ = store.Save(ctx, id2, newProgram("2"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
