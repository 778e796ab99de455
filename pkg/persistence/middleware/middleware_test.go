package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disbotter/disbotter/pkg/adapters/memory"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/persistence/middleware"
	"github.com/disbotter/disbotter/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secretProgram(code string) *domain.Program {
	p := domain.NewProgram()
	p.Add(domain.File{Path: "commands/secret.ts", Code: code})
	return p
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	ports.RunProgramStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "k", secretProgram("token();\n")))

	stored, err := underlying.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{middleware.EnvelopePath}, stored.Paths())
	assert.NotContains(t, stored.ExportString(), "token()")

	loaded, err := secure.Load(ctx, "k")
	require.NoError(t, err)
	f, ok := loaded.File("commands/secret.ts")
	require.True(t, ok)
	assert.Equal(t, "token();\n", f.Code)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	mwOld, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	oldStore := mwOld(underlying)
	require.NoError(t, oldStore.Save(ctx, "k", secretProgram("old();\n")))

	mwNew, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	newStore := mwNew(underlying)

	loaded, err := newStore.Load(ctx, "k")
	require.NoError(t, err)
	f, _ := loaded.File("commands/secret.ts")
	assert.Equal(t, "old();\n", f.Code)

	// Re-saved with the new key, the old one alone can no longer read it.
	require.NoError(t, newStore.Save(ctx, "k", loaded))
	_, err = oldStore.Load(ctx, "k")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainPrograms(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", secretProgram("x();\n")))

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	_, err = mw(underlying).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestNamespaceMiddleware(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()

	a := middleware.NewNamespaceMiddleware("a")(underlying)
	b := middleware.NewNamespaceMiddleware("b")(underlying)
	ports.RunProgramStoreContract(t, a)

	require.NoError(t, a.Save(ctx, "k", secretProgram("a();\n")))
	_, err := b.Load(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)

	keys, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	raw, err := underlying.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, raw, "a.k")

	assert.Same(t, underlying, middleware.NewNamespaceMiddleware("")(underlying))
}

func TestChain_OrdersOutermostFirst(t *testing.T) {
	underlying := memory.NewStore()
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	ctx := context.Background()

	store := middleware.Chain(underlying, middleware.NewNamespaceMiddleware("ns"), enc)
	require.NoError(t, store.Save(ctx, "k", secretProgram("c();\n")))

	sealed, err := underlying.Load(ctx, "ns.k")
	require.NoError(t, err)
	assert.Equal(t, []string{middleware.EnvelopePath}, sealed.Paths())

	loaded, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"commands/secret.ts"}, loaded.Paths())
}
