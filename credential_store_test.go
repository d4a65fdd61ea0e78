package auth_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/stefvuck/forum-auth"
)

func TestFileCredentialStoreRoundTrip(t *testing.T) {
	store, err := auth.NewFileCredentialStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("tok-123"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	require.NoError(t, store.Save("tok-456"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-456", token)
}

func TestFileCredentialStoreMissingIsEmpty(t *testing.T) {
	store, err := auth.NewFileCredentialStore(t.TempDir())
	require.NoError(t, err)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileCredentialStoreClearIsIdempotent(t *testing.T) {
	store, err := auth.NewFileCredentialStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("tok-123"))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileCredentialStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	store, err := auth.NewFileCredentialStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save("tok-123"))
	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestMemoryCredentialStore(t *testing.T) {
	store := auth.NewMemoryCredentialStore()

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("tok-123"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	require.NoError(t, store.Clear())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestBunCredentialStore(t *testing.T) {
	ctx := context.Background()

	store, err := auth.OpenBunCredentialStore(ctx, filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	defer store.Close()

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("tok-123"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	// upsert, not duplicate rows
	require.NoError(t, store.Save("tok-456"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-456", token)

	require.NoError(t, store.Clear())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}
