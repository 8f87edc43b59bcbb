package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringBackendKeepsAPIKeyOutOfInner(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	inner := NewMemoryBackend()
	b := NewKeyringBackend(inner)

	require.NoError(t, b.Save(ctx, DefaultKey, sample()))

	raw, ok, err := inner.Load(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, raw.APIKey)
	assert.Equal(t, "gpt-4", raw.Model)

	got, ok, err := b.Load(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample(), got)

	require.NoError(t, b.Remove(ctx, DefaultKey))
	_, err = keyring.Get(keyringService, DefaultKey)
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestKeyringBackendEmptyKey(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	b := NewKeyringBackend(NewMemoryBackend())

	require.NoError(t, b.Save(ctx, DefaultKey, sample()))
	cleared := sample()
	cleared.APIKey = ""
	require.NoError(t, b.Save(ctx, DefaultKey, cleared))

	got, _, err := b.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Empty(t, got.APIKey)
}

func TestKeyringBackendThroughStore(t *testing.T) {
	keyring.MockInit()
	s := NewStore(NewKeyringBackend(NewMemoryBackend()), DefaultKey)
	require.NoError(t, s.Set(context.Background(), sample()))

	got, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-test", got.APIKey)
}
