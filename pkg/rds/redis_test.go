package rds

import (
	"selection_assistant/models/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	settings models.Settings
	present  bool
}

func collect(got *[]received) func(models.Settings, bool) {
	return func(s models.Settings, present bool) {
		*got = append(*got, received{settings: s, present: present})
	}
}

func TestReceiveSkipsOwnBroadcasts(t *testing.T) {
	local := NewSettingsBackend(nil)
	remote := NewSettingsBackend(nil)
	require.NotEqual(t, local.origin, remote.origin)

	s := models.Settings{BaseURL: "https://example.com/v1", Model: "gpt-4", TargetLang: "zh"}
	own, err := local.encode(&s)
	require.NoError(t, err)
	other, err := remote.encode(&s)
	require.NoError(t, err)

	var got []received
	local.receive("sync:settings:changed", string(own), collect(&got))
	assert.Empty(t, got)

	local.receive("sync:settings:changed", string(other), collect(&got))
	require.Len(t, got, 1)
	assert.True(t, got[0].present)
	assert.Equal(t, s, got[0].settings)
}

func TestReceiveRemoval(t *testing.T) {
	local := NewSettingsBackend(nil)
	removed, err := NewSettingsBackend(nil).encode(nil)
	require.NoError(t, err)

	var got []received
	local.receive("sync:settings:changed", string(removed), collect(&got))
	require.Len(t, got, 1)
	assert.False(t, got[0].present)
}

func TestReceiveIgnoresMalformed(t *testing.T) {
	local := NewSettingsBackend(nil)

	var got []received
	local.receive("sync:settings:changed", "not json", collect(&got))
	local.receive("sync:settings:changed", "", collect(&got))
	assert.Empty(t, got)
}
