package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVotingEnabledDefaultsTrue(t *testing.T) {
	env := newTestDB(t)

	enabled, err := env.settings.GetVotingEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestSetVotingEnabledRoundTrip(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, env.settings.SetVotingEnabled(ctx, false))
	enabled, err := env.settings.GetVotingEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, env.settings.SetVotingEnabled(ctx, true))
	enabled, err = env.settings.GetVotingEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestSettingChangesAreAudited(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, env.settings.SetVotingEnabled(ctx, false))

	events, err := env.events.GetRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "settings.voting", events[0].Type)
}
