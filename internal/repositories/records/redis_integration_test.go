//go:build integration
// +build integration

package records_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/repositories/records"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/testutils"
)

func TestRedisRepository_Integration(t *testing.T) {
	client := testutils.CreateTestRedisClientOrSkip(t)

	repo := records.NewRedisRepository(&records.RedisRepoConfig{
		Client: client,
	})

	ctx := context.Background()

	t.Run("focus round trip", func(t *testing.T) {
		record := &tracking.FocusRecord{
			SpellID:   "spell-mage-armor",
			SpellName: "Mage Armor",
			CasterID:  "caster-int-1",
		}

		err := repo.SaveFocus(ctx, "caster-int-1", []*tracking.FocusRecord{record})
		require.NoError(t, err)

		got, err := repo.GetFocus(ctx, "caster-int-1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, record.SpellName, got[0].SpellName)
	})

	t.Run("durations survive a round trip with processing state", func(t *testing.T) {
		record := &tracking.DurationRecord{
			InstanceID:            "inst-int-1",
			SpellID:               "spell-entangle",
			SpellName:             "Entangle",
			CasterID:              "caster-int-2",
			StartRound:            1,
			DurationValue:         3,
			DurationUnit:          tracking.UnitRounds,
			ExpiryRound:           4,
			LastProcessedRound:    2,
			ProcessedTargetsRound: map[string]bool{"token-1:start": true},
		}

		err := repo.SaveDurations(ctx, "caster-int-2", []*tracking.DurationRecord{record})
		require.NoError(t, err)

		got, err := repo.GetDurations(ctx, "caster-int-2")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 2, got[0].LastProcessedRound)
		assert.True(t, got[0].ProcessedTargetsRound["token-1:start"])
	})

	t.Run("caster index tracks both tables", func(t *testing.T) {
		casters, err := repo.ListCasters(ctx)
		require.NoError(t, err)
		assert.Contains(t, casters, "caster-int-1")
		assert.Contains(t, casters, "caster-int-2")

		require.NoError(t, repo.Clear(ctx, "caster-int-1"))
		require.NoError(t, repo.Clear(ctx, "caster-int-2"))

		casters, err = repo.ListCasters(ctx)
		require.NoError(t, err)
		assert.NotContains(t, casters, "caster-int-1")
		assert.NotContains(t, casters, "caster-int-2")
	})
}
