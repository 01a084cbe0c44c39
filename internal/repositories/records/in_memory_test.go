package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
)

func TestInMemoryRepository_FocusRoundTrip(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	record := testFocusRecord()
	require.NoError(t, repo.SaveFocus(ctx, "caster-1", []*tracking.FocusRecord{record}))

	got, err := repo.GetFocus(ctx, "caster-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mage Armor", got[0].SpellName)

	// Unknown caster reads as empty
	got, err = repo.GetFocus(ctx, "caster-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInMemoryRepository_SaveEmptyClears(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveFocus(ctx, "caster-1", []*tracking.FocusRecord{testFocusRecord()}))
	require.NoError(t, repo.SaveFocus(ctx, "caster-1", nil))

	casters, err := repo.ListCasters(ctx)
	require.NoError(t, err)
	assert.Empty(t, casters)
}

func TestInMemoryRepository_GetAll(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveFocus(ctx, "caster-1", []*tracking.FocusRecord{testFocusRecord()}))
	require.NoError(t, repo.SaveDurations(ctx, "caster-1", []*tracking.DurationRecord{testDurationRecord()}))

	set, err := repo.GetAll(ctx, "caster-1")
	require.NoError(t, err)
	assert.Len(t, set.Focus, 1)
	assert.Len(t, set.Durations, 1)
}

func TestInMemoryRepository_ListCastersAndClear(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveFocus(ctx, "caster-1", []*tracking.FocusRecord{testFocusRecord()}))
	require.NoError(t, repo.SaveDurations(ctx, "caster-2", []*tracking.DurationRecord{testDurationRecord()}))

	casters, err := repo.ListCasters(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"caster-1", "caster-2"}, casters)

	require.NoError(t, repo.Clear(ctx, "caster-1"))

	casters, err = repo.ListCasters(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"caster-2"}, casters)
}

func TestInMemoryRepository_SaveCopiesSlice(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	input := []*tracking.FocusRecord{testFocusRecord()}
	require.NoError(t, repo.SaveFocus(ctx, "caster-1", input))

	// Mutating the caller's slice must not affect the stored copy
	input[0] = &tracking.FocusRecord{SpellID: "spell-other", SpellName: "Other"}

	got, err := repo.GetFocus(ctx, "caster-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mage Armor", got[0].SpellName)
}
