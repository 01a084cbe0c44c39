package records

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
)

func TestDecodeDurations_CurrentEnvelope(t *testing.T) {
	records := []*tracking.DurationRecord{testDurationRecord()}
	data, err := encodeDurations(records)
	require.NoError(t, err)

	got, err := decodeDurations(data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inst-1", got[0].InstanceID)
}

func TestDecodeDurations_LegacyBareArray(t *testing.T) {
	legacy, err := json.Marshal([]*tracking.DurationRecord{{
		InstanceID: "inst-legacy",
		SpellID:    "spell-bless",
		StartRound: 3,
	}})
	require.NoError(t, err)

	got, err := decodeDurations(legacy)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Legacy records gain processing state defaults on read
	assert.NotNil(t, got[0].ProcessedTargetsRound)
	assert.NotNil(t, got[0].LinkedEffects)
	assert.Equal(t, 3, got[0].LastProcessedRound)
}

func TestDecodeFocus_LegacyBareArray(t *testing.T) {
	legacy, err := json.Marshal([]*tracking.FocusRecord{{
		SpellID:   "spell-mage-armor",
		SpellName: "Mage Armor",
	}})
	require.NoError(t, err)

	got, err := decodeFocus(legacy)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].LinkedEffects)
}

func TestDecode_NewerSchemaRejected(t *testing.T) {
	data := fmt.Sprintf(`{"schema_version":%d,"records":[]}`, CurrentSchemaVersion+1)

	_, err := decodeDurations([]byte(data))
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	got, err := decodeFocus(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
