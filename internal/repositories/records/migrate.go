package records

import (
	"encoding/json"

	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
)

// CurrentSchemaVersion is written with every envelope. Bump it whenever a
// record field changes meaning, and add a case to the decode switch.
const CurrentSchemaVersion = 2

// envelope wraps stored record lists so old payloads can be recognized and
// upgraded on read. Version 1 payloads predate the envelope entirely: they
// are bare JSON arrays imported from scene flags.
type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Records       json.RawMessage `json:"records"`
}

func encodeFocus(records []*tracking.FocusRecord) ([]byte, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, trackererr.Wrap(err, "failed to marshal focus records")
	}
	return json.Marshal(&envelope{SchemaVersion: CurrentSchemaVersion, Records: raw})
}

func encodeDurations(records []*tracking.DurationRecord) ([]byte, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, trackererr.Wrap(err, "failed to marshal duration records")
	}
	return json.Marshal(&envelope{SchemaVersion: CurrentSchemaVersion, Records: raw})
}

func decodeFocus(data []byte) ([]*tracking.FocusRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}

	raw, version, err := unwrap(data)
	if err != nil {
		return nil, err
	}

	var records []*tracking.FocusRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, trackererr.Wrap(err, "failed to unmarshal focus records")
	}
	return migrateFocus(records, version), nil
}

func decodeDurations(data []byte) ([]*tracking.DurationRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}

	raw, version, err := unwrap(data)
	if err != nil {
		return nil, err
	}

	var records []*tracking.DurationRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, trackererr.Wrap(err, "failed to unmarshal duration records")
	}
	return migrateDurations(records, version), nil
}

// unwrap returns the record list payload and the schema version it was
// written under
func unwrap(data []byte) (json.RawMessage, int, error) {
	if data[0] == '[' {
		return data, 1, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, trackererr.Wrap(err, "failed to unmarshal record envelope")
	}
	if env.SchemaVersion > CurrentSchemaVersion {
		return nil, 0, trackererr.Internalf("record envelope schema version %d is newer than supported %d",
			env.SchemaVersion, CurrentSchemaVersion)
	}
	return env.Records, env.SchemaVersion, nil
}

func migrateFocus(records []*tracking.FocusRecord, version int) []*tracking.FocusRecord {
	for _, record := range records {
		if record.LinkedEffects == nil {
			record.LinkedEffects = []tracking.LinkedEffect{}
		}
	}
	return records
}

func migrateDurations(records []*tracking.DurationRecord, version int) []*tracking.DurationRecord {
	for _, record := range records {
		if record.LinkedEffects == nil {
			record.LinkedEffects = []tracking.LinkedEffect{}
		}
		// version 1 records have no per-round processing state
		if record.ProcessedTargetsRound == nil {
			record.ProcessedTargetsRound = make(map[string]bool)
		}
		if version < 2 && record.LastProcessedRound == 0 {
			record.LastProcessedRound = record.StartRound
		}
	}
	return records
}
