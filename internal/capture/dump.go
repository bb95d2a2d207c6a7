package capture

import (
	"encoding/json"

	"trackcheck/pkg/models"
)

// Dump is the serialized form of a capture log, used by the inspector
// endpoint and by artifact files.
type Dump struct {
	Count  int                    `json:"count"`
	Events []models.CapturedEvent `json:"events"`
}

// MarshalDump serializes events for inspection. The payload maps round-trip
// as-is; decoded branches stay alongside their raw values.
func MarshalDump(events []models.CapturedEvent) ([]byte, error) {
	return json.MarshalIndent(Dump{Count: len(events), Events: events}, "", "  ")
}

// UnmarshalDump restores a serialized capture log.
func UnmarshalDump(data []byte) ([]models.CapturedEvent, error) {
	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, err
	}
	return dump.Events, nil
}
