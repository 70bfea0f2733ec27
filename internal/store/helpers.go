package store

import (
	"encoding/json"
	"log/slog"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// encodeJSON marshals a value to a JSON string for a TEXT column, using the
// empty string for empty values.
func encodeJSON(v interface{}) (string, error) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return "", nil
		}
	case []models.Message:
		if len(t) == 0 {
			return "", nil
		}
	case map[models.WorkflowType]models.StageType:
		if len(t) == 0 {
			return "", nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeStrings unmarshals a TEXT column into a string slice. Malformed
// stored data degrades to an empty slice rather than failing the read.
func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Error("store.decodeStrings: malformed column data", "error", err)
		return nil
	}
	return out
}

// decodeConversation unmarshals a TEXT column into a message slice.
func decodeConversation(raw string) []models.Message {
	if raw == "" {
		return nil
	}
	var out []models.Message
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Error("store.decodeConversation: malformed column data", "error", err)
		return nil
	}
	return out
}

// decodeStages unmarshals a TEXT column into the per-workflow stage map.
func decodeStages(raw string) map[models.WorkflowType]models.StageType {
	stages := make(map[models.WorkflowType]models.StageType)
	if raw == "" {
		return stages
	}
	if err := json.Unmarshal([]byte(raw), &stages); err != nil {
		slog.Error("store.decodeStages: malformed column data", "error", err)
		return make(map[models.WorkflowType]models.StageType)
	}
	return stages
}
