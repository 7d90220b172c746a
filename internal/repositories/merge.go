package repositories

import (
	"encoding/json"
	"fmt"
)

// MergeFields applies a partial edit to a record the way the backend's
// PATCH does: the record's JSON object is overlaid with fields.
func MergeFields(record interface{}, fields map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	merged := map[string]interface{}{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		merged[k] = v
	}
	raw, err = json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to encode merged record: %w", err)
	}
	return json.Unmarshal(raw, out)
}
