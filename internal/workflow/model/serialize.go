package model

import "encoding/json"

// ParseOrRaw deserializes a stored string as JSON, falling back to the raw
// string when it does not parse. This is the universal rule for the opaque
// serialized fields (output, finalResult, Result.data).
func ParseOrRaw(raw string) any {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return raw
	}
	return parsed
}

// ExtractError derives a human-readable error string from a failed task's
// output. A JSON object with a "message" or "error" string field wins;
// anything else yields "Task failed".
func ExtractError(output *string) string {
	if output == nil {
		return "Task failed"
	}
	parsed, ok := ParseOrRaw(*output).(map[string]any)
	if !ok {
		return "Task failed"
	}
	if msg, ok := parsed["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := parsed["error"].(string); ok && msg != "" {
		return msg
	}
	return "Task failed"
}
