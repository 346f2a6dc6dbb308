// Package cursor implements keyset-pagination cursor encode/decode: an
// opaque, base64-encoded JSON envelope over a small set of named values,
// with first-class support for embedding a time.Time as the sort key.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

const datetimeType = "datetime"

type datetimeEnvelope struct {
	Type  string `json:"_type"`
	Value string `json:"value"`
}

// Encode serializes values to an opaque cursor string. Any value of type
// time.Time is wrapped so Decode can recognize and restore it; JSON object
// keys are emitted in sorted order by encoding/json, matching the
// deterministic encoding the cursor-round-trip property depends on.
func Encode(values map[string]any) (string, error) {
	serializable := make(map[string]any, len(values))
	for k, v := range values {
		if t, ok := v.(time.Time); ok {
			serializable[k] = datetimeEnvelope{Type: datetimeType, Value: t.UTC().Format(time.RFC3339Nano)}
			continue
		}
		serializable[k] = v
	}
	buf, err := json.Marshal(serializable)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// Decode restores the values encoded by Encode. It returns ok=false for
// any malformed or undecodable cursor rather than an error; the caller
// decides how to answer a bad cursor.
func Decode(encoded string) (map[string]any, bool) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false
	}

	result := make(map[string]any, len(data))
	for k, v := range data {
		var env datetimeEnvelope
		if err := json.Unmarshal(v, &env); err == nil && env.Type == datetimeType {
			t, err := time.Parse(time.RFC3339Nano, env.Value)
			if err != nil {
				return nil, false
			}
			result[k] = t
			continue
		}
		var plain any
		if err := json.Unmarshal(v, &plain); err != nil {
			return nil, false
		}
		result[k] = plain
	}
	return result, true
}

// FromSortKey builds the cursor values conventionally used by a keyset
// pagination query: the value of the sort column, the item's id (to break
// ties among equal sort values), and the sort column's name.
func FromSortKey(sortValue any, id string, sortBy string) (string, error) {
	return Encode(map[string]any{
		"sort_value": sortValue,
		"id":         id,
		"sort_by":    sortBy,
	})
}
