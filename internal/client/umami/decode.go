package umami

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnrecognizedShape = errors.New("unrecognized stats response shape")

// DecodeStats decodes a stats body into a single mapping. Umami v3 may answer
// with an array of objects instead of one object; those are merged in order,
// later keys winning.
func DecodeStats(body []byte) (RawStats, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}

	switch v := data.(type) {
	case map[string]any:
		return RawStats(v), nil
	case []any:
		return mergeObjects(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnrecognizedShape, data)
	}
}

func mergeObjects(items []any) RawStats {
	merged := make(RawStats)
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			for k, val := range obj {
				merged[k] = val
			}
		}
	}
	if len(merged) > 0 {
		return merged
	}

	if len(items) > 0 {
		if first, ok := items[0].(map[string]any); ok {
			return RawStats(first)
		}
	}
	return RawStats{}
}
