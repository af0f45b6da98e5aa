// Package metadata encodes chunk metadata maps as JSON for the persisted
// artifact backends.
package metadata

import (
	"bytes"
	"encoding/json"
)

// Encode marshals a metadata map. A nil map encodes as "{}".
func Encode(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Decode unmarshals a metadata map. Whole numbers decode as int so values
// such as chunk positions keep their type across a save and load.
func Decode(data []byte) (map[string]any, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return Normalize(m), nil
}

// Normalize converts json.Number values inside m in place and returns it.
// A nil map becomes an empty one.
func Normalize(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	for k, v := range m {
		m[k] = fromJSON(v)
	}
	return m
}

func fromJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = fromJSON(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = fromJSON(t[k])
		}
		return t
	default:
		return v
	}
}
