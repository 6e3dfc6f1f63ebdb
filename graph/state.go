package graph

import (
	"encoding/json"
	"maps"
	"strconv"
)

// State is the shared working memory of a run. Every node reads the full
// state and returns a delta that is merged back into it.
type State map[string]any

// Merge applies delta to s by key.
//
// The merge is shallow: new keys are added, existing keys are overwritten and
// nested values (maps, slices) are replaced wholesale rather than deep-merged.
// A tool that wants to append to a list-valued key must read the current list,
// build the new list and return it in full.
func (s State) Merge(delta State) {
	for k, v := range delta {
		s[k] = v
	}
}

// Clone returns a shallow copy of s. A nil state clones to an empty one.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return maps.Clone(s)
}

// Int returns the value under key as an int, or def if the key is absent or
// not numeric.
func (s State) Int(key string, def int) int {
	if f, ok := Number(s[key]); ok {
		return int(f)
	}
	return def
}

// Float returns the value under key as a float64, or def if the key is absent
// or not numeric.
func (s State) Float(key string, def float64) float64 {
	if f, ok := Number(s[key]); ok {
		return f
	}
	return def
}

// String returns the value under key if it is a string, or def otherwise.
func (s State) String(key, def string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return def
}

// Len returns the length of a list-valued key. Both []any (decoded JSON) and
// typed slices produced by Go tools are recognized; anything else is 0.
func (s State) Len(key string) int {
	switch v := s[key].(type) {
	case []any:
		return len(v)
	case []string:
		return len(v)
	case []int:
		return len(v)
	case []float64:
		return len(v)
	case []map[string]any:
		return len(v)
	}
	return 0
}

// Number converts v to float64 when it holds any Go numeric kind or a
// json.Number. Strings are not parsed.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	}
	return 0, false
}
