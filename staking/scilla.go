package staking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedState is returned when a sub-state does not have the expected shape
var ErrMalformedState = errors.New("malformed contract state")

// SubState is one sub-state read: the field name mapped to its value.
// It is never modified after it has been read.
type SubState map[string]json.RawMessage

// ParseSubState decodes the result object of a sub-state read
func ParseSubState(raw json.RawMessage) (SubState, error) {
	var s SubState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	return s, nil
}

// Lookup walks field and then the given map keys. The boolean is false when any
// level is absent; an error is returned when a level is not a map.
func (s SubState) Lookup(field string, keys ...string) (json.RawMessage, bool, error) {
	raw, ok := s[field]
	if !ok || isNull(raw) {
		return nil, false, nil
	}

	for _, key := range keys {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, false, fmt.Errorf("%w: %s is not a map at key %s", ErrMalformedState, field, key)
		}
		raw, ok = m[key]
		if !ok || isNull(raw) {
			return nil, false, nil
		}
	}

	return raw, true, nil
}

// Amount looks up a Uint128 value, treating an absent entry as 0
func (s SubState) Amount(field string, keys ...string) (Amount, error) {
	raw, ok, err := s.Lookup(field, keys...)
	if err != nil || !ok {
		return Amount{}, err
	}
	return DecodeAmount(raw)
}

// Uint looks up a BNum or Uint32 value, treating an absent entry as 0
func (s SubState) Uint(field string, keys ...string) (uint64, error) {
	raw, ok, err := s.Lookup(field, keys...)
	if err != nil || !ok {
		return 0, err
	}
	return DecodeUint(raw)
}

// Map looks up a nested map, treating an absent entry as empty
func (s SubState) Map(field string, keys ...string) (map[string]json.RawMessage, error) {
	raw, ok, err := s.Lookup(field, keys...)
	if err != nil || !ok {
		return map[string]json.RawMessage{}, err
	}
	return DecodeMap(raw)
}

// CycleAmounts looks up a cycle to amount map, treating an absent entry as empty
func (s SubState) CycleAmounts(field string, keys ...string) (map[uint64]Amount, error) {
	m, err := s.Map(field, keys...)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]Amount, len(m))
	for k, v := range m {
		cycle, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s has non-numeric cycle %q", ErrMalformedState, field, k)
		}
		amt, err := DecodeAmount(v)
		if err != nil {
			return nil, err
		}
		out[cycle] = amt
	}
	return out, nil
}

// ADT is the JSON encoding of an algebraic data type value
type ADT struct {
	Constructor string            `json:"constructor"`
	ArgTypes    []json.RawMessage `json:"argtypes"`
	Arguments   []json.RawMessage `json:"arguments"`
}

// DecodeADT decodes an ADT value and checks it carries at least minArgs arguments
func DecodeADT(raw json.RawMessage, minArgs int) (ADT, error) {
	var adt ADT
	if err := json.Unmarshal(raw, &adt); err != nil {
		return ADT{}, fmt.Errorf("%w: not an ADT: %w", ErrMalformedState, err)
	}
	if adt.Constructor == "" {
		return ADT{}, fmt.Errorf("%w: ADT without constructor", ErrMalformedState)
	}
	if len(adt.Arguments) < minArgs {
		return ADT{}, fmt.Errorf("%w: %s has %d arguments, want %d",
			ErrMalformedState, adt.Constructor, len(adt.Arguments), minArgs)
	}
	return adt, nil
}

// DecodeAmount decodes a Uint128 decimal string
func DecodeAmount(raw json.RawMessage) (Amount, error) {
	s, err := DecodeString(raw)
	if err != nil {
		return Amount{}, err
	}
	a, err := ParseAmount(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	return a, nil
}

// DecodeUint decodes a BNum or UintN decimal string
func DecodeUint(raw json.RawMessage) (uint64, error) {
	s, err := DecodeString(raw)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	return n, nil
}

// DecodeString decodes a JSON string
func DecodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: not a string: %s", ErrMalformedState, truncate(raw))
	}
	return s, nil
}

// DecodeBool decodes the Bool ADT
func DecodeBool(raw json.RawMessage) (bool, error) {
	adt, err := DecodeADT(raw, 0)
	if err != nil {
		return false, err
	}
	switch adt.Constructor {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s is not a Bool", ErrMalformedState, adt.Constructor)
	}
}

// DecodeMap decodes a Scilla map
func DecodeMap(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: not a map: %s", ErrMalformedState, truncate(raw))
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	return m, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func truncate(raw json.RawMessage) string {
	const limit = 64
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
