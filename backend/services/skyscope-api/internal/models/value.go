package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value holds a payload field exactly as the sensor sent it (a JSON number or string).
// It is stored and served back verbatim.
type Value []byte

// RawValue wraps a JSON literal, mostly for tests and fixtures.
func RawValue(literal string) Value {
	return Value(literal)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(v)) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = append((*v)[:0], data...)
	return nil
}

// Truthy reports whether the value would pass a JavaScript truthiness check:
// absent, null, false, numeric zero, NaN and the empty string are falsy.
func (v Value) Truthy() bool {
	raw := bytes.TrimSpace(v)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't', '{', '[':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return s != ""
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return true
		}
		return f != 0 && !math.IsNaN(f)
	}
}

// String returns string payloads unquoted and anything else as its JSON text.
func (v Value) String() string {
	raw := bytes.TrimSpace(v)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// Float interprets numbers and numeric strings.
func (v Value) Float() (float64, bool) {
	raw := bytes.TrimSpace(v)
	if len(raw) == 0 {
		return 0, false
	}
	text := string(raw)
	if raw[0] == '"' {
		text = strings.TrimSpace(v.String())
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Value implements driver.Valuer; the JSON text is what gets persisted.
func (v Value) Value() (driver.Value, error) {
	if len(bytes.TrimSpace(v)) == 0 {
		return nil, nil
	}
	return string(v), nil
}

// Scan implements sql.Scanner.
func (v *Value) Scan(src interface{}) error {
	switch data := src.(type) {
	case nil:
		*v = nil
	case []byte:
		*v = append((*v)[:0], data...)
	case string:
		*v = Value(data)
	default:
		return fmt.Errorf("models: cannot scan %T into Value", src)
	}
	return nil
}
