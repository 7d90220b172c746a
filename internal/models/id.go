package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is the canonical identifier for every resource. The backend hands out
// both numeric and string ids; they are normalized to a string on decode so
// comparisons never need loose equality.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ParseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ParseID(n.String())
	return nil
}

// ParseID normalizes raw input such as a path parameter. Integral numbers
// lose any "1.0" style suffix so "1" and 1.0 collapse to the same id. The
// result never shares memory with raw.
func ParseID(raw string) ID {
	raw = strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int64(f)) && strings.ContainsAny(raw, ".eE") {
		return ID(strconv.FormatInt(int64(f), 10))
	}
	return ID(strings.Clone(raw))
}

func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }
