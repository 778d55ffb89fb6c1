package utils

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ParseID accepts an id sent either as a JSON number or a numeric string.
func ParseID(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return ParseIDString(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return ParseIDString(n.String())
}

// ParseIDString parses a positive integer id from a query or path value.
func ParseIDString(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
