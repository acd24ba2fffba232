package filter

import (
	"encoding/json"
	"net/url"
	"strings"
)

// ParseArrayParam decodes the wire format used by the status/board/tag
// query params: a percent-encoded JSON array of strings. Malformed input
// degrades to an empty slice, never an error; a hand-edited share link
// must fall back to "no filter", not a 500.
func ParseArrayParam(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	// Call sites that read from url.Values hand us an already-decoded
	// value; raw query readers hand us the percent-encoded form. Try the
	// value as-is first so literal '+' inside slugs survives.
	if items, ok := unmarshalStringArray(raw); ok {
		return items
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return []string{}
	}
	items, ok := unmarshalStringArray(decoded)
	if !ok {
		return []string{}
	}
	return items
}

// EncodeArrayParam is the exact inverse of ParseArrayParam for any finite
// slice of strings: JSON-stringify, then percent-encode for URL embedding.
func EncodeArrayParam(items []string) string {
	return url.QueryEscape(marshalStringArray(items))
}

func marshalStringArray(items []string) string {
	if items == nil {
		items = []string{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		// Strings always marshal; kept so the codec stays total.
		return "[]"
	}
	return string(encoded)
}

func unmarshalStringArray(raw string) ([]string, bool) {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	if items == nil {
		return []string{}, true
	}
	return items, true
}

// arrayParam reads a set-valued param from parsed query values. A repeated
// param (?tag=a&tag=b) is treated as an already-decoded sequence; a single
// value goes through the JSON wire format.
func arrayParam(values url.Values, key string) []string {
	vals := values[key]
	switch len(vals) {
	case 0:
		return []string{}
	case 1:
		return ParseArrayParam(vals[0])
	default:
		return append([]string(nil), vals...)
	}
}
