package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
)

// Field names managed by the store.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// TimeFormat is the ISO-8601 layout of createdAt and updatedAt, with
// millisecond precision in UTC.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Record is an untyped entity as persisted in a collection file.
type Record map[string]any

// ID returns the canonical id of the record, or "" if it has none.
func (r Record) ID() string {
	id, _ := CanonicalID(r[FieldID])
	return id
}

// Clone returns a shallow copy. A nil record clones to an empty one.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

// String returns the field if it holds a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// CanonicalID converts an id as found in a file or at the API boundary to its
// canonical string form. Integral numbers render without decimals, so the
// number 7 and the string "7" are the same id.
func CanonicalID(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case json.Number:
		return canonicalNumber(v.String()), true
	case float64:
		return formatFloat(v), true
	case float32:
		return formatFloat(float64(v)), true
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	}
	return "", false
}

func canonicalNumber(s string) string {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return formatFloat(f)
	}
	return s
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// canonicalValue renders a field value for equality filters.
func canonicalValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	}
	if s, ok := CanonicalID(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Float converts a JSON number, numeric string or Go number to float64.
func Float(v any) (float64, bool) {
	switch v := v.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

// Int converts a JSON number, numeric string or Go number to int64.
// Fractions are truncated.
func Int(v any) (int64, bool) {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i, true
		}
	}
	f, ok := Float(v)
	if !ok || math.Abs(f) >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

// Bool converts a bool or a boolean-looking string ("true", "on", "1").
func Bool(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1", "yes":
			return true, true
		case "false", "off", "0", "no", "":
			return false, true
		}
	case json.Number:
		return v.String() != "0", true
	}
	return false, false
}

// normalizeJSON round-trips r through JSON so its values have the exact
// types a later load returns.
func normalizeJSON(r Record) (Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	var out Record
	if err := d.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
