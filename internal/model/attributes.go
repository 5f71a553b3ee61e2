package model

import (
	"strconv"
	"time"
)

// Attributes is an open, schema-less record of user-defined columns.
// Values are tagged scalars resolved at load time: bool, int, float64,
// time.Time or string.
type Attributes map[string]any

// Has reports whether the attribute is defined on this record.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Keys returns the defined attribute names, in no particular order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for key := range a {
		keys = append(keys, key)
	}
	return keys
}

// InferValue turns a raw CSV cell into a typed scalar. Booleans,
// integers, floats and ISO dates are recognised; anything else stays a
// string.
func InferValue(raw string) any {
	switch raw {
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
		return t
	}
	return raw
}
