package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Field is a single key/value pair. Value is a scalar, a nested Fields
// or a []any.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered key/value collection with unique keys.
type Fields []Field

// Get returns the value stored under key.
func (fs Fields) Get(key string) (any, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of key, or appends it when absent.
func (fs Fields) Set(key string, value any) Fields {
	for i := range fs {
		if fs[i].Key == key {
			fs[i].Value = value
			return fs
		}
	}
	return append(fs, Field{Key: key, Value: value})
}

// String renders fs inline as {k: v, ...}.
func (fs Fields) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", f.Key, FormatValue(f.Value))
	}
	b.WriteByte('}')
	return b.String()
}

// FormatValue returns the inline textual form of a field value.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case Fields:
		return val.String()
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	default:
		return fmt.Sprint(val)
	}
}

// HeaderFields converts headers to fields sorted by canonical name.
// Multiple values are joined with ", ".
func HeaderFields(h http.Header) Fields {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	fs := make(Fields, 0, len(names))
	for _, name := range names {
		fs = append(fs, Field{Key: name, Value: strings.Join(h[name], ", ")})
	}
	return fs
}
