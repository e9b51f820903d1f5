package formatter

import (
	"strings"

	"github.com/tkingovr/logbridge/api"
)

// Redacted replaces the value of masked fields.
const Redacted = "*****"

// DefaultIgnore lists the fields masked when no ignore list is configured.
var DefaultIgnore = []string{"authorization", "proxy-authorization", "cookie", "set-cookie"}

// IgnoreList is a set of lowercase field names to mask.
type IgnoreList map[string]struct{}

// NewIgnoreList builds an ignore list. Names are matched case-insensitively.
func NewIgnoreList(names ...string) IgnoreList {
	l := make(IgnoreList, len(names))
	for _, n := range names {
		l[strings.ToLower(n)] = struct{}{}
	}
	return l
}

// Contains reports whether key must be masked.
func (l IgnoreList) Contains(key string) bool {
	_, ok := l[strings.ToLower(key)]
	return ok
}

// Mask returns a copy of fields with the values of ignored keys replaced
// by Redacted. Order is preserved and fields nested in fields or lists are
// masked too; the input is left untouched.
func Mask(fields api.Fields, ignore IgnoreList) api.Fields {
	if fields == nil {
		return nil
	}
	out := make(api.Fields, len(fields))
	for i, f := range fields {
		if ignore.Contains(f.Key) {
			out[i] = api.Field{Key: f.Key, Value: Redacted}
			continue
		}
		out[i] = api.Field{Key: f.Key, Value: maskValue(f.Value, ignore)}
	}
	return out
}

func maskValue(v any, ignore IgnoreList) any {
	switch val := v.(type) {
	case api.Fields:
		return Mask(val, ignore)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = maskValue(item, ignore)
		}
		return items
	default:
		return v
	}
}
