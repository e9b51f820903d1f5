package middleware

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/tkingovr/logbridge/api"
)

// ParseForm decodes an application/x-www-form-urlencoded body into fields,
// keeping the order in which keys first appear. Bracket keys nest:
// a[b]=c yields {a: {b: c}} and a[]=x appends x to the list a. A repeated
// plain key keeps its last value.
func ParseForm(body string) (api.Fields, error) {
	var fields api.Fields
	for body != "" {
		var pair string
		pair, body, _ = strings.Cut(body, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("decoding form key %q: %w", k, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("decoding form value of %q: %w", key, err)
		}
		fields = insertField(fields, splitKey(key), value)
	}
	return fields, nil
}

// formFields converts decoded multipart values. Keys are sorted since the
// multipart reader does not keep their order.
func formFields(values url.Values) api.Fields {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var fields api.Fields
	for _, k := range keys {
		path := splitKey(k)
		for _, v := range values[k] {
			fields = insertField(fields, path, v)
		}
	}
	return fields
}

// splitKey splits a[b][c] into [a b c]. Malformed keys are kept whole.
func splitKey(key string) []string {
	i := strings.IndexByte(key, '[')
	if i <= 0 {
		return []string{key}
	}
	path := []string{key[:i]}
	rest := key[i:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		j := strings.IndexByte(rest, ']')
		if j < 0 {
			return []string{key}
		}
		path = append(path, rest[1:j])
		rest = rest[j+1:]
	}
	return path
}

func insertField(fs api.Fields, path []string, value string) api.Fields {
	key := path[0]
	if len(path) == 1 {
		return fs.Set(key, value)
	}

	cur, _ := fs.Get(key)
	if len(path) == 2 && path[1] == "" {
		list, _ := cur.([]any)
		return fs.Set(key, append(list, value))
	}

	child, _ := cur.(api.Fields)
	next := path[1:]
	if next[0] == "" {
		next = append([]string{strconv.Itoa(len(child))}, next[1:]...)
	}
	return fs.Set(key, insertField(child, next, value))
}
