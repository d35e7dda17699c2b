package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// PermissionList is the legacy users.permissions column. Decoding accepts
// every shape the column has held over time, see CoercePermissions.
type PermissionList []string

func (l *PermissionList) UnmarshalJSON(data []byte) error {
	*l = CoercePermissions(data)
	return nil
}

// CoercePermissions normalises the legacy permissions field. Historical rows
// and clients hold it as a JSON array, a JSON-encoded string, a comma
// separated string or an object of page -> flag. Anything unusable yields an
// empty list. Order is preserved and duplicates removed.
func CoercePermissions(raw []byte) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []string{}
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// not JSON at all: treat the bytes as a comma list
		return splitList(string(raw))
	}
	return coerceValue(v, 0)
}

func coerceValue(v any, depth int) []string {
	if depth > 2 {
		return []string{}
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return dedupe(out)
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") || strings.HasPrefix(s, `"`) {
			var inner any
			if err := json.Unmarshal([]byte(s), &inner); err == nil {
				return coerceValue(inner, depth+1)
			}
		}
		return splitList(s)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k, val := range t {
			if truthy(val) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		return dedupe(keys)
	}
	return []string{}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "false" && s != "0"
	case map[string]any:
		// {"clients": {"can_view": true}}
		return truthy(t["can_view"])
	}
	return false
}

func splitList(s string) []string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.Trim(strings.TrimSpace(p), `"'`))
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
