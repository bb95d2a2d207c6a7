package match

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// The decoded payload is a ragged tree: maps, arrays, raw/parsed pairs and
// the occasional still-encoded JSON string. Field lookup searches the whole
// tree for the leaf key, preferring decoded branches, so a template does
// not need to spell out where inside gokey a parameter lives.

var arrayIndexField = regexp.MustCompile(`^(.+)\[(\d+)\]$`)

// lookupField finds the first value for a leaf key anywhere in the payload.
// The boolean reports presence: an empty string under the key is found, not
// missing. `name[N]` addresses element N of an array under name.
func lookupField(obj interface{}, field string) (interface{}, bool) {
	if m := arrayIndexField.FindStringSubmatch(field); m != nil {
		index, _ := strconv.Atoi(m[2])
		container, ok := lookupField(obj, m[1])
		if !ok {
			return nil, false
		}
		return indexInto(container, index)
	}
	return lookupValue(obj, field)
}

func lookupValue(obj interface{}, field string) (interface{}, bool) {
	switch o := obj.(type) {
	case map[string]interface{}:
		if v, ok := o[field]; ok {
			return v, true
		}
		if parsed, ok := o["parsed"]; ok {
			if v, ok := lookupValue(parsed, field); ok {
				return v, true
			}
		}
		for _, key := range sortedKeys(o) {
			if key == "parsed" {
				continue
			}
			if v, ok := lookupValue(o[key], field); ok {
				return v, true
			}
		}

	case []interface{}:
		for _, item := range o {
			if v, ok := lookupValue(item, field); ok {
				return v, true
			}
		}

	case string:
		// Some parameters survive decoding as JSON text; search inside.
		if nested := parseEmbeddedJSON(o); nested != nil {
			return lookupValue(nested, field)
		}
	}

	return nil, false
}

func indexInto(container interface{}, index int) (interface{}, bool) {
	items, ok := container.([]interface{})
	if !ok {
		// raw/parsed pair holding the array
		if m, isMap := container.(map[string]interface{}); isMap {
			items, ok = m["parsed"].([]interface{})
		}
	}
	if !ok || index < 0 || index >= len(items) {
		return nil, false
	}
	return items[index], true
}

func parseEmbeddedJSON(s string) interface{} {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil
	}
	var parsed interface{}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil
	}
	switch parsed.(type) {
	case map[string]interface{}, []interface{}:
		return parsed
	}
	return nil
}

// Map iteration order is randomized; sorting keys keeps lookups
// deterministic when a leaf key occurs in several branches.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringifyActual renders a payload value for comparison. Numbers print
// without an exponent so 25000 equals "25000".
func stringifyActual(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
