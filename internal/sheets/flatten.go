package sheets

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"trackcheck/pkg/errors"
)

// Templates travel between JSON files and workbook rows as flat
// (path, value) pairs. Paths are dotted, with `[N]` marking array elements,
// so "module_exposure.page_no[1]" names the second list entry of page_no.

// Row is one flattened template leaf.
type Row struct {
	Path  string
	Value string
}

// Flatten turns a template document into rows sorted by path.
func Flatten(doc map[string]interface{}) []Row {
	var rows []Row
	flattenValue("", doc, &rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	return rows
}

func flattenValue(path string, value interface{}, out *[]Row) {
	switch v := value.(type) {
	case map[string]interface{}:
		for _, key := range sortedKeys(v) {
			child := key
			if path != "" {
				child = path + "." + key
			}
			flattenValue(child, v[key], out)
		}

	case []interface{}:
		for i, item := range v {
			flattenValue(fmt.Sprintf("%s[%d]", path, i), item, out)
		}

	default:
		*out = append(*out, Row{Path: path, Value: scalarString(v)})
	}
}

var pathSegment = regexp.MustCompile(`^([^\[\]]+)((?:\[\d+\])*)$`)
var indexBrackets = regexp.MustCompile(`\[(\d+)\]`)

type segment struct {
	name    string
	indexes []int
}

// Unflatten rebuilds a template document from rows. Values come back as
// strings; comparison semantics are unchanged because matching stringifies
// both sides anyway.
func Unflatten(rows []Row) (map[string]interface{}, error) {
	doc := map[string]interface{}{}

	for _, row := range rows {
		segments, err := parsePath(row.Path)
		if err != nil {
			return nil, err
		}
		if err := assign(doc, segments, row.Value); err != nil {
			return nil, errors.ErrInternal.
				WithDetail("path", row.Path).
				WithCause(err)
		}
	}

	return doc, nil
}

func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, errors.ErrInternal.WithDetail("message", "empty template path")
	}

	parts := strings.Split(path, ".")
	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		m := pathSegment.FindStringSubmatch(part)
		if m == nil {
			return nil, errors.ErrInternal.
				WithDetail("path", path).
				WithDetail("message", "malformed path segment "+part)
		}

		seg := segment{name: m[1]}
		for _, idx := range indexBrackets.FindAllStringSubmatch(m[2], -1) {
			n, _ := strconv.Atoi(idx[1])
			seg.indexes = append(seg.indexes, n)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func assign(container map[string]interface{}, segments []segment, value interface{}) error {
	seg := segments[0]

	if len(seg.indexes) == 0 {
		if len(segments) == 1 {
			container[seg.name] = value
			return nil
		}
		child, ok := container[seg.name].(map[string]interface{})
		if !ok {
			if container[seg.name] != nil {
				return fmt.Errorf("path conflict at %q", seg.name)
			}
			child = map[string]interface{}{}
			container[seg.name] = child
		}
		return assign(child, segments[1:], value)
	}

	arr, _ := container[seg.name].([]interface{})
	arr, err := assignIndexed(arr, seg.indexes, segments[1:], value)
	if err != nil {
		return err
	}
	container[seg.name] = arr
	return nil
}

func assignIndexed(arr []interface{}, indexes []int, rest []segment, value interface{}) ([]interface{}, error) {
	idx := indexes[0]
	for len(arr) <= idx {
		arr = append(arr, nil)
	}

	switch {
	case len(indexes) > 1:
		child, _ := arr[idx].([]interface{})
		child, err := assignIndexed(child, indexes[1:], rest, value)
		if err != nil {
			return nil, err
		}
		arr[idx] = child

	case len(rest) > 0:
		child, ok := arr[idx].(map[string]interface{})
		if !ok {
			if arr[idx] != nil {
				return nil, fmt.Errorf("path conflict at index %d", idx)
			}
			child = map[string]interface{}{}
			arr[idx] = child
		}
		if err := assign(child, rest, value); err != nil {
			return nil, err
		}

	default:
		arr[idx] = value
	}

	return arr, nil
}

func scalarString(v interface{}) string {
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

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
