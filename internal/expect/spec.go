package expect

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"trackcheck/pkg/errors"
)

// SpecKind discriminates what a template leaf demands of the captured
// value. Decided once at parse time so resolution and matching never
// re-inspect sentinel strings.
type SpecKind int

const (
	SpecLiteral SpecKind = iota
	SpecList
	SpecMandatory
	SpecSkip
	SpecEmpty
	SpecPlaceholder
	SpecExpr
)

func (k SpecKind) String() string {
	switch k {
	case SpecLiteral:
		return "literal"
	case SpecList:
		return "list"
	case SpecMandatory:
		return "mandatory"
	case SpecSkip:
		return "skip"
	case SpecEmpty:
		return "empty"
	case SpecPlaceholder:
		return "placeholder"
	case SpecExpr:
		return "expr"
	}
	return "unknown"
}

const (
	sentinelMandatory = "mandatory"
	sentinelSkip      = "skip"
	exprPrefix        = "expr:"
)

var placeholderToken = regexp.MustCompile(`<[^<>]+>`)

// FieldSpec is one leaf assertion of a template section. Path is the full
// dotted location inside the section; Field is the leaf key, which is what
// the recursive payload lookup searches for (so utLogMap nesting in the
// template collapses to the leaf name, same as in the payload walk).
type FieldSpec struct {
	Path  string
	Field string
	Kind  SpecKind
	Value string
	List  []string
	Expr  string
}

// Section holds the field specs of one event type, in template order by
// path.
type Section struct {
	Key    string
	Fields []FieldSpec
}

// Template is one parsed module template: event-type sections plus the raw
// tree for export round-trips.
type Template struct {
	Area     string
	Title    string
	Sections map[string]Section
	Raw      map[string]interface{}
}

// Section returns the section for an event-type config key, or false when
// the template holds no assertions for it.
func (t *Template) Section(key string) (Section, bool) {
	section, ok := t.Sections[key]
	return section, ok
}

// ParseTemplate decodes a template JSON document. Every top-level key is
// treated as an event-type section; section bodies are walked recursively
// and each leaf is classified into a FieldSpec.
func ParseTemplate(data []byte) (*Template, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.ErrTemplateInvalid.WithCause(err)
	}

	template := &Template{
		Sections: make(map[string]Section, len(raw)),
		Raw:      raw,
	}

	for key, body := range raw {
		bodyMap, ok := body.(map[string]interface{})
		if !ok {
			return nil, errors.ErrTemplateInvalid.
				WithDetail("section", key).
				WithDetail("message", "section body must be an object")
		}
		section := Section{Key: key}
		walkSection("", bodyMap, &section.Fields)
		sort.Slice(section.Fields, func(i, j int) bool {
			return section.Fields[i].Path < section.Fields[j].Path
		})
		template.Sections[key] = section
	}

	return template, nil
}

func walkSection(prefix string, node map[string]interface{}, out *[]FieldSpec) {
	for key, value := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if child, ok := value.(map[string]interface{}); ok {
			walkSection(path, child, out)
			continue
		}

		*out = append(*out, classifyLeaf(path, key, value))
	}
}

func classifyLeaf(path, field string, value interface{}) FieldSpec {
	spec := FieldSpec{Path: path, Field: field}

	if list, ok := value.([]interface{}); ok {
		spec.Kind = SpecList
		spec.List = make([]string, 0, len(list))
		for _, item := range list {
			spec.List = append(spec.List, leafString(item))
		}
		return spec
	}

	s := leafString(value)
	switch {
	case s == sentinelMandatory:
		spec.Kind = SpecMandatory
	case s == sentinelSkip:
		spec.Kind = SpecSkip
	case s == "":
		spec.Kind = SpecEmpty
	case strings.HasPrefix(s, exprPrefix):
		spec.Kind = SpecExpr
		spec.Expr = strings.TrimSpace(strings.TrimPrefix(s, exprPrefix))
	case hasPlaceholder(s):
		spec.Kind = SpecPlaceholder
		spec.Value = s
	default:
		spec.Kind = SpecLiteral
		spec.Value = s
	}
	return spec
}

func hasPlaceholder(s string) bool {
	return placeholderToken.MatchString(s) || strings.Contains(s, "{goodscode}")
}

// leafString renders a template leaf for comparison. Numbers print without
// an exponent so template 25000 equals payload "25000".
func leafString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
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
