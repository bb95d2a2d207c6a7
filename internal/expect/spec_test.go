package expect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	data := []byte(`{
		"module_exposure": {
			"spm": "a.b.home.bestsellers",
			"pid": "mandatory",
			"tz": "skip",
			"ref": "",
			"page_no": ["1", "2"],
			"price": "expr: double(actual) >= 0.0",
			"goodscode": "<product_code>",
			"utLogMap": {
				"x_object_id": "<product_code>",
				"traffic_type": "<traffic_type>"
			},
			"depth": 3
		}
	}`)

	template, err := ParseTemplate(data)
	require.NoError(t, err)

	section, ok := template.Section("module_exposure")
	require.True(t, ok)

	byPath := map[string]FieldSpec{}
	for _, spec := range section.Fields {
		byPath[spec.Path] = spec
	}

	t.Run("literal", func(t *testing.T) {
		spec := byPath["spm"]
		assert.Equal(t, SpecLiteral, spec.Kind)
		assert.Equal(t, "a.b.home.bestsellers", spec.Value)
	})

	t.Run("mandatory sentinel", func(t *testing.T) {
		assert.Equal(t, SpecMandatory, byPath["pid"].Kind)
	})

	t.Run("skip sentinel", func(t *testing.T) {
		assert.Equal(t, SpecSkip, byPath["tz"].Kind)
	})

	t.Run("empty sentinel", func(t *testing.T) {
		assert.Equal(t, SpecEmpty, byPath["ref"].Kind)
	})

	t.Run("list", func(t *testing.T) {
		spec := byPath["page_no"]
		assert.Equal(t, SpecList, spec.Kind)
		assert.Equal(t, []string{"1", "2"}, spec.List)
	})

	t.Run("expr", func(t *testing.T) {
		spec := byPath["price"]
		assert.Equal(t, SpecExpr, spec.Kind)
		assert.Equal(t, "double(actual) >= 0.0", spec.Expr)
	})

	t.Run("placeholder", func(t *testing.T) {
		spec := byPath["goodscode"]
		assert.Equal(t, SpecPlaceholder, spec.Kind)
		assert.Equal(t, "<product_code>", spec.Value)
	})

	t.Run("nested path keeps leaf field name", func(t *testing.T) {
		spec := byPath["utLogMap.x_object_id"]
		assert.Equal(t, "x_object_id", spec.Field)
		assert.Equal(t, SpecPlaceholder, spec.Kind)

		spec = byPath["utLogMap.traffic_type"]
		assert.Equal(t, "traffic_type", spec.Field)
	})

	t.Run("number leaf stringified", func(t *testing.T) {
		spec := byPath["depth"]
		assert.Equal(t, SpecLiteral, spec.Kind)
		assert.Equal(t, "3", spec.Value)
	})

	t.Run("fields sorted by path", func(t *testing.T) {
		require.Len(t, section.Fields, 10)
		for i := 1; i < len(section.Fields); i++ {
			assert.Less(t, section.Fields[i-1].Path, section.Fields[i].Path)
		}
	})
}

func TestParseTemplateErrors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseTemplate([]byte("not json"))
		assert.Error(t, err)
	})

	t.Run("scalar section body", func(t *testing.T) {
		_, err := ParseTemplate([]byte(`{"pv": "mandatory"}`))
		assert.Error(t, err)
	})
}
