package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	doc := map[string]interface{}{
		"module_exposure": map[string]interface{}{
			"spm":     "a.b.c",
			"pid":     "mandatory",
			"page_no": []interface{}{"1", "2"},
			"utLogMap": map[string]interface{}{
				"x_object_id": "<product_code>",
			},
			"depth": float64(3),
		},
	}

	rows := Flatten(doc)

	assert.Equal(t, []Row{
		{Path: "module_exposure.depth", Value: "3"},
		{Path: "module_exposure.page_no[0]", Value: "1"},
		{Path: "module_exposure.page_no[1]", Value: "2"},
		{Path: "module_exposure.pid", Value: "mandatory"},
		{Path: "module_exposure.spm", Value: "a.b.c"},
		{Path: "module_exposure.utLogMap.x_object_id", Value: "<product_code>"},
	}, rows)
}

func TestUnflatten(t *testing.T) {
	rows := []Row{
		{Path: "module_exposure.spm", Value: "a.b.c"},
		{Path: "module_exposure.page_no[1]", Value: "2"},
		{Path: "module_exposure.page_no[0]", Value: "1"},
		{Path: "module_exposure.utLogMap.x_object_id", Value: "<product_code>"},
		{Path: "pv._p_typ", Value: "home"},
	}

	doc, err := Unflatten(rows)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"module_exposure": map[string]interface{}{
			"spm":     "a.b.c",
			"page_no": []interface{}{"1", "2"},
			"utLogMap": map[string]interface{}{
				"x_object_id": "<product_code>",
			},
		},
		"pv": map[string]interface{}{
			"_p_typ": "home",
		},
	}, doc)
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	doc := map[string]interface{}{
		"product_exposure": map[string]interface{}{
			"spm":      "a.b.list",
			"ref":      "",
			"variants": []interface{}{"A", "B", "C"},
			"nested": map[string]interface{}{
				"items": []interface{}{
					map[string]interface{}{"slot": "first"},
					map[string]interface{}{"slot": "second"},
				},
			},
		},
	}

	restored, err := Unflatten(Flatten(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, restored)
}

func TestUnflattenErrors(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := Unflatten([]Row{{Path: "", Value: "x"}})
		assert.Error(t, err)
	})

	t.Run("malformed segment", func(t *testing.T) {
		_, err := Unflatten([]Row{{Path: "a.b[x]", Value: "x"}})
		assert.Error(t, err)
	})

	t.Run("scalar then children conflicts", func(t *testing.T) {
		_, err := Unflatten([]Row{
			{Path: "pv.spm", Value: "a.b.c"},
			{Path: "pv.spm.deeper", Value: "x"},
		})
		assert.Error(t, err)
	})
}
