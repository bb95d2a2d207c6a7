package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackcheck/internal/expect"
	"trackcheck/internal/logger"
	"trackcheck/pkg/cel"
	"trackcheck/pkg/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	evaluator, err := cel.NewEvaluator()
	require.NoError(t, err)
	return NewEngine(evaluator, logger.NopLogger())
}

func event(payload map[string]interface{}) models.CapturedEvent {
	return models.CapturedEvent{
		Kind:    models.KindModuleExposure,
		Method:  "POST",
		Payload: payload,
	}
}

func literal(field, value string) expect.FieldSpec {
	return expect.FieldSpec{Path: field, Field: field, Kind: expect.SpecLiteral, Value: value}
}

func TestValidateModuleExposurePass(t *testing.T) {
	engine := newTestEngine(t)

	resolved := []expect.FieldSpec{
		literal("spm", "a.b.c"),
		{Path: "ab_buckets", Field: "ab_buckets", Kind: expect.SpecMandatory},
	}
	candidates := []models.CapturedEvent{
		event(map[string]interface{}{"spm": "a.b.c", "ab_buckets": "bucket_7"}),
	}

	verdict := engine.Validate(context.Background(), "TC-1", models.KindModuleExposure, resolved, candidates, models.RuntimeContext{})

	assert.True(t, verdict.Passed)
	assert.Empty(t, verdict.Mismatches)
	assert.Equal(t, 1, verdict.Candidates)
	assert.Equal(t, "bucket_7", verdict.PassedFields["ab_buckets"])
}

func TestValidateMandatoryEmptyFails(t *testing.T) {
	engine := newTestEngine(t)

	resolved := []expect.FieldSpec{
		literal("spm", "a.b.c"),
		{Path: "ab_buckets", Field: "ab_buckets", Kind: expect.SpecMandatory},
	}
	candidates := []models.CapturedEvent{
		event(map[string]interface{}{"spm": "a.b.c", "ab_buckets": ""}),
	}

	verdict := engine.Validate(context.Background(), "TC-1", models.KindModuleExposure, resolved, candidates, models.RuntimeContext{})

	assert.False(t, verdict.Passed)
	require.Len(t, verdict.Mismatches, 1)
	assert.Equal(t, "ab_buckets", verdict.Mismatches[0].Field)
	assert.Equal(t, "non-empty value", verdict.Mismatches[0].Expected)
}

func TestValidateResolvedPrice(t *testing.T) {
	engine := newTestEngine(t)

	// <origin_price> resolved against the runtime context before Validate.
	resolved := []expect.FieldSpec{literal("origin_price", "15000")}

	t.Run("matching price passes", func(t *testing.T) {
		verdict := engine.Validate(context.Background(), "TC-2", models.KindProductClick, resolved,
			[]models.CapturedEvent{event(map[string]interface{}{"origin_price": "15000"})},
			models.RuntimeContext{OriginPrice: "15000"})
		assert.True(t, verdict.Passed)
	})

	t.Run("different price fails with diff", func(t *testing.T) {
		verdict := engine.Validate(context.Background(), "TC-2", models.KindProductClick, resolved,
			[]models.CapturedEvent{event(map[string]interface{}{"origin_price": "14000"})},
			models.RuntimeContext{OriginPrice: "15000"})

		assert.False(t, verdict.Passed)
		require.Len(t, verdict.Mismatches, 1)
		assert.Equal(t, "15000", verdict.Mismatches[0].Expected)
		assert.Equal(t, "14000", verdict.Mismatches[0].Actual)
	})
}

func TestValidateNoCandidates(t *testing.T) {
	engine := newTestEngine(t)

	verdict := engine.Validate(context.Background(), "TC-3", models.KindProductClick,
		[]expect.FieldSpec{literal("spm", "a.b.c")}, nil, models.RuntimeContext{})

	assert.False(t, verdict.Passed)
	require.Len(t, verdict.Mismatches, 1)
	assert.Equal(t, "<event>", verdict.Mismatches[0].Field)
	assert.Equal(t, "at least one event", verdict.Mismatches[0].Expected)
	assert.Equal(t, "none", verdict.Mismatches[0].Actual)
}

func TestValidateFieldKinds(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		spec     expect.FieldSpec
		payload  map[string]interface{}
		passed   bool
	}{
		{
			name:    "literal case sensitive",
			spec:    literal("pid", "Home"),
			payload: map[string]interface{}{"pid": "home"},
			passed:  false,
		},
		{
			name:    "literal no implicit trimming",
			spec:    literal("pid", "home"),
			payload: map[string]interface{}{"pid": " home"},
			passed:  false,
		},
		{
			name:    "number compared as string",
			spec:    literal("price", "25000"),
			payload: map[string]interface{}{"price": float64(25000)},
			passed:  true,
		},
		{
			name:    "skip passes on absent",
			spec:    expect.FieldSpec{Path: "tz", Field: "tz", Kind: expect.SpecSkip},
			payload: map[string]interface{}{},
			passed:  true,
		},
		{
			name:    "mandatory absent fails",
			spec:    expect.FieldSpec{Path: "pid", Field: "pid", Kind: expect.SpecMandatory},
			payload: map[string]interface{}{},
			passed:  false,
		},
		{
			name:    "mandatory whitespace fails",
			spec:    expect.FieldSpec{Path: "pid", Field: "pid", Kind: expect.SpecMandatory},
			payload: map[string]interface{}{"pid": "   "},
			passed:  false,
		},
		{
			name:    "empty passes on absent",
			spec:    expect.FieldSpec{Path: "ref", Field: "ref", Kind: expect.SpecEmpty},
			payload: map[string]interface{}{},
			passed:  true,
		},
		{
			name:    "empty passes on empty string",
			spec:    expect.FieldSpec{Path: "ref", Field: "ref", Kind: expect.SpecEmpty},
			payload: map[string]interface{}{"ref": ""},
			passed:  true,
		},
		{
			name:    "empty fails on value",
			spec:    expect.FieldSpec{Path: "ref", Field: "ref", Kind: expect.SpecEmpty},
			payload: map[string]interface{}{"ref": "x"},
			passed:  false,
		},
		{
			name:    "list member passes",
			spec:    expect.FieldSpec{Path: "p", Field: "p", Kind: expect.SpecList, List: []string{"A", "B"}},
			payload: map[string]interface{}{"p": "B"},
			passed:  true,
		},
		{
			name:    "list non member fails",
			spec:    expect.FieldSpec{Path: "p", Field: "p", Kind: expect.SpecList, List: []string{"A", "B"}},
			payload: map[string]interface{}{"p": "C"},
			passed:  false,
		},
		{
			name:    "spm trailing slot digits normalized",
			spec:    literal("spm", "a.b.home.list.d3"),
			payload: map[string]interface{}{"spm": "a.b.home.list.d17"},
			passed:  true,
		},
		{
			name:    "spm containment with deeper slot",
			spec:    literal("spm", "a.b.home.list"),
			payload: map[string]interface{}{"spm": "a.b.home.list.d3_0"},
			passed:  true,
		},
		{
			name:    "spm unrelated placement fails",
			spec:    literal("spm", "a.b.home.list"),
			payload: map[string]interface{}{"spm": "a.b.srp.grid.d3_0"},
			passed:  false,
		},
		{
			name:    "spm containment without trailing digits",
			spec:    literal("spm", "a.b.home.list"),
			payload: map[string]interface{}{"spm": "prefix.a.b.home.list"},
			passed:  true,
		},
		{
			name:    "spm-url uses containment too",
			spec:    literal("spm-url", "a.b.home"),
			payload: map[string]interface{}{"spm-url": "a.b.home.extra"},
			passed:  true,
		},
		{
			name:    "query case insensitive trimmed",
			spec:    literal("query", "MacBook"),
			payload: map[string]interface{}{"query": " macbook "},
			passed:  true,
		},
		{
			name:    "expr numeric tolerance",
			spec:    expect.FieldSpec{Path: "price", Field: "price", Kind: expect.SpecExpr, Expr: "double(actual) >= double(ctx['origin_price']) - 1.0"},
			payload: map[string]interface{}{"price": "14999.5"},
			passed:  true,
		},
		{
			name:    "expr false",
			spec:    expect.FieldSpec{Path: "price", Field: "price", Kind: expect.SpecExpr, Expr: "actual == '1'"},
			payload: map[string]interface{}{"price": "2"},
			passed:  false,
		},
		{
			name:    "expr compile error is a mismatch",
			spec:    expect.FieldSpec{Path: "price", Field: "price", Kind: expect.SpecExpr, Expr: "this is not cel"},
			payload: map[string]interface{}{"price": "1"},
			passed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := engine.Validate(context.Background(), "TC", models.KindModuleExposure,
				[]expect.FieldSpec{tt.spec},
				[]models.CapturedEvent{event(tt.payload)},
				models.RuntimeContext{OriginPrice: "15000"})
			assert.Equal(t, tt.passed, verdict.Passed, "mismatches: %v", verdict.Mismatches)
		})
	}
}

func TestValidateRecursiveLookup(t *testing.T) {
	engine := newTestEngine(t)

	payload := map[string]interface{}{
		"decoded_gokey": map[string]interface{}{
			"decoded_gokey": "",
			"params": map[string]interface{}{
				"utLogMap": map[string]interface{}{
					"raw":    `{"x_object_id":"123"}`,
					"parsed": map[string]interface{}{"x_object_id": "123"},
				},
				"expdata": map[string]interface{}{
					"raw":    "[]",
					"parsed": []interface{}{map[string]interface{}{"slot": "first"}},
				},
				"meta": `{"inner_field":"deep"}`,
			},
		},
	}

	validate := func(spec expect.FieldSpec) models.Verdict {
		return engine.Validate(context.Background(), "TC", models.KindProductExposure,
			[]expect.FieldSpec{spec}, []models.CapturedEvent{event(payload)}, models.RuntimeContext{})
	}

	t.Run("parsed branch preferred", func(t *testing.T) {
		assert.True(t, validate(literal("x_object_id", "123")).Passed)
	})

	t.Run("array index addressing", func(t *testing.T) {
		spec := expect.FieldSpec{Path: "expdata[0]", Field: "expdata[0]", Kind: expect.SpecMandatory}
		assert.True(t, validate(spec).Passed)
	})

	t.Run("embedded json string searched", func(t *testing.T) {
		assert.True(t, validate(literal("inner_field", "deep")).Passed)
	})
}

func TestCandidateSelection(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("product code wins over order", func(t *testing.T) {
		resolved := []expect.FieldSpec{literal("goodscode", "222")}
		candidates := []models.CapturedEvent{
			{Kind: models.KindProductClick, ProductCode: "111", Payload: map[string]interface{}{"goodscode": "111"}},
			{Kind: models.KindProductClick, ProductCode: "222", Payload: map[string]interface{}{"goodscode": "222"}},
		}

		verdict := engine.Validate(context.Background(), "TC", models.KindProductClick, resolved, candidates, models.RuntimeContext{})
		assert.True(t, verdict.Passed)
	})

	t.Run("spm overlap when no product code", func(t *testing.T) {
		resolved := []expect.FieldSpec{literal("spm", "a.b.target")}
		candidates := []models.CapturedEvent{
			{Kind: models.KindModuleExposure, Spm: "a.b.other", Payload: map[string]interface{}{"spm": "a.b.other"}},
			{Kind: models.KindModuleExposure, Spm: "a.b.target.d1", Payload: map[string]interface{}{"spm": "a.b.target.d1"}},
		}

		verdict := engine.Validate(context.Background(), "TC", models.KindModuleExposure, resolved, candidates, models.RuntimeContext{})
		assert.True(t, verdict.Passed)
	})

	t.Run("fallback to first reports full diff", func(t *testing.T) {
		resolved := []expect.FieldSpec{literal("spm", "x.y.z"), literal("pid", "home")}
		candidates := []models.CapturedEvent{
			{Kind: models.KindModuleExposure, Spm: "a.b.c", Payload: map[string]interface{}{"spm": "a.b.c", "pid": "srp"}},
			{Kind: models.KindModuleExposure, Spm: "a.b.d", Payload: map[string]interface{}{"spm": "a.b.d", "pid": "srp"}},
		}

		verdict := engine.Validate(context.Background(), "TC", models.KindModuleExposure, resolved, candidates, models.RuntimeContext{})
		assert.False(t, verdict.Passed)
		assert.Len(t, verdict.Mismatches, 2)
	})
}

func TestValidateIdempotent(t *testing.T) {
	engine := newTestEngine(t)

	resolved := []expect.FieldSpec{
		literal("spm", "a.b.c"),
		{Path: "pid", Field: "pid", Kind: expect.SpecMandatory},
	}
	candidates := []models.CapturedEvent{
		event(map[string]interface{}{"spm": "a.b.c", "pid": ""}),
	}

	first := engine.Validate(context.Background(), "TC", models.KindModuleExposure, resolved, candidates, models.RuntimeContext{})
	second := engine.Validate(context.Background(), "TC", models.KindModuleExposure, resolved, candidates, models.RuntimeContext{})

	assert.Equal(t, first.Passed, second.Passed)
	assert.Equal(t, first.Mismatches, second.Mismatches)
	assert.Equal(t, first.PassedFields, second.PassedFields)
}

func TestValidateAbsentFieldNotChecked(t *testing.T) {
	engine := newTestEngine(t)

	// Resolved specs name only spm; extra payload fields are ignored.
	resolved := []expect.FieldSpec{literal("spm", "a.b.c")}
	candidates := []models.CapturedEvent{
		event(map[string]interface{}{"spm": "a.b.c", "surprise": "anything"}),
	}

	verdict := engine.Validate(context.Background(), "TC", models.KindModuleExposure, resolved, candidates, models.RuntimeContext{})
	assert.True(t, verdict.Passed)
}
