package match

import (
	"context"
	"regexp"
	"strings"
	"time"

	"trackcheck/internal/expect"
	"trackcheck/internal/logger"
	"trackcheck/pkg/cel"
	"trackcheck/pkg/metrics"
	"trackcheck/pkg/models"
)

// Engine compares resolved field specs against captured events. Pure: no
// state survives a Validate call, and a verdict is data even when every
// field mismatches.
type Engine struct {
	evaluator *cel.Evaluator
	logger    logger.Logger
}

func NewEngine(evaluator *cel.Evaluator, log logger.Logger) *Engine {
	return &Engine{evaluator: evaluator, logger: log}
}

const missingValue = "<absent>"

// spmFamilyFields hold placement paths whose trailing slot index varies
// between captures, so they compare by containment after stripping
// trailing digits.
var spmFamilyFields = map[string]bool{
	"spm":     true,
	"spm-url": true,
	"spm-pre": true,
	"spm-cnt": true,
}

var trailingDigits = regexp.MustCompile(`\d+$`)

// productCodeFields identify the expected product code among resolved
// specs, most specific first.
var productCodeFields = []string{"goodscode", "goodsCode", "goods_code", "goodscd", "goodsCd", "_p_prod", "x_object_id"}

// Validate checks one event type's resolved specs against the captured
// candidates and returns the verdict. No candidates is a verdict, not an
// error; candidate selection picks the best match and reports the full
// diff against it.
func (e *Engine) Validate(ctx context.Context, tcID string, kind models.EventKind, resolved []expect.FieldSpec, candidates []models.CapturedEvent, rctx models.RuntimeContext) models.Verdict {
	start := time.Now()

	verdict := models.Verdict{
		TCID:         tcID,
		EventKind:    kind,
		Candidates:   len(candidates),
		PassedFields: make(map[string]string),
	}

	if len(candidates) == 0 {
		verdict.Mismatches = append(verdict.Mismatches, models.MissingEventMismatch())
		e.finish(&verdict, start)
		return verdict
	}

	candidate := e.selectCandidate(resolved, candidates)

	for _, spec := range resolved {
		if spec.Kind == expect.SpecSkip {
			continue
		}

		value, found := lookupField(candidate.Payload, spec.Field)
		actual := stringifyActual(value)

		if e.checkField(ctx, spec, actual, found, candidate, rctx) {
			verdict.PassedFields[spec.Path] = actual
			continue
		}

		if !found {
			actual = missingValue
		}
		verdict.Mismatches = append(verdict.Mismatches, models.Mismatch{
			Field:    spec.Path,
			Expected: expectedString(spec),
			Actual:   actual,
		})
	}

	verdict.Passed = len(verdict.Mismatches) == 0
	e.finish(&verdict, start)
	return verdict
}

func (e *Engine) checkField(ctx context.Context, spec expect.FieldSpec, actual string, found bool, candidate models.CapturedEvent, rctx models.RuntimeContext) bool {
	switch spec.Kind {
	case expect.SpecMandatory:
		return found && strings.TrimSpace(actual) != ""

	case expect.SpecEmpty:
		return !found || actual == ""

	case expect.SpecList:
		if !found {
			return false
		}
		for _, item := range spec.List {
			if actual == item {
				return true
			}
		}
		return false

	case expect.SpecExpr:
		ok, err := e.evaluator.EvaluateField(ctx, spec.Expr, actual, candidate, rctx)
		if err != nil {
			e.logger.Warnw("Field expression failed", "field", spec.Path, "error", err)
			return false
		}
		return ok

	case expect.SpecLiteral:
		if !found {
			return false
		}
		if spmFamilyFields[spec.Field] {
			return spmContains(actual, spec.Value)
		}
		if spec.Field == "query" {
			return strings.EqualFold(strings.TrimSpace(actual), strings.TrimSpace(spec.Value))
		}
		return actual == spec.Value
	}

	return false
}

// spmContains compares placement paths leniently: trailing slot digits are
// stripped from both sides and either side containing the other passes.
func spmContains(actual, expected string) bool {
	a := trailingDigits.ReplaceAllString(actual, "")
	b := trailingDigits.ReplaceAllString(expected, "")
	if a == "" || b == "" {
		return a == b
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// selectCandidate picks the event the specs most plausibly describe:
// product code match first, then spm overlap, else the first capture.
func (e *Engine) selectCandidate(resolved []expect.FieldSpec, candidates []models.CapturedEvent) models.CapturedEvent {
	if len(candidates) == 1 {
		return candidates[0]
	}

	if code := expectedLiteral(resolved, productCodeFields...); code != "" {
		for _, candidate := range candidates {
			if candidate.ProductCode == code {
				return candidate
			}
		}
	}

	if spm := expectedLiteral(resolved, "spm"); spm != "" {
		for _, candidate := range candidates {
			if spmContains(candidate.Spm, spm) {
				return candidate
			}
		}
	}

	return candidates[0]
}

func expectedLiteral(resolved []expect.FieldSpec, fields ...string) string {
	for _, field := range fields {
		for _, spec := range resolved {
			if spec.Field == field && spec.Kind == expect.SpecLiteral && spec.Value != "" {
				return spec.Value
			}
		}
	}
	return ""
}

func expectedString(spec expect.FieldSpec) string {
	switch spec.Kind {
	case expect.SpecMandatory:
		return "non-empty value"
	case expect.SpecEmpty:
		return ""
	case expect.SpecList:
		return "one of: " + strings.Join(spec.List, " | ")
	case expect.SpecExpr:
		return "expr: " + spec.Expr
	}
	return spec.Value
}

func (e *Engine) finish(verdict *models.Verdict, start time.Time) {
	status := "fail"
	if verdict.Passed {
		status = "pass"
	}
	metrics.VerdictsTotal.WithLabelValues(status).Inc()
	metrics.ObserveValidationDuration(time.Since(start), status)

	e.logger.Debugw("Validation finished",
		"tc_id", verdict.TCID,
		"event", verdict.EventKind,
		"candidates", verdict.Candidates,
		"mismatches", len(verdict.Mismatches),
		"passed", verdict.Passed,
	)
}
