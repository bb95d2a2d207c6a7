package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"trackcheck/pkg/models"
)

// Evaluator compiles and runs the CEL programs behind expr: field specs.
// Three variables are in scope: actual (the payload value under test),
// params (the full decoded payload) and ctx (the runtime context values).
type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("actual", cel.DynType),
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("ctx", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("field expression must return bool, got %v", ast.OutputType())
	}

	return nil
}

// EvaluateField runs a field expression against one candidate value.
func (e *Evaluator) EvaluateField(ctx context.Context, expression string, actual interface{}, event models.CapturedEvent, rctx models.RuntimeContext) (bool, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return false, fmt.Errorf("field expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to create CEL program: %w", err)
	}

	vars := map[string]interface{}{
		"actual": actual,
		"params": event.Payload,
		"ctx":    contextToMap(rctx),
	}

	result, _, err := program.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

func contextToMap(rctx models.RuntimeContext) map[string]string {
	return map[string]string{
		"product_code":    rctx.ProductCode,
		"keyword":         rctx.Keyword,
		"category_id":     rctx.CategoryID,
		"origin_price":    rctx.OriginPrice,
		"promotion_price": rctx.PromotionPrice,
		"coupon_price":    rctx.CouponPrice,
		"is_ad":           rctx.IsAd,
		"environment":     rctx.Environment,
	}
}
