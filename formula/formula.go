// Package formula evaluates FEEL expressions against a target record and
// process variables. It is the default formula evaluator of the engine.
package formula

import (
	"context"

	"github.com/monostax/bpmflow/engine"
	"github.com/pbinitiative/feel"
)

func New() *Evaluator {
	return &Evaluator{}
}

// An Evaluator implements engine.FormulaEvaluator on top of a FEEL interpreter.
//
// The evaluation scope contains the target record's attributes at top level,
// overlaid by the process variables, plus three reserved names: "record" (the
// attribute map), "targetType" and "targetId".
type Evaluator struct{}

func (e *Evaluator) Evaluate(ctx context.Context, expression string, target engine.Record, variables map[string]any) (any, error) {
	scope := make(map[string]any, len(target.Attributes)+len(variables)+3)
	for name, value := range target.Attributes {
		scope[name] = value
	}
	for name, value := range variables {
		scope[name] = value
	}

	scope["record"] = target.Attributes
	scope["targetType"] = target.EntityType
	scope["targetId"] = target.Id

	result, err := feel.EvalStringWithScope(expression, scope)
	if err != nil {
		return nil, engine.EvaluationError{Expression: expression, Err: err}
	}
	return normalize(result), nil
}

// normalize converts interpreter specific types into plain Go values.
func normalize(v any) any {
	switch value := v.(type) {
	case *feel.Number:
		return value.Float64()
	case []any:
		results := make([]any, len(value))
		for i, item := range value {
			results[i] = normalize(item)
		}
		return results
	case map[string]any:
		results := make(map[string]any, len(value))
		for name, item := range value {
			results[name] = normalize(item)
		}
		return results
	default:
		return v
	}
}
