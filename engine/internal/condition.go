package internal

import (
	"fmt"
	"strings"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
)

// evaluateConditionBundle evaluates a condition bundle against the flow node's
// target record and the process variables. An empty bundle is satisfied.
func evaluateConditionBundle(ctx Context, process *ProcessEntity, node *FlowNodeEntity, bundle *flowchart.ConditionBundle) (bool, error) {
	if bundle == nil || bundle.IsEmpty() {
		return true, nil
	}

	target, err := loadTarget(ctx, node)
	if err != nil {
		return false, err
	}

	for _, condition := range bundle.All {
		met, err := evaluateCondition(target, process.Variables, condition)
		if err != nil {
			return false, err
		}
		if !met {
			return false, nil
		}
	}

	if len(bundle.Any) != 0 {
		anyMet := false
		for _, condition := range bundle.Any {
			met, err := evaluateCondition(target, process.Variables, condition)
			if err != nil {
				return false, err
			}
			if met {
				anyMet = true
				break
			}
		}
		if !anyMet {
			return false, nil
		}
	}

	if bundle.Formula != "" {
		v, err := evaluateFormula(ctx, process, node, bundle.Formula)
		if err != nil {
			return false, err
		}
		if !isTruthy(v) {
			return false, nil
		}
	}

	return true, nil
}

// evaluateCondition evaluates a single condition. The attribute is read from
// the target record; a "$" prefix reads a process variable instead.
func evaluateCondition(target engine.Record, variables map[string]any, condition flowchart.Condition) (bool, error) {
	var actual any
	if name, ok := strings.CutPrefix(condition.Attribute, "$"); ok {
		actual = variables[name]
	} else {
		actual = target.Attr(condition.Attribute)
	}

	switch condition.Comparison {
	case flowchart.ComparisonEquals:
		return valueEquals(actual, condition.Value), nil
	case flowchart.ComparisonNotEquals:
		return !valueEquals(actual, condition.Value), nil
	case flowchart.ComparisonGreaterThan, flowchart.ComparisonGreaterThanOrEquals, flowchart.ComparisonLessThan, flowchart.ComparisonLessThanOrEquals:
		return valueCompare(actual, condition.Value, condition.Comparison)
	case flowchart.ComparisonIsEmpty:
		return valueIsEmpty(actual), nil
	case flowchart.ComparisonIsNotEmpty:
		return !valueIsEmpty(actual), nil
	case flowchart.ComparisonIsTrue:
		return actual == true, nil
	case flowchart.ComparisonIsFalse:
		return actual == false, nil
	case flowchart.ComparisonContains:
		return valueContains(actual, condition.Value), nil
	case flowchart.ComparisonNotContains:
		return !valueContains(actual, condition.Value), nil
	default:
		return false, engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  "failed to evaluate condition",
			Detail: fmt.Sprintf("attribute %s uses an unsupported comparison", condition.Attribute),
		}
	}
}

func valueEquals(actual any, expected any) bool {
	if a, aok := toFloat(actual); aok {
		if e, eok := toFloat(expected); eok {
			return a == e
		}
	}
	return actual == expected
}

func valueCompare(actual any, expected any, comparison flowchart.Comparison) (bool, error) {
	a, aok := toFloat(actual)
	e, eok := toFloat(expected)
	if !aok || !eok {
		// non-numeric values are ordered as strings
		as, aok := actual.(string)
		es, eok := expected.(string)
		if !aok || !eok {
			return false, nil
		}
		return compareOrdered(strings.Compare(as, es), comparison), nil
	}

	switch {
	case a < e:
		return compareOrdered(-1, comparison), nil
	case a > e:
		return compareOrdered(1, comparison), nil
	default:
		return compareOrdered(0, comparison), nil
	}
}

func compareOrdered(sign int, comparison flowchart.Comparison) bool {
	switch comparison {
	case flowchart.ComparisonGreaterThan:
		return sign > 0
	case flowchart.ComparisonGreaterThanOrEquals:
		return sign >= 0
	case flowchart.ComparisonLessThan:
		return sign < 0
	case flowchart.ComparisonLessThanOrEquals:
		return sign <= 0
	default:
		return false
	}
}

func valueIsEmpty(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case []any:
		return len(value) == 0
	case map[string]any:
		return len(value) == 0
	default:
		return false
	}
}

func valueContains(actual any, expected any) bool {
	switch value := actual.(type) {
	case string:
		s, ok := expected.(string)
		return ok && strings.Contains(value, s)
	case []any:
		for _, item := range value {
			if valueEquals(item, expected) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range value {
			if valueEquals(item, expected) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// toFloat normalizes numeric values for comparison. JSON unmarshalling produces
// float64, collaborators may hand over native integer types.
func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}

// isTruthy interprets a formula result as condition outcome.
func isTruthy(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return value == "true"
	default:
		return false
	}
}
