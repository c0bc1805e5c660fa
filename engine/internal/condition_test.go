package internal

import (
	"testing"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateCondition(t *testing.T) {
	assert := assert.New(t)

	target := engine.Record{
		EntityType: "Order",
		Id:         "order-1",
		Attributes: map[string]any{
			"amount": float64(250),
			"status": "OPEN",
			"tags":   []any{"vip", "export"},
			"note":   "",
		},
	}
	variables := map[string]any{"approved": true, "retries": 2}

	tests := []struct {
		name      string
		condition flowchart.Condition
		expected  bool
	}{
		{"equals number", flowchart.Condition{Attribute: "amount", Comparison: flowchart.ComparisonEquals, Value: 250}, true},
		{"equals number mismatch", flowchart.Condition{Attribute: "amount", Comparison: flowchart.ComparisonEquals, Value: 100}, false},
		{"equals string", flowchart.Condition{Attribute: "status", Comparison: flowchart.ComparisonEquals, Value: "OPEN"}, true},
		{"not equals", flowchart.Condition{Attribute: "status", Comparison: flowchart.ComparisonNotEquals, Value: "CLOSED"}, true},
		{"greater than", flowchart.Condition{Attribute: "amount", Comparison: flowchart.ComparisonGreaterThan, Value: 100}, true},
		{"greater than or equals", flowchart.Condition{Attribute: "amount", Comparison: flowchart.ComparisonGreaterThanOrEquals, Value: 250}, true},
		{"less than", flowchart.Condition{Attribute: "amount", Comparison: flowchart.ComparisonLessThan, Value: 100}, false},
		{"string ordering", flowchart.Condition{Attribute: "status", Comparison: flowchart.ComparisonLessThan, Value: "ZZZ"}, true},
		{"is empty", flowchart.Condition{Attribute: "note", Comparison: flowchart.ComparisonIsEmpty}, true},
		{"is empty on missing attribute", flowchart.Condition{Attribute: "missing", Comparison: flowchart.ComparisonIsEmpty}, true},
		{"is not empty", flowchart.Condition{Attribute: "status", Comparison: flowchart.ComparisonIsNotEmpty}, true},
		{"contains list", flowchart.Condition{Attribute: "tags", Comparison: flowchart.ComparisonContains, Value: "vip"}, true},
		{"not contains list", flowchart.Condition{Attribute: "tags", Comparison: flowchart.ComparisonNotContains, Value: "internal"}, true},
		{"contains substring", flowchart.Condition{Attribute: "status", Comparison: flowchart.ComparisonContains, Value: "PE"}, true},
		{"variable is true", flowchart.Condition{Attribute: "$approved", Comparison: flowchart.ComparisonIsTrue}, true},
		{"variable is false", flowchart.Condition{Attribute: "$approved", Comparison: flowchart.ComparisonIsFalse}, false},
		{"variable number", flowchart.Condition{Attribute: "$retries", Comparison: flowchart.ComparisonLessThanOrEquals, Value: 3}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual, err := evaluateCondition(target, variables, test.condition)
			assert.Nil(err)
			assert.Equal(test.expected, actual)
		})
	}

	t.Run("returns error for an unsupported comparison", func(t *testing.T) {
		_, err := evaluateCondition(target, variables, flowchart.Condition{Attribute: "amount"})
		assert.NotNil(err)
	})
}

func TestToFloat(t *testing.T) {
	assert := assert.New(t)

	for _, v := range []any{float64(3), float32(3), int(3), int32(3), int64(3)} {
		f, ok := toFloat(v)
		assert.True(ok)
		assert.Equal(float64(3), f)
	}

	_, ok := toFloat("3")
	assert.False(ok)
	_, ok = toFloat(nil)
	assert.False(ok)
}

func TestIsTruthy(t *testing.T) {
	assert := assert.New(t)

	assert.True(isTruthy(true))
	assert.True(isTruthy("true"))
	assert.False(isTruthy(false))
	assert.False(isTruthy("false"))
	assert.False(isTruthy(1))
	assert.False(isTruthy(nil))
}
