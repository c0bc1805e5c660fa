package flowchart

import "fmt"

// Comparison describes how a single condition compares a record attribute against a value.
type Comparison int

const (
	ComparisonEquals Comparison = iota + 1
	ComparisonNotEquals
	ComparisonGreaterThan
	ComparisonGreaterThanOrEquals
	ComparisonLessThan
	ComparisonLessThanOrEquals
	ComparisonIsEmpty
	ComparisonIsNotEmpty
	ComparisonIsTrue
	ComparisonIsFalse
	ComparisonContains
	ComparisonNotContains
)

func MapComparison(s string) Comparison {
	switch s {
	case "EQUALS":
		return ComparisonEquals
	case "NOT_EQUALS":
		return ComparisonNotEquals
	case "GREATER_THAN":
		return ComparisonGreaterThan
	case "GREATER_THAN_OR_EQUALS":
		return ComparisonGreaterThanOrEquals
	case "LESS_THAN":
		return ComparisonLessThan
	case "LESS_THAN_OR_EQUALS":
		return ComparisonLessThanOrEquals
	case "IS_EMPTY":
		return ComparisonIsEmpty
	case "IS_NOT_EMPTY":
		return ComparisonIsNotEmpty
	case "IS_TRUE":
		return ComparisonIsTrue
	case "IS_FALSE":
		return ComparisonIsFalse
	case "CONTAINS":
		return ComparisonContains
	case "NOT_CONTAINS":
		return ComparisonNotContains
	default:
		return 0
	}
}

func (v Comparison) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v Comparison) String() string {
	switch v {
	case ComparisonEquals:
		return "EQUALS"
	case ComparisonNotEquals:
		return "NOT_EQUALS"
	case ComparisonGreaterThan:
		return "GREATER_THAN"
	case ComparisonGreaterThanOrEquals:
		return "GREATER_THAN_OR_EQUALS"
	case ComparisonLessThan:
		return "LESS_THAN"
	case ComparisonLessThanOrEquals:
		return "LESS_THAN_OR_EQUALS"
	case ComparisonIsEmpty:
		return "IS_EMPTY"
	case ComparisonIsNotEmpty:
		return "IS_NOT_EMPTY"
	case ComparisonIsTrue:
		return "IS_TRUE"
	case ComparisonIsFalse:
		return "IS_FALSE"
	case ComparisonContains:
		return "CONTAINS"
	case ComparisonNotContains:
		return "NOT_CONTAINS"
	default:
		return ""
	}
}

func (v *Comparison) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapComparison(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid comparison data %s", s)
	}
	return nil
}

// A Condition compares one attribute of the target record against a static value.
type Condition struct {
	Attribute  string     `json:"attribute"`
	Comparison Comparison `json:"comparison"`
	Value      any        `json:"value,omitempty"`
}

// A ConditionBundle combines conditions the way a flow designer authors them:
// all conditions of All must hold, at least one condition of Any must hold and
// the Formula expression must evaluate to true. Empty parts are satisfied.
type ConditionBundle struct {
	All     []Condition `json:"all,omitempty"`
	Any     []Condition `json:"any,omitempty"`
	Formula string      `json:"formula,omitempty"`
}

// IsEmpty determines if the bundle holds no condition at all.
func (b ConditionBundle) IsEmpty() bool {
	return len(b.All) == 0 && len(b.Any) == 0 && b.Formula == ""
}
