package internal

import (
	"fmt"
	"strings"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
)

// resolveTarget resolves the record an element acts on. Without a target
// expression, an element acts on the process target.
//
// Supported expressions:
//
//	record:<entityType>:<id>  a fixed record
//	link:<name>               the record behind a relation of the process target
//	created:<alias>           a record created earlier during execution
func resolveTarget(ctx Context, process *ProcessEntity, element flowchart.Element) (string, string, error) {
	expression := element.TargetExpression
	if expression == "" {
		return process.TargetType, process.TargetId, nil
	}

	switch {
	case strings.HasPrefix(expression, "record:"):
		rest := strings.TrimPrefix(expression, "record:")
		entityType, id, ok := strings.Cut(rest, ":")
		if !ok || entityType == "" || id == "" {
			return "", "", targetError(element, fmt.Sprintf("record expression %q is malformed", expression))
		}
		return entityType, id, nil

	case strings.HasPrefix(expression, "link:"):
		records := ctx.Options().Records
		if records == nil {
			return "", "", targetError(element, "no record store configured")
		}

		base, err := records.Load(ctx.Ctx(), process.TargetType, process.TargetId)
		if err != nil {
			return "", "", err
		}
		related, err := records.LoadRelated(ctx.Ctx(), base, strings.TrimPrefix(expression, "link:"))
		if err != nil {
			return "", "", err
		}
		if related.Id == "" {
			return "", "", engine.ProcessError{
				Code:    "TARGET_NOT_FOUND",
				Message: fmt.Sprintf("target %q of element %s resolved to no record", expression, element.Id),
			}
		}
		return related.EntityType, related.Id, nil

	case strings.HasPrefix(expression, "created:"):
		alias := strings.TrimPrefix(expression, "created:")
		created, ok := process.CreatedEntitiesData[alias]
		if !ok {
			return "", "", engine.ProcessError{
				Code:    "TARGET_NOT_FOUND",
				Message: fmt.Sprintf("no entity was created under alias %q", alias),
			}
		}
		return created.EntityType, created.EntityId, nil

	default:
		return "", "", targetError(element, fmt.Sprintf("target expression %q has an unsupported prefix", expression))
	}
}

func targetError(element flowchart.Element, detail string) error {
	return engine.Error{
		Type:   engine.ErrorProcessModel,
		Title:  "failed to resolve target",
		Detail: detail,
		Causes: []engine.ErrorCause{{ElementId: element.Id, Type: "target", Detail: detail}},
	}
}

// loadTarget loads the flow node's target record. Without a record store, a
// bare record is returned, so variable-only evaluation still works.
func loadTarget(ctx Context, node *FlowNodeEntity) (engine.Record, error) {
	records := ctx.Options().Records
	if records == nil {
		return engine.Record{EntityType: node.TargetType, Id: node.TargetId}, nil
	}
	return records.Load(ctx.Ctx(), node.TargetType, node.TargetId)
}

// evaluateFormula evaluates an expression against the flow node's target record
// and the process variables.
func evaluateFormula(ctx Context, process *ProcessEntity, node *FlowNodeEntity, expression string) (any, error) {
	formula := ctx.Options().Formula
	if formula == nil {
		return nil, engine.EvaluationError{
			Expression: expression,
			Err:        fmt.Errorf("no formula evaluator configured"),
		}
	}

	target, err := loadTarget(ctx, node)
	if err != nil {
		return nil, err
	}
	return formula.Evaluate(ctx.Ctx(), expression, target, process.Variables)
}
