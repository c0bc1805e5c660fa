package internal

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
	"github.com/senseyeio/duration"
)

// computeProceedAt computes the due time of a timer event when its flow node is
// created. The due time is persisted in the flow node data and compared against
// the clock on each ProceedDue tick.
func computeProceedAt(ctx Context, process *ProcessEntity, node *FlowNodeEntity) (time.Time, error) {
	timer := node.Element.Timer
	if timer == nil {
		return time.Time{}, timerError(node, "element has no timer definition")
	}

	var base time.Time
	switch timer.Base {
	case "", flowchart.TimerBaseMoment:
		base = ctx.Time()

	case flowchart.TimerBaseFormula:
		v, err := evaluateFormula(ctx, process, node, timer.Formula)
		if err != nil {
			return time.Time{}, err
		}
		t, err := coerceTime(v)
		if err != nil {
			return time.Time{}, engine.EvaluationError{Expression: timer.Formula, Err: err}
		}
		base = t

	case flowchart.TimerBaseField:
		target, err := loadTarget(ctx, node)
		if err != nil {
			return time.Time{}, err
		}
		if timer.Link != "" {
			records := ctx.Options().Records
			if records == nil {
				return time.Time{}, timerError(node, "no record store configured")
			}
			target, err = records.LoadRelated(ctx.Ctx(), target, timer.Link)
			if err != nil {
				return time.Time{}, err
			}
		}
		t, err := coerceTime(target.Attr(timer.Field))
		if err != nil {
			return time.Time{}, engine.ProcessError{
				Code:    "TIMER_FIELD",
				Message: fmt.Sprintf("field %s of %s %s: %v", timer.Field, target.EntityType, target.Id, err),
			}
		}
		base = t

	case flowchart.TimerBaseCron:
		t, err := gronx.NextTickAfter(timer.Cron, ctx.Time(), false)
		if err != nil {
			return time.Time{}, timerError(node, fmt.Sprintf("invalid cron expression %q: %v", timer.Cron, err))
		}
		base = t

	default:
		return time.Time{}, timerError(node, fmt.Sprintf("unsupported timer base %q", timer.Base))
	}

	if timer.Shift != "" {
		d, err := duration.ParseISO8601(timer.Shift)
		if err != nil {
			return time.Time{}, timerError(node, fmt.Sprintf("invalid timer shift %q: %v", timer.Shift, err))
		}
		if timer.ShiftNegative {
			base = shiftBack(d, base)
		} else {
			base = d.Shift(base)
		}
	}

	return base.UTC(), nil
}

func timerError(node *FlowNodeEntity, detail string) error {
	return engine.Error{
		Type:   engine.ErrorProcessModel,
		Title:  "failed to compute timer",
		Detail: detail,
		Causes: []engine.ErrorCause{{ElementId: node.ElementId, Type: "timer", Detail: detail}},
	}
}

// shiftBack applies an ISO-8601 duration backwards in time.
func shiftBack(d duration.Duration, t time.Time) time.Time {
	t = t.AddDate(-d.Y, -d.M, -d.W*7-d.D)
	return t.Add(-time.Duration(d.TH)*time.Hour - time.Duration(d.TM)*time.Minute - time.Duration(d.TS)*time.Second)
}

// coerceTime interprets a formula result or record attribute as point in time.
func coerceTime(v any) (time.Time, error) {
	switch value := v.(type) {
	case time.Time:
		return value, nil
	case *time.Time:
		if value == nil {
			return time.Time{}, fmt.Errorf("value is nil")
		}
		return *value, nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, value); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("value %q is not a datetime", value)
	case nil:
		return time.Time{}, fmt.Errorf("value is nil")
	default:
		return time.Time{}, fmt.Errorf("value of type %T is not a datetime", v)
	}
}
