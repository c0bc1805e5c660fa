package internal

import (
	"fmt"
	"strings"

	"github.com/monostax/bpmflow/engine"
)

type eventStartBehavior struct {
	defaultBehavior
}

func (eventStartBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return completeFlowNode(ctx, process, node)
}

type eventEndBehavior struct {
	defaultBehavior
}

func (eventEndBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return endProcessFlow(ctx, process, node)
}

// eventEndTerminateBehavior ends the whole process at once: every other active
// flow node is interrupted, regardless of concurrent branches.
type eventEndTerminateBehavior struct {
	defaultBehavior
}

func (eventEndTerminateBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	now := ctx.Time()
	node.Status = engine.FlowNodeProcessed
	node.ProcessedAt = &now
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}

	active, err := ctx.FlowNodes().SelectActiveByProcess(process.Id)
	if err != nil {
		return err
	}
	for _, activeNode := range active {
		if err := interruptFlowNode(ctx, process, activeNode); err != nil {
			return err
		}
	}

	return endProcess(ctx, process, engine.ProcessProcessed, "", "")
}

// eventEndErrorBehavior throws a business error: the process fails with the
// configured error code. When thrown inside a sub process, the error propagates
// to the parent's error boundary events.
type eventEndErrorBehavior struct {
	defaultBehavior
}

func (eventEndErrorBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	errorCode := node.Element.ErrorCode
	if errorCode == "" {
		errorCode = "UNSPECIFIED"
	}

	now := ctx.Time()
	node.Status = engine.FlowNodeProcessed
	node.ProcessedAt = &now
	node.Data.ErrorCode = errorCode
	node.Data.ErrorMessage = node.Element.ErrorMessage
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}

	return endProcessWithError(ctx, process, errorCode, node.Element.ErrorMessage)
}

// signalThrowBehavior broadcasts a signal to every subscribed flow node,
// across process boundaries. As end event it additionally ends the flow.
type signalThrowBehavior struct {
	defaultBehavior

	end bool
}

func (b signalThrowBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	signalName, err := resolveSignalName(ctx, process, node)
	if err != nil {
		return err
	}

	node.Data.SignalName = signalName
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}

	notified, err := notifySignal(ctx, signalName, nil)
	if err != nil {
		return err
	}
	ctx.Logger().Debug("signal thrown", "name", signalName, "notified", notified, "flowNodeId", node.Id)

	if b.end {
		return endProcessFlow(ctx, process, node)
	}
	return completeFlowNode(ctx, process, node)
}

// resolveSignalName resolves the signal name of a throw or catch event.
// A "=" prefix marks the configured name as a formula expression.
func resolveSignalName(ctx Context, process *ProcessEntity, node *FlowNodeEntity) (string, error) {
	signalName := node.Element.SignalName
	if expression, ok := strings.CutPrefix(signalName, "="); ok {
		v, err := evaluateFormula(ctx, process, node, expression)
		if err != nil {
			return "", err
		}
		signalName, _ = v.(string)
		if signalName == "" {
			signalName = fmt.Sprintf("%v", v)
		}
	}

	if signalName == "" || signalName == "<nil>" {
		return "", engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  "failed to resolve signal name",
			Detail: fmt.Sprintf("element %s resolved to an empty signal name", node.ElementId),
			Causes: []engine.ErrorCause{{ElementId: node.ElementId, Type: "signal"}},
		}
	}
	return signalName, nil
}
