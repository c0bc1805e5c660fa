package internal

import (
	"fmt"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
)

// A behavior implements the lifecycle of one flowchart element type.
//
// Process drives a CREATED flow node to a terminal status or into a wait
// state. ProceedPending re-enters a PENDING flow node, performing the same
// evaluation but assuming the node is already persisted. Both must be
// idempotent on terminal nodes.
type behavior interface {
	// IsProcessable determines if the flow node may be processed at all.
	IsProcessable(ctx Context, process *ProcessEntity, node *FlowNodeEntity) (bool, error)

	// BeforeProcess runs side effects that must precede processing, e.g.
	// attaching boundary watchers to an activity.
	BeforeProcess(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error

	Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error

	ProceedPending(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error

	// Complete terminally stamps the flow node as PROCESSED and advances the flow.
	Complete(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error

	// Fail terminally stamps the flow node as FAILED and routes the error.
	Fail(ctx Context, process *ProcessEntity, node *FlowNodeEntity, cause error) error

	// Interrupt terminally stamps the flow node as INTERRUPTED.
	// Interrupting an already-terminal flow node is a no-op.
	Interrupt(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error

	// CleanupInterrupted releases external wait state, e.g. signal subscriptions.
	CleanupInterrupted(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error
}

// behaviors is the closed registry of element behaviors, populated at startup.
// Every element type maps to exactly one behavior.
var behaviors = map[flowchart.ElementType]behavior{
	flowchart.ElementEventStart:           eventStartBehavior{},
	flowchart.ElementEventEnd:             eventEndBehavior{},
	flowchart.ElementEventEndError:        eventEndErrorBehavior{},
	flowchart.ElementEventEndSignalThrow:  signalThrowBehavior{end: true},
	flowchart.ElementEventEndTerminate:    eventEndTerminateBehavior{},
	flowchart.ElementGatewayEventBased:    eventBasedGatewayBehavior{},
	flowchart.ElementGatewayExclusive:     exclusiveGatewayBehavior{},
	flowchart.ElementGatewayInclusive:     inclusiveGatewayBehavior{},
	flowchart.ElementGatewayParallel:      parallelGatewayBehavior{},
	flowchart.ElementScriptTask:           scriptTaskBehavior{},
	flowchart.ElementSubProcess:           subProcessBehavior{},
	flowchart.ElementTask:                 taskBehavior{},
	flowchart.ElementUserTask:             userTaskBehavior{},

	flowchart.ElementEventIntermediateSignalThrow: signalThrowBehavior{},

	flowchart.ElementEventIntermediateConditionalCatch: conditionalCatchBehavior{},
	flowchart.ElementEventIntermediateMessageCatch:     messageCatchBehavior{},
	flowchart.ElementEventIntermediateSignalCatch:      signalCatchBehavior{},
	flowchart.ElementEventIntermediateTimerCatch:       timerCatchBehavior{},

	flowchart.ElementEventBoundaryConditional: conditionalCatchBehavior{},
	flowchart.ElementEventBoundaryError:       errorBoundaryBehavior{},
	flowchart.ElementEventBoundaryMessage:     messageCatchBehavior{},
	flowchart.ElementEventBoundarySignal:      signalCatchBehavior{},
	flowchart.ElementEventBoundaryTimer:       timerCatchBehavior{},
}

func behaviorOf(elementType flowchart.ElementType) (behavior, error) {
	b, ok := behaviors[elementType]
	if !ok {
		return nil, engine.Error{
			Type:   engine.ErrorBug,
			Title:  "failed to dispatch flow node",
			Detail: fmt.Sprintf("element type %s has no behavior", elementType),
		}
	}
	return b, nil
}

// defaultBehavior provides the common lifecycle, embedded by every element behavior.
type defaultBehavior struct{}

func (defaultBehavior) IsProcessable(ctx Context, process *ProcessEntity, node *FlowNodeEntity) (bool, error) {
	return process.Status == engine.ProcessStarted, nil
}

func (defaultBehavior) BeforeProcess(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return nil
}

func (defaultBehavior) ProceedPending(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return nil
}

func (defaultBehavior) Complete(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return completeFlowNode(ctx, process, node)
}

func (defaultBehavior) Fail(ctx Context, process *ProcessEntity, node *FlowNodeEntity, cause error) error {
	return setFailedWithError(ctx, process, node, cause)
}

func (defaultBehavior) Interrupt(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return interruptFlowNode(ctx, process, node)
}

func (defaultBehavior) CleanupInterrupted(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return nil
}
