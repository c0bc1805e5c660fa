package internal

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
)

// fireCatchEvent resolves a pending catch event that observed its trigger.
//
// Trigger parameters are merged into the process variables. A fired catch
// behind an event-based gateway rejects its racing siblings. A fired boundary
// event either interrupts its activity or, when non-interrupting, re-attaches
// a fresh watcher before the flow continues.
func fireCatchEvent(ctx Context, process *ProcessEntity, node *FlowNodeEntity, parameters map[string]any) error {
	if node.Status.IsTerminal() {
		return nil
	}

	if len(parameters) != 0 {
		process.SetVariables(parameters)
		process.ModifiedAt = ctx.Time()
		if err := ctx.Processes().Update(process); err != nil {
			return err
		}
	}

	b, err := behaviorOf(node.ElementType)
	if err != nil {
		return err
	}
	if err := b.CleanupInterrupted(ctx, process, node); err != nil {
		return err
	}

	if err := rejectEventBasedSiblings(ctx, process, node); err != nil {
		return err
	}

	if node.ElementType.IsBoundary() {
		if node.Element.CancelActivity {
			if err := interruptActivityByBoundary(ctx, process, node); err != nil {
				return err
			}
		} else {
			opposite := node.ElementType == flowchart.ElementEventBoundaryConditional
			if err := cloneWatcher(ctx, process, node, opposite); err != nil {
				return err
			}
		}
	}

	return completeFlowNode(ctx, process, node)
}

// timerCatchBehavior computes its due time once, when the flow node is created,
// and fires as soon as a ProceedDue tick observes the due time elapsed.
type timerCatchBehavior struct {
	defaultBehavior
}

func (timerCatchBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	proceedAt, err := computeProceedAt(ctx, process, node)
	if err != nil {
		return err
	}

	node.Status = engine.FlowNodePending
	node.Data.ProceedAt = &proceedAt
	return ctx.FlowNodes().Update(node)
}

func (timerCatchBehavior) ProceedPending(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if node.Data.ProceedAt == nil || ctx.Time().Before(*node.Data.ProceedAt) {
		return nil
	}
	return fireCatchEvent(ctx, process, node, nil)
}

// signalCatchBehavior subscribes the flow node to its signal name and waits.
// It fires when the signal is sent, either by Engine.SendSignal or by a signal
// throw event of any process.
type signalCatchBehavior struct {
	defaultBehavior
}

func (signalCatchBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	signalName, err := resolveSignalName(ctx, process, node)
	if err != nil {
		return err
	}

	node.Status = engine.FlowNodePending
	node.Data.SignalName = signalName
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}

	return ctx.SignalSubscriptions().Insert(&SignalSubscriptionEntity{
		Id:         uuid.NewString(),
		SignalName: signalName,
		FlowNodeId: node.Id,
		ProcessId:  process.Id,
		CreatedAt:  ctx.Time(),
	})
}

func (signalCatchBehavior) CleanupInterrupted(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return ctx.SignalSubscriptions().DeleteByFlowNode(node.Id)
}

// notifySignal fires every pending flow node subscribed to the signal name and
// returns the number of notified subscribers.
func notifySignal(ctx Context, signalName string, parameters map[string]any) (int, error) {
	subscriptions, err := ctx.SignalSubscriptions().SelectByName(signalName)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, subscription := range subscriptions {
		node, err := ctx.FlowNodes().Select(subscription.FlowNodeId)
		if err != nil {
			return notified, err
		}
		if node.Status != engine.FlowNodePending {
			continue
		}

		process, err := ctx.Processes().Select(subscription.ProcessId)
		if err != nil {
			return notified, err
		}
		if process.Status != engine.ProcessStarted {
			continue
		}

		if err := fireCatchEvent(ctx, process, node, parameters); err != nil {
			return notified, err
		}
		notified++
	}
	return notified, nil
}

// messageCatchBehavior polls the application's inbound message store on each
// ProceedDue tick. The watermark excludes messages received before the flow
// node was created or already checked.
type messageCatchBehavior struct {
	defaultBehavior
}

func (messageCatchBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if node.Element.Message == nil {
		return engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  "failed to process message event",
			Detail: fmt.Sprintf("element %s has no message definition", node.ElementId),
		}
	}

	now := ctx.Time()
	node.Status = engine.FlowNodePending
	node.Data.CheckedAt = &now
	return ctx.FlowNodes().Update(node)
}

func (messageCatchBehavior) ProceedPending(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	messages := ctx.Options().Messages
	if messages == nil {
		return nil
	}

	after := node.CreatedAt
	if node.Data.CheckedAt != nil {
		after = *node.Data.CheckedAt
	}

	definition := node.Element.Message
	message, err := messages.FindInbound(ctx.Ctx(), engine.InboundMessageQuery{
		TargetType: node.TargetType,
		TargetId:   node.TargetId,

		MessageType: definition.MessageType,
		RelatedTo:   definition.RelatedTo,
		RepliedTo:   definition.RepliedTo,

		After: after,
	})
	if err != nil {
		return err
	}

	if message == nil {
		now := ctx.Time()
		node.Data.CheckedAt = &now
		return ctx.FlowNodes().Update(node)
	}

	if definition.Filter != "" {
		formula := ctx.Options().Formula
		if formula == nil {
			return engine.EvaluationError{Expression: definition.Filter, Err: fmt.Errorf("no formula evaluator configured")}
		}

		messageRecord := engine.Record{EntityType: "Message", Id: message.Id, Attributes: message.Attributes}
		v, err := formula.Evaluate(ctx.Ctx(), definition.Filter, messageRecord, process.Variables)
		if err != nil {
			return err
		}
		if !isTruthy(v) {
			// move the watermark past the filtered message
			node.Data.CheckedAt = &message.ReceivedAt
			return ctx.FlowNodes().Update(node)
		}
	}

	return fireCatchEvent(ctx, process, node, nil)
}

// conditionalCatchBehavior checks its condition bundle when the flow node is
// created and on each ProceedDue tick.
//
// A fired non-interrupting conditional boundary re-attaches as opposite twin:
// the twin waits for the condition to cease before it re-arms the original
// watch, so a continuously held condition fires once, not on every tick.
type conditionalCatchBehavior struct {
	defaultBehavior
}

func (b conditionalCatchBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	met, err := b.check(ctx, process, node)
	if err != nil {
		return err
	}
	if met {
		return b.fire(ctx, process, node)
	}

	node.Status = engine.FlowNodePending
	return ctx.FlowNodes().Update(node)
}

func (b conditionalCatchBehavior) ProceedPending(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	met, err := b.check(ctx, process, node)
	if err != nil {
		return err
	}
	if !met {
		return nil
	}
	return b.fire(ctx, process, node)
}

func (conditionalCatchBehavior) check(ctx Context, process *ProcessEntity, node *FlowNodeEntity) (bool, error) {
	met, err := evaluateConditionBundle(ctx, process, node, node.Element.Conditions)
	if err != nil {
		return false, err
	}
	if node.Data.IsOpposite {
		return !met, nil
	}
	return met, nil
}

func (conditionalCatchBehavior) fire(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if node.Data.IsOpposite {
		// the condition ceased - re-arm the original watcher without
		// taking the outgoing flow
		if node.Status.IsTerminal() {
			return nil
		}
		now := ctx.Time()
		node.Status = engine.FlowNodeProcessed
		node.ProcessedAt = &now
		if err := ctx.FlowNodes().Update(node); err != nil {
			return err
		}
		return cloneWatcher(ctx, process, node, true)
	}
	return fireCatchEvent(ctx, process, node, nil)
}

// errorBoundaryBehavior waits passively: it is fired by the failure routing
// when its activity fails with a matching error code.
type errorBoundaryBehavior struct {
	defaultBehavior
}

func (errorBoundaryBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	node.Status = engine.FlowNodePending
	return ctx.FlowNodes().Update(node)
}
