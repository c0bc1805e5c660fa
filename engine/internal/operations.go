package internal

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
)

// This file implements the engine operations, shared between the store
// implementations. Each function runs against one Context; the caller
// guarantees single-writer semantics for the Context's lifetime.

func CreateFlowchart(ctx Context, cmd engine.CreateFlowchartCmd) (engine.Flowchart, error) {
	f, err := flowchart.Parse(cmd.Definition)
	if err != nil {
		var validationErr flowchart.ValidationError
		if errors.As(err, &validationErr) {
			causes := make([]engine.ErrorCause, len(validationErr.Causes))
			for i, cause := range validationErr.Causes {
				causes[i] = engine.ErrorCause{ElementId: cause.ElementId, Type: cause.Type, Detail: cause.Detail}
			}
			return engine.Flowchart{}, engine.Error{
				Type:   engine.ErrorProcessModel,
				Title:  fmt.Sprintf("failed to create flowchart %s", validationErr.FlowchartId),
				Detail: "one or more elements prevent execution",
				Causes: causes,
			}
		}

		return engine.Flowchart{}, engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  "failed to create flowchart",
			Detail: err.Error(),
		}
	}

	existing, err := ctx.Flowcharts().Select(f.Id)
	if err == nil {
		if bytes.Equal(existing.Definition, cmd.Definition) {
			return existing.Flowchart(), nil
		}
		return engine.Flowchart{}, engine.Error{
			Type:   engine.ErrorConflict,
			Title:  fmt.Sprintf("failed to create flowchart %s", f.Id),
			Detail: "a flowchart with the same ID, but a different definition exists",
		}
	}
	if !isNotFound(err) {
		return engine.Flowchart{}, err
	}

	entity := FlowchartEntity{
		Id:         f.Id,
		Name:       f.Name,
		Definition: cmd.Definition,
		CreatedAt:  ctx.Time(),
	}
	if err := ctx.Flowcharts().Insert(&entity); err != nil {
		return engine.Flowchart{}, err
	}

	ctx.Logger().Info("flowchart created", "id", f.Id, "elements", len(f.Elements))
	return entity.Flowchart(), nil
}

func GetFlowchart(ctx Context, cmd engine.GetFlowchartCmd) (engine.Flowchart, error) {
	entity, err := ctx.Flowcharts().Select(cmd.Id)
	if err != nil {
		return engine.Flowchart{}, err
	}
	return entity.Flowchart(), nil
}

func StartProcess(ctx Context, cmd engine.StartProcessCmd) (engine.Process, error) {
	flowchartEntity, err := ctx.Flowcharts().Select(cmd.FlowchartId)
	if err != nil {
		return engine.Process{}, err
	}
	if _, err := flowchartEntity.Parsed(); err != nil {
		return engine.Process{}, err
	}

	now := ctx.Time()
	process := ProcessEntity{
		Id:          uuid.NewString(),
		FlowchartId: cmd.FlowchartId,

		TargetType: cmd.TargetType,
		TargetId:   cmd.TargetId,

		Status: engine.ProcessStarted,

		Variables: maps.Clone(cmd.Variables),

		AssignedUserId: cmd.AssignedUserId,
		TeamIds:        slices.Clone(cmd.TeamIds),

		CreatedAt:  now,
		ModifiedAt: now,
	}

	if err := ctx.Processes().Insert(&process); err != nil {
		return engine.Process{}, err
	}

	ctx.Logger().Info("process started", "id", process.Id, "flowchartId", cmd.FlowchartId, "target", cmd.TargetType+"/"+cmd.TargetId)

	if err := startProcessFlow(ctx, &process, cmd.StartElementId); err != nil {
		return engine.Process{}, err
	}

	fresh, err := ctx.Processes().Select(process.Id)
	if err != nil {
		return engine.Process{}, err
	}
	return fresh.Process(), nil
}

// startProcessFlow creates and processes the initial flow nodes of a started
// process, one per start event element, or one for the chosen start element.
func startProcessFlow(ctx Context, process *ProcessEntity, startElementId string) error {
	f, err := flowchartOf(ctx, process)
	if err != nil {
		return err
	}

	var startElements []flowchart.Element
	if startElementId != "" {
		element, ok := f.Element(startElementId)
		if !ok || element.Type != flowchart.ElementEventStart {
			return engine.Error{
				Type:   engine.ErrorProcessModel,
				Title:  fmt.Sprintf("failed to start process of flowchart %s", process.FlowchartId),
				Detail: fmt.Sprintf("element %s is no start event", startElementId),
			}
		}
		startElements = []flowchart.Element{element}
	} else {
		startElements = f.StartElements()
	}

	if len(startElements) == 0 {
		return engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  fmt.Sprintf("failed to start process of flowchart %s", process.FlowchartId),
			Detail: "flowchart has no start event",
		}
	}

	for _, startElement := range startElements {
		if process.Status != engine.ProcessStarted {
			break
		}

		node, err := prepareFlow(ctx, process, startElement.Id, nil, "")
		if err != nil {
			return err
		}
		if err := processPreparedFlowNode(ctx, process, node); err != nil {
			return err
		}
	}
	return nil
}

func GetProcess(ctx Context, cmd engine.GetProcessCmd) (engine.Process, error) {
	process, err := ctx.Processes().Select(cmd.Id)
	if err != nil {
		return engine.Process{}, err
	}
	return process.Process(), nil
}

func GetFlowNode(ctx Context, cmd engine.GetFlowNodeCmd) (engine.FlowNode, error) {
	node, err := ctx.FlowNodes().Select(cmd.Id)
	if err != nil {
		return engine.FlowNode{}, err
	}
	return node.FlowNode(), nil
}

func QueryProcesses(ctx Context, criteria engine.ProcessCriteria, options engine.QueryOptions) ([]engine.Process, error) {
	return ctx.Processes().Query(criteria, limitOptions(ctx, options))
}

func QueryFlowNodes(ctx Context, criteria engine.FlowNodeCriteria, options engine.QueryOptions) ([]engine.FlowNode, error) {
	return ctx.FlowNodes().Query(criteria, limitOptions(ctx, options))
}

func limitOptions(ctx Context, options engine.QueryOptions) engine.QueryOptions {
	if options.Limit <= 0 {
		options.Limit = ctx.Options().DefaultQueryLimit
	}
	return options
}

// ProceedFlowNode delivers an external trigger to a pending catch event.
// A terminal flow node is returned unchanged, so drivers may deliver a trigger
// more than once.
func ProceedFlowNode(ctx Context, cmd engine.ProceedFlowNodeCmd) (engine.FlowNode, error) {
	node, err := ctx.FlowNodes().Select(cmd.Id)
	if err != nil {
		return engine.FlowNode{}, err
	}
	if node.Status.IsTerminal() {
		return node.FlowNode(), nil
	}

	if !node.ElementType.IsCatchEvent() {
		return engine.FlowNode{}, engine.Error{
			Type:   engine.ErrorValidation,
			Title:  fmt.Sprintf("failed to proceed flow node %s", cmd.Id),
			Detail: fmt.Sprintf("element type %s waits for no external trigger", node.ElementType),
		}
	}
	if node.Status != engine.FlowNodePending {
		return engine.FlowNode{}, engine.Error{
			Type:   engine.ErrorConflict,
			Title:  fmt.Sprintf("failed to proceed flow node %s", cmd.Id),
			Detail: fmt.Sprintf("flow node is %s, but must be PENDING", node.Status),
		}
	}

	process, err := ctx.Processes().Select(node.ProcessId)
	if err != nil {
		return engine.FlowNode{}, err
	}

	if err := fireCatchEvent(ctx, process, node, cmd.Parameters); err != nil {
		return engine.FlowNode{}, err
	}

	fresh, err := ctx.FlowNodes().Select(cmd.Id)
	if err != nil {
		return engine.FlowNode{}, err
	}
	return fresh.FlowNode(), nil
}

// ProceedDue re-enters the due flow nodes: elapsed timers and polling message
// or conditional events. Failures of one flow node are routed through its
// failure path and do not stop the batch.
func ProceedDue(ctx Context, cmd engine.ProceedDueCmd) ([]engine.FlowNode, error) {
	limit := cmd.Limit
	if limit <= 0 {
		limit = ctx.Options().DefaultQueryLimit
	}

	due, err := ctx.FlowNodes().SelectDue(ctx.Time(), cmd.ProcessId, limit)
	if err != nil {
		return nil, err
	}

	var results []engine.FlowNode
	for _, node := range due {
		process, err := ctx.Processes().Select(node.ProcessId)
		if err != nil {
			return results, err
		}
		if process.Status != engine.ProcessStarted {
			continue
		}

		b, err := behaviorOf(node.ElementType)
		if err != nil {
			return results, err
		}

		if err := b.ProceedPending(ctx, process, node); err != nil {
			if err := b.Fail(ctx, process, node, err); err != nil {
				return results, err
			}
		}

		fresh, err := ctx.FlowNodes().Select(node.Id)
		if err != nil {
			return results, err
		}
		results = append(results, fresh.FlowNode())
	}
	return results, nil
}

func SendSignal(ctx Context, cmd engine.SendSignalCmd) (int, error) {
	return notifySignal(ctx, cmd.Name, cmd.Parameters)
}

// CompleteUserTask resolves the user task a flow node is waiting for.
// A terminal flow node is returned unchanged.
func CompleteUserTask(ctx Context, cmd engine.CompleteUserTaskCmd) (engine.FlowNode, error) {
	node, err := ctx.FlowNodes().Select(cmd.FlowNodeId)
	if err != nil {
		return engine.FlowNode{}, err
	}
	if node.Status.IsTerminal() {
		return node.FlowNode(), nil
	}

	if node.ElementType != flowchart.ElementUserTask {
		return engine.FlowNode{}, engine.Error{
			Type:   engine.ErrorValidation,
			Title:  fmt.Sprintf("failed to complete user task of flow node %s", cmd.FlowNodeId),
			Detail: fmt.Sprintf("element type is %s, but must be %s", node.ElementType, flowchart.ElementUserTask),
		}
	}

	process, err := ctx.Processes().Select(node.ProcessId)
	if err != nil {
		return engine.FlowNode{}, err
	}

	if len(cmd.Variables) != 0 {
		process.SetVariables(cmd.Variables)
		process.ModifiedAt = ctx.Time()
		if err := ctx.Processes().Update(process); err != nil {
			return engine.FlowNode{}, err
		}
	}

	node.Data.UserTaskResolution = cmd.Resolution
	if err := ctx.FlowNodes().Update(node); err != nil {
		return engine.FlowNode{}, err
	}

	if err := completeFlowNode(ctx, process, node); err != nil {
		return engine.FlowNode{}, err
	}

	fresh, err := ctx.FlowNodes().Select(cmd.FlowNodeId)
	if err != nil {
		return engine.FlowNode{}, err
	}
	return fresh.FlowNode(), nil
}

func SetProcessVariables(ctx Context, cmd engine.SetProcessVariablesCmd) error {
	process, err := ctx.Processes().Select(cmd.ProcessId)
	if err != nil {
		return err
	}
	if process.Status.IsEnded() {
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  fmt.Sprintf("failed to set variables of process %s", cmd.ProcessId),
			Detail: fmt.Sprintf("process already ended with status %s", process.Status),
		}
	}

	process.SetVariables(cmd.Variables)
	process.ModifiedAt = ctx.Time()
	return ctx.Processes().Update(process)
}

// StopProcess interrupts every active flow node and ends the process as
// STOPPED. Stopping an ended process is a no-op.
func StopProcess(ctx Context, cmd engine.StopProcessCmd) error {
	process, err := ctx.Processes().Select(cmd.Id)
	if err != nil {
		return err
	}
	if process.Status.IsEnded() {
		return nil
	}

	ctx.Logger().Info("process stopped", "id", process.Id)
	return stopProcess(ctx, process, engine.ProcessStopped)
}

func stopProcess(ctx Context, process *ProcessEntity, status engine.ProcessStatus) error {
	active, err := ctx.FlowNodes().SelectActiveByProcess(process.Id)
	if err != nil {
		return err
	}
	for _, node := range active {
		if err := interruptFlowNode(ctx, process, node); err != nil {
			return err
		}
	}

	return endProcess(ctx, process, status, "", "")
}

func isNotFound(err error) bool {
	var engineErr engine.Error
	return errors.As(err, &engineErr) && engineErr.Type == engine.ErrorNotFound
}
