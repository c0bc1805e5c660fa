package internal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
)

func flowchartOf(ctx Context, process *ProcessEntity) (*flowchart.Flowchart, error) {
	entity, err := ctx.Flowcharts().Select(process.FlowchartId)
	if err != nil {
		return nil, err
	}
	return entity.Parsed()
}

// prepareFlow turns a static element ID into a new flow node of the process.
//
// The element definition is snapshotted into the flow node, so later flowchart
// edits do not affect the in-flight process.
func prepareFlow(ctx Context, process *ProcessEntity, elementId string, prev *FlowNodeEntity, divergentFlowNodeId string) (*FlowNodeEntity, error) {
	f, err := flowchartOf(ctx, process)
	if err != nil {
		return nil, err
	}

	element, ok := f.Element(elementId)
	if !ok {
		return nil, engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  "failed to prepare flow",
			Detail: fmt.Sprintf("flowchart %s has no element %s", process.FlowchartId, elementId),
		}
	}

	targetType, targetId, err := resolveTarget(ctx, process, element)
	if err != nil {
		return nil, err
	}

	node := FlowNodeEntity{
		Id:          uuid.NewString(),
		ProcessId:   process.Id,
		FlowchartId: process.FlowchartId,

		ElementId:   element.Id,
		ElementType: element.Type,

		DivergentFlowNodeId: divergentFlowNodeId,

		Status: engine.FlowNodeCreated,

		TargetType: targetType,
		TargetId:   targetId,

		Element: element,

		CreatedAt: ctx.Time(),
	}

	if prev != nil {
		node.PreviousFlowNodeId = prev.Id
		node.PreviousFlowNodeElementType = prev.ElementType
	}

	if err := ctx.FlowNodes().Insert(&node); err != nil {
		return nil, err
	}
	return &node, nil
}

// processPreparedFlowNode dispatches a prepared flow node to its element behavior.
// Errors thrown by the behavior are routed through the failure path.
func processPreparedFlowNode(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	b, err := behaviorOf(node.ElementType)
	if err != nil {
		return err
	}

	processable, err := b.IsProcessable(ctx, process, node)
	if err != nil {
		return b.Fail(ctx, process, node, err)
	}
	if !processable {
		return rejectFlowNode(ctx, process, node)
	}

	ctx.Logger().Debug("processing flow node", "id", node.Id, "elementId", node.ElementId, "elementType", node.ElementType)

	if err := b.BeforeProcess(ctx, process, node); err != nil {
		return b.Fail(ctx, process, node, err)
	}

	// a boundary watcher attached in BeforeProcess may have fired immediately
	// and interrupted the node
	fresh, err := ctx.FlowNodes().Select(node.Id)
	if err != nil {
		return err
	}
	*node = *fresh
	if node.Status.IsTerminal() {
		return nil
	}

	if err := b.Process(ctx, process, node); err != nil {
		return b.Fail(ctx, process, node, err)
	}
	return nil
}

// processNextElements prepares and processes one flow node per next element,
// in definition order. Without a next element, the process may end.
func processNextElements(ctx Context, process *ProcessEntity, node *FlowNodeEntity, nextElementIds []string, divergentFlowNodeId string) error {
	if len(nextElementIds) == 0 {
		return tryToEndProcess(ctx, process)
	}

	for i, nextElementId := range nextElementIds {
		if i > 0 {
			// a racing branch may have ended the process meanwhile
			fresh, err := ctx.Processes().Select(process.Id)
			if err != nil {
				return err
			}
			*process = *fresh
		}
		if process.Status != engine.ProcessStarted {
			break
		}

		next, err := prepareFlow(ctx, process, nextElementId, node, divergentFlowNodeId)
		if err != nil {
			return err
		}
		if err := processPreparedFlowNode(ctx, process, next); err != nil {
			return err
		}
	}
	return nil
}

func completeFlowNode(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return completeFlowNodeDivergent(ctx, process, node, node.DivergentFlowNodeId)
}

// completeFlowNodeDivergent terminally stamps the flow node as PROCESSED,
// rejects its pending boundary watchers and advances the flow. The divergent
// flow node ID is propagated to the next flow nodes - a balancing gateway join
// passes its fork's own parent correlation here to un-nest one level.
func completeFlowNodeDivergent(ctx Context, process *ProcessEntity, node *FlowNodeEntity, divergentFlowNodeId string) error {
	return completeFlowNodeTo(ctx, process, node, node.Element.NextElementIds, divergentFlowNodeId)
}

// completeFlowNodeTo is the variant taken by diverging gateways, which advance
// to a chosen subset of their next elements.
func completeFlowNodeTo(ctx Context, process *ProcessEntity, node *FlowNodeEntity, nextElementIds []string, divergentFlowNodeId string) error {
	if node.Status.IsTerminal() {
		return nil
	}

	now := ctx.Time()
	node.Status = engine.FlowNodeProcessed
	node.ProcessedAt = &now
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}

	if err := rejectBoundaryWatchers(ctx, process, node, ""); err != nil {
		return err
	}

	return processNextElements(ctx, process, node, nextElementIds, divergentFlowNodeId)
}

// endProcessFlow ends the flow of a single branch without error. The process
// ends once no active flow node remains.
func endProcessFlow(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if !node.Status.IsTerminal() {
		now := ctx.Time()
		node.Status = engine.FlowNodeProcessed
		node.ProcessedAt = &now
		if err := ctx.FlowNodes().Update(node); err != nil {
			return err
		}
		if err := rejectBoundaryWatchers(ctx, process, node, ""); err != nil {
			return err
		}
	}
	return tryToEndProcess(ctx, process)
}

func tryToEndProcess(ctx Context, process *ProcessEntity) error {
	if process.Status.IsEnded() {
		return nil
	}

	active, err := ctx.FlowNodes().SelectActiveByProcess(process.Id)
	if err != nil {
		return err
	}
	if len(active) != 0 {
		return nil
	}

	return endProcess(ctx, process, engine.ProcessProcessed, "", "")
}

// endProcess moves the process into a terminal status, rejects its remaining
// active flow nodes and resumes a waiting parent process, if any.
func endProcess(ctx Context, process *ProcessEntity, status engine.ProcessStatus, errorCode string, errorMessage string) error {
	if process.Status.IsEnded() {
		return nil
	}

	active, err := ctx.FlowNodes().SelectActiveByProcess(process.Id)
	if err != nil {
		return err
	}
	for _, node := range active {
		if err := rejectFlowNode(ctx, process, node); err != nil {
			return err
		}
	}

	now := ctx.Time()
	process.Status = status
	process.ErrorCode = errorCode
	process.ErrorMessage = errorMessage
	process.EndedAt = &now
	process.ModifiedAt = now
	if err := ctx.Processes().Update(process); err != nil {
		return err
	}

	ctx.Logger().Info("process ended", "id", process.Id, "status", status)

	if onEnd := ctx.Options().OnProcessEnd; onEnd != nil {
		onEnd(process.Process())
	}

	if process.ParentProcessFlowNodeId != "" {
		return resumeParentFlowNode(ctx, process)
	}
	return nil
}

func endProcessWithError(ctx Context, process *ProcessEntity, errorCode string, errorMessage string) error {
	return endProcess(ctx, process, engine.ProcessFailed, errorCode, errorMessage)
}

// rejectFlowNode terminally stamps a flow node as REJECTED and releases its
// external wait state.
func rejectFlowNode(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if node.Status.IsTerminal() {
		return nil
	}

	now := ctx.Time()
	node.Status = engine.FlowNodeRejected
	node.ProcessedAt = &now
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}

	if b, err := behaviorOf(node.ElementType); err == nil {
		return b.CleanupInterrupted(ctx, process, node)
	}
	return nil
}

// rejectBoundaryWatchers rejects all pending boundary watchers attached to a
// flow node - the main path resolved, the watchers are obsolete.
func rejectBoundaryWatchers(ctx Context, process *ProcessEntity, node *FlowNodeEntity, exceptId string) error {
	watchers, err := ctx.FlowNodes().SelectByPrevious(node.Id)
	if err != nil {
		return err
	}

	for _, watcher := range watchers {
		if watcher.Id == exceptId || !watcher.ElementType.IsBoundary() || !watcher.Status.IsActive() {
			continue
		}
		if err := rejectFlowNode(ctx, process, watcher); err != nil {
			return err
		}
	}
	return nil
}

// rejectEventBasedSiblings rejects the racing catch tokens of an event-based
// gateway once one of them fired.
func rejectEventBasedSiblings(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if node.PreviousFlowNodeElementType != flowchart.ElementGatewayEventBased {
		return nil
	}

	siblings, err := ctx.FlowNodes().SelectByPrevious(node.PreviousFlowNodeId)
	if err != nil {
		return err
	}
	for _, sibling := range siblings {
		if sibling.Id == node.Id || !sibling.Status.IsActive() {
			continue
		}
		if err := rejectFlowNode(ctx, process, sibling); err != nil {
			return err
		}
	}
	return nil
}

// interruptFlowNodeExcept terminally stamps a flow node as INTERRUPTED, runs
// its behavior's cleanup and rejects its boundary watchers, except the given
// one. Interrupting an already-terminal flow node is a no-op.
func interruptFlowNodeExcept(ctx Context, process *ProcessEntity, node *FlowNodeEntity, exceptWatcherId string) error {
	if node.Status.IsTerminal() {
		return nil
	}

	now := ctx.Time()
	node.Status = engine.FlowNodeInterrupted
	node.ProcessedAt = &now
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}

	b, err := behaviorOf(node.ElementType)
	if err != nil {
		return err
	}
	if err := b.CleanupInterrupted(ctx, process, node); err != nil {
		return err
	}

	return rejectBoundaryWatchers(ctx, process, node, exceptWatcherId)
}

func interruptFlowNode(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return interruptFlowNodeExcept(ctx, process, node, "")
}

// interruptActivityByBoundary cancels the running activity an interrupting
// boundary event is attached to.
func interruptActivityByBoundary(ctx Context, process *ProcessEntity, boundary *FlowNodeEntity) error {
	if boundary.PreviousFlowNodeId == "" {
		return nil
	}

	activity, err := ctx.FlowNodes().Select(boundary.PreviousFlowNodeId)
	if err != nil {
		return err
	}
	if activity.Status.IsTerminal() {
		return nil
	}

	ctx.Logger().Debug("interrupting activity", "id", activity.Id, "boundaryId", boundary.Id)

	return interruptFlowNodeExcept(ctx, process, activity, boundary.Id)
}

// setFailedWithError terminally stamps a flow node as FAILED and routes the
// error: a matching error boundary watcher catches it and continues the flow,
// otherwise the process ends with the error recorded.
func setFailedWithError(ctx Context, process *ProcessEntity, node *FlowNodeEntity, cause error) error {
	errorCode, errorMessage := errorCodeOf(cause)

	ctx.Logger().Error("flow node failed", "id", node.Id, "elementId", node.ElementId, "error", cause)

	watchers, err := ctx.FlowNodes().SelectByPrevious(node.Id)
	if err != nil {
		return err
	}

	// prefer an exact error code match, fall back to a catch-all watcher
	var catchNode *FlowNodeEntity
	for _, watcher := range watchers {
		if watcher.ElementType != flowchart.ElementEventBoundaryError || !watcher.Status.IsActive() {
			continue
		}
		if watcher.Element.ErrorCode == errorCode {
			catchNode = watcher
			break
		}
		if watcher.Element.ErrorCode == "" && catchNode == nil {
			catchNode = watcher
		}
	}

	if !node.Status.IsTerminal() {
		now := ctx.Time()
		node.Status = engine.FlowNodeFailed
		node.ProcessedAt = &now
		node.Data.ErrorCode = errorCode
		node.Data.ErrorMessage = errorMessage
		if err := ctx.FlowNodes().Update(node); err != nil {
			return err
		}
	}

	exceptId := ""
	if catchNode != nil {
		exceptId = catchNode.Id
	}
	if err := rejectBoundaryWatchers(ctx, process, node, exceptId); err != nil {
		return err
	}

	if catchNode != nil {
		catchNode.Data.ErrorCode = errorCode
		catchNode.Data.ErrorMessage = errorMessage
		if err := ctx.FlowNodes().Update(catchNode); err != nil {
			return err
		}
		return completeFlowNode(ctx, process, catchNode)
	}

	return endProcessWithError(ctx, process, errorCode, errorMessage)
}

func errorCodeOf(cause error) (string, string) {
	var processErr engine.ProcessError
	if errors.As(cause, &processErr) {
		return processErr.Code, processErr.Message
	}

	var evalErr engine.EvaluationError
	if errors.As(cause, &evalErr) {
		return "EVALUATION", evalErr.Error()
	}

	var engineErr engine.Error
	if errors.As(cause, &engineErr) {
		return engineErr.Type.String(), engineErr.Detail
	}

	return "SYSTEM", cause.Error()
}

// cloneWatcher re-attaches a non-interrupting boundary watcher after it fired,
// so the watch continues. A conditional watcher alternates: the clone watches
// for the opposite outcome.
func cloneWatcher(ctx Context, process *ProcessEntity, node *FlowNodeEntity, opposite bool) error {
	clone := FlowNodeEntity{
		Id:          uuid.NewString(),
		ProcessId:   node.ProcessId,
		FlowchartId: node.FlowchartId,

		ElementId:   node.ElementId,
		ElementType: node.ElementType,

		PreviousFlowNodeId:          node.PreviousFlowNodeId,
		PreviousFlowNodeElementType: node.PreviousFlowNodeElementType,

		DivergentFlowNodeId: node.DivergentFlowNodeId,

		Status: engine.FlowNodeCreated,

		TargetType: node.TargetType,
		TargetId:   node.TargetId,

		Element: node.Element,

		CreatedAt: ctx.Time(),
	}

	if opposite {
		clone.Data.IsOpposite = !node.Data.IsOpposite
	}

	if err := ctx.FlowNodes().Insert(&clone); err != nil {
		return err
	}
	return processPreparedFlowNode(ctx, process, &clone)
}

// resumeParentFlowNode continues the parent process once a child process ended.
// The parent's spawning flow node completes, fails or interrupts according to
// the child's terminal status.
func resumeParentFlowNode(ctx Context, child *ProcessEntity) error {
	parent, err := ctx.Processes().Select(child.ParentProcessId)
	if err != nil {
		return err
	}
	if parent.Status.IsEnded() {
		return nil
	}

	node, err := ctx.FlowNodes().Select(child.ParentProcessFlowNodeId)
	if err != nil {
		return err
	}
	if node.Status.IsTerminal() {
		return nil
	}

	switch child.Status {
	case engine.ProcessFailed:
		return setFailedWithError(ctx, parent, node, engine.ProcessError{Code: child.ErrorCode, Message: child.ErrorMessage})
	case engine.ProcessProcessed:
		mergeSubProcessResult(parent, node.Element, child)
		parent.ModifiedAt = ctx.Time()
		if err := ctx.Processes().Update(parent); err != nil {
			return err
		}
		return completeFlowNode(ctx, parent, node)
	default:
		// child was stopped or interrupted
		if err := interruptFlowNode(ctx, parent, node); err != nil {
			return err
		}
		return tryToEndProcess(ctx, parent)
	}
}

// mergeSubProcessResult merges a completed child process's state back into the
// parent. An isolated sub process only returns the variables it lists.
func mergeSubProcessResult(parent *ProcessEntity, element flowchart.Element, child *ProcessEntity) {
	if element.IsolateVariables {
		for _, name := range element.ReturnVariableList {
			if value, ok := child.Variables[name]; ok {
				parent.SetVariables(map[string]any{name: value})
			}
		}
	} else {
		parent.SetVariables(child.Variables)
	}

	parent.AddCreatedEntities(child.CreatedEntitiesData)
}
