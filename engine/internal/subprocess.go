package internal

import (
	"maps"

	"github.com/google/uuid"
	"github.com/monostax/bpmflow/engine"
)

// subProcessBehavior spawns a child process executing the referenced flowchart
// and waits for it to end. The child inherits the flow node's target, the
// parent's ownership and a copy of the parent's variables.
//
// An ended child resumes the parent through its spawning flow node: a processed
// child merges its variables back (all of them, or only the listed ones when
// isolated), a failed child propagates its error through the parent's error
// boundary routing.
type subProcessBehavior struct {
	activityBehavior
}

func (subProcessBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if node.Element.SubFlowchartId == "" {
		return engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  "failed to process sub process",
			Detail: "element references no flowchart",
			Causes: []engine.ErrorCause{{ElementId: node.ElementId, Type: "element"}},
		}
	}

	node.Status = engine.FlowNodeInProcess
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}

	rootProcessId := process.RootProcessId
	if rootProcessId == "" {
		rootProcessId = process.Id
	}

	now := ctx.Time()
	child := ProcessEntity{
		Id:          uuid.NewString(),
		FlowchartId: node.Element.SubFlowchartId,

		TargetType: node.TargetType,
		TargetId:   node.TargetId,

		ParentProcessId:         process.Id,
		ParentProcessFlowNodeId: node.Id,
		RootProcessId:           rootProcessId,

		Status: engine.ProcessStarted,

		Variables:           maps.Clone(process.Variables),
		CreatedEntitiesData: maps.Clone(process.CreatedEntitiesData),

		AssignedUserId: process.AssignedUserId,
		TeamIds:        process.TeamIds,

		CreatedAt:  now,
		ModifiedAt: now,
	}

	if err := ctx.Processes().Insert(&child); err != nil {
		return err
	}

	node.Data.SubProcessId = child.Id
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}

	ctx.Logger().Debug("sub process started", "id", child.Id, "parentId", process.Id, "flowNodeId", node.Id)

	// the child runs synchronously until every flow waits or it ended;
	// an ended child resumes the parent flow node in the same call
	return startProcessFlow(ctx, &child, "")
}

// CleanupInterrupted stops a still-running child process. The spawning flow
// node is already terminal at this point, so the child's end does not resume
// the parent flow.
func (subProcessBehavior) CleanupInterrupted(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if node.Data.SubProcessId == "" {
		return nil
	}

	child, err := ctx.Processes().Select(node.Data.SubProcessId)
	if err != nil {
		return err
	}
	if child.Status.IsEnded() {
		return nil
	}

	return stopProcess(ctx, child, engine.ProcessInterrupted)
}
