package internal

import (
	"fmt"

	"github.com/monostax/bpmflow/engine"
)

// activityBehavior is the common lifecycle of activities: boundary watchers are
// attached before the activity itself is processed, so an immediately firing
// watcher can still interrupt it.
type activityBehavior struct {
	defaultBehavior
}

func (activityBehavior) BeforeProcess(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return attachBoundaryWatchers(ctx, process, node)
}

// attachBoundaryWatchers creates one watcher flow node per boundary event
// attached to the activity element. Each watcher references the activity as its
// previous flow node.
func attachBoundaryWatchers(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	f, err := flowchartOf(ctx, process)
	if err != nil {
		return err
	}

	for _, boundary := range f.BoundaryElements(node.ElementId) {
		watcher, err := prepareFlow(ctx, process, boundary.Id, node, node.DivergentFlowNodeId)
		if err != nil {
			return err
		}
		if err := processPreparedFlowNode(ctx, process, watcher); err != nil {
			return err
		}
	}
	return nil
}

// taskBehavior runs the element's action list through the application's action
// executor and merges the resulting state mutations into the process. A task
// without actions passes through.
type taskBehavior struct {
	activityBehavior
}

func (taskBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if len(node.Element.ActionDefs) != 0 {
		actions := ctx.Options().Actions
		if actions == nil {
			return engine.Error{
				Type:   engine.ErrorProcessModel,
				Title:  "failed to process task",
				Detail: fmt.Sprintf("element %s has actions, but no action executor is configured", node.ElementId),
			}
		}

		target, err := loadTarget(ctx, node)
		if err != nil {
			return err
		}

		result, err := actions.Execute(ctx.Ctx(), engine.ActionRequest{
			ProcessId:  process.Id,
			FlowNodeId: node.Id,

			ActionDefs: node.Element.ActionDefs,
			Target:     target,
			Variables:  process.Variables,
		})
		if err != nil {
			return err
		}

		if len(result.Variables) != 0 || len(result.CreatedEntities) != 0 {
			process.SetVariables(result.Variables)
			process.AddCreatedEntities(result.CreatedEntities)
			process.ModifiedAt = ctx.Time()
			if err := ctx.Processes().Update(process); err != nil {
				return err
			}
		}
	}

	return completeFlowNode(ctx, process, node)
}

// scriptTaskBehavior evaluates the element's script as formula expression and
// optionally stores the result in a process variable.
type scriptTaskBehavior struct {
	activityBehavior
}

func (scriptTaskBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	if node.Element.Script != "" {
		v, err := evaluateFormula(ctx, process, node, node.Element.Script)
		if err != nil {
			return err
		}

		if node.Element.ResultVariable != "" {
			process.SetVariables(map[string]any{node.Element.ResultVariable: v})
			process.ModifiedAt = ctx.Time()
			if err := ctx.Processes().Update(process); err != nil {
				return err
			}
		}
	}

	return completeFlowNode(ctx, process, node)
}

// userTaskBehavior creates a user task through the action executor and waits
// for its resolution via Engine.CompleteUserTask.
type userTaskBehavior struct {
	activityBehavior
}

func (userTaskBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	actions := ctx.Options().Actions
	if actions == nil {
		return engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  "failed to process user task",
			Detail: fmt.Sprintf("element %s requires an action executor", node.ElementId),
		}
	}

	target, err := loadTarget(ctx, node)
	if err != nil {
		return err
	}

	userTaskId, err := actions.CreateUserTask(ctx.Ctx(), engine.UserTaskRequest{
		ProcessId:  process.Id,
		FlowNodeId: node.Id,

		ActionDefs:     node.Element.ActionDefs,
		Target:         target,
		AssignedUserId: process.AssignedUserId,
		TeamIds:        process.TeamIds,
	})
	if err != nil {
		return err
	}

	node.Status = engine.FlowNodePending
	node.Data.UserTaskId = userTaskId
	return ctx.FlowNodes().Update(node)
}
