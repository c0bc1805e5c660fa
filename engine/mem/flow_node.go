package mem

import (
	"fmt"
	"slices"
	"time"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
	"github.com/monostax/bpmflow/flowchart"
)

type flowNodeRepository struct {
	entities []internal.FlowNodeEntity
}

func (r *flowNodeRepository) Insert(entity *internal.FlowNodeEntity) error {
	if r.indexOf(entity.Id) != -1 {
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to insert flow node",
			Detail: fmt.Sprintf("flow node %s already exists", entity.Id),
		}
	}

	r.entities = append(r.entities, *entity)
	return nil
}

func (r *flowNodeRepository) Select(id string) (*internal.FlowNodeEntity, error) {
	i := r.indexOf(id)
	if i == -1 {
		return nil, engine.Error{
			Type:   engine.ErrorNotFound,
			Title:  "failed to select flow node",
			Detail: fmt.Sprintf("flow node %s could not be found", id),
		}
	}

	entity := r.entities[i]
	return &entity, nil
}

func (r *flowNodeRepository) Update(entity *internal.FlowNodeEntity) error {
	i := r.indexOf(entity.Id)
	if i == -1 {
		return engine.Error{
			Type:   engine.ErrorNotFound,
			Title:  "failed to update flow node",
			Detail: fmt.Sprintf("flow node %s could not be found", entity.Id),
		}
	}

	r.entities[i] = *entity
	return nil
}

func (r *flowNodeRepository) SelectActiveByProcess(processId string) ([]*internal.FlowNodeEntity, error) {
	var results []*internal.FlowNodeEntity
	for i := range r.entities {
		if r.entities[i].ProcessId != processId || !r.entities[i].Status.IsActive() {
			continue
		}

		entity := r.entities[i]
		results = append(results, &entity)
	}
	return results, nil
}

func (r *flowNodeRepository) SelectByPrevious(previousFlowNodeId string) ([]*internal.FlowNodeEntity, error) {
	var results []*internal.FlowNodeEntity
	for i := range r.entities {
		if r.entities[i].PreviousFlowNodeId != previousFlowNodeId {
			continue
		}

		entity := r.entities[i]
		results = append(results, &entity)
	}
	return results, nil
}

func (r *flowNodeRepository) CountJoinArrivals(processId string, elementId string, divergentFlowNodeId string) (int, error) {
	count := 0
	for i := range r.entities {
		entity := &r.entities[i]
		if entity.ProcessId == processId && entity.ElementId == elementId && entity.DivergentFlowNodeId == divergentFlowNodeId {
			count++
		}
	}
	return count, nil
}

func (r *flowNodeRepository) SelectDue(now time.Time, processId string, limit int) ([]*internal.FlowNodeEntity, error) {
	var results []*internal.FlowNodeEntity
	for i := range r.entities {
		entity := &r.entities[i]
		if processId != "" && entity.ProcessId != processId {
			continue
		}
		if !isDue(entity, now) {
			continue
		}

		due := r.entities[i]
		results = append(results, &due)
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results, nil
}

// isDue determines if a pending flow node must be re-entered: an elapsed timer
// or a polling message or conditional event, which is checked on every tick.
func isDue(entity *internal.FlowNodeEntity, now time.Time) bool {
	if entity.Status != engine.FlowNodePending {
		return false
	}

	switch entity.ElementType {
	case flowchart.ElementEventIntermediateTimerCatch, flowchart.ElementEventBoundaryTimer:
		return entity.Data.ProceedAt != nil && !now.Before(*entity.Data.ProceedAt)
	case
		flowchart.ElementEventIntermediateMessageCatch,
		flowchart.ElementEventBoundaryMessage,
		flowchart.ElementEventIntermediateConditionalCatch,
		flowchart.ElementEventBoundaryConditional:
		return true
	default:
		return false
	}
}

func (r *flowNodeRepository) Query(criteria engine.FlowNodeCriteria, options engine.QueryOptions) ([]engine.FlowNode, error) {
	var results []engine.FlowNode

	skipped := 0
	for i := range r.entities {
		entity := &r.entities[i]
		if !matchesFlowNodeCriteria(entity, criteria) {
			continue
		}
		if skipped < options.Offset {
			skipped++
			continue
		}

		results = append(results, entity.FlowNode())
		if options.Limit > 0 && len(results) == options.Limit {
			break
		}
	}

	return results, nil
}

func (r *flowNodeRepository) indexOf(id string) int {
	for i := range r.entities {
		if r.entities[i].Id == id {
			return i
		}
	}
	return -1
}

func matchesFlowNodeCriteria(entity *internal.FlowNodeEntity, criteria engine.FlowNodeCriteria) bool {
	if criteria.Id != "" && entity.Id != criteria.Id {
		return false
	}
	if criteria.ProcessId != "" && entity.ProcessId != criteria.ProcessId {
		return false
	}
	if criteria.ElementId != "" && entity.ElementId != criteria.ElementId {
		return false
	}
	if len(criteria.ElementTypes) != 0 && !slices.Contains(criteria.ElementTypes, entity.ElementType) {
		return false
	}
	if len(criteria.Statuses) != 0 && !slices.Contains(criteria.Statuses, entity.Status) {
		return false
	}
	return true
}
