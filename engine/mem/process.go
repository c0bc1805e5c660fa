package mem

import (
	"fmt"
	"slices"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
)

type processRepository struct {
	entities []internal.ProcessEntity
}

func (r *processRepository) Insert(entity *internal.ProcessEntity) error {
	if r.indexOf(entity.Id) != -1 {
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to insert process",
			Detail: fmt.Sprintf("process %s already exists", entity.Id),
		}
	}

	r.entities = append(r.entities, *entity)
	return nil
}

func (r *processRepository) Select(id string) (*internal.ProcessEntity, error) {
	i := r.indexOf(id)
	if i == -1 {
		return nil, engine.Error{
			Type:   engine.ErrorNotFound,
			Title:  "failed to select process",
			Detail: fmt.Sprintf("process %s could not be found", id),
		}
	}

	entity := r.entities[i]
	return &entity, nil
}

func (r *processRepository) Update(entity *internal.ProcessEntity) error {
	i := r.indexOf(entity.Id)
	if i == -1 {
		return engine.Error{
			Type:   engine.ErrorNotFound,
			Title:  "failed to update process",
			Detail: fmt.Sprintf("process %s could not be found", entity.Id),
		}
	}

	r.entities[i] = *entity
	return nil
}

func (r *processRepository) Query(criteria engine.ProcessCriteria, options engine.QueryOptions) ([]engine.Process, error) {
	var results []engine.Process

	skipped := 0
	for i := range r.entities {
		entity := &r.entities[i]
		if !matchesProcessCriteria(entity, criteria) {
			continue
		}
		if skipped < options.Offset {
			skipped++
			continue
		}

		results = append(results, entity.Process())
		if options.Limit > 0 && len(results) == options.Limit {
			break
		}
	}

	return results, nil
}

func (r *processRepository) indexOf(id string) int {
	for i := range r.entities {
		if r.entities[i].Id == id {
			return i
		}
	}
	return -1
}

func matchesProcessCriteria(entity *internal.ProcessEntity, criteria engine.ProcessCriteria) bool {
	if criteria.Id != "" && entity.Id != criteria.Id {
		return false
	}
	if criteria.FlowchartId != "" && entity.FlowchartId != criteria.FlowchartId {
		return false
	}
	if criteria.TargetType != "" && entity.TargetType != criteria.TargetType {
		return false
	}
	if criteria.TargetId != "" && entity.TargetId != criteria.TargetId {
		return false
	}
	if criteria.ParentProcessId != "" && entity.ParentProcessId != criteria.ParentProcessId {
		return false
	}
	if len(criteria.Statuses) != 0 && !slices.Contains(criteria.Statuses, entity.Status) {
		return false
	}
	return true
}
