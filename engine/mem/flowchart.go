package mem

import (
	"fmt"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
)

type flowchartRepository struct {
	entities []*internal.FlowchartEntity
}

func (r *flowchartRepository) Insert(entity *internal.FlowchartEntity) error {
	for _, e := range r.entities {
		if e.Id == entity.Id {
			return engine.Error{
				Type:   engine.ErrorConflict,
				Title:  "failed to insert flowchart",
				Detail: fmt.Sprintf("flowchart %s already exists", entity.Id),
			}
		}
	}

	r.entities = append(r.entities, entity)
	return nil
}

// Select returns the stored entity. Definitions are immutable, so sharing the
// pointer keeps the parse cache warm.
func (r *flowchartRepository) Select(id string) (*internal.FlowchartEntity, error) {
	for _, e := range r.entities {
		if e.Id == id {
			return e, nil
		}
	}

	return nil, engine.Error{
		Type:   engine.ErrorNotFound,
		Title:  "failed to select flowchart",
		Detail: fmt.Sprintf("flowchart %s could not be found", id),
	}
}
