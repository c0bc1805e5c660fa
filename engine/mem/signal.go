package mem

import (
	"github.com/monostax/bpmflow/engine/internal"
)

type signalSubscriptionRepository struct {
	entities []internal.SignalSubscriptionEntity
}

func (r *signalSubscriptionRepository) Insert(entity *internal.SignalSubscriptionEntity) error {
	r.entities = append(r.entities, *entity)
	return nil
}

func (r *signalSubscriptionRepository) SelectByName(signalName string) ([]*internal.SignalSubscriptionEntity, error) {
	var results []*internal.SignalSubscriptionEntity
	for i := range r.entities {
		if r.entities[i].SignalName != signalName {
			continue
		}

		entity := r.entities[i]
		results = append(results, &entity)
	}
	return results, nil
}

func (r *signalSubscriptionRepository) DeleteByFlowNode(flowNodeId string) error {
	entities := r.entities[:0]
	for i := range r.entities {
		if r.entities[i].FlowNodeId != flowNodeId {
			entities = append(entities, r.entities[i])
		}
	}
	r.entities = entities
	return nil
}
