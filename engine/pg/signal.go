package pg

import (
	"fmt"

	"github.com/monostax/bpmflow/engine/internal"
)

type signalSubscriptionRepository struct {
	c *pgContext
}

func (r *signalSubscriptionRepository) Insert(entity *internal.SignalSubscriptionEntity) error {
	_, err := r.c.tx.Exec(r.c.txCtx, `
INSERT INTO signal_subscription (id, signal_name, flow_node_id, process_id, created_at)
VALUES ($1, $2, $3, $4, $5)
`,
		entity.Id,
		entity.SignalName,
		entity.FlowNodeId,
		entity.ProcessId,
		entity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal subscription %s: %v", entity.Id, err)
	}
	return nil
}

func (r *signalSubscriptionRepository) SelectByName(signalName string) ([]*internal.SignalSubscriptionEntity, error) {
	rows, err := r.c.tx.Query(r.c.txCtx, `
SELECT id, signal_name, flow_node_id, process_id, created_at
FROM signal_subscription
WHERE signal_name = $1
ORDER BY created_at, id
`, signalName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*internal.SignalSubscriptionEntity
	for rows.Next() {
		var entity internal.SignalSubscriptionEntity
		if err := rows.Scan(&entity.Id, &entity.SignalName, &entity.FlowNodeId, &entity.ProcessId, &entity.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &entity)
	}
	return results, rows.Err()
}

func (r *signalSubscriptionRepository) DeleteByFlowNode(flowNodeId string) error {
	_, err := r.c.tx.Exec(r.c.txCtx, `
DELETE FROM signal_subscription
WHERE flow_node_id = $1
`, flowNodeId)
	if err != nil {
		return fmt.Errorf("failed to delete signal subscriptions of flow node %s: %v", flowNodeId, err)
	}
	return nil
}
