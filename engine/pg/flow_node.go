package pg

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
	"github.com/monostax/bpmflow/flowchart"
)

type flowNodeRepository struct {
	c *pgContext
}

const flowNodeColumns = `
	id,
	process_id,
	flowchart_id,
	element_id,
	element_type,
	previous_flow_node_id,
	previous_flow_node_element_type,
	divergent_flow_node_id,
	status,
	target_type,
	target_id,
	element,
	data,
	created_at,
	processed_at
`

func (r *flowNodeRepository) Insert(entity *internal.FlowNodeEntity) error {
	element, data, err := marshalFlowNodeData(entity)
	if err != nil {
		return err
	}

	_, err = r.c.tx.Exec(r.c.txCtx, `
INSERT INTO flow_node (`+flowNodeColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`,
		entity.Id,
		entity.ProcessId,
		entity.FlowchartId,
		entity.ElementId,
		int16(entity.ElementType),
		entity.PreviousFlowNodeId,
		int16(entity.PreviousFlowNodeElementType),
		entity.DivergentFlowNodeId,
		int16(entity.Status),
		entity.TargetType,
		entity.TargetId,
		element,
		data,
		entity.CreatedAt,
		entity.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert flow node %s: %v", entity.Id, err)
	}
	return nil
}

func (r *flowNodeRepository) Select(id string) (*internal.FlowNodeEntity, error) {
	row := r.c.tx.QueryRow(r.c.txCtx, `
SELECT `+flowNodeColumns+`
FROM flow_node
WHERE id = $1
`, id)

	entity, err := scanFlowNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engine.Error{
				Type:   engine.ErrorNotFound,
				Title:  "failed to select flow node",
				Detail: fmt.Sprintf("flow node %s could not be found", id),
			}
		}
		return nil, err
	}
	return entity, nil
}

func (r *flowNodeRepository) Update(entity *internal.FlowNodeEntity) error {
	_, data, err := marshalFlowNodeData(entity)
	if err != nil {
		return err
	}

	_, err = r.c.tx.Exec(r.c.txCtx, `
UPDATE flow_node
SET
	divergent_flow_node_id = $2,
	status = $3,
	data = $4,
	processed_at = $5
WHERE id = $1
`,
		entity.Id,
		entity.DivergentFlowNodeId,
		int16(entity.Status),
		data,
		entity.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update flow node %s: %v", entity.Id, err)
	}
	return nil
}

func (r *flowNodeRepository) SelectActiveByProcess(processId string) ([]*internal.FlowNodeEntity, error) {
	return r.selectMany(`
SELECT `+flowNodeColumns+`
FROM flow_node
WHERE process_id = $1 AND status = ANY($2)
ORDER BY created_at, id
`, processId, activeStatuses())
}

func (r *flowNodeRepository) SelectByPrevious(previousFlowNodeId string) ([]*internal.FlowNodeEntity, error) {
	return r.selectMany(`
SELECT `+flowNodeColumns+`
FROM flow_node
WHERE previous_flow_node_id = $1
ORDER BY created_at, id
`, previousFlowNodeId)
}

func (r *flowNodeRepository) CountJoinArrivals(processId string, elementId string, divergentFlowNodeId string) (int, error) {
	row := r.c.tx.QueryRow(r.c.txCtx, `
SELECT COUNT(*)
FROM flow_node
WHERE process_id = $1 AND element_id = $2 AND divergent_flow_node_id = $3
`, processId, elementId, divergentFlowNodeId)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *flowNodeRepository) SelectDue(now time.Time, processId string, limit int) ([]*internal.FlowNodeEntity, error) {
	timerTypes := []int16{
		int16(flowchart.ElementEventIntermediateTimerCatch),
		int16(flowchart.ElementEventBoundaryTimer),
	}
	pollTypes := []int16{
		int16(flowchart.ElementEventIntermediateMessageCatch),
		int16(flowchart.ElementEventBoundaryMessage),
		int16(flowchart.ElementEventIntermediateConditionalCatch),
		int16(flowchart.ElementEventBoundaryConditional),
	}

	return r.selectMany(`
SELECT `+flowNodeColumns+`
FROM flow_node
WHERE status = $1
	AND ($2 = '' OR process_id = $2)
	AND (
		(element_type = ANY($3) AND (data->>'proceedAt') IS NOT NULL AND (data->>'proceedAt')::timestamptz <= $4::timestamptz)
		OR element_type = ANY($5)
	)
ORDER BY created_at, id
LIMIT $6
`, int16(engine.FlowNodePending), processId, timerTypes, now, pollTypes, limit)
}

func (r *flowNodeRepository) Query(criteria engine.FlowNodeCriteria, options engine.QueryOptions) ([]engine.FlowNode, error) {
	var (
		conditions []string
		args       []any
	)

	addCondition := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if criteria.Id != "" {
		addCondition("id", criteria.Id)
	}
	if criteria.ProcessId != "" {
		addCondition("process_id", criteria.ProcessId)
	}
	if criteria.ElementId != "" {
		addCondition("element_id", criteria.ElementId)
	}
	if len(criteria.ElementTypes) != 0 {
		elementTypes := make([]int16, len(criteria.ElementTypes))
		for i, elementType := range criteria.ElementTypes {
			elementTypes[i] = int16(elementType)
		}
		args = append(args, elementTypes)
		conditions = append(conditions, fmt.Sprintf("element_type = ANY($%d)", len(args)))
	}
	if len(criteria.Statuses) != 0 {
		statuses := make([]int16, len(criteria.Statuses))
		for i, status := range criteria.Statuses {
			statuses[i] = int16(status)
		}
		args = append(args, statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	sql := `SELECT ` + flowNodeColumns + ` FROM flow_node`
	if len(conditions) != 0 {
		sql += " WHERE " + strings.Join(conditions, " AND ")
	}
	sql += " ORDER BY created_at, id"

	args = append(args, options.Limit)
	sql += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, options.Offset)
	sql += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.c.tx.Query(r.c.txCtx, sql, args...)
	if err != nil {
		return nil, engine.Error{
			Type:   engine.ErrorQuery,
			Title:  "failed to query flow nodes",
			Detail: err.Error(),
		}
	}
	defer rows.Close()

	var results []engine.FlowNode
	for rows.Next() {
		entity, err := scanFlowNode(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity.FlowNode())
	}
	return results, rows.Err()
}

func (r *flowNodeRepository) selectMany(sql string, args ...any) ([]*internal.FlowNodeEntity, error) {
	rows, err := r.c.tx.Query(r.c.txCtx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*internal.FlowNodeEntity
	for rows.Next() {
		entity, err := scanFlowNode(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func activeStatuses() []int16 {
	return []int16{
		int16(engine.FlowNodeCreated),
		int16(engine.FlowNodePending),
		int16(engine.FlowNodeInProcess),
	}
}

func marshalFlowNodeData(entity *internal.FlowNodeEntity) ([]byte, []byte, error) {
	element, err := json.Marshal(entity.Element)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal element of flow node %s: %v", entity.Id, err)
	}
	data, err := json.Marshal(entity.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal data of flow node %s: %v", entity.Id, err)
	}
	return element, data, nil
}

func scanFlowNode(row pgx.Row) (*internal.FlowNodeEntity, error) {
	var (
		entity internal.FlowNodeEntity

		elementType         int16
		previousElementType int16
		status              int16
		element             []byte
		data                []byte
	)

	if err := row.Scan(
		&entity.Id,
		&entity.ProcessId,
		&entity.FlowchartId,
		&entity.ElementId,
		&elementType,
		&entity.PreviousFlowNodeId,
		&previousElementType,
		&entity.DivergentFlowNodeId,
		&status,
		&entity.TargetType,
		&entity.TargetId,
		&element,
		&data,
		&entity.CreatedAt,
		&entity.ProcessedAt,
	); err != nil {
		return nil, err
	}

	entity.ElementType = flowchart.ElementType(elementType)
	entity.PreviousFlowNodeElementType = flowchart.ElementType(previousElementType)
	entity.Status = engine.FlowNodeStatus(status)

	if err := json.Unmarshal(element, &entity.Element); err != nil {
		return nil, fmt.Errorf("failed to unmarshal element of flow node %s: %v", entity.Id, err)
	}
	if err := json.Unmarshal(data, &entity.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data of flow node %s: %v", entity.Id, err)
	}
	return &entity, nil
}
