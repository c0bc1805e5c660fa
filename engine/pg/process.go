package pg

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
)

type processRepository struct {
	c *pgContext
}

const processColumns = `
	id,
	flowchart_id,
	target_type,
	target_id,
	parent_process_id,
	parent_process_flow_node_id,
	root_process_id,
	status,
	variables,
	created_entities,
	assigned_user_id,
	team_ids,
	error_code,
	error_message,
	created_at,
	modified_at,
	ended_at
`

func (r *processRepository) Insert(entity *internal.ProcessEntity) error {
	variables, createdEntities, err := marshalProcessData(entity)
	if err != nil {
		return err
	}

	_, err = r.c.tx.Exec(r.c.txCtx, `
INSERT INTO process (`+processColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`,
		entity.Id,
		entity.FlowchartId,
		entity.TargetType,
		entity.TargetId,
		entity.ParentProcessId,
		entity.ParentProcessFlowNodeId,
		entity.RootProcessId,
		int16(entity.Status),
		variables,
		createdEntities,
		entity.AssignedUserId,
		entity.TeamIds,
		entity.ErrorCode,
		entity.ErrorMessage,
		entity.CreatedAt,
		entity.ModifiedAt,
		entity.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert process %s: %v", entity.Id, err)
	}
	return nil
}

func (r *processRepository) Select(id string) (*internal.ProcessEntity, error) {
	row := r.c.tx.QueryRow(r.c.txCtx, `
SELECT `+processColumns+`
FROM process
WHERE id = $1
`, id)

	entity, err := scanProcess(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engine.Error{
				Type:   engine.ErrorNotFound,
				Title:  "failed to select process",
				Detail: fmt.Sprintf("process %s could not be found", id),
			}
		}
		return nil, err
	}
	return entity, nil
}

func (r *processRepository) Update(entity *internal.ProcessEntity) error {
	variables, createdEntities, err := marshalProcessData(entity)
	if err != nil {
		return err
	}

	_, err = r.c.tx.Exec(r.c.txCtx, `
UPDATE process
SET
	status = $2,
	variables = $3,
	created_entities = $4,
	error_code = $5,
	error_message = $6,
	modified_at = $7,
	ended_at = $8
WHERE id = $1
`,
		entity.Id,
		int16(entity.Status),
		variables,
		createdEntities,
		entity.ErrorCode,
		entity.ErrorMessage,
		entity.ModifiedAt,
		entity.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update process %s: %v", entity.Id, err)
	}
	return nil
}

func (r *processRepository) Query(criteria engine.ProcessCriteria, options engine.QueryOptions) ([]engine.Process, error) {
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
	if criteria.FlowchartId != "" {
		addCondition("flowchart_id", criteria.FlowchartId)
	}
	if criteria.TargetType != "" {
		addCondition("target_type", criteria.TargetType)
	}
	if criteria.TargetId != "" {
		addCondition("target_id", criteria.TargetId)
	}
	if criteria.ParentProcessId != "" {
		addCondition("parent_process_id", criteria.ParentProcessId)
	}
	if len(criteria.Statuses) != 0 {
		statuses := make([]int16, len(criteria.Statuses))
		for i, status := range criteria.Statuses {
			statuses[i] = int16(status)
		}
		args = append(args, statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	sql := `SELECT ` + processColumns + ` FROM process`
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
			Title:  "failed to query processes",
			Detail: err.Error(),
		}
	}
	defer rows.Close()

	var results []engine.Process
	for rows.Next() {
		entity, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity.Process())
	}
	return results, rows.Err()
}

func marshalProcessData(entity *internal.ProcessEntity) ([]byte, []byte, error) {
	var (
		variables       []byte
		createdEntities []byte
		err             error
	)

	if entity.Variables != nil {
		if variables, err = json.Marshal(entity.Variables); err != nil {
			return nil, nil, fmt.Errorf("failed to marshal variables of process %s: %v", entity.Id, err)
		}
	}
	if entity.CreatedEntitiesData != nil {
		if createdEntities, err = json.Marshal(entity.CreatedEntitiesData); err != nil {
			return nil, nil, fmt.Errorf("failed to marshal created entities of process %s: %v", entity.Id, err)
		}
	}
	return variables, createdEntities, nil
}

func scanProcess(row pgx.Row) (*internal.ProcessEntity, error) {
	var (
		entity internal.ProcessEntity

		status          int16
		variables       []byte
		createdEntities []byte
	)

	if err := row.Scan(
		&entity.Id,
		&entity.FlowchartId,
		&entity.TargetType,
		&entity.TargetId,
		&entity.ParentProcessId,
		&entity.ParentProcessFlowNodeId,
		&entity.RootProcessId,
		&status,
		&variables,
		&createdEntities,
		&entity.AssignedUserId,
		&entity.TeamIds,
		&entity.ErrorCode,
		&entity.ErrorMessage,
		&entity.CreatedAt,
		&entity.ModifiedAt,
		&entity.EndedAt,
	); err != nil {
		return nil, err
	}

	entity.Status = engine.ProcessStatus(status)

	if variables != nil {
		if err := json.Unmarshal(variables, &entity.Variables); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variables of process %s: %v", entity.Id, err)
		}
	}
	if createdEntities != nil {
		if err := json.Unmarshal(createdEntities, &entity.CreatedEntitiesData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal created entities of process %s: %v", entity.Id, err)
		}
	}
	return &entity, nil
}
