package pg

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
)

type flowchartRepository struct {
	c *pgContext
}

func (r *flowchartRepository) Insert(entity *internal.FlowchartEntity) error {
	_, err := r.c.tx.Exec(r.c.txCtx, `
INSERT INTO flowchart (id, name, definition, created_at)
VALUES ($1, $2, $3, $4)
`,
		entity.Id,
		entity.Name,
		entity.Definition,
		entity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert flowchart %s: %v", entity.Id, err)
	}
	return nil
}

func (r *flowchartRepository) Select(id string) (*internal.FlowchartEntity, error) {
	row := r.c.tx.QueryRow(r.c.txCtx, `
SELECT name, definition, created_at
FROM flowchart
WHERE id = $1
`, id)

	entity := internal.FlowchartEntity{Id: id}
	if err := row.Scan(&entity.Name, &entity.Definition, &entity.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engine.Error{
				Type:   engine.ErrorNotFound,
				Title:  "failed to select flowchart",
				Detail: fmt.Sprintf("flowchart %s could not be found", id),
			}
		}
		return nil, err
	}
	return &entity, nil
}
