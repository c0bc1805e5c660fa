package pg

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jackc/pgx/v5"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
)

// pgContext wraps one database transaction as internal context.
type pgContext struct {
	options Options

	time time.Time

	tx       pgx.Tx
	txCtx    context.Context
	txCancel context.CancelFunc // set when the engine applied its own timeout
}

func (c *pgContext) Options() engine.Options {
	return c.options.Common
}

func (c *pgContext) Logger() hclog.Logger {
	return c.options.Common.Logger
}

func (c *pgContext) Ctx() context.Context {
	return c.txCtx
}

func (c *pgContext) Time() time.Time {
	return c.time
}

func (c *pgContext) Flowcharts() internal.FlowchartRepository {
	return &flowchartRepository{c}
}

func (c *pgContext) Processes() internal.ProcessRepository {
	return &processRepository{c}
}

func (c *pgContext) FlowNodes() internal.FlowNodeRepository {
	return &flowNodeRepository{c}
}

func (c *pgContext) SignalSubscriptions() internal.SignalSubscriptionRepository {
	return &signalSubscriptionRepository{c}
}
