// Package pg provides a Postgres backed engine for durable process execution.
//
// Multiple engine instances may run against the same database: each command
// executes inside one transaction and mutating commands serialize through an
// advisory lock, so every process is advanced by a single writer at a time.
package pg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
)

func New(databaseUrl string, customizers ...func(*Options)) (engine.Engine, error) {
	if databaseUrl == "" {
		return nil, errors.New("database URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	if options.Common.Logger == nil {
		options.Common.Logger = hclog.NewNullLogger()
	}

	pgPoolConfig, err := pgxpool.ParseConfig(databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %v", err)
	}

	if _, ok := pgPoolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		pgPoolConfig.ConnConfig.RuntimeParams["application_name"] = options.Common.EngineId
	}

	pgPoolCtx, pgPoolCancel := context.WithTimeout(context.Background(), options.Timeout)
	defer pgPoolCancel()

	pgPool, err := pgxpool.NewWithConfig(pgPoolCtx, pgPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %v", err)
	}

	requireCtx, requireCancel := context.WithCancel(context.Background())

	pgEngine := pgEngine{
		options: options,

		requireCtx:    requireCtx,
		requireCancel: requireCancel,

		pgPool:    pgPool,
		txTimeout: options.Timeout,
	}

	if err := pgEngine.createSchema(); err != nil {
		pgEngine.Shutdown()
		return nil, fmt.Errorf("failed to create database schema: %v", err)
	}

	return &pgEngine, nil
}

func NewOptions() Options {
	return Options{
		Common: engine.Options{
			DefaultQueryLimit: 1000,
			EngineId:          engine.DefaultEngineId,
		},

		Timeout: 30 * time.Second,
	}
}

type Options struct {
	Common engine.Options // Common engine options.

	Timeout time.Duration // Time limit for database transactions, utilized when the caller's context has no deadline.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return o.Common.Validate()
}

type pgEngine struct {
	options Options

	requireCtx    context.Context    // used to prevent the requiring of a context, when the engine is shut down
	requireCancel context.CancelFunc // invoked when a shutdown is initiated
	shutdownOnce  sync.Once

	pgPool    *pgxpool.Pool
	txTimeout time.Duration
}

func (e *pgEngine) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.txTimeout)
	defer cancel()

	pgCtx, err := e.require(ctx)
	if err != nil {
		return err
	}

	_, err = pgCtx.tx.Exec(pgCtx.txCtx, schemaSql)
	return e.release(pgCtx, err)
}

// require begins a transaction and wraps it as internal context.
func (e *pgEngine) require(ctx context.Context) (*pgContext, error) {
	now := time.Now()

	select {
	case <-e.requireCtx.Done():
		return nil, engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to require context",
			Detail: "engine is shut down",
		}
	default:
	}

	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		// the timeout context must outlive the transaction, released via release
		ctx, cancel = context.WithTimeout(ctx, e.txTimeout)
	}

	tx, err := e.pgPool.Begin(ctx)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}

	return &pgContext{
		options: e.options,

		// must be UTC and truncated to millis, since TIMESTAMP(3) is used
		time: now.UTC().Truncate(time.Millisecond),

		tx:       tx,
		txCtx:    ctx,
		txCancel: cancel,
	}, nil
}

func (e *pgEngine) release(pgCtx *pgContext, err error) error {
	if pgCtx.txCancel != nil {
		defer pgCtx.txCancel()
	}

	if err != nil {
		_ = pgCtx.tx.Rollback(pgCtx.txCtx)
		return err
	}
	return pgCtx.tx.Commit(pgCtx.txCtx)
}

// lock serializes mutating commands: every writer of the engine's database
// takes the same advisory lock, scoped to the transaction.
func (e *pgEngine) lock(pgCtx *pgContext) error {
	_, err := pgCtx.tx.Exec(pgCtx.txCtx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", e.options.Common.EngineId)
	return err
}

func (e *pgEngine) write(ctx context.Context, fn func(*pgContext) error) error {
	pgCtx, err := e.require(ctx)
	if err != nil {
		return err
	}
	if err := e.lock(pgCtx); err != nil {
		return e.release(pgCtx, err)
	}
	return e.release(pgCtx, fn(pgCtx))
}

func (e *pgEngine) read(ctx context.Context, fn func(*pgContext) error) error {
	pgCtx, err := e.require(ctx)
	if err != nil {
		return err
	}
	return e.release(pgCtx, fn(pgCtx))
}

func (e *pgEngine) CreateFlowchart(ctx context.Context, cmd engine.CreateFlowchartCmd) (engine.Flowchart, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.Flowchart{}, err
	}

	var flowchart engine.Flowchart
	err := e.write(ctx, func(pgCtx *pgContext) error {
		var err error
		flowchart, err = internal.CreateFlowchart(pgCtx, cmd)
		return err
	})
	return flowchart, err
}

func (e *pgEngine) GetFlowchart(ctx context.Context, cmd engine.GetFlowchartCmd) (engine.Flowchart, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.Flowchart{}, err
	}

	var flowchart engine.Flowchart
	err := e.read(ctx, func(pgCtx *pgContext) error {
		var err error
		flowchart, err = internal.GetFlowchart(pgCtx, cmd)
		return err
	})
	return flowchart, err
}

func (e *pgEngine) StartProcess(ctx context.Context, cmd engine.StartProcessCmd) (engine.Process, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.Process{}, err
	}

	var process engine.Process
	err := e.write(ctx, func(pgCtx *pgContext) error {
		var err error
		process, err = internal.StartProcess(pgCtx, cmd)
		return err
	})
	return process, err
}

func (e *pgEngine) GetProcess(ctx context.Context, cmd engine.GetProcessCmd) (engine.Process, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.Process{}, err
	}

	var process engine.Process
	err := e.read(ctx, func(pgCtx *pgContext) error {
		var err error
		process, err = internal.GetProcess(pgCtx, cmd)
		return err
	})
	return process, err
}

func (e *pgEngine) GetFlowNode(ctx context.Context, cmd engine.GetFlowNodeCmd) (engine.FlowNode, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.FlowNode{}, err
	}

	var flowNode engine.FlowNode
	err := e.read(ctx, func(pgCtx *pgContext) error {
		var err error
		flowNode, err = internal.GetFlowNode(pgCtx, cmd)
		return err
	})
	return flowNode, err
}

func (e *pgEngine) QueryProcesses(ctx context.Context, criteria engine.ProcessCriteria, options engine.QueryOptions) ([]engine.Process, error) {
	var processes []engine.Process
	err := e.read(ctx, func(pgCtx *pgContext) error {
		var err error
		processes, err = internal.QueryProcesses(pgCtx, criteria, options)
		return err
	})
	return processes, err
}

func (e *pgEngine) QueryFlowNodes(ctx context.Context, criteria engine.FlowNodeCriteria, options engine.QueryOptions) ([]engine.FlowNode, error) {
	var flowNodes []engine.FlowNode
	err := e.read(ctx, func(pgCtx *pgContext) error {
		var err error
		flowNodes, err = internal.QueryFlowNodes(pgCtx, criteria, options)
		return err
	})
	return flowNodes, err
}

func (e *pgEngine) ProceedFlowNode(ctx context.Context, cmd engine.ProceedFlowNodeCmd) (engine.FlowNode, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.FlowNode{}, err
	}

	var flowNode engine.FlowNode
	err := e.write(ctx, func(pgCtx *pgContext) error {
		var err error
		flowNode, err = internal.ProceedFlowNode(pgCtx, cmd)
		return err
	})
	return flowNode, err
}

func (e *pgEngine) ProceedDue(ctx context.Context, cmd engine.ProceedDueCmd) ([]engine.FlowNode, error) {
	if err := engine.Validate(cmd); err != nil {
		return nil, err
	}

	var flowNodes []engine.FlowNode
	err := e.write(ctx, func(pgCtx *pgContext) error {
		var err error
		flowNodes, err = internal.ProceedDue(pgCtx, cmd)
		return err
	})
	return flowNodes, err
}

func (e *pgEngine) SendSignal(ctx context.Context, cmd engine.SendSignalCmd) (int, error) {
	if err := engine.Validate(cmd); err != nil {
		return 0, err
	}

	var notified int
	err := e.write(ctx, func(pgCtx *pgContext) error {
		var err error
		notified, err = internal.SendSignal(pgCtx, cmd)
		return err
	})
	return notified, err
}

func (e *pgEngine) CompleteUserTask(ctx context.Context, cmd engine.CompleteUserTaskCmd) (engine.FlowNode, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.FlowNode{}, err
	}

	var flowNode engine.FlowNode
	err := e.write(ctx, func(pgCtx *pgContext) error {
		var err error
		flowNode, err = internal.CompleteUserTask(pgCtx, cmd)
		return err
	})
	return flowNode, err
}

func (e *pgEngine) SetProcessVariables(ctx context.Context, cmd engine.SetProcessVariablesCmd) error {
	if err := engine.Validate(cmd); err != nil {
		return err
	}
	return e.write(ctx, func(pgCtx *pgContext) error {
		return internal.SetProcessVariables(pgCtx, cmd)
	})
}

func (e *pgEngine) StopProcess(ctx context.Context, cmd engine.StopProcessCmd) error {
	if err := engine.Validate(cmd); err != nil {
		return err
	}
	return e.write(ctx, func(pgCtx *pgContext) error {
		return internal.StopProcess(pgCtx, cmd)
	})
}

func (e *pgEngine) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.requireCancel()
		e.pgPool.Close()
	})
}
