// Package mem provides an in-memory engine, suited for testing and embedded,
// non-durable use cases.
package mem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
)

func New(customizers ...func(*Options)) (engine.Engine, error) {
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

	return &memEngine{ctx: newMemContext(options)}, nil
}

func NewOptions() Options {
	return Options{
		Common: engine.Options{
			DefaultQueryLimit: 1000,
			EngineId:          engine.DefaultEngineId,
		},
	}
}

type Options struct {
	Common engine.Options // Common options
}

func (o Options) Validate() error {
	return o.Common.Validate()
}

// SetTime is a test utility, moving the engine's clock forward.
func SetTime(e engine.Engine, t time.Time) error {
	memEngine, ok := e.(*memEngine)
	if !ok {
		return fmt.Errorf("engine is not a mem engine")
	}

	defer memEngine.unlock()
	ctx := memEngine.wlock(context.Background())

	old := ctx.Time()
	new := t.UTC().Truncate(time.Millisecond)

	sub := new.Sub(old)
	if sub.Milliseconds() < 0 {
		return engine.Error{
			Type:  engine.ErrorConflict,
			Title: "failed to set time",
			Detail: fmt.Sprintf(
				"time %s is before engine time %s",
				new.Format(time.RFC3339),
				old.Format(time.RFC3339),
			),
		}
	}

	memEngine.offset = memEngine.offset + sub
	return nil
}

type memEngine struct {
	ctxMutex   sync.RWMutex
	ctx        *memContext
	isReadLock bool

	offset time.Duration
}

func (e *memEngine) CreateFlowchart(_ context.Context, cmd engine.CreateFlowchartCmd) (engine.Flowchart, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.Flowchart{}, err
	}

	defer e.unlock()
	return internal.CreateFlowchart(e.wlock(context.Background()), cmd)
}

func (e *memEngine) GetFlowchart(ctx context.Context, cmd engine.GetFlowchartCmd) (engine.Flowchart, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.Flowchart{}, err
	}

	defer e.unlock()
	return internal.GetFlowchart(e.rlock(ctx), cmd)
}

func (e *memEngine) StartProcess(ctx context.Context, cmd engine.StartProcessCmd) (engine.Process, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.Process{}, err
	}

	defer e.unlock()
	return internal.StartProcess(e.wlock(ctx), cmd)
}

func (e *memEngine) GetProcess(ctx context.Context, cmd engine.GetProcessCmd) (engine.Process, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.Process{}, err
	}

	defer e.unlock()
	return internal.GetProcess(e.rlock(ctx), cmd)
}

func (e *memEngine) GetFlowNode(ctx context.Context, cmd engine.GetFlowNodeCmd) (engine.FlowNode, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.FlowNode{}, err
	}

	defer e.unlock()
	return internal.GetFlowNode(e.rlock(ctx), cmd)
}

func (e *memEngine) QueryProcesses(ctx context.Context, criteria engine.ProcessCriteria, options engine.QueryOptions) ([]engine.Process, error) {
	defer e.unlock()
	return internal.QueryProcesses(e.rlock(ctx), criteria, options)
}

func (e *memEngine) QueryFlowNodes(ctx context.Context, criteria engine.FlowNodeCriteria, options engine.QueryOptions) ([]engine.FlowNode, error) {
	defer e.unlock()
	return internal.QueryFlowNodes(e.rlock(ctx), criteria, options)
}

func (e *memEngine) ProceedFlowNode(ctx context.Context, cmd engine.ProceedFlowNodeCmd) (engine.FlowNode, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.FlowNode{}, err
	}

	defer e.unlock()
	return internal.ProceedFlowNode(e.wlock(ctx), cmd)
}

func (e *memEngine) ProceedDue(ctx context.Context, cmd engine.ProceedDueCmd) ([]engine.FlowNode, error) {
	if err := engine.Validate(cmd); err != nil {
		return nil, err
	}

	defer e.unlock()
	return internal.ProceedDue(e.wlock(ctx), cmd)
}

func (e *memEngine) SendSignal(ctx context.Context, cmd engine.SendSignalCmd) (int, error) {
	if err := engine.Validate(cmd); err != nil {
		return 0, err
	}

	defer e.unlock()
	return internal.SendSignal(e.wlock(ctx), cmd)
}

func (e *memEngine) CompleteUserTask(ctx context.Context, cmd engine.CompleteUserTaskCmd) (engine.FlowNode, error) {
	if err := engine.Validate(cmd); err != nil {
		return engine.FlowNode{}, err
	}

	defer e.unlock()
	return internal.CompleteUserTask(e.wlock(ctx), cmd)
}

func (e *memEngine) SetProcessVariables(ctx context.Context, cmd engine.SetProcessVariablesCmd) error {
	if err := engine.Validate(cmd); err != nil {
		return err
	}

	defer e.unlock()
	return internal.SetProcessVariables(e.wlock(ctx), cmd)
}

func (e *memEngine) StopProcess(ctx context.Context, cmd engine.StopProcessCmd) error {
	if err := engine.Validate(cmd); err != nil {
		return err
	}

	defer e.unlock()
	return internal.StopProcess(e.wlock(ctx), cmd)
}

func (e *memEngine) Shutdown() {
	defer e.unlock()
	e.wlock(context.Background()).clear()
}

func (e *memEngine) rlock(ctx context.Context) *memContext {
	now := time.Now()

	e.ctxMutex.RLock()
	e.isReadLock = true

	e.ctx.ctx = ctx
	e.ctx.time = now.UTC().Add(e.offset).Truncate(time.Millisecond)

	return e.ctx
}

func (e *memEngine) wlock(ctx context.Context) *memContext {
	now := time.Now()

	e.ctxMutex.Lock()
	e.isReadLock = false

	e.ctx.ctx = ctx
	e.ctx.time = now.UTC().Add(e.offset).Truncate(time.Millisecond)

	return e.ctx
}

func (e *memEngine) unlock() {
	if e.isReadLock {
		e.ctxMutex.RUnlock()
	} else {
		e.ctxMutex.Unlock()
	}
}
