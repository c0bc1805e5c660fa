// Package worker provides the external driver of an engine: it ticks the
// clock-dependent parts of process execution by invoking ProceedDue.
//
// The engine itself runs no poll loop. Embedding applications start one worker
// per engine, either on a fixed interval or on a cron schedule.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/adhocore/gronx"
	"github.com/hashicorp/go-hclog"
	"github.com/monostax/bpmflow/engine"
)

func New(e engine.Engine, customizers ...func(*Options)) (*Worker, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	if options.Logger == nil {
		options.Logger = hclog.NewNullLogger()
	}

	tickerCtx, tickerCancel := context.WithCancel(context.Background())

	return &Worker{
		engine:  e,
		options: options,

		tickerCtx:    tickerCtx,
		tickerCancel: tickerCancel,
	}, nil
}

func NewOptions() Options {
	return Options{
		Interval: 60 * time.Second,
		Limit:    100,
		Timeout:  30 * time.Second,
	}
}

type Options struct {
	// Interval between ticks. Ignored when Cron is set.
	Interval time.Duration
	// Cron schedule, evaluated instead of the fixed interval.
	Cron string
	// Limit of flow nodes to proceed per tick.
	Limit int
	// Timeout per tick.
	Timeout time.Duration

	Logger hclog.Logger

	// OnProceeded is called after each tick that proceeded at least one flow node.
	OnProceeded func([]engine.FlowNode)
	// OnError is called when a tick fails.
	OnError func(error)
}

func (o Options) Validate() error {
	if o.Cron != "" && !gronx.IsValid(o.Cron) {
		return errors.New("cron expression is invalid")
	}
	if o.Cron == "" && o.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if o.Limit <= 0 {
		return errors.New("limit must be positive")
	}
	if o.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// A Worker periodically proceeds due flow nodes of an engine.
type Worker struct {
	engine  engine.Engine
	options Options

	tickerCtx    context.Context
	tickerCancel context.CancelFunc
}

// Execute starts the worker's tick loop.
func (w *Worker) Execute() {
	go func() {
		for {
			delay, err := w.nextDelay(time.Now())
			if err != nil {
				w.fail(err)
				return
			}

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
				w.Tick()
			case <-w.tickerCtx.Done():
				timer.Stop()
				return
			}
		}
	}()
}

// Tick proceeds one batch of due flow nodes.
func (w *Worker) Tick() {
	ctx, cancel := context.WithTimeout(w.tickerCtx, w.options.Timeout)
	defer cancel()

	flowNodes, err := w.engine.ProceedDue(ctx, engine.ProceedDueCmd{Limit: w.options.Limit})
	if err != nil {
		w.fail(err)
		return
	}
	if len(flowNodes) == 0 {
		return
	}

	w.options.Logger.Debug("proceeded due flow nodes", "count", len(flowNodes))

	if onProceeded := w.options.OnProceeded; onProceeded != nil {
		onProceeded(flowNodes)
	}
}

// Stop stops the tick loop. A tick in progress finishes.
func (w *Worker) Stop() {
	w.tickerCancel()
}

func (w *Worker) nextDelay(now time.Time) (time.Duration, error) {
	if w.options.Cron == "" {
		return w.options.Interval, nil
	}

	nextTick, err := gronx.NextTickAfter(w.options.Cron, now, false)
	if err != nil {
		return 0, err
	}
	return nextTick.Sub(now), nil
}

func (w *Worker) fail(err error) {
	w.options.Logger.Error("tick failed", "error", err)

	if onError := w.options.OnError; onError != nil {
		onError(err)
	}
}
