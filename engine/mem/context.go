package mem

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/internal"
)

func newMemContext(options Options) *memContext {
	return &memContext{options: options}
}

type memContext struct {
	options Options

	ctx  context.Context
	time time.Time

	flowcharts          flowchartRepository
	processes           processRepository
	flowNodes           flowNodeRepository
	signalSubscriptions signalSubscriptionRepository
}

func (c *memContext) Options() engine.Options {
	return c.options.Common
}

func (c *memContext) Logger() hclog.Logger {
	return c.options.Common.Logger
}

func (c *memContext) Ctx() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *memContext) Time() time.Time {
	return c.time
}

func (c *memContext) Flowcharts() internal.FlowchartRepository {
	return &c.flowcharts
}

func (c *memContext) Processes() internal.ProcessRepository {
	return &c.processes
}

func (c *memContext) FlowNodes() internal.FlowNodeRepository {
	return &c.flowNodes
}

func (c *memContext) SignalSubscriptions() internal.SignalSubscriptionRepository {
	return &c.signalSubscriptions
}

func (c *memContext) clear() {
	c.flowcharts.entities = nil
	c.processes.entities = nil
	c.flowNodes.entities = nil
	c.signalSubscriptions.entities = nil
}
