package internal

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/monostax/bpmflow/engine"
)

// A Context provides an engine implementation's repositories and options to
// the execution logic. Each engine command runs against one Context; store
// implementations guarantee single-writer semantics per process for its
// lifetime (a global lock for the mem engine, an advisory-locked transaction
// for the pg engine).
type Context interface {
	Options() engine.Options
	Logger() hclog.Logger

	// Ctx is the caller's context, passed through to collaborators.
	Ctx() context.Context
	Time() time.Time

	Flowcharts() FlowchartRepository
	Processes() ProcessRepository
	FlowNodes() FlowNodeRepository
	SignalSubscriptions() SignalSubscriptionRepository
}

type FlowchartRepository interface {
	Insert(*FlowchartEntity) error
	Select(id string) (*FlowchartEntity, error)
}

type ProcessRepository interface {
	Insert(*ProcessEntity) error
	Select(id string) (*ProcessEntity, error)
	Update(*ProcessEntity) error

	Query(engine.ProcessCriteria, engine.QueryOptions) ([]engine.Process, error)
}

type FlowNodeRepository interface {
	Insert(*FlowNodeEntity) error
	Select(id string) (*FlowNodeEntity, error)
	Update(*FlowNodeEntity) error

	// SelectActiveByProcess selects all flow nodes of a process that are in an
	// active status (CREATED, PENDING or IN_PROCESS).
	SelectActiveByProcess(processId string) ([]*FlowNodeEntity, error)

	// SelectByPrevious selects all flow nodes produced by a specific flow node,
	// e.g. boundary watchers of an activity or the catch tokens of an
	// event-based gateway.
	SelectByPrevious(previousFlowNodeId string) ([]*FlowNodeEntity, error)

	// CountJoinArrivals counts the sibling flow nodes that arrived at a
	// converging gateway: same process, same element and the same divergent
	// flow node. Terminally stamped siblings count - a rejected arrival is
	// still an arrival.
	CountJoinArrivals(processId string, elementId string, divergentFlowNodeId string) (int, error)

	// SelectDue selects pending flow nodes that are due: timer events whose
	// proceed-at time elapsed and message or conditional events, which poll on
	// each tick. If processId is not empty, only that process is scanned.
	SelectDue(now time.Time, processId string, limit int) ([]*FlowNodeEntity, error)

	Query(engine.FlowNodeCriteria, engine.QueryOptions) ([]engine.FlowNode, error)
}

type SignalSubscriptionRepository interface {
	Insert(*SignalSubscriptionEntity) error
	SelectByName(signalName string) ([]*SignalSubscriptionEntity, error)
	DeleteByFlowNode(flowNodeId string) error
}
