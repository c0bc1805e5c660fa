package test

import (
	"context"
	"fmt"
	"testing"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/mem"
	"github.com/monostax/bpmflow/formula"
)

// newEnv creates a mem engine with fake collaborators and a real formula
// evaluator.
func newEnv(t *testing.T) *env {
	records := &recordStore{records: make(map[string]engine.Record), related: make(map[string]engine.Record)}
	actions := &actionExecutor{}
	messages := &messageStore{}

	e, err := mem.New(func(o *mem.Options) {
		o.Common.Formula = formula.New()
		o.Common.Records = records
		o.Common.Actions = actions
		o.Common.Messages = messages
	})
	if err != nil {
		t.Fatalf("failed to create mem engine: %v", err)
	}

	t.Cleanup(e.Shutdown)

	return &env{e: e, records: records, actions: actions, messages: messages}
}

type env struct {
	e engine.Engine

	records  *recordStore
	actions  *actionExecutor
	messages *messageStore
}

func (x *env) mustDeploy(t *testing.T, definition string) engine.Flowchart {
	t.Helper()

	flowchart, err := x.e.CreateFlowchart(context.Background(), engine.CreateFlowchartCmd{Definition: []byte(definition)})
	if err != nil {
		t.Fatalf("failed to create flowchart: %v", err)
	}
	return flowchart
}

func (x *env) mustStart(t *testing.T, flowchartId string, variables map[string]any) engine.Process {
	t.Helper()

	process, err := x.e.StartProcess(context.Background(), engine.StartProcessCmd{
		FlowchartId: flowchartId,

		TargetType: "Order",
		TargetId:   "order-1",

		Variables: variables,
	})
	if err != nil {
		t.Fatalf("failed to start process: %v", err)
	}
	return process
}

func (x *env) mustGetProcess(t *testing.T, id string) engine.Process {
	t.Helper()

	process, err := x.e.GetProcess(context.Background(), engine.GetProcessCmd{Id: id})
	if err != nil {
		t.Fatalf("failed to get process: %v", err)
	}
	return process
}

// flowNodesAt returns the flow nodes of a process at one element, in creation order.
func (x *env) flowNodesAt(t *testing.T, processId string, elementId string) []engine.FlowNode {
	t.Helper()

	flowNodes, err := x.e.QueryFlowNodes(context.Background(), engine.FlowNodeCriteria{
		ProcessId: processId,
		ElementId: elementId,
	}, engine.QueryOptions{})
	if err != nil {
		t.Fatalf("failed to query flow nodes: %v", err)
	}
	return flowNodes
}

// flowNodeAt returns the single flow node of a process at one element.
func (x *env) flowNodeAt(t *testing.T, processId string, elementId string) engine.FlowNode {
	t.Helper()

	flowNodes := x.flowNodesAt(t, processId, elementId)
	if len(flowNodes) != 1 {
		t.Fatalf("expected one flow node at element %s, but got %d", elementId, len(flowNodes))
	}
	return flowNodes[0]
}

func (x *env) mustProceedDue(t *testing.T) []engine.FlowNode {
	t.Helper()

	flowNodes, err := x.e.ProceedDue(context.Background(), engine.ProceedDueCmd{})
	if err != nil {
		t.Fatalf("failed to proceed due flow nodes: %v", err)
	}
	return flowNodes
}

// recordStore is a fake record store, backed by maps. Unknown records are
// returned as bare records without attributes.
type recordStore struct {
	records map[string]engine.Record // key: entityType/id
	related map[string]engine.Record // key: entityType/id/link
}

func (s *recordStore) put(record engine.Record) {
	s.records[record.EntityType+"/"+record.Id] = record
}

func (s *recordStore) putRelated(record engine.Record, link string, related engine.Record) {
	s.related[record.EntityType+"/"+record.Id+"/"+link] = related
}

func (s *recordStore) Load(_ context.Context, entityType string, id string) (engine.Record, error) {
	if record, ok := s.records[entityType+"/"+id]; ok {
		return record, nil
	}
	return engine.Record{EntityType: entityType, Id: id}, nil
}

func (s *recordStore) LoadRelated(_ context.Context, record engine.Record, link string) (engine.Record, error) {
	return s.related[record.EntityType+"/"+record.Id+"/"+link], nil
}

// actionExecutor is a fake action executor, recording requests and returning a
// configurable result.
type actionExecutor struct {
	executed []engine.ActionRequest
	result   engine.ActionResult
	err      error

	userTasks []engine.UserTaskRequest
}

func (x *actionExecutor) Execute(_ context.Context, req engine.ActionRequest) (engine.ActionResult, error) {
	x.executed = append(x.executed, req)
	if x.err != nil {
		return engine.ActionResult{}, x.err
	}
	return x.result, nil
}

func (x *actionExecutor) CreateUserTask(_ context.Context, req engine.UserTaskRequest) (string, error) {
	x.userTasks = append(x.userTasks, req)
	return fmt.Sprintf("user-task-%d", len(x.userTasks)), nil
}

// messageStore is a fake inbound message store.
type messageStore struct {
	messages []engine.InboundMessage
}

func (s *messageStore) FindInbound(_ context.Context, query engine.InboundMessageQuery) (*engine.InboundMessage, error) {
	for i := range s.messages {
		message := s.messages[i]
		if query.MessageType != "" && message.MessageType != query.MessageType {
			continue
		}
		if !message.ReceivedAt.After(query.After) {
			continue
		}
		return &message, nil
	}
	return nil, nil
}
