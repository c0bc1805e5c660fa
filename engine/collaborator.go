package engine

import (
	"context"
	"encoding/json"
	"time"
)

// A RecordStore loads business records of the surrounding application.
//
// The engine reads target records for condition evaluation, timer field bases
// and target-expression resolution. It never writes records itself - record
// mutations are the concern of the action executor.
type RecordStore interface {
	Load(ctx context.Context, entityType string, id string) (Record, error)

	// LoadRelated loads the record behind a link (relation) of the given record.
	LoadRelated(ctx context.Context, record Record, link string) (Record, error)
}

// A FormulaEvaluator evaluates an expression against a target record and the
// process variables. Failures are returned as [EvaluationError].
type FormulaEvaluator interface {
	Evaluate(ctx context.Context, expression string, target Record, variables map[string]any) (any, error)
}

// An ActionExecutor runs the opaque action list of a task element and creates
// user tasks. The individual business effects (send email, create record, call
// webhook) are the surrounding application's concern.
type ActionExecutor interface {
	Execute(ctx context.Context, req ActionRequest) (ActionResult, error)

	// CreateUserTask creates a user task and returns its ID. The flow node
	// stays in process until the task is resolved via [Engine.CompleteUserTask].
	CreateUserTask(ctx context.Context, req UserTaskRequest) (string, error)
}

// An ActionRequest carries the context an action list is executed in.
type ActionRequest struct {
	ProcessId  string
	FlowNodeId string

	ActionDefs json.RawMessage
	Target     Record
	Variables  map[string]any
}

// An ActionResult carries the state mutations of an executed action list.
type ActionResult struct {
	// Variables to set at process scope. A variable mapped to nil is deleted.
	Variables map[string]any
	// CreatedEntities to merge into the process's created-entities data,
	// keyed by alias.
	CreatedEntities map[string]CreatedEntity
}

// A UserTaskRequest carries the context a user task is created in.
type UserTaskRequest struct {
	ProcessId  string
	FlowNodeId string

	ActionDefs     json.RawMessage
	Target         Record
	AssignedUserId string
	TeamIds        []string
}

// A MessageStore finds inbound messages for message catch events.
type MessageStore interface {
	// FindInbound returns the first message matching the query, or nil.
	FindInbound(ctx context.Context, query InboundMessageQuery) (*InboundMessage, error)
}

// An InboundMessageQuery correlates inbound messages with a target record.
type InboundMessageQuery struct {
	TargetType string
	TargetId   string

	// MessageType restricts matching to one message type.
	MessageType string
	// RelatedTo matches messages related to the target record.
	RelatedTo bool
	// RepliedTo matches messages replying to a message of the target record.
	RepliedTo bool

	// After excludes messages received at or before the watermark.
	After time.Time
}

// An InboundMessage is a message record matched by a message catch event.
type InboundMessage struct {
	Id          string
	MessageType string

	ReceivedAt time.Time
	Attributes map[string]any
}
