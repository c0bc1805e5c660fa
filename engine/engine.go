package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const (
	DefaultEngineId = "default-engine" // Default ID of an engine, used when no specific ID is provided via [Options].
)

// An Engine advances running process instances, one flow node at a time, based
// on deployed flowchart definitions.
//
// The engine is an in-process library: it executes the decision logic of each
// invocation and persists the resulting state, but runs no clock or poll loop
// of its own. External drivers (see the worker package) invoke ProceedDue,
// ProceedFlowNode and SendSignal at the right time.
type Engine interface {
	// CreateFlowchart deploys a flowchart definition, provided as JSON.
	//
	// If a flowchart with the same ID exists, the definitions are compared.
	// When the definition equals, the existing flowchart is returned.
	// When the definition differs, an error of type [ErrorConflict] is returned.
	CreateFlowchart(context.Context, CreateFlowchartCmd) (Flowchart, error)

	// GetFlowchart gets a deployed flowchart.
	GetFlowchart(context.Context, GetFlowchartCmd) (Flowchart, error)

	// StartProcess creates a process for a target record and advances it until
	// every flow reached a wait state or the process ended.
	StartProcess(context.Context, StartProcessCmd) (Process, error)

	// GetProcess gets a process.
	GetProcess(context.Context, GetProcessCmd) (Process, error)

	// GetFlowNode gets a flow node.
	GetFlowNode(context.Context, GetFlowNodeCmd) (FlowNode, error)

	// QueryProcesses queries processes, which match the specified criteria.
	QueryProcesses(context.Context, ProcessCriteria, QueryOptions) ([]Process, error)

	// QueryFlowNodes queries flow nodes, which match the specified criteria.
	QueryFlowNodes(context.Context, FlowNodeCriteria, QueryOptions) ([]FlowNode, error)

	// ProceedFlowNode re-enters a pending flow node.
	//
	// Calling it on a flow node that is already terminal is a no-op, so
	// external drivers may deliver a trigger more than once.
	ProceedFlowNode(context.Context, ProceedFlowNodeCmd) (FlowNode, error)

	// ProceedDue re-enters pending flow nodes that are due: timer events whose
	// due time elapsed and message or conditional events that poll on each tick.
	ProceedDue(context.Context, ProceedDueCmd) ([]FlowNode, error)

	// SendSignal notifies all flow nodes subscribed to the signal name.
	SendSignal(context.Context, SendSignalCmd) (int, error)

	// CompleteUserTask resolves the user task an activity is waiting for and
	// advances its flow.
	CompleteUserTask(context.Context, CompleteUserTaskCmd) (FlowNode, error)

	// SetProcessVariables sets or deletes variables of a started process.
	SetProcessVariables(context.Context, SetProcessVariablesCmd) error

	// StopProcess stops a started process: active flow nodes are interrupted
	// and the process becomes STOPPED.
	StopProcess(context.Context, StopProcessCmd) error

	// Shutdown shuts the engine down.
	Shutdown()
}

// Options are common configuration options that are shared between engine implementations.
type Options struct {
	DefaultQueryLimit int          // Default limit for queries, executed without an explicit limit.
	EngineId          string       // ID of the engine.
	Logger            hclog.Logger // Logger used by the engine. Defaults to a no-op logger.

	Records  RecordStore      // Record store of the surrounding application.
	Formula  FormulaEvaluator // Formula evaluator, used by condition bundles, timers and target expressions.
	Actions  ActionExecutor   // Executor for task actions and user task creation.
	Messages MessageStore     // Inbound message store, polled by message catch events.

	OnProcessEnd func(Process) // Called when a process reached a terminal status.
}

func (o Options) Validate() error {
	if strings.TrimSpace(o.EngineId) == "" {
		return errors.New("engine ID must not be empty or blank")
	}
	if o.DefaultQueryLimit < 1 {
		return errors.New("default query limit must be greater than or equal to 1")
	}

	return nil
}

type Error struct {
	Type   ErrorType
	Title  string
	Detail string
	Causes []ErrorCause
}

func (e Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s: %s", e.Type, e.Title, e.Detail))

	for _, cause := range e.Causes {
		sb.WriteRune('\n')
		sb.WriteString(cause.String())
	}

	return sb.String()
}

type ErrorType int

const (
	ErrorBug ErrorType = iota + 1
	ErrorConflict
	ErrorNotFound
	ErrorProcessModel
	ErrorQuery
	ErrorValidation
)

func MapErrorType(s string) ErrorType {
	switch s {
	case "BUG":
		return ErrorBug
	case "CONFLICT":
		return ErrorConflict
	case "NOT_FOUND":
		return ErrorNotFound
	case "PROCESS_MODEL":
		return ErrorProcessModel
	case "QUERY":
		return ErrorQuery
	case "VALIDATION":
		return ErrorValidation
	default:
		return 0
	}
}

func (v ErrorType) String() string {
	switch v {
	case ErrorBug:
		return "BUG"
	case ErrorConflict:
		return "CONFLICT"
	case ErrorNotFound:
		return "NOT_FOUND"
	case ErrorProcessModel:
		return "PROCESS_MODEL"
	case ErrorQuery:
		return "QUERY"
	case ErrorValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}

// A cause of a process model or validation [Error] like an invalid flowchart
// element or an unsupported timer definition.
type ErrorCause struct {
	ElementId string // ID of the invalid flowchart element, if any.
	Type      string // Type indicator.
	Detail    string // Human-readable, detailed information about the cause.
}

func (e ErrorCause) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.ElementId, e.Detail)
}

// A ProcessError is a business error thrown during process execution, either
// by an error end event or by a failing activity. It is routed through error
// boundary events before it fails the process.
type ProcessError struct {
	Code    string
	Message string
}

func (e ProcessError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// An EvaluationError is returned when a formula expression cannot be evaluated.
type EvaluationError struct {
	Expression string
	Err        error
}

func (e EvaluationError) Error() string {
	return fmt.Sprintf("failed to evaluate expression %q: %v", e.Expression, e.Err)
}

func (e EvaluationError) Unwrap() error {
	return e.Err
}
