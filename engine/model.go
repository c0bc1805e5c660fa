package engine

import (
	"fmt"
	"time"

	"github.com/monostax/bpmflow/flowchart"
)

// ProcessStatus describes the possible states of a process.
type ProcessStatus int

const (
	ProcessCreated ProcessStatus = iota + 1
	ProcessStarted
	ProcessProcessed
	ProcessFailed
	ProcessRejected
	ProcessInterrupted
	ProcessStopped
)

func MapProcessStatus(s string) ProcessStatus {
	switch s {
	case "CREATED":
		return ProcessCreated
	case "STARTED":
		return ProcessStarted
	case "PROCESSED":
		return ProcessProcessed
	case "FAILED":
		return ProcessFailed
	case "REJECTED":
		return ProcessRejected
	case "INTERRUPTED":
		return ProcessInterrupted
	case "STOPPED":
		return ProcessStopped
	default:
		return 0
	}
}

func (v ProcessStatus) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ProcessStatus) String() string {
	switch v {
	case ProcessCreated:
		return "CREATED"
	case ProcessStarted:
		return "STARTED"
	case ProcessProcessed:
		return "PROCESSED"
	case ProcessFailed:
		return "FAILED"
	case ProcessRejected:
		return "REJECTED"
	case ProcessInterrupted:
		return "INTERRUPTED"
	case ProcessStopped:
		return "STOPPED"
	default:
		return ""
	}
}

func (v *ProcessStatus) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapProcessStatus(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid process status data %s", s)
	}
	return nil
}

// IsEnded determines if the status is terminal. A process status moves from
// STARTED to a terminal status exactly once.
func (v ProcessStatus) IsEnded() bool {
	switch v {
	case ProcessProcessed, ProcessFailed, ProcessRejected, ProcessInterrupted, ProcessStopped:
		return true
	default:
		return false
	}
}

// FlowNodeStatus describes the possible states of a flow node.
type FlowNodeStatus int

const (
	FlowNodeCreated FlowNodeStatus = iota + 1
	FlowNodePending
	FlowNodeInProcess
	FlowNodeProcessed
	FlowNodeFailed
	FlowNodeRejected
	FlowNodeInterrupted
)

func MapFlowNodeStatus(s string) FlowNodeStatus {
	switch s {
	case "CREATED":
		return FlowNodeCreated
	case "PENDING":
		return FlowNodePending
	case "IN_PROCESS":
		return FlowNodeInProcess
	case "PROCESSED":
		return FlowNodeProcessed
	case "FAILED":
		return FlowNodeFailed
	case "REJECTED":
		return FlowNodeRejected
	case "INTERRUPTED":
		return FlowNodeInterrupted
	default:
		return 0
	}
}

func (v FlowNodeStatus) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v FlowNodeStatus) String() string {
	switch v {
	case FlowNodeCreated:
		return "CREATED"
	case FlowNodePending:
		return "PENDING"
	case FlowNodeInProcess:
		return "IN_PROCESS"
	case FlowNodeProcessed:
		return "PROCESSED"
	case FlowNodeFailed:
		return "FAILED"
	case FlowNodeRejected:
		return "REJECTED"
	case FlowNodeInterrupted:
		return "INTERRUPTED"
	default:
		return ""
	}
}

func (v *FlowNodeStatus) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapFlowNodeStatus(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid flow node status data %s", s)
	}
	return nil
}

// IsTerminal determines if the status is terminal.
// A terminal flow node is never processed again, only read as audit trail.
func (v FlowNodeStatus) IsTerminal() bool {
	switch v {
	case FlowNodeProcessed, FlowNodeFailed, FlowNodeRejected, FlowNodeInterrupted:
		return true
	default:
		return false
	}
}

// IsActive determines if the flow node still participates in the process.
func (v FlowNodeStatus) IsActive() bool {
	switch v {
	case FlowNodeCreated, FlowNodePending, FlowNodeInProcess:
		return true
	default:
		return false
	}
}

// A Process is one execution instance of a flowchart, bound to a target record.
type Process struct {
	Id          string `json:"id"`
	FlowchartId string `json:"flowchartId"`

	TargetType string `json:"targetType"`
	TargetId   string `json:"targetId"`

	ParentProcessId         string `json:"parentProcessId,omitempty"`
	ParentProcessFlowNodeId string `json:"parentProcessFlowNodeId,omitempty"`
	RootProcessId           string `json:"rootProcessId,omitempty"`

	Status ProcessStatus `json:"status"`

	Variables           map[string]any           `json:"variables,omitempty"`
	CreatedEntitiesData map[string]CreatedEntity `json:"createdEntitiesData,omitempty"`

	AssignedUserId string   `json:"assignedUserId,omitempty"`
	TeamIds        []string `json:"teamIds,omitempty"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	ModifiedAt time.Time  `json:"modifiedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
}

func (p Process) String() string {
	return fmt.Sprintf("%s (%s %s/%s)", p.Id, p.Status, p.TargetType, p.TargetId)
}

// A CreatedEntity references a record created during process execution, keyed
// by its alias in the process's created-entities data.
type CreatedEntity struct {
	EntityType string `json:"entityType"`
	EntityId   string `json:"entityId"`
}

// A FlowNode is one persisted execution token, positioned at one element of a
// running process. Flow nodes are never deleted, only terminally stamped.
type FlowNode struct {
	Id          string `json:"id"`
	ProcessId   string `json:"processId"`
	FlowchartId string `json:"flowchartId"`

	ElementId   string                `json:"elementId"`
	ElementType flowchart.ElementType `json:"elementType"`

	PreviousFlowNodeId          string                `json:"previousFlowNodeId,omitempty"`
	PreviousFlowNodeElementType flowchart.ElementType `json:"previousFlowNodeElementType,omitempty"`

	// DivergentFlowNodeId references the fork flow node that produced the
	// concurrent branch this token belongs to. It is the correlation key of
	// the gateway join algorithm.
	DivergentFlowNodeId string `json:"divergentFlowNodeId,omitempty"`

	Status FlowNodeStatus `json:"status"`

	TargetType string `json:"targetType"`
	TargetId   string `json:"targetId"`

	// Element is the immutable snapshot of the static element definition,
	// taken when the token was created.
	Element flowchart.Element `json:"element"`
	// Data is the element behavior's bookkeeping sidecar.
	Data FlowNodeData `json:"data"`

	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

func (n FlowNode) String() string {
	return fmt.Sprintf("%s (%s %s)", n.Id, n.ElementType, n.Status)
}

// FlowNodeData is the typed bookkeeping sidecar of a flow node. Each element
// behavior only uses the keys documented for its type.
type FlowNodeData struct {
	// ProceedAt is the due time of a pending timer event.
	ProceedAt *time.Time `json:"proceedAt,omitempty"`
	// CheckedAt is the watermark of a polling message event.
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
	// SignalName is the subscribed signal of a pending signal event.
	SignalName string `json:"signalName,omitempty"`
	// UserTaskId references the user task created by a user task activity.
	UserTaskId string `json:"userTaskId,omitempty"`
	// SubProcessId references the child process spawned by a sub process activity.
	SubProcessId string `json:"subProcessId,omitempty"`
	// IsOpposite marks the negative-branch twin of a conditional boundary event.
	IsOpposite bool `json:"isOpposite,omitempty"`
	// ActivatedElementIds are the outgoing paths activated by an inclusive fork.
	ActivatedElementIds []string `json:"activatedElementIds,omitempty"`
	// ErrorCode and ErrorMessage record the error caught or thrown by the element.
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	// UserTaskResolution records how a user task was resolved.
	UserTaskResolution string `json:"userTaskResolution,omitempty"`
}

// A Flowchart is the engine's view of a deployed flowchart definition.
type Flowchart struct {
	Id           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	ElementCount int       `json:"elementCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// A Record is a business record of the surrounding application, read through
// the record store collaborator.
type Record struct {
	EntityType string         `json:"entityType"`
	Id         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Attr returns a record attribute value.
func (r Record) Attr(name string) any {
	return r.Attributes[name]
}

// StringAttr returns a record attribute as string, or "" if unset.
func (r Record) StringAttr(name string) string {
	if s, ok := r.Attributes[name].(string); ok {
		return s
	}
	return ""
}

// ProcessCriteria is used to query processes.
type ProcessCriteria struct {
	Id          string `json:"id,omitempty"`
	FlowchartId string `json:"flowchartId,omitempty"`
	TargetType  string `json:"targetType,omitempty"`
	TargetId    string `json:"targetId,omitempty"`

	ParentProcessId string `json:"parentProcessId,omitempty"`

	Statuses []ProcessStatus `json:"statuses,omitempty"`
}

// FlowNodeCriteria is used to query flow nodes.
type FlowNodeCriteria struct {
	Id        string `json:"id,omitempty"`
	ProcessId string `json:"processId,omitempty"`
	ElementId string `json:"elementId,omitempty"`

	ElementTypes []flowchart.ElementType `json:"elementTypes,omitempty"`
	Statuses     []FlowNodeStatus        `json:"statuses,omitempty"`
}

// QueryOptions are used to limit or offset query results.
// The zero value does not affect a query.
type QueryOptions struct {
	// Limit specifies the maximum number of results to return.
	// If Limit <= 0, the engine's DefaultQueryLimit is applied.
	Limit int
	// Offset specifies the number of results to skip, before returning any result.
	Offset int
}
