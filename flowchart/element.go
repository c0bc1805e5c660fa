package flowchart

import "encoding/json"

// An Element is one node of the static flowchart definition.
//
// NextElementIds and PreviousElementIds describe the adjacency of the graph.
// All other fields are type specific attributes, authored by a flow designer.
type Element struct {
	Id   string      `json:"id"`
	Type ElementType `json:"type"`

	NextElementIds     []string `json:"nextElementIds,omitempty"`
	PreviousElementIds []string `json:"previousElementIds,omitempty"`

	// Flows carries one entry per outgoing path of an exclusive or inclusive
	// gateway, evaluated in definition order.
	Flows []Flow `json:"flows,omitempty"`
	// DefaultNextElementId is taken by an exclusive or inclusive gateway when
	// no flow condition matches.
	DefaultNextElementId string `json:"defaultNextElementId,omitempty"`

	// AttachedToId references the activity element a boundary event is attached to.
	AttachedToId string `json:"attachedToId,omitempty"`
	// CancelActivity determines if a fired boundary event interrupts its activity.
	CancelActivity bool `json:"cancelActivity,omitempty"`

	// Conditions of a conditional catch or boundary event.
	Conditions *ConditionBundle `json:"conditions,omitempty"`

	Timer *TimerDefinition `json:"timer,omitempty"`

	// SignalName of a signal catch, boundary or throw event.
	// A "=" prefix marks the name as a formula expression.
	SignalName string `json:"signalName,omitempty"`

	Message *MessageDefinition `json:"message,omitempty"`

	// ErrorCode matched by an error boundary event or thrown by an error end event.
	// An empty code on a boundary event catches any error.
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	// ActionDefs is the opaque action list of a task or user task, executed by
	// the application's action executor.
	ActionDefs json.RawMessage `json:"actionDefs,omitempty"`

	// Script of a script task.
	Script string `json:"script,omitempty"`
	// ResultVariable receives the script result, if set.
	ResultVariable string `json:"resultVariable,omitempty"`

	// SubProcess attributes.
	SubFlowchartId     string   `json:"subFlowchartId,omitempty"`
	IsolateVariables   bool     `json:"isolateVariables,omitempty"`
	ReturnVariableList []string `json:"returnVariableList,omitempty"`

	// TargetExpression resolves the element's target record, when it differs
	// from the process target. Supported prefixes: "record:", "link:", "created:".
	TargetExpression string `json:"targetExpression,omitempty"`
}

// A Flow is one conditional outgoing path of a gateway.
type Flow struct {
	NextElementId string           `json:"nextElementId"`
	Conditions    *ConditionBundle `json:"conditions,omitempty"`
}

// TimerBase describes how a timer event computes its due time.
type TimerBase string

const (
	TimerBaseMoment  TimerBase = "moment"  // now, optionally shifted
	TimerBaseFormula TimerBase = "formula" // expression evaluated against the target record
	TimerBaseField   TimerBase = "field"   // datetime field of the target record, optionally through one relation hop
	TimerBaseCron    TimerBase = "cron"    // next tick of a cron expression
)

// A TimerDefinition configures a timer catch or boundary event.
type TimerDefinition struct {
	Base TimerBase `json:"base"`

	// Shift is an ISO-8601 duration applied to the computed base time.
	Shift string `json:"shift,omitempty"`
	// ShiftNegative applies the shift backwards in time.
	ShiftNegative bool `json:"shiftNegative,omitempty"`

	Formula string `json:"formula,omitempty"`
	Field   string `json:"field,omitempty"`
	// Link is the relation to hop before reading Field.
	Link string `json:"link,omitempty"`
	Cron string `json:"cron,omitempty"`
}

// A MessageDefinition configures the correlation of a message catch or boundary event.
type MessageDefinition struct {
	// MessageType restricts matching to one inbound message type.
	MessageType string `json:"messageType,omitempty"`
	// RelatedTo matches messages related to the target record.
	RelatedTo bool `json:"relatedTo,omitempty"`
	// RepliedTo matches messages replying to a message of the target record.
	RepliedTo bool `json:"repliedTo,omitempty"`
	// Filter is an optional formula, evaluated against the matched message record.
	Filter string `json:"filter,omitempty"`
}

// InDegree returns the number of incoming paths.
func (e Element) InDegree() int {
	return len(e.PreviousElementIds)
}

// OutDegree returns the number of outgoing paths.
func (e Element) OutDegree() int {
	return len(e.NextElementIds)
}
