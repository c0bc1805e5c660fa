package engine

// CreateFlowchartCmd provides data for the deployment of a flowchart.
type CreateFlowchartCmd struct {
	// Definition of the flowchart as JSON.
	Definition []byte `json:"definition" validate:"required"`
}

// GetFlowchartCmd is a command for fetching a deployed flowchart.
type GetFlowchartCmd struct {
	// Flowchart ID.
	Id string `json:"-" validate:"required"`
}

// StartProcessCmd provides data for the creation of a process.
type StartProcessCmd struct {
	// ID of a deployed flowchart.
	FlowchartId string `json:"flowchartId" validate:"required"`

	// Target record the process acts on.
	TargetType string `json:"targetType" validate:"required"`
	TargetId   string `json:"targetId" validate:"required"`

	// Optional ID of the start element. If empty, every start event element of
	// the flowchart produces a flow node.
	StartElementId string `json:"startElementId,omitempty"`

	// Variables to set at process scope.
	Variables map[string]any `json:"variables,omitempty" validate:"max=100"`

	// Ownership, copied into descendant processes at sub process start.
	AssignedUserId string   `json:"assignedUserId,omitempty"`
	TeamIds        []string `json:"teamIds,omitempty" validate:"max=100"`
}

// GetProcessCmd is a command for fetching a process.
type GetProcessCmd struct {
	// Process ID.
	Id string `json:"-" validate:"required"`
}

// GetFlowNodeCmd is a command for fetching a flow node.
type GetFlowNodeCmd struct {
	// Flow node ID.
	Id string `json:"-" validate:"required"`
}

// ProceedFlowNodeCmd re-enters a pending flow node.
type ProceedFlowNodeCmd struct {
	// Flow node ID.
	Id string `json:"-" validate:"required"`

	// Parameters of the external trigger, e.g. signal parameters.
	// They are merged into the process variables when the flow node proceeds.
	Parameters map[string]any `json:"parameters,omitempty" validate:"max=100"`
}

// ProceedDueCmd specifies which due flow nodes are re-entered.
type ProceedDueCmd struct {
	// Process condition.
	ProcessId string `json:"processId,omitempty"`

	// Maximum number of flow nodes to proceed.
	Limit int `json:"limit,omitempty" validate:"gte=0,lte=1000"`
}

// SendSignalCmd notifies all subscribers of a signal.
type SendSignalCmd struct {
	// Signal name.
	Name string `json:"name" validate:"required"`

	// Parameters, merged into the process variables of each notified subscriber.
	Parameters map[string]any `json:"parameters,omitempty" validate:"max=100"`
}

// CompleteUserTaskCmd resolves the user task a flow node is waiting for.
type CompleteUserTaskCmd struct {
	// Flow node ID.
	FlowNodeId string `json:"-" validate:"required"`

	// Resolution, recorded in the flow node data.
	Resolution string `json:"resolution" validate:"required"`

	// Variables to set at process scope.
	Variables map[string]any `json:"variables,omitempty" validate:"max=100"`
}

// SetProcessVariablesCmd sets or deletes variables of a started process.
// A variable mapped to nil is deleted.
type SetProcessVariablesCmd struct {
	// Process ID.
	ProcessId string `json:"-" validate:"required"`

	Variables map[string]any `json:"variables" validate:"required,max=100"`
}

// StopProcessCmd stops a started process.
type StopProcessCmd struct {
	// Process ID.
	Id string `json:"-" validate:"required"`
}
