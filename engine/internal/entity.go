package internal

import (
	"time"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
)

// A FlowchartEntity is a deployed flowchart definition.
type FlowchartEntity struct {
	Id         string
	Name       string
	Definition []byte
	CreatedAt  time.Time

	parsed *flowchart.Flowchart
}

// Parsed returns the parsed definition, parsing it once per entity instance.
func (e *FlowchartEntity) Parsed() (*flowchart.Flowchart, error) {
	if e.parsed == nil {
		f, err := flowchart.Parse(e.Definition)
		if err != nil {
			return nil, engine.Error{
				Type:   engine.ErrorProcessModel,
				Title:  "failed to parse flowchart",
				Detail: err.Error(),
			}
		}
		e.parsed = f
	}
	return e.parsed, nil
}

func (e *FlowchartEntity) Flowchart() engine.Flowchart {
	elementCount := 0
	if f, err := e.Parsed(); err == nil {
		elementCount = len(f.Elements)
	}

	return engine.Flowchart{
		Id:           e.Id,
		Name:         e.Name,
		ElementCount: elementCount,
		CreatedAt:    e.CreatedAt,
	}
}

// A ProcessEntity is one running instance of a flowchart, bound to a target record.
type ProcessEntity struct {
	Id          string
	FlowchartId string

	TargetType string
	TargetId   string

	ParentProcessId         string
	ParentProcessFlowNodeId string
	RootProcessId           string

	Status engine.ProcessStatus

	Variables           map[string]any
	CreatedEntitiesData map[string]engine.CreatedEntity

	AssignedUserId string
	TeamIds        []string

	ErrorCode    string
	ErrorMessage string

	CreatedAt  time.Time
	ModifiedAt time.Time
	EndedAt    *time.Time
}

func (e ProcessEntity) Process() engine.Process {
	return engine.Process{
		Id:          e.Id,
		FlowchartId: e.FlowchartId,

		TargetType: e.TargetType,
		TargetId:   e.TargetId,

		ParentProcessId:         e.ParentProcessId,
		ParentProcessFlowNodeId: e.ParentProcessFlowNodeId,
		RootProcessId:           e.RootProcessId,

		Status: e.Status,

		Variables:           e.Variables,
		CreatedEntitiesData: e.CreatedEntitiesData,

		AssignedUserId: e.AssignedUserId,
		TeamIds:        e.TeamIds,

		ErrorCode:    e.ErrorCode,
		ErrorMessage: e.ErrorMessage,

		CreatedAt:  e.CreatedAt,
		ModifiedAt: e.ModifiedAt,
		EndedAt:    e.EndedAt,
	}
}

// SetVariables merges variables into the process's variable bag.
// A variable mapped to nil is deleted.
func (e *ProcessEntity) SetVariables(variables map[string]any) {
	if len(variables) == 0 {
		return
	}
	if e.Variables == nil {
		e.Variables = make(map[string]any, len(variables))
	}
	for name, value := range variables {
		if value == nil {
			delete(e.Variables, name)
		} else {
			e.Variables[name] = value
		}
	}
}

// AddCreatedEntities merges created-entity aliases into the process.
func (e *ProcessEntity) AddCreatedEntities(createdEntities map[string]engine.CreatedEntity) {
	if len(createdEntities) == 0 {
		return
	}
	if e.CreatedEntitiesData == nil {
		e.CreatedEntitiesData = make(map[string]engine.CreatedEntity, len(createdEntities))
	}
	for alias, createdEntity := range createdEntities {
		e.CreatedEntitiesData[alias] = createdEntity
	}
}

// A FlowNodeEntity is one persisted execution token.
type FlowNodeEntity struct {
	Id          string
	ProcessId   string
	FlowchartId string

	ElementId   string
	ElementType flowchart.ElementType

	PreviousFlowNodeId          string
	PreviousFlowNodeElementType flowchart.ElementType

	DivergentFlowNodeId string

	Status engine.FlowNodeStatus

	TargetType string
	TargetId   string

	Element flowchart.Element
	Data    engine.FlowNodeData

	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func (e FlowNodeEntity) FlowNode() engine.FlowNode {
	return engine.FlowNode{
		Id:          e.Id,
		ProcessId:   e.ProcessId,
		FlowchartId: e.FlowchartId,

		ElementId:   e.ElementId,
		ElementType: e.ElementType,

		PreviousFlowNodeId:          e.PreviousFlowNodeId,
		PreviousFlowNodeElementType: e.PreviousFlowNodeElementType,

		DivergentFlowNodeId: e.DivergentFlowNodeId,

		Status: e.Status,

		TargetType: e.TargetType,
		TargetId:   e.TargetId,

		Element: e.Element,
		Data:    e.Data,

		CreatedAt:   e.CreatedAt,
		ProcessedAt: e.ProcessedAt,
	}
}

// A SignalSubscriptionEntity subscribes a pending flow node to a signal name.
type SignalSubscriptionEntity struct {
	Id         string
	SignalName string
	FlowNodeId string
	ProcessId  string
	CreatedAt  time.Time
}
