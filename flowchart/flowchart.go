package flowchart

import (
	"encoding/json"
	"fmt"
	"slices"
)

// A Flowchart is the static, versioned graph of elements a process executes.
//
// The definition is a JSON document, authored by a flow designer.
// Flowcharts are immutable: a running process snapshots the element definition
// into each of its flow nodes, so later edits do not affect in-flight processes.
type Flowchart struct {
	Id       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Elements []Element `json:"elements"`

	graph *Graph
}

// Parse unmarshals and validates a flowchart definition.
func Parse(data []byte) (*Flowchart, error) {
	var f Flowchart
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flowchart: %v", err)
	}

	if causes := f.Validate(); len(causes) != 0 {
		return nil, ValidationError{FlowchartId: f.Id, Causes: causes}
	}

	f.graph = newGraph(f.Elements)
	return &f, nil
}

// MustParse is a test utility, panicking on an invalid definition.
func MustParse(data []byte) *Flowchart {
	f, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return f
}

// Element returns the element with the given ID.
func (f *Flowchart) Element(id string) (Element, bool) {
	for i := range f.Elements {
		if f.Elements[i].Id == id {
			return f.Elements[i], true
		}
	}
	return Element{}, false
}

// StartElements returns all start event elements.
func (f *Flowchart) StartElements() []Element {
	var results []Element
	for i := range f.Elements {
		if f.Elements[i].Type == ElementEventStart {
			results = append(results, f.Elements[i])
		}
	}
	return results
}

// BoundaryElements returns all boundary events attached to the given activity element.
func (f *Flowchart) BoundaryElements(attachedToId string) []Element {
	var results []Element
	for i := range f.Elements {
		if f.Elements[i].Type.IsBoundary() && f.Elements[i].AttachedToId == attachedToId {
			results = append(results, f.Elements[i])
		}
	}
	return results
}

// Graph returns the precomputed adjacency of the definition.
func (f *Flowchart) Graph() *Graph {
	if f.graph == nil {
		f.graph = newGraph(f.Elements)
	}
	return f.graph
}

// Validate validates the definition and returns all causes that prevent execution.
func (f *Flowchart) Validate() []Cause {
	var causes []Cause

	if f.Id == "" {
		causes = append(causes, Cause{Type: "flowchart", Detail: "flowchart has no ID"})
	}
	if len(f.Elements) == 0 {
		causes = append(causes, Cause{Type: "flowchart", Detail: "flowchart has no elements"})
		return causes
	}

	ids := make(map[string]bool, len(f.Elements))
	for i := range f.Elements {
		element := &f.Elements[i]

		if element.Id == "" {
			causes = append(causes, Cause{Type: "element", Detail: fmt.Sprintf("element of type %s has no ID", element.Type)})
			continue
		}
		if ids[element.Id] {
			causes = append(causes, Cause{ElementId: element.Id, Type: "element", Detail: fmt.Sprintf("duplicate element ID %s", element.Id)})
		}
		ids[element.Id] = true

		if element.Type == 0 {
			causes = append(causes, Cause{ElementId: element.Id, Type: "element", Detail: fmt.Sprintf("element %s has no type", element.Id)})
		}
	}

	for i := range f.Elements {
		element := &f.Elements[i]
		if element.Id == "" {
			continue
		}

		for _, nextElementId := range element.NextElementIds {
			if !ids[nextElementId] {
				causes = append(causes, Cause{
					ElementId: element.Id,
					Type:      "flow",
					Detail:    fmt.Sprintf("element %s has an unknown next element %s", element.Id, nextElementId),
				})
			}
		}
		for _, previousElementId := range element.PreviousElementIds {
			if !ids[previousElementId] {
				causes = append(causes, Cause{
					ElementId: element.Id,
					Type:      "flow",
					Detail:    fmt.Sprintf("element %s has an unknown previous element %s", element.Id, previousElementId),
				})
			}
		}

		switch element.Type {
		case ElementGatewayExclusive, ElementGatewayInclusive:
			if element.DefaultNextElementId != "" && !slices.Contains(element.NextElementIds, element.DefaultNextElementId) {
				causes = append(causes, Cause{
					ElementId: element.Id,
					Type:      "element",
					Detail:    fmt.Sprintf("gateway %s has no outgoing path to its default element %s", element.Id, element.DefaultNextElementId),
				})
			}
			for _, flow := range element.Flows {
				if !slices.Contains(element.NextElementIds, flow.NextElementId) {
					causes = append(causes, Cause{
						ElementId: element.Id,
						Type:      "flow",
						Detail:    fmt.Sprintf("gateway %s has a flow condition for an unknown path %s", element.Id, flow.NextElementId),
					})
				}
			}
		case ElementEventBoundaryConditional, ElementEventBoundaryError, ElementEventBoundaryMessage, ElementEventBoundarySignal, ElementEventBoundaryTimer:
			if element.AttachedToId == "" {
				causes = append(causes, Cause{
					ElementId: element.Id,
					Type:      "element",
					Detail:    fmt.Sprintf("boundary event %s is not attached", element.Id),
				})
			} else if attachedTo, ok := f.Element(element.AttachedToId); ok && !attachedTo.Type.IsActivity() {
				causes = append(causes, Cause{
					ElementId: element.Id,
					Type:      "element",
					Detail:    fmt.Sprintf("boundary event %s is attached to %s, which is not an activity", element.Id, element.AttachedToId),
				})
			} else if !ok {
				causes = append(causes, Cause{
					ElementId: element.Id,
					Type:      "element",
					Detail:    fmt.Sprintf("boundary event %s is attached to an unknown element %s", element.Id, element.AttachedToId),
				})
			}
		case ElementEventIntermediateTimerCatch, ElementEventStart:
			// a plain start event needs no attributes
		case ElementSubProcess:
			if element.SubFlowchartId == "" {
				causes = append(causes, Cause{
					ElementId: element.Id,
					Type:      "element",
					Detail:    fmt.Sprintf("sub process %s references no flowchart", element.Id),
				})
			}
		}

		if element.Timer != nil {
			causes = append(causes, validateTimer(element)...)
		}
	}

	return causes
}

func validateTimer(element *Element) []Cause {
	var causes []Cause

	timer := element.Timer
	switch timer.Base {
	case TimerBaseMoment:
	case TimerBaseFormula:
		if timer.Formula == "" {
			causes = append(causes, Cause{ElementId: element.Id, Type: "timer", Detail: fmt.Sprintf("timer of element %s has no formula", element.Id)})
		}
	case TimerBaseField:
		if timer.Field == "" {
			causes = append(causes, Cause{ElementId: element.Id, Type: "timer", Detail: fmt.Sprintf("timer of element %s has no field", element.Id)})
		}
	case TimerBaseCron:
		if timer.Cron == "" {
			causes = append(causes, Cause{ElementId: element.Id, Type: "timer", Detail: fmt.Sprintf("timer of element %s has no cron expression", element.Id)})
		}
	default:
		causes = append(causes, Cause{ElementId: element.Id, Type: "timer", Detail: fmt.Sprintf("timer of element %s has an unsupported base %q", element.Id, timer.Base)})
	}

	return causes
}

// A Cause locates one defect of an invalid flowchart definition.
type Cause struct {
	ElementId string // ID of the invalid element, if any.
	Type      string // Type indicator.
	Detail    string // Human-readable, detailed information about the cause.
}

func (c Cause) String() string {
	if c.ElementId == "" {
		return fmt.Sprintf("%s: %s", c.Type, c.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", c.Type, c.ElementId, c.Detail)
}

// A ValidationError is returned when a flowchart definition cannot be executed.
type ValidationError struct {
	FlowchartId string
	Causes      []Cause
}

func (e ValidationError) Error() string {
	s := fmt.Sprintf("invalid flowchart %s", e.FlowchartId)
	for _, cause := range e.Causes {
		s += "\n" + cause.String()
	}
	return s
}
