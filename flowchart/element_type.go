package flowchart

import "fmt"

// ElementType describes the different flowchart element types - activities, gateways and events.
type ElementType int

const (
	ElementEventStart ElementType = iota + 1
	ElementEventEnd
	ElementEventEndError
	ElementEventEndSignalThrow
	ElementEventEndTerminate
	ElementEventIntermediateConditionalCatch
	ElementEventIntermediateMessageCatch
	ElementEventIntermediateSignalCatch
	ElementEventIntermediateSignalThrow
	ElementEventIntermediateTimerCatch
	ElementEventBoundaryConditional
	ElementEventBoundaryError
	ElementEventBoundaryMessage
	ElementEventBoundarySignal
	ElementEventBoundaryTimer
	ElementGatewayEventBased
	ElementGatewayExclusive
	ElementGatewayInclusive
	ElementGatewayParallel
	ElementScriptTask
	ElementSubProcess
	ElementTask
	ElementUserTask
)

func MapElementType(s string) ElementType {
	switch s {
	case "EVENT_START":
		return ElementEventStart
	case "EVENT_END":
		return ElementEventEnd
	case "EVENT_END_ERROR":
		return ElementEventEndError
	case "EVENT_END_SIGNAL_THROW":
		return ElementEventEndSignalThrow
	case "EVENT_END_TERMINATE":
		return ElementEventEndTerminate
	case "EVENT_INTERMEDIATE_CONDITIONAL_CATCH":
		return ElementEventIntermediateConditionalCatch
	case "EVENT_INTERMEDIATE_MESSAGE_CATCH":
		return ElementEventIntermediateMessageCatch
	case "EVENT_INTERMEDIATE_SIGNAL_CATCH":
		return ElementEventIntermediateSignalCatch
	case "EVENT_INTERMEDIATE_SIGNAL_THROW":
		return ElementEventIntermediateSignalThrow
	case "EVENT_INTERMEDIATE_TIMER_CATCH":
		return ElementEventIntermediateTimerCatch
	case "EVENT_BOUNDARY_CONDITIONAL":
		return ElementEventBoundaryConditional
	case "EVENT_BOUNDARY_ERROR":
		return ElementEventBoundaryError
	case "EVENT_BOUNDARY_MESSAGE":
		return ElementEventBoundaryMessage
	case "EVENT_BOUNDARY_SIGNAL":
		return ElementEventBoundarySignal
	case "EVENT_BOUNDARY_TIMER":
		return ElementEventBoundaryTimer
	case "GATEWAY_EVENT_BASED":
		return ElementGatewayEventBased
	case "GATEWAY_EXCLUSIVE":
		return ElementGatewayExclusive
	case "GATEWAY_INCLUSIVE":
		return ElementGatewayInclusive
	case "GATEWAY_PARALLEL":
		return ElementGatewayParallel
	case "SCRIPT_TASK":
		return ElementScriptTask
	case "SUB_PROCESS":
		return ElementSubProcess
	case "TASK":
		return ElementTask
	case "USER_TASK":
		return ElementUserTask
	default:
		return 0
	}
}

func (v ElementType) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ElementType) String() string {
	switch v {
	case ElementEventStart:
		return "EVENT_START"
	case ElementEventEnd:
		return "EVENT_END"
	case ElementEventEndError:
		return "EVENT_END_ERROR"
	case ElementEventEndSignalThrow:
		return "EVENT_END_SIGNAL_THROW"
	case ElementEventEndTerminate:
		return "EVENT_END_TERMINATE"
	case ElementEventIntermediateConditionalCatch:
		return "EVENT_INTERMEDIATE_CONDITIONAL_CATCH"
	case ElementEventIntermediateMessageCatch:
		return "EVENT_INTERMEDIATE_MESSAGE_CATCH"
	case ElementEventIntermediateSignalCatch:
		return "EVENT_INTERMEDIATE_SIGNAL_CATCH"
	case ElementEventIntermediateSignalThrow:
		return "EVENT_INTERMEDIATE_SIGNAL_THROW"
	case ElementEventIntermediateTimerCatch:
		return "EVENT_INTERMEDIATE_TIMER_CATCH"
	case ElementEventBoundaryConditional:
		return "EVENT_BOUNDARY_CONDITIONAL"
	case ElementEventBoundaryError:
		return "EVENT_BOUNDARY_ERROR"
	case ElementEventBoundaryMessage:
		return "EVENT_BOUNDARY_MESSAGE"
	case ElementEventBoundarySignal:
		return "EVENT_BOUNDARY_SIGNAL"
	case ElementEventBoundaryTimer:
		return "EVENT_BOUNDARY_TIMER"
	case ElementGatewayEventBased:
		return "GATEWAY_EVENT_BASED"
	case ElementGatewayExclusive:
		return "GATEWAY_EXCLUSIVE"
	case ElementGatewayInclusive:
		return "GATEWAY_INCLUSIVE"
	case ElementGatewayParallel:
		return "GATEWAY_PARALLEL"
	case ElementScriptTask:
		return "SCRIPT_TASK"
	case ElementSubProcess:
		return "SUB_PROCESS"
	case ElementTask:
		return "TASK"
	case ElementUserTask:
		return "USER_TASK"
	default:
		return ""
	}
}

func (v *ElementType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapElementType(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid element type data %s", s)
	}
	return nil
}

// IsActivity determines if the element type is an activity that boundary events can be attached to.
func (v ElementType) IsActivity() bool {
	switch v {
	case ElementScriptTask, ElementSubProcess, ElementTask, ElementUserTask:
		return true
	default:
		return false
	}
}

// IsBoundary determines if the element type is a boundary event.
func (v ElementType) IsBoundary() bool {
	switch v {
	case
		ElementEventBoundaryConditional,
		ElementEventBoundaryError,
		ElementEventBoundaryMessage,
		ElementEventBoundarySignal,
		ElementEventBoundaryTimer:
		return true
	default:
		return false
	}
}

// IsCatchEvent determines if the element type waits for an external trigger.
func (v ElementType) IsCatchEvent() bool {
	switch v {
	case
		ElementEventBoundaryConditional,
		ElementEventBoundaryMessage,
		ElementEventBoundarySignal,
		ElementEventBoundaryTimer,
		ElementEventIntermediateConditionalCatch,
		ElementEventIntermediateMessageCatch,
		ElementEventIntermediateSignalCatch,
		ElementEventIntermediateTimerCatch:
		return true
	default:
		return false
	}
}

// IsGateway determines if the element type is a gateway.
func (v ElementType) IsGateway() bool {
	switch v {
	case ElementGatewayEventBased, ElementGatewayExclusive, ElementGatewayInclusive, ElementGatewayParallel:
		return true
	default:
		return false
	}
}

// IsEnd determines if the element type ends a process flow.
func (v ElementType) IsEnd() bool {
	switch v {
	case ElementEventEnd, ElementEventEndError, ElementEventEndSignalThrow, ElementEventEndTerminate:
		return true
	default:
		return false
	}
}
