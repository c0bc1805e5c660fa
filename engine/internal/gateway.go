package internal

import (
	"github.com/monostax/bpmflow/flowchart"
)

// evaluateJoin decides if a converging gateway is satisfied: the number of
// sibling arrivals (same process, same element, same divergent flow node) must
// reach the expected count. An inclusive fork may have skipped paths, so an
// inclusive join expects only the incoming paths reachable from the fork's
// activated branches.
//
// The returned divergent flow node ID is the correlation the continued flow
// carries: when the join closes exactly the fork that opened it (a balancing
// join), the flow un-nests one level by taking over the fork's own correlation.
// A non-balancing join keeps the current one.
func evaluateJoin(ctx Context, process *ProcessEntity, node *FlowNodeEntity) (bool, string, error) {
	arrived, err := ctx.FlowNodes().CountJoinArrivals(node.ProcessId, node.ElementId, node.DivergentFlowNodeId)
	if err != nil {
		return false, "", err
	}

	expected := node.Element.InDegree()
	propagated := node.DivergentFlowNodeId

	if node.DivergentFlowNodeId != "" {
		fork, err := ctx.FlowNodes().Select(node.DivergentFlowNodeId)
		if err != nil {
			return false, "", err
		}

		f, err := flowchartOf(ctx, process)
		if err != nil {
			return false, "", err
		}
		graph := f.Graph()

		if fork.ElementType == flowchart.ElementGatewayInclusive && len(fork.Data.ActivatedElementIds) != 0 {
			actual := graph.ActualIncoming(node.ElementId, fork.Data.ActivatedElementIds)
			if len(actual) != 0 {
				expected = len(actual)
			}
		}

		if graph.ClosesFork(node.ElementId, fork.ElementId) {
			propagated = fork.DivergentFlowNodeId
		}
	}

	return arrived >= expected, propagated, nil
}

// chooseFlows evaluates the conditional outgoing paths of a gateway in
// definition order. exclusive stops at the first match.
func chooseFlows(ctx Context, process *ProcessEntity, node *FlowNodeEntity, exclusive bool) ([]string, error) {
	element := node.Element

	var activated []string
	for _, flow := range element.Flows {
		met, err := evaluateConditionBundle(ctx, process, node, flow.Conditions)
		if err != nil {
			return nil, err
		}
		if !met {
			continue
		}
		activated = append(activated, flow.NextElementId)
		if exclusive {
			return activated, nil
		}
	}

	if len(activated) != 0 {
		return activated, nil
	}

	if element.DefaultNextElementId != "" {
		return []string{element.DefaultNextElementId}, nil
	}
	if len(element.Flows) == 0 {
		// an unconditional gateway passes through
		return element.NextElementIds, nil
	}

	// no condition matched and no default path is set - the branch ends
	return nil, nil
}

// exclusiveGatewayBehavior takes one outgoing path: the first matching flow
// condition in definition order, or the default path. Without a match or a
// default, the branch ends. As convergence it passes every arrival through.
type exclusiveGatewayBehavior struct {
	defaultBehavior
}

func (exclusiveGatewayBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	next, err := chooseFlows(ctx, process, node, true)
	if err != nil {
		return err
	}
	if len(next) == 0 {
		return endProcessFlow(ctx, process, node)
	}
	return completeFlowNodeTo(ctx, process, node, next, node.DivergentFlowNodeId)
}

// parallelGatewayBehavior forks every outgoing path and joins every incoming
// path. Arrivals before the last are rejected; the last satisfies the join and
// continues the flow.
type parallelGatewayBehavior struct {
	defaultBehavior
}

func (parallelGatewayBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	divergentFlowNodeId := node.DivergentFlowNodeId

	if node.Element.InDegree() > 1 {
		satisfied, propagated, err := evaluateJoin(ctx, process, node)
		if err != nil {
			return err
		}
		if !satisfied {
			return rejectFlowNode(ctx, process, node)
		}
		divergentFlowNodeId = propagated
	}

	// a satisfied balancing join un-nests the gateway itself
	node.DivergentFlowNodeId = divergentFlowNodeId

	if node.Element.OutDegree() > 1 {
		// the gateway itself becomes the fork correlation of its branches
		return completeFlowNodeTo(ctx, process, node, node.Element.NextElementIds, node.Id)
	}
	return completeFlowNodeTo(ctx, process, node, node.Element.NextElementIds, divergentFlowNodeId)
}

// inclusiveGatewayBehavior activates the subset of outgoing paths whose flow
// conditions match. The activated paths are recorded in the fork's flow node
// data, so the matching join knows how many arrivals to expect.
type inclusiveGatewayBehavior struct {
	defaultBehavior
}

func (inclusiveGatewayBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	divergentFlowNodeId := node.DivergentFlowNodeId

	if node.Element.InDegree() > 1 {
		satisfied, propagated, err := evaluateJoin(ctx, process, node)
		if err != nil {
			return err
		}
		if !satisfied {
			return rejectFlowNode(ctx, process, node)
		}
		divergentFlowNodeId = propagated
	}

	// a satisfied balancing join un-nests the gateway itself
	node.DivergentFlowNodeId = divergentFlowNodeId

	if node.Element.OutDegree() <= 1 {
		return completeFlowNodeTo(ctx, process, node, node.Element.NextElementIds, divergentFlowNodeId)
	}

	activated, err := chooseFlows(ctx, process, node, false)
	if err != nil {
		return err
	}
	if len(activated) == 0 {
		return endProcessFlow(ctx, process, node)
	}

	// the activated paths are recorded even when only one matched - the
	// matching join still converges a gateway with more static incoming paths
	// and must know which arrivals to expect
	node.Data.ActivatedElementIds = activated
	if err := ctx.FlowNodes().Update(node); err != nil {
		return err
	}
	return completeFlowNodeTo(ctx, process, node, activated, node.Id)
}

// eventBasedGatewayBehavior races its outgoing catch events: every one becomes
// a pending flow node and the first to fire rejects its siblings.
type eventBasedGatewayBehavior struct {
	defaultBehavior
}

func (eventBasedGatewayBehavior) Process(ctx Context, process *ProcessEntity, node *FlowNodeEntity) error {
	return completeFlowNode(ctx, process, node)
}
