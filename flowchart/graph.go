package flowchart

// A Graph is the precomputed adjacency of a flowchart definition.
//
// Gateway convergence uses it to decide if a join closes the fork that opened
// it and which incoming paths of an inclusive join can actually be reached.
// Reachability is computed over the static definition, not over persisted
// flow node rows.
type Graph struct {
	elements map[string]Element
	reach    map[string]map[string]bool
}

func newGraph(elements []Element) *Graph {
	g := Graph{
		elements: make(map[string]Element, len(elements)),
		reach:    make(map[string]map[string]bool),
	}
	for i := range elements {
		g.elements[elements[i].Id] = elements[i]
	}
	return &g
}

// Element returns the element with the given ID.
func (g *Graph) Element(id string) (Element, bool) {
	element, ok := g.elements[id]
	return element, ok
}

// Reaches determines if toId can be reached from fromId, following outgoing paths.
// An element reaches itself.
func (g *Graph) Reaches(fromId string, toId string) bool {
	if fromId == toId {
		return true
	}
	return g.reachableFrom(fromId)[toId]
}

func (g *Graph) reachableFrom(fromId string) map[string]bool {
	if memo, ok := g.reach[fromId]; ok {
		return memo
	}

	visited := make(map[string]bool)

	queue := []string{fromId}
	for len(queue) != 0 {
		id := queue[0]
		queue = queue[1:]

		element, ok := g.elements[id]
		if !ok {
			continue
		}
		for _, nextElementId := range element.NextElementIds {
			if visited[nextElementId] {
				continue
			}
			visited[nextElementId] = true
			queue = append(queue, nextElementId)
		}
	}

	g.reach[fromId] = visited
	return visited
}

// ClosesFork determines if the convergence closes exactly the fork that opened
// it - a balancing join. Every outgoing branch of the fork must map 1:1 to a
// converging incoming path: branch and incoming counts are equal, each branch
// head reaches the convergence and each incoming path originates from the fork.
//
// A partial join inside a still-open fork (loops, irregular graphs) is not
// balancing; its tokens keep their current fork correlation.
func (g *Graph) ClosesFork(convergeId string, forkId string) bool {
	converge, ok := g.elements[convergeId]
	if !ok {
		return false
	}
	fork, ok := g.elements[forkId]
	if !ok {
		return false
	}

	if len(converge.PreviousElementIds) != len(fork.NextElementIds) {
		return false
	}

	for _, branchHeadId := range fork.NextElementIds {
		if !g.Reaches(branchHeadId, convergeId) {
			return false
		}
	}
	for _, previousElementId := range converge.PreviousElementIds {
		if !g.Reaches(forkId, previousElementId) {
			return false
		}
	}

	return true
}

// ActualIncoming returns the incoming paths of a convergence that are reachable
// from the activated branch heads of its fork. An inclusive gateway join counts
// only these paths toward its expected arrivals, because an inclusive fork may
// not activate every outgoing path.
func (g *Graph) ActualIncoming(convergeId string, activatedElementIds []string) []string {
	converge, ok := g.elements[convergeId]
	if !ok {
		return nil
	}

	var results []string
	for _, previousElementId := range converge.PreviousElementIds {
		for _, activatedElementId := range activatedElementIds {
			if g.Reaches(activatedElementId, previousElementId) {
				results = append(results, previousElementId)
				break
			}
		}
	}
	return results
}
