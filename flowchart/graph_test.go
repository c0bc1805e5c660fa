package flowchart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func parallelForkJoin() *Flowchart {
	return MustParse([]byte(`{
		"id": "parallelTest",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["fork"]},
			{"id": "fork", "type": "GATEWAY_PARALLEL", "previousElementIds": ["start"], "nextElementIds": ["a", "b"]},
			{"id": "a", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "b", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "join", "type": "GATEWAY_PARALLEL", "previousElementIds": ["a", "b"], "nextElementIds": ["end"]},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["join"]}
		]
	}`))
}

func TestGraphReaches(t *testing.T) {
	assert := assert.New(t)

	g := parallelForkJoin().Graph()

	assert.True(g.Reaches("start", "end"))
	assert.True(g.Reaches("a", "join"))
	assert.True(g.Reaches("join", "join"))
	assert.False(g.Reaches("end", "start"))
	assert.False(g.Reaches("a", "b"))
}

func TestGraphClosesFork(t *testing.T) {
	assert := assert.New(t)

	t.Run("balancing join", func(t *testing.T) {
		g := parallelForkJoin().Graph()

		assert.True(g.ClosesFork("join", "fork"))
	})

	t.Run("partial join is not balancing", func(t *testing.T) {
		// join merges only two of three fork branches
		g := MustParse([]byte(`{
			"id": "partialJoinTest",
			"elements": [
				{"id": "fork", "type": "GATEWAY_PARALLEL", "nextElementIds": ["a", "b", "c"]},
				{"id": "a", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
				{"id": "b", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
				{"id": "c", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["end2"]},
				{"id": "join", "type": "GATEWAY_PARALLEL", "previousElementIds": ["a", "b"], "nextElementIds": ["end"]},
				{"id": "end", "type": "EVENT_END", "previousElementIds": ["join"]},
				{"id": "end2", "type": "EVENT_END", "previousElementIds": ["c"]}
			]
		}`)).Graph()

		assert.False(g.ClosesFork("join", "fork"))
	})

	t.Run("join fed from outside the fork is not balancing", func(t *testing.T) {
		g := MustParse([]byte(`{
			"id": "outsideJoinTest",
			"elements": [
				{"id": "start", "type": "EVENT_START", "nextElementIds": ["fork", "x"]},
				{"id": "fork", "type": "GATEWAY_PARALLEL", "previousElementIds": ["start"], "nextElementIds": ["a"]},
				{"id": "a", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
				{"id": "x", "type": "TASK", "previousElementIds": ["start"], "nextElementIds": ["join"]},
				{"id": "join", "type": "GATEWAY_PARALLEL", "previousElementIds": ["a", "x"], "nextElementIds": ["end"]},
				{"id": "end", "type": "EVENT_END", "previousElementIds": ["join"]}
			]
		}`)).Graph()

		assert.False(g.ClosesFork("join", "fork"))
	})

	t.Run("nested forks", func(t *testing.T) {
		g := MustParse([]byte(`{
			"id": "nestedTest",
			"elements": [
				{"id": "outerFork", "type": "GATEWAY_PARALLEL", "nextElementIds": ["innerFork", "c"]},
				{"id": "innerFork", "type": "GATEWAY_PARALLEL", "previousElementIds": ["outerFork"], "nextElementIds": ["a", "b"]},
				{"id": "a", "type": "TASK", "previousElementIds": ["innerFork"], "nextElementIds": ["innerJoin"]},
				{"id": "b", "type": "TASK", "previousElementIds": ["innerFork"], "nextElementIds": ["innerJoin"]},
				{"id": "innerJoin", "type": "GATEWAY_PARALLEL", "previousElementIds": ["a", "b"], "nextElementIds": ["outerJoin"]},
				{"id": "c", "type": "TASK", "previousElementIds": ["outerFork"], "nextElementIds": ["outerJoin"]},
				{"id": "outerJoin", "type": "GATEWAY_PARALLEL", "previousElementIds": ["innerJoin", "c"], "nextElementIds": ["end"]},
				{"id": "end", "type": "EVENT_END", "previousElementIds": ["outerJoin"]}
			]
		}`)).Graph()

		assert.True(g.ClosesFork("innerJoin", "innerFork"))
		assert.True(g.ClosesFork("outerJoin", "outerFork"))
		assert.False(g.ClosesFork("innerJoin", "outerFork"))
		assert.False(g.ClosesFork("outerJoin", "innerFork"))
	})
}

func TestGraphActualIncoming(t *testing.T) {
	assert := assert.New(t)

	g := MustParse([]byte(`{
		"id": "inclusiveTest",
		"elements": [
			{"id": "fork", "type": "GATEWAY_INCLUSIVE", "nextElementIds": ["a", "b", "c"]},
			{"id": "a", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "b", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "c", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "join", "type": "GATEWAY_INCLUSIVE", "previousElementIds": ["a", "b", "c"], "nextElementIds": ["end"]},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["join"]}
		]
	}`)).Graph()

	assert.ElementsMatch([]string{"a", "b"}, g.ActualIncoming("join", []string{"a", "b"}))
	assert.ElementsMatch([]string{"c"}, g.ActualIncoming("join", []string{"c"}))
	assert.Empty(g.ActualIncoming("join", nil))
}
