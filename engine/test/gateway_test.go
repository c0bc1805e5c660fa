package test

import (
	"context"
	"testing"

	"github.com/monostax/bpmflow/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusiveGateway(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "exclusive",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["decide"]},
			{
				"id": "decide",
				"type": "GATEWAY_EXCLUSIVE",
				"previousElementIds": ["start"],
				"nextElementIds": ["bigEnd", "smallEnd", "emptyEnd"],
				"flows": [
					{"nextElementId": "bigEnd", "conditions": {"all": [{"attribute": "$amount", "comparison": "GREATER_THAN", "value": 1000}]}},
					{"nextElementId": "smallEnd", "conditions": {"all": [{"attribute": "$amount", "comparison": "GREATER_THAN", "value": 100}]}}
				],
				"defaultNextElementId": "emptyEnd"
			},
			{"id": "bigEnd", "type": "EVENT_END", "previousElementIds": ["decide"]},
			{"id": "smallEnd", "type": "EVENT_END", "previousElementIds": ["decide"]},
			{"id": "emptyEnd", "type": "EVENT_END", "previousElementIds": ["decide"]}
		]
	}`)

	t.Run("takes the first matching flow", func(t *testing.T) {
		process := x.mustStart(t, "exclusive", map[string]any{"amount": 5000})

		assert.Equal(engine.ProcessProcessed, process.Status)
		assert.Len(x.flowNodesAt(t, process.Id, "bigEnd"), 1)
		assert.Empty(x.flowNodesAt(t, process.Id, "smallEnd"))
		assert.Empty(x.flowNodesAt(t, process.Id, "emptyEnd"))
	})

	t.Run("stops at the first match in definition order", func(t *testing.T) {
		process := x.mustStart(t, "exclusive", map[string]any{"amount": 500})

		assert.Equal(engine.ProcessProcessed, process.Status)
		assert.Empty(x.flowNodesAt(t, process.Id, "bigEnd"))
		assert.Len(x.flowNodesAt(t, process.Id, "smallEnd"), 1)
	})

	t.Run("takes the default path when no flow matches", func(t *testing.T) {
		process := x.mustStart(t, "exclusive", map[string]any{"amount": 10})

		assert.Equal(engine.ProcessProcessed, process.Status)
		assert.Len(x.flowNodesAt(t, process.Id, "emptyEnd"), 1)
	})

	t.Run("ends the branch without error when no flow matches and no default is set", func(t *testing.T) {
		x.mustDeploy(t, `{
			"id": "exclusiveNoDefault",
			"elements": [
				{"id": "start", "type": "EVENT_START", "nextElementIds": ["decide"]},
				{
					"id": "decide",
					"type": "GATEWAY_EXCLUSIVE",
					"previousElementIds": ["start"],
					"nextElementIds": ["end"],
					"flows": [
						{"nextElementId": "end", "conditions": {"all": [{"attribute": "$amount", "comparison": "GREATER_THAN", "value": 1000}]}}
					]
				},
				{"id": "end", "type": "EVENT_END", "previousElementIds": ["decide"]}
			]
		}`)

		process := x.mustStart(t, "exclusiveNoDefault", map[string]any{"amount": 10})

		assert.Equal(engine.ProcessProcessed, process.Status)
		assert.Empty(process.ErrorCode)

		decide := x.flowNodeAt(t, process.Id, "decide")
		assert.Equal(engine.FlowNodeProcessed, decide.Status)
		assert.Empty(decide.Data.ErrorCode)

		// the branch ended at the gateway, no token reached the end event
		assert.Empty(x.flowNodesAt(t, process.Id, "end"))
	})
}

func TestParallelGateway(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "parallel",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["fork"]},
			{"id": "fork", "type": "GATEWAY_PARALLEL", "previousElementIds": ["start"], "nextElementIds": ["taskA", "taskB"]},
			{"id": "taskA", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "taskB", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "join", "type": "GATEWAY_PARALLEL", "previousElementIds": ["taskA", "taskB"], "nextElementIds": ["end"]},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["join"]}
		]
	}`)

	t.Run("forks and joins", func(t *testing.T) {
		process := x.mustStart(t, "parallel", nil)

		assert.Equal(engine.ProcessProcessed, process.Status)

		fork := x.flowNodeAt(t, process.Id, "fork")
		assert.Equal(engine.FlowNodeProcessed, fork.Status)

		// both branches carry the fork as correlation
		taskA := x.flowNodeAt(t, process.Id, "taskA")
		taskB := x.flowNodeAt(t, process.Id, "taskB")
		assert.Equal(fork.Id, taskA.DivergentFlowNodeId)
		assert.Equal(fork.Id, taskB.DivergentFlowNodeId)

		// the first arrival is rejected, the last satisfies the join
		joins := x.flowNodesAt(t, process.Id, "join")
		require.Len(t, joins, 2)
		assert.Equal(engine.FlowNodeRejected, joins[0].Status)
		assert.Equal(engine.FlowNodeProcessed, joins[1].Status)

		// the balancing join un-nests the correlation
		end := x.flowNodeAt(t, process.Id, "end")
		assert.Empty(end.DivergentFlowNodeId)
	})

	t.Run("nested forks join level by level", func(t *testing.T) {
		x.mustDeploy(t, `{
			"id": "parallelNested",
			"elements": [
				{"id": "start", "type": "EVENT_START", "nextElementIds": ["fork1"]},
				{"id": "fork1", "type": "GATEWAY_PARALLEL", "previousElementIds": ["start"], "nextElementIds": ["taskA", "fork2"]},
				{"id": "taskA", "type": "TASK", "previousElementIds": ["fork1"], "nextElementIds": ["join1"]},
				{"id": "fork2", "type": "GATEWAY_PARALLEL", "previousElementIds": ["fork1"], "nextElementIds": ["taskB", "taskC"]},
				{"id": "taskB", "type": "TASK", "previousElementIds": ["fork2"], "nextElementIds": ["join2"]},
				{"id": "taskC", "type": "TASK", "previousElementIds": ["fork2"], "nextElementIds": ["join2"]},
				{"id": "join2", "type": "GATEWAY_PARALLEL", "previousElementIds": ["taskB", "taskC"], "nextElementIds": ["join1"]},
				{"id": "join1", "type": "GATEWAY_PARALLEL", "previousElementIds": ["taskA", "join2"], "nextElementIds": ["end"]},
				{"id": "end", "type": "EVENT_END", "previousElementIds": ["join1"]}
			]
		}`)

		process := x.mustStart(t, "parallelNested", nil)

		assert.Equal(engine.ProcessProcessed, process.Status)

		fork1 := x.flowNodeAt(t, process.Id, "fork1")
		fork2 := x.flowNodeAt(t, process.Id, "fork2")
		assert.Empty(fork1.DivergentFlowNodeId)
		assert.Equal(fork1.Id, fork2.DivergentFlowNodeId)

		// the inner join un-nests to the outer fork's correlation, so both
		// arrivals of the outer join correlate on fork1
		join1s := x.flowNodesAt(t, process.Id, "join1")
		require.Len(t, join1s, 2)
		for _, join1 := range join1s {
			assert.Equal(fork1.Id, join1.DivergentFlowNodeId)
		}

		end := x.flowNodeAt(t, process.Id, "end")
		assert.Equal(engine.FlowNodeProcessed, end.Status)
	})
}

func TestInclusiveGateway(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "inclusive",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["fork"]},
			{
				"id": "fork",
				"type": "GATEWAY_INCLUSIVE",
				"previousElementIds": ["start"],
				"nextElementIds": ["taskA", "taskB", "taskC"],
				"flows": [
					{"nextElementId": "taskA", "conditions": {"all": [{"attribute": "$a", "comparison": "IS_TRUE"}]}},
					{"nextElementId": "taskB", "conditions": {"all": [{"attribute": "$b", "comparison": "IS_TRUE"}]}},
					{"nextElementId": "taskC", "conditions": {"all": [{"attribute": "$c", "comparison": "IS_TRUE"}]}}
				]
			},
			{"id": "taskA", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "taskB", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "taskC", "type": "TASK", "previousElementIds": ["fork"], "nextElementIds": ["join"]},
			{"id": "join", "type": "GATEWAY_INCLUSIVE", "previousElementIds": ["taskA", "taskB", "taskC"], "nextElementIds": ["end"]},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["join"]}
		]
	}`)

	t.Run("activates the matching subset", func(t *testing.T) {
		process := x.mustStart(t, "inclusive", map[string]any{"a": true, "b": false, "c": true})

		assert.Equal(engine.ProcessProcessed, process.Status)

		fork := x.flowNodeAt(t, process.Id, "fork")
		assert.ElementsMatch([]string{"taskA", "taskC"}, fork.Data.ActivatedElementIds)

		assert.Len(x.flowNodesAt(t, process.Id, "taskA"), 1)
		assert.Empty(x.flowNodesAt(t, process.Id, "taskB"))
		assert.Len(x.flowNodesAt(t, process.Id, "taskC"), 1)

		// the join expects only the two activated arrivals
		joins := x.flowNodesAt(t, process.Id, "join")
		require.Len(t, joins, 2)
		assert.Equal(engine.FlowNodeRejected, joins[0].Status)
		assert.Equal(engine.FlowNodeProcessed, joins[1].Status)
	})

	t.Run("a single activated path satisfies the join alone", func(t *testing.T) {
		process := x.mustStart(t, "inclusive", map[string]any{"b": true})

		assert.Equal(engine.ProcessProcessed, process.Status)

		fork := x.flowNodeAt(t, process.Id, "fork")
		assert.Equal([]string{"taskB"}, fork.Data.ActivatedElementIds)

		taskB := x.flowNodeAt(t, process.Id, "taskB")
		assert.Equal(fork.Id, taskB.DivergentFlowNodeId)

		joins := x.flowNodesAt(t, process.Id, "join")
		require.Len(t, joins, 1)
		assert.Equal(engine.FlowNodeProcessed, joins[0].Status)

		// the balancing join un-nests back to the root correlation
		end := x.flowNodeAt(t, process.Id, "end")
		assert.Empty(end.DivergentFlowNodeId)
	})

	t.Run("ends the branch without error when no flow matches", func(t *testing.T) {
		process := x.mustStart(t, "inclusive", map[string]any{"a": false, "b": false, "c": false})

		assert.Equal(engine.ProcessProcessed, process.Status)
		assert.Empty(process.ErrorCode)

		fork := x.flowNodeAt(t, process.Id, "fork")
		assert.Equal(engine.FlowNodeProcessed, fork.Status)
		assert.Empty(fork.Data.ActivatedElementIds)

		assert.Empty(x.flowNodesAt(t, process.Id, "taskA"))
		assert.Empty(x.flowNodesAt(t, process.Id, "join"))
		assert.Empty(x.flowNodesAt(t, process.Id, "end"))
	})
}

func TestEventBasedGateway(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "eventBased",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["race"]},
			{"id": "race", "type": "GATEWAY_EVENT_BASED", "previousElementIds": ["start"], "nextElementIds": ["approved", "timeout"]},
			{"id": "approved", "type": "EVENT_INTERMEDIATE_SIGNAL_CATCH", "signalName": "approved", "previousElementIds": ["race"], "nextElementIds": ["approvedEnd"]},
			{
				"id": "timeout",
				"type": "EVENT_INTERMEDIATE_TIMER_CATCH",
				"previousElementIds": ["race"],
				"nextElementIds": ["timeoutEnd"],
				"timer": {"base": "moment", "shift": "P1D"}
			},
			{"id": "approvedEnd", "type": "EVENT_END", "previousElementIds": ["approved"]},
			{"id": "timeoutEnd", "type": "EVENT_END", "previousElementIds": ["timeout"]}
		]
	}`)

	process := x.mustStart(t, "eventBased", nil)
	assert.Equal(engine.ProcessStarted, process.Status)

	// both catch events are pending
	approved := x.flowNodeAt(t, process.Id, "approved")
	timeout := x.flowNodeAt(t, process.Id, "timeout")
	assert.Equal(engine.FlowNodePending, approved.Status)
	assert.Equal(engine.FlowNodePending, timeout.Status)

	// the first firing event rejects its racing sibling
	notified, err := x.e.SendSignal(context.Background(), engine.SendSignalCmd{Name: "approved"})
	require.NoError(t, err)
	assert.Equal(1, notified)

	process = x.mustGetProcess(t, process.Id)
	assert.Equal(engine.ProcessProcessed, process.Status)

	approved = x.flowNodeAt(t, process.Id, "approved")
	timeout = x.flowNodeAt(t, process.Id, "timeout")
	assert.Equal(engine.FlowNodeProcessed, approved.Status)
	assert.Equal(engine.FlowNodeRejected, timeout.Status)

	assert.Len(x.flowNodesAt(t, process.Id, "approvedEnd"), 1)
	assert.Empty(x.flowNodesAt(t, process.Id, "timeoutEnd"))
}
