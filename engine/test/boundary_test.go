package test

import (
	"context"
	"testing"
	"time"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptingBoundaryTimer(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "escalation",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["approve"]},
			{"id": "approve", "type": "USER_TASK", "previousElementIds": ["start"], "nextElementIds": ["end"]},
			{
				"id": "timeout",
				"type": "EVENT_BOUNDARY_TIMER",
				"attachedToId": "approve",
				"cancelActivity": true,
				"timer": {"base": "moment", "shift": "PT4H"},
				"nextElementIds": ["escalated"]
			},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["approve"]},
			{"id": "escalated", "type": "EVENT_END", "previousElementIds": ["timeout"]}
		]
	}`)

	t.Run("interrupts the activity when it fires", func(t *testing.T) {
		process := x.mustStart(t, "escalation", nil)

		approve := x.flowNodeAt(t, process.Id, "approve")
		timeout := x.flowNodeAt(t, process.Id, "timeout")
		assert.Equal(engine.FlowNodePending, approve.Status)
		assert.Equal(engine.FlowNodePending, timeout.Status)
		assert.Equal(approve.Id, timeout.PreviousFlowNodeId)

		require.NoError(t, mem.SetTime(x.e, time.Now().Add(5*time.Hour)))
		proceeded := x.mustProceedDue(t)
		require.Len(t, proceeded, 1)

		process = x.mustGetProcess(t, process.Id)
		assert.Equal(engine.ProcessProcessed, process.Status)

		approve = x.flowNodeAt(t, process.Id, "approve")
		assert.Equal(engine.FlowNodeInterrupted, approve.Status)

		assert.Len(x.flowNodesAt(t, process.Id, "escalated"), 1)
		assert.Empty(x.flowNodesAt(t, process.Id, "end"))
	})

	t.Run("is rejected when the activity completes first", func(t *testing.T) {
		process := x.mustStart(t, "escalation", nil)

		approve := x.flowNodeAt(t, process.Id, "approve")
		_, err := x.e.CompleteUserTask(context.Background(), engine.CompleteUserTaskCmd{
			FlowNodeId: approve.Id,
			Resolution: "APPROVED",
		})
		require.NoError(t, err)

		process = x.mustGetProcess(t, process.Id)
		assert.Equal(engine.ProcessProcessed, process.Status)

		timeout := x.flowNodeAt(t, process.Id, "timeout")
		assert.Equal(engine.FlowNodeRejected, timeout.Status)

		assert.Len(x.flowNodesAt(t, process.Id, "end"), 1)
		assert.Empty(x.flowNodesAt(t, process.Id, "escalated"))
	})
}

func TestNonInterruptingBoundarySignal(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "reminder",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["approve"]},
			{"id": "approve", "type": "USER_TASK", "previousElementIds": ["start"], "nextElementIds": ["end"]},
			{
				"id": "nudge",
				"type": "EVENT_BOUNDARY_SIGNAL",
				"attachedToId": "approve",
				"signalName": "nudge",
				"nextElementIds": ["notified"]
			},
			{"id": "notified", "type": "EVENT_END", "previousElementIds": ["nudge"]},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["approve"]}
		]
	}`)

	process := x.mustStart(t, "reminder", nil)

	// fire twice - the watcher re-attaches after each firing
	for i := 0; i < 2; i++ {
		notified, err := x.e.SendSignal(context.Background(), engine.SendSignalCmd{Name: "nudge"})
		require.NoError(t, err)
		assert.Equal(1, notified)
	}

	process = x.mustGetProcess(t, process.Id)
	assert.Equal(engine.ProcessStarted, process.Status)

	approve := x.flowNodeAt(t, process.Id, "approve")
	assert.Equal(engine.FlowNodePending, approve.Status)

	nudges := x.flowNodesAt(t, process.Id, "nudge")
	require.Len(t, nudges, 3)
	assert.Equal(engine.FlowNodeProcessed, nudges[0].Status)
	assert.Equal(engine.FlowNodeProcessed, nudges[1].Status)
	assert.Equal(engine.FlowNodePending, nudges[2].Status)

	assert.Len(x.flowNodesAt(t, process.Id, "notified"), 2)

	// completing the activity rejects the remaining watcher
	_, err := x.e.CompleteUserTask(context.Background(), engine.CompleteUserTaskCmd{
		FlowNodeId: approve.Id,
		Resolution: "APPROVED",
	})
	require.NoError(t, err)

	process = x.mustGetProcess(t, process.Id)
	assert.Equal(engine.ProcessProcessed, process.Status)

	nudges = x.flowNodesAt(t, process.Id, "nudge")
	assert.Equal(engine.FlowNodeRejected, nudges[2].Status)
}

func TestConditionalBoundaryTwin(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "watchFlag",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["approve"]},
			{"id": "approve", "type": "USER_TASK", "previousElementIds": ["start"], "nextElementIds": ["end"]},
			{
				"id": "flagged",
				"type": "EVENT_BOUNDARY_CONDITIONAL",
				"attachedToId": "approve",
				"conditions": {"all": [{"attribute": "$flag", "comparison": "IS_TRUE"}]},
				"nextElementIds": ["flaggedEnd"]
			},
			{"id": "flaggedEnd", "type": "EVENT_END", "previousElementIds": ["flagged"]},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["approve"]}
		]
	}`)

	process := x.mustStart(t, "watchFlag", map[string]any{"flag": true})

	// the watcher fired at attach time and re-attached as opposite twin
	flagged := x.flowNodesAt(t, process.Id, "flagged")
	require.Len(t, flagged, 2)
	assert.Equal(engine.FlowNodeProcessed, flagged[0].Status)
	assert.False(flagged[0].Data.IsOpposite)
	assert.Equal(engine.FlowNodePending, flagged[1].Status)
	assert.True(flagged[1].Data.IsOpposite)

	assert.Len(x.flowNodesAt(t, process.Id, "flaggedEnd"), 1)

	// while the condition holds, the twin does not fire
	x.mustProceedDue(t)
	flagged = x.flowNodesAt(t, process.Id, "flagged")
	require.Len(t, flagged, 2)

	// the condition ceases - the twin re-arms the original watch without
	// taking the outgoing flow
	err := x.e.SetProcessVariables(context.Background(), engine.SetProcessVariablesCmd{
		ProcessId: process.Id,
		Variables: map[string]any{"flag": false},
	})
	require.NoError(t, err)
	x.mustProceedDue(t)

	flagged = x.flowNodesAt(t, process.Id, "flagged")
	require.Len(t, flagged, 3)
	assert.Equal(engine.FlowNodeProcessed, flagged[1].Status)
	assert.Equal(engine.FlowNodePending, flagged[2].Status)
	assert.False(flagged[2].Data.IsOpposite)

	assert.Len(x.flowNodesAt(t, process.Id, "flaggedEnd"), 1)

	// the re-armed watcher fires again
	err = x.e.SetProcessVariables(context.Background(), engine.SetProcessVariablesCmd{
		ProcessId: process.Id,
		Variables: map[string]any{"flag": true},
	})
	require.NoError(t, err)
	x.mustProceedDue(t)

	assert.Len(x.flowNodesAt(t, process.Id, "flaggedEnd"), 2)
}

func TestErrorBoundary(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "payment",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["charge"]},
			{"id": "charge", "type": "TASK", "actionDefs": [{"action": "charge"}], "previousElementIds": ["start"], "nextElementIds": ["end"]},
			{
				"id": "declined",
				"type": "EVENT_BOUNDARY_ERROR",
				"attachedToId": "charge",
				"cancelActivity": true,
				"errorCode": "PAYMENT_DECLINED",
				"nextElementIds": ["declinedEnd"]
			},
			{
				"id": "anyError",
				"type": "EVENT_BOUNDARY_ERROR",
				"attachedToId": "charge",
				"cancelActivity": true,
				"nextElementIds": ["failedEnd"]
			},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["charge"]},
			{"id": "declinedEnd", "type": "EVENT_END", "previousElementIds": ["declined"]},
			{"id": "failedEnd", "type": "EVENT_END", "previousElementIds": ["anyError"]}
		]
	}`)

	t.Run("prefers the exact error code match", func(t *testing.T) {
		x.actions.err = engine.ProcessError{Code: "PAYMENT_DECLINED", Message: "card expired"}

		process := x.mustStart(t, "payment", nil)

		assert.Equal(engine.ProcessProcessed, process.Status)

		charge := x.flowNodeAt(t, process.Id, "charge")
		assert.Equal(engine.FlowNodeFailed, charge.Status)
		assert.Equal("PAYMENT_DECLINED", charge.Data.ErrorCode)
		assert.Equal("card expired", charge.Data.ErrorMessage)

		declined := x.flowNodeAt(t, process.Id, "declined")
		assert.Equal(engine.FlowNodeProcessed, declined.Status)
		assert.Equal("PAYMENT_DECLINED", declined.Data.ErrorCode)

		assert.Len(x.flowNodesAt(t, process.Id, "declinedEnd"), 1)
		assert.Empty(x.flowNodesAt(t, process.Id, "failedEnd"))
	})

	t.Run("falls back to the catch-all watcher", func(t *testing.T) {
		x.actions.err = engine.ProcessError{Code: "GATEWAY_UNREACHABLE"}

		process := x.mustStart(t, "payment", nil)

		assert.Equal(engine.ProcessProcessed, process.Status)
		assert.Len(x.flowNodesAt(t, process.Id, "failedEnd"), 1)
		assert.Empty(x.flowNodesAt(t, process.Id, "declinedEnd"))
	})

	t.Run("fails the process without a matching watcher", func(t *testing.T) {
		x.mustDeploy(t, `{
			"id": "paymentUnguarded",
			"elements": [
				{"id": "start", "type": "EVENT_START", "nextElementIds": ["charge"]},
				{"id": "charge", "type": "TASK", "actionDefs": [{"action": "charge"}], "previousElementIds": ["start"], "nextElementIds": ["end"]},
				{"id": "end", "type": "EVENT_END", "previousElementIds": ["charge"]}
			]
		}`)

		x.actions.err = engine.ProcessError{Code: "PAYMENT_DECLINED"}

		process := x.mustStart(t, "paymentUnguarded", nil)

		assert.Equal(engine.ProcessFailed, process.Status)
		assert.Equal("PAYMENT_DECLINED", process.ErrorCode)
	})
}
