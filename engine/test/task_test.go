package test

import (
	"context"
	"testing"

	"github.com/monostax/bpmflow/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "invoicing",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["createInvoice"]},
			{
				"id": "createInvoice",
				"type": "TASK",
				"actionDefs": [{"action": "createRecord", "entityType": "Invoice"}],
				"previousElementIds": ["start"],
				"nextElementIds": ["end"]
			},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["createInvoice"]}
		]
	}`)

	x.actions.result = engine.ActionResult{
		Variables: map[string]any{"invoiceNo": "INV-100"},
		CreatedEntities: map[string]engine.CreatedEntity{
			"invoice": {EntityType: "Invoice", EntityId: "inv-1"},
		},
	}

	process := x.mustStart(t, "invoicing", map[string]any{"amount": 99})

	assert.Equal(engine.ProcessProcessed, process.Status)
	assert.Equal("INV-100", process.Variables["invoiceNo"])
	assert.Equal(engine.CreatedEntity{EntityType: "Invoice", EntityId: "inv-1"}, process.CreatedEntitiesData["invoice"])

	require.Len(t, x.actions.executed, 1)
	req := x.actions.executed[0]
	assert.Equal(process.Id, req.ProcessId)
	assert.Equal("Order", req.Target.EntityType)
	assert.Equal("order-1", req.Target.Id)
	assert.JSONEq(`[{"action": "createRecord", "entityType": "Invoice"}]`, string(req.ActionDefs))
	assert.Equal(float64(99), toFloat64(req.Variables["amount"]))
}

func TestTaskWithoutActions(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "passThrough",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["noop"]},
			{"id": "noop", "type": "TASK", "previousElementIds": ["start"], "nextElementIds": ["end"]},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["noop"]}
		]
	}`)

	process := x.mustStart(t, "passThrough", nil)

	assert.Equal(engine.ProcessProcessed, process.Status)
	assert.Empty(x.actions.executed)
}

func TestScriptTask(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "pricing",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["compute"]},
			{
				"id": "compute",
				"type": "SCRIPT_TASK",
				"script": "amount * (1 + taxRate)",
				"resultVariable": "total",
				"previousElementIds": ["start"],
				"nextElementIds": ["end"]
			},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["compute"]}
		]
	}`)

	process := x.mustStart(t, "pricing", map[string]any{"amount": 100, "taxRate": 0.2})

	assert.Equal(engine.ProcessProcessed, process.Status)
	assert.InDelta(120, toFloat64(process.Variables["total"]), 0.001)
}

func TestScriptTaskEvaluationFailure(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "broken",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["compute"]},
			{
				"id": "compute",
				"type": "SCRIPT_TASK",
				"script": "amount *",
				"previousElementIds": ["start"],
				"nextElementIds": ["end"]
			},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["compute"]}
		]
	}`)

	process := x.mustStart(t, "broken", map[string]any{"amount": 1})

	assert.Equal(engine.ProcessFailed, process.Status)
	assert.Equal("EVALUATION", process.ErrorCode)

	compute := x.flowNodeAt(t, process.Id, "compute")
	assert.Equal(engine.FlowNodeFailed, compute.Status)
	assert.Equal("EVALUATION", compute.Data.ErrorCode)
}

func TestUserTask(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "approval",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["approve"]},
			{"id": "approve", "type": "USER_TASK", "previousElementIds": ["start"], "nextElementIds": ["end"]},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["approve"]}
		]
	}`)

	process, err := x.e.StartProcess(context.Background(), engine.StartProcessCmd{
		FlowchartId: "approval",

		TargetType: "Order",
		TargetId:   "order-1",

		AssignedUserId: "user-1",
		TeamIds:        []string{"team-1"},
	})
	require.NoError(t, err)
	assert.Equal(engine.ProcessStarted, process.Status)

	approve := x.flowNodeAt(t, process.Id, "approve")
	assert.Equal(engine.FlowNodePending, approve.Status)
	assert.Equal("user-task-1", approve.Data.UserTaskId)

	require.Len(t, x.actions.userTasks, 1)
	assert.Equal("user-1", x.actions.userTasks[0].AssignedUserId)
	assert.Equal([]string{"team-1"}, x.actions.userTasks[0].TeamIds)

	// an external trigger is rejected - a user task is resolved, not proceeded
	_, err = x.e.ProceedFlowNode(context.Background(), engine.ProceedFlowNodeCmd{Id: approve.Id})
	require.Error(t, err)

	engineErr, ok := err.(engine.Error)
	require.True(t, ok)
	assert.Equal(engine.ErrorValidation, engineErr.Type)

	flowNode, err := x.e.CompleteUserTask(context.Background(), engine.CompleteUserTaskCmd{
		FlowNodeId: approve.Id,
		Resolution: "APPROVED",
		Variables:  map[string]any{"approvedBy": "user-1"},
	})
	require.NoError(t, err)
	assert.Equal(engine.FlowNodeProcessed, flowNode.Status)
	assert.Equal("APPROVED", flowNode.Data.UserTaskResolution)

	process = x.mustGetProcess(t, process.Id)
	assert.Equal(engine.ProcessProcessed, process.Status)
	assert.Equal("user-1", process.Variables["approvedBy"])

	// completing an already-terminal flow node is a no-op
	flowNode, err = x.e.CompleteUserTask(context.Background(), engine.CompleteUserTaskCmd{
		FlowNodeId: approve.Id,
		Resolution: "REJECTED",
	})
	require.NoError(t, err)
	assert.Equal("APPROVED", flowNode.Data.UserTaskResolution)
}

func TestCompleteUserTaskValidation(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.mustDeploy(t, `{
		"id": "signalWait",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["wait"]},
			{"id": "wait", "type": "EVENT_INTERMEDIATE_SIGNAL_CATCH", "signalName": "go", "previousElementIds": ["start"], "nextElementIds": ["end"]},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["wait"]}
		]
	}`)

	process := x.mustStart(t, "signalWait", nil)
	wait := x.flowNodeAt(t, process.Id, "wait")

	_, err := x.e.CompleteUserTask(context.Background(), engine.CompleteUserTaskCmd{
		FlowNodeId: wait.Id,
		Resolution: "APPROVED",
	})
	require.Error(t, err)

	engineErr, ok := err.(engine.Error)
	require.True(t, ok)
	assert.Equal(engine.ErrorValidation, engineErr.Type)
}

func TestTargetExpression(t *testing.T) {
	assert := assert.New(t)
	x := newEnv(t)

	x.records.put(engine.Record{
		EntityType: "Order",
		Id:         "order-1",
		Attributes: map[string]any{"customerId": "cust-7"},
	})
	x.records.put(engine.Record{
		EntityType: "Customer",
		Id:         "cust-7",
		Attributes: map[string]any{"name": "ACME"},
	})
	x.records.putRelated(
		engine.Record{EntityType: "Order", Id: "order-1"},
		"customer",
		engine.Record{EntityType: "Customer", Id: "cust-7", Attributes: map[string]any{"name": "ACME"}},
	)

	x.mustDeploy(t, `{
		"id": "notifyCustomer",
		"elements": [
			{"id": "start", "type": "EVENT_START", "nextElementIds": ["notify"]},
			{
				"id": "notify",
				"type": "TASK",
				"actionDefs": [{"action": "sendEmail"}],
				"targetExpression": "link:customer",
				"previousElementIds": ["start"],
				"nextElementIds": ["end"]
			},
			{"id": "end", "type": "EVENT_END", "previousElementIds": ["notify"]}
		]
	}`)

	process := x.mustStart(t, "notifyCustomer", nil)

	assert.Equal(engine.ProcessProcessed, process.Status)

	notify := x.flowNodeAt(t, process.Id, "notify")
	assert.Equal("Customer", notify.TargetType)
	assert.Equal("cust-7", notify.TargetId)

	require.Len(t, x.actions.executed, 1)
	assert.Equal("ACME", x.actions.executed[0].Target.StringAttr("name"))
}
