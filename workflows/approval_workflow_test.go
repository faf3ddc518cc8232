package workflows

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/splitfin/order-service/activities"
	"github.com/splitfin/order-service/models"
	"github.com/splitfin/order-service/zoho"
)

func testPendingOrder() models.PendingOrder {
	payload, _ := json.Marshal(map[string]any{
		"customer_id":     "zoho-cust-1",
		"billing_country": "gb",
		"line_items": []map[string]any{
			{"item_id": "it-1", "quantity": 2, "rate": 12.50},
		},
	})
	return models.PendingOrder{
		ID:            "ord-1",
		OrderNumber:   "SO-1001",
		CustomerName:  "Kate Example",
		CustomerEmail: "kate@example.co.uk",
		CustomerID:    "cust-1",
		Items: []models.OrderItem{
			{ItemID: "it-1", Name: "Widget", SKU: "WID-1", Price: 12.50, Quantity: 2, Total: 25.00},
		},
		Subtotal: 25.00,
		VAT:      5.00,
		Total:    30.00,
		ShippingAddress: models.Address{
			Address1: "1 Rd",
			City:     "York",
			Postcode: "YO1 1AA",
		},
		Status:      models.StatusPendingApproval,
		CreatedAt:   time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		ZohoPayload: payload,
	}
}

func newApprovalTestEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *activities.ApprovalActivities) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	acts := activities.NewApprovalActivities(nil, "http://zoho.invalid", "token", "http://api.invalid")
	env.RegisterActivity(acts.ClaimPendingOrder)
	env.RegisterActivity(acts.CreateZohoOrder)
	env.RegisterActivity(acts.RecordSalesOrder)
	env.RegisterActivity(acts.MarkOrderApproved)
	env.RegisterActivity(acts.MarkOrderRejected)
	env.RegisterActivity(acts.SendApprovalEmail)
	env.RegisterActivity(acts.CreateNotification)
	env.RegisterWorkflow(OrderApprovalWorkflow)

	return env, acts
}

func TestOrderApprovalWorkflow_ApprovePath(t *testing.T) {
	env, acts := newApprovalTestEnv(t)
	order := testPendingOrder()

	env.OnActivity(acts.ClaimPendingOrder, mock.Anything, order.ID).Return("idem-key-1", nil)

	// The external create must see both destination countries forced to
	// the United Kingdom regardless of what the stored payload said.
	env.OnActivity(acts.CreateZohoOrder, mock.Anything, mock.MatchedBy(func(req activities.CreateZohoOrderRequest) bool {
		return req.IdempotencyKey == "idem-key-1" &&
			req.Payload["billing_country"] == "United Kingdom" &&
			req.Payload["shipping_country"] == "United Kingdom" &&
			req.Payload["salesorder_status"] == "confirmed"
	})).Return(&zoho.SalesOrderResult{
		SalesOrderID:     "zso-77",
		SalesOrderNumber: "ZSO-0077",
	}, nil)

	env.OnActivity(acts.RecordSalesOrder, mock.Anything, mock.MatchedBy(func(so models.SalesOrder) bool {
		return so.SalesOrderID == "zso-77" && so.Status == "confirmed"
	})).Return("rec-1", nil)

	env.OnActivity(acts.MarkOrderApproved, mock.Anything, mock.MatchedBy(func(req activities.MarkApprovedRequest) bool {
		return req.OrderID == order.ID && req.ApproverID == "staff-1" && req.SalesOrderNumber == "ZSO-0077"
	})).Return(nil)

	env.OnActivity(acts.SendApprovalEmail, mock.Anything, mock.MatchedBy(func(req activities.ApprovalEmailRequest) bool {
		return req.To == order.CustomerEmail && req.ZohoOrderNumber == "ZSO-0077"
	})).Return(nil)

	env.OnActivity(acts.CreateNotification, mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Type == models.NotificationOrderApproved && n.RecipientID == "cust-1"
	})).Return(nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionApprove,
			OperatorID: "staff-1",
		})
	}, time.Millisecond)

	env.ExecuteWorkflow(OrderApprovalWorkflow, order)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state models.ApprovalState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, models.StatusApproved, state.Status)
	assert.Equal(t, models.StageDone, state.Stage)
	assert.Equal(t, "zso-77", state.SalesOrderID)
	assert.Equal(t, "ZSO-0077", state.SalesOrderNumber)
	env.AssertExpectations(t)
}

func TestOrderApprovalWorkflow_MissingPayloadStaysPending(t *testing.T) {
	env, acts := newApprovalTestEnv(t)
	order := testPendingOrder()
	order.ZohoPayload = nil

	claimCalls := 0
	env.OnActivity(acts.ClaimPendingOrder, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, orderID string) (string, error) {
			claimCalls++
			return "idem-key-1", nil
		})
	env.OnActivity(acts.MarkOrderRejected, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(acts.CreateNotification, mock.Anything, mock.Anything).Return(nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionApprove,
			OperatorID: "staff-1",
		})
	}, time.Millisecond)

	// The failed approval leaves the order pending; a later rejection
	// still goes through.
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionReject,
			OperatorID: "staff-1",
			Reason:     "payload missing, raised with engineering",
		})
	}, 10*time.Millisecond)

	env.ExecuteWorkflow(OrderApprovalWorkflow, order)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state models.ApprovalState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, models.StatusRejected, state.Status)
	assert.Contains(t, state.LastError, "missing")
	assert.Zero(t, claimCalls, "a payload-less order must never be claimed")
}

func TestOrderApprovalWorkflow_RejectPath(t *testing.T) {
	env, acts := newApprovalTestEnv(t)
	order := testPendingOrder()

	env.OnActivity(acts.MarkOrderRejected, mock.Anything, mock.MatchedBy(func(req activities.MarkRejectedRequest) bool {
		return req.OrderID == order.ID && req.Reason == "out of stock"
	})).Return(nil)
	env.OnActivity(acts.CreateNotification, mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Type == models.NotificationOrderRejected && n.RecipientID == "cust-1"
	})).Return(nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionReject,
			OperatorID: "staff-2",
			Reason:     "out of stock",
		})
	}, time.Millisecond)

	env.ExecuteWorkflow(OrderApprovalWorkflow, order)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state models.ApprovalState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, models.StatusRejected, state.Status)
	env.AssertExpectations(t)
}

func TestOrderApprovalWorkflow_EmptyRejectionReason(t *testing.T) {
	env, acts := newApprovalTestEnv(t)
	order := testPendingOrder()

	rejectCalls := 0
	env.OnActivity(acts.MarkOrderRejected, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, req activities.MarkRejectedRequest) error {
			rejectCalls++
			return nil
		})
	env.OnActivity(acts.CreateNotification, mock.Anything, mock.Anything).Return(nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionReject,
			OperatorID: "staff-1",
			Reason:     "   ",
		})
	}, time.Millisecond)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionReject,
			OperatorID: "staff-1",
			Reason:     "duplicate order",
		})
	}, 10*time.Millisecond)

	env.ExecuteWorkflow(OrderApprovalWorkflow, order)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state models.ApprovalState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, models.StatusRejected, state.Status)
	assert.Equal(t, 1, rejectCalls, "blank reason must not reach the store")
}

func TestOrderApprovalWorkflow_NoNotificationWithoutCustomerID(t *testing.T) {
	env, acts := newApprovalTestEnv(t)
	order := testPendingOrder()
	order.CustomerID = ""

	notifyCalls := 0
	env.OnActivity(acts.MarkOrderRejected, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(acts.CreateNotification, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, n models.Notification) error {
			notifyCalls++
			return nil
		})

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionReject,
			OperatorID: "staff-1",
			Reason:     "test account",
		})
	}, time.Millisecond)

	env.ExecuteWorkflow(OrderApprovalWorkflow, order)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Zero(t, notifyCalls)
}

func TestOrderApprovalWorkflow_QueryOrderPreview(t *testing.T) {
	env, acts := newApprovalTestEnv(t)
	order := testPendingOrder()

	env.OnActivity(acts.MarkOrderRejected, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(acts.CreateNotification, mock.Anything, mock.Anything).Return(nil)

	env.RegisterDelayedCallback(func() {
		res, err := env.QueryWorkflow(models.QueryOrder)
		require.NoError(t, err)
		var previewed models.PendingOrder
		require.NoError(t, res.Get(&previewed))
		assert.Equal(t, order.ID, previewed.ID)
		assert.Equal(t, order.Total, previewed.Total)

		res, err = env.QueryWorkflow(models.QueryStatus)
		require.NoError(t, err)
		var state models.ApprovalState
		require.NoError(t, res.Get(&state))
		assert.Equal(t, models.StatusPendingApproval, state.Status)
		assert.Equal(t, models.StageAwaitingDecision, state.Stage)

		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionReject,
			OperatorID: "staff-1",
			Reason:     "preview only",
		})
	}, time.Millisecond)

	env.ExecuteWorkflow(OrderApprovalWorkflow, order)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
}

func TestOrderApprovalWorkflow_NotificationFailureDoesNotUndoApproval(t *testing.T) {
	env, acts := newApprovalTestEnv(t)
	order := testPendingOrder()

	env.OnActivity(acts.ClaimPendingOrder, mock.Anything, mock.Anything).Return("idem-key-1", nil)
	env.OnActivity(acts.CreateZohoOrder, mock.Anything, mock.Anything).Return(&zoho.SalesOrderResult{
		SalesOrderID:     "zso-77",
		SalesOrderNumber: "ZSO-0077",
	}, nil)
	env.OnActivity(acts.RecordSalesOrder, mock.Anything, mock.Anything).Return("rec-1", nil)
	env.OnActivity(acts.MarkOrderApproved, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(acts.SendApprovalEmail, mock.Anything, mock.Anything).Return(nil)

	// The notification store is down. The order is already approved in
	// both systems, so the workflow must still finish as approved
	// rather than fall back to the decision loop.
	env.OnActivity(acts.CreateNotification, mock.Anything, mock.Anything).Return(
		temporal.NewNonRetryableApplicationError("notifications unavailable", "NotificationError", nil))

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionApprove,
			OperatorID: "staff-1",
		})
	}, time.Millisecond)

	env.ExecuteWorkflow(OrderApprovalWorkflow, order)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state models.ApprovalState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, models.StatusApproved, state.Status)
	assert.Equal(t, models.StageDone, state.Stage)
	assert.Equal(t, "ZSO-0077", state.SalesOrderNumber)
	env.AssertExpectations(t)
}

func TestOrderApprovalWorkflow_NotificationFailureDoesNotUndoRejection(t *testing.T) {
	env, acts := newApprovalTestEnv(t)
	order := testPendingOrder()

	rejectCalls := 0
	env.OnActivity(acts.MarkOrderRejected, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, req activities.MarkRejectedRequest) error {
			rejectCalls++
			return nil
		})
	env.OnActivity(acts.CreateNotification, mock.Anything, mock.Anything).Return(
		temporal.NewNonRetryableApplicationError("notifications unavailable", "NotificationError", nil))

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionReject,
			OperatorID: "staff-1",
			Reason:     "out of stock",
		})
	}, time.Millisecond)

	env.ExecuteWorkflow(OrderApprovalWorkflow, order)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state models.ApprovalState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, models.StatusRejected, state.Status)
	assert.Equal(t, models.StageDone, state.Stage)
	assert.Equal(t, 1, rejectCalls)
}

func TestOrderApprovalWorkflow_ZohoFailureKeepsOrderPending(t *testing.T) {
	env, acts := newApprovalTestEnv(t)
	order := testPendingOrder()

	env.OnActivity(acts.ClaimPendingOrder, mock.Anything, mock.Anything).Return("idem-key-1", nil)
	env.OnActivity(acts.CreateZohoOrder, mock.Anything, mock.Anything).Return(nil,
		assert.AnError)
	env.OnActivity(acts.MarkOrderRejected, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(acts.CreateNotification, mock.Anything, mock.Anything).Return(nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionApprove,
			OperatorID: "staff-1",
		})
	}, time.Millisecond)
	env.RegisterDelayedCallback(func() {
		res, err := env.QueryWorkflow(models.QueryStatus)
		require.NoError(t, err)
		var state models.ApprovalState
		require.NoError(t, res.Get(&state))
		assert.NotEmpty(t, state.LastError)
		assert.Equal(t, models.StageAwaitingDecision, state.Stage)

		env.SignalWorkflow(models.SignalDecision, models.ApprovalDecision{
			Action:     models.ActionReject,
			OperatorID: "staff-1",
			Reason:     "supplier unavailable",
		})
	}, time.Minute)

	env.ExecuteWorkflow(OrderApprovalWorkflow, order)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state models.ApprovalState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, models.StatusRejected, state.Status)
}
