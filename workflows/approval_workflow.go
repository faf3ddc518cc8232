package workflows

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/splitfin/order-service/activities"
	"github.com/splitfin/order-service/models"
	"github.com/splitfin/order-service/zoho"
)

// defaultActivityOptions mirror the retry posture used across both
// workflows: short attempts with exponential backoff, three tries.
func defaultActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout:    30 * time.Second,
		ScheduleToStartTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	}
}

// OrderApprovalWorkflow owns one pending order's approval lifecycle.
// The order is previewable through query handlers, and the workflow
// waits for an operator decision signal. An approve decision drives
// the sequence: claim, external create, local sales order, status
// update, best-effort email, customer notification. A failed decision
// leaves the order pending and the workflow waiting, so the operator
// can retry or reject.
func OrderApprovalWorkflow(ctx workflow.Context, order models.PendingOrder) (*models.ApprovalState, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Approval workflow started", "order_id", order.ID, "order_number", order.OrderNumber)

	state := &models.ApprovalState{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      models.StatusPendingApproval,
		Stage:       models.StageAwaitingDecision,
		LastUpdated: workflow.Now(ctx),
	}

	err := workflow.SetQueryHandler(ctx, models.QueryStatus, func() (*models.ApprovalState, error) {
		return state, nil
	})
	if err != nil {
		logger.Error("Failed to register status query handler", "error", err)
		return nil, err
	}

	// Preview renders order details without transitioning state.
	err = workflow.SetQueryHandler(ctx, models.QueryOrder, func() (*models.PendingOrder, error) {
		return &order, nil
	})
	if err != nil {
		logger.Error("Failed to register order query handler", "error", err)
		return nil, err
	}

	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())
	decisionCh := workflow.GetSignalChannel(ctx, models.SignalDecision)

	for {
		var decision models.ApprovalDecision
		decisionCh.Receive(ctx, &decision)
		logger.Info("Decision received", "order_id", order.ID, "action", decision.Action)

		switch decision.Action {
		case models.ActionApprove:
			if err := runApproval(ctx, &order, state, decision.OperatorID); err != nil {
				state.LastError = err.Error()
				state.Stage = models.StageAwaitingDecision
				state.LastUpdated = workflow.Now(ctx)
				logger.Error("Approval failed, order stays pending", "order_id", order.ID, "error", err)
				continue
			}
			logger.Info("Order approved", "order_id", order.ID, "salesorder_id", state.SalesOrderID)
			return state, nil

		case models.ActionReject:
			if err := runRejection(ctx, &order, state, decision); err != nil {
				state.LastError = err.Error()
				state.LastUpdated = workflow.Now(ctx)
				logger.Error("Rejection failed, order stays pending", "order_id", order.ID, "error", err)
				continue
			}
			logger.Info("Order rejected", "order_id", order.ID, "reason", decision.Reason)
			return state, nil

		default:
			unknownErr := temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("unknown action %q", decision.Action),
				models.ErrTypeUnknownAction, nil)
			state.LastError = unknownErr.Error()
			state.LastUpdated = workflow.Now(ctx)
			logger.Warn("Ignoring unknown decision action", "order_id", order.ID, "action", decision.Action)
		}
	}
}

func runApproval(ctx workflow.Context, order *models.PendingOrder, state *models.ApprovalState, operatorID string) error {
	logger := workflow.GetLogger(ctx)

	// Hard stop before any write or external call: an order stored
	// without its external payload cannot be approved.
	if len(order.ZohoPayload) == 0 {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("order %s is missing its zoho payload", order.ID),
			models.ErrTypeMissingPayload, zoho.ErrMissingPayload)
	}

	payload, err := zoho.BuildSalesOrderPayload(order)
	if err != nil {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("failed to shape payload for order %s", order.ID),
			models.ErrTypeMissingPayload, err)
	}

	// Claim serializes concurrent approval attempts and mints the
	// idempotency key the order API de-duplicates on.
	var idempotencyKey string
	if err := workflow.ExecuteActivity(ctx, "ClaimPendingOrder", order.ID).Get(ctx, &idempotencyKey); err != nil {
		return err
	}

	state.Status = models.StatusApproving
	state.Stage = models.StageCreatingOrder
	state.LastUpdated = workflow.Now(ctx)

	// No local writes happen before the external create succeeds.
	var result zoho.SalesOrderResult
	err = workflow.ExecuteActivity(ctx, "CreateZohoOrder", activities.CreateZohoOrderRequest{
		Payload:        payload,
		IdempotencyKey: idempotencyKey,
	}).Get(ctx, &result)
	if err != nil {
		return err
	}

	state.Stage = models.StageRecording
	state.SalesOrderID = result.SalesOrderID
	state.SalesOrderNumber = result.SalesOrderNumber
	state.LastUpdated = workflow.Now(ctx)

	now := workflow.Now(ctx)
	record := zoho.BuildSalesOrderRecord(order, result, operatorID, now)
	if err := workflow.ExecuteActivity(ctx, "RecordSalesOrder", record).Get(ctx, nil); err != nil {
		return err
	}

	err = workflow.ExecuteActivity(ctx, "MarkOrderApproved", activities.MarkApprovedRequest{
		OrderID:          order.ID,
		ApproverID:       operatorID,
		SalesOrderID:     result.SalesOrderID,
		SalesOrderNumber: result.SalesOrderNumber,
		At:               now,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	state.Stage = models.StageNotifying
	state.LastUpdated = workflow.Now(ctx)

	// Confirmation email is best-effort: approval already succeeded.
	err = workflow.ExecuteActivity(ctx, "SendApprovalEmail", activities.ApprovalEmailRequest{
		To:                  order.CustomerEmail,
		CustomerName:        order.CustomerName,
		OrderNumber:         order.OrderNumber,
		ZohoOrderNumber:     result.SalesOrderNumber,
		Items:               order.Items,
		Subtotal:            order.Subtotal,
		VAT:                 order.VAT,
		Total:               order.Total,
		ShippingAddress:     order.ShippingAddress,
		PurchaseOrderNumber: order.PurchaseOrderNumber,
		DeliveryNotes:       order.DeliveryNotes,
	}).Get(ctx, nil)
	if err != nil {
		logger.Warn("Approval email failed but order is approved", "order_id", order.ID, "error", err)
	}

	// The notification is fire-and-forget: the approval is final once
	// MarkOrderApproved commits, so a failed write must not push the
	// workflow back to the decision loop.
	if order.CustomerID != "" {
		err = workflow.ExecuteActivity(ctx, "CreateNotification", models.Notification{
			Type:        models.NotificationOrderApproved,
			RecipientID: order.CustomerID,
			Title:       "Order Approved",
			Message:     fmt.Sprintf("Your order %s has been approved and is being processed.", order.OrderNumber),
			CreatedAt:   now,
			Data: map[string]any{
				"orderId":         order.ID,
				"orderNumber":     order.OrderNumber,
				"zohoOrderId":     result.SalesOrderID,
				"zohoOrderNumber": result.SalesOrderNumber,
			},
		}).Get(ctx, nil)
		if err != nil {
			logger.Warn("Notification failed but order is approved", "order_id", order.ID, "error", err)
		}
	}

	state.Status = models.StatusApproved
	state.Stage = models.StageDone
	state.LastUpdated = workflow.Now(ctx)
	return nil
}

func runRejection(ctx workflow.Context, order *models.PendingOrder, state *models.ApprovalState, decision models.ApprovalDecision) error {
	// The UI disables the reject button on an empty reason; the same
	// rule is enforced here at the API boundary.
	if strings.TrimSpace(decision.Reason) == "" {
		return temporal.NewNonRetryableApplicationError(
			"rejection requires a reason",
			models.ErrTypeEmptyRejectionReason, nil)
	}

	now := workflow.Now(ctx)
	err := workflow.ExecuteActivity(ctx, "MarkOrderRejected", activities.MarkRejectedRequest{
		OrderID:    order.ID,
		RejectorID: decision.OperatorID,
		Reason:     decision.Reason,
		At:         now,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	// Same fire-and-forget treatment as the approve path: the order is
	// rejected once MarkOrderRejected commits.
	if order.CustomerID != "" {
		err = workflow.ExecuteActivity(ctx, "CreateNotification", models.Notification{
			Type:        models.NotificationOrderRejected,
			RecipientID: order.CustomerID,
			Title:       "Order Update",
			Message:     fmt.Sprintf("Your order %s requires attention. Please check your messages.", order.OrderNumber),
			CreatedAt:   now,
			Data: map[string]any{
				"orderId":     order.ID,
				"orderNumber": order.OrderNumber,
				"reason":      decision.Reason,
			},
		}).Get(ctx, nil)
		if err != nil {
			workflow.GetLogger(ctx).Warn("Notification failed but order is rejected", "order_id", order.ID, "error", err)
		}
	}

	state.Status = models.StatusRejected
	state.Stage = models.StageDone
	state.LastUpdated = workflow.Now(ctx)
	return nil
}
