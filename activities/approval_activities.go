package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/splitfin/order-service/models"
	"github.com/splitfin/order-service/store"
	"github.com/splitfin/order-service/zoho"
)

// OrderStore is the slice of the document store the approval flow uses
type OrderStore interface {
	ClaimPendingOrder(ctx context.Context, id string) (string, error)
	MarkOrderApproved(ctx context.Context, id, approverID, zohoOrderID, zohoOrderNumber string, now time.Time) error
	MarkOrderRejected(ctx context.Context, id, rejectorID, reason string, now time.Time) error
	InsertSalesOrder(ctx context.Context, so models.SalesOrder) (string, error)
	InsertNotification(ctx context.Context, n models.Notification) error
}

// ApprovalActivities contains the side-effecting steps of the order
// approval flow
type ApprovalActivities struct {
	Store      OrderStore
	HTTPClient *http.Client
	ZohoURL    string
	ZohoToken  string
	APIBase    string
}

// NewApprovalActivities creates an ApprovalActivities instance
func NewApprovalActivities(st OrderStore, zohoURL, zohoToken, apiBase string) *ApprovalActivities {
	return &ApprovalActivities{
		Store: st,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		ZohoURL:   zohoURL,
		ZohoToken: zohoToken,
		APIBase:   apiBase,
	}
}

// ClaimPendingOrder transitions the order into the approving state and
// returns its idempotency key. An order that is already approved or
// rejected fails non-retryably: a second operator racing on the same
// order loses the claim before any external call is made.
func (a *ApprovalActivities) ClaimPendingOrder(ctx context.Context, orderID string) (string, error) {
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Claiming pending order", "order_id", orderID)
	}

	key, err := a.Store.ClaimPendingOrder(ctx, orderID)
	if errors.Is(err, store.ErrOrderNotClaimable) {
		return "", temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("order %s is not awaiting approval", orderID),
			models.ErrTypeOrderNotClaimable, err)
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

// CreateZohoOrderRequest carries the shaped payload to the order API
type CreateZohoOrderRequest struct {
	Payload        map[string]any `json:"payload"`
	IdempotencyKey string         `json:"idempotency_key"`
}

// CreateZohoOrder creates the sales order in the external
// order-management system. The idempotency key makes a retried create
// after an ambiguous failure a no-op on the API side.
func (a *ApprovalActivities) CreateZohoOrder(ctx context.Context, req CreateZohoOrderRequest) (*zoho.SalesOrderResult, error) {
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Creating external sales order",
			"customer_id", req.Payload["customer_id"], "idempotency_key", req.IdempotencyKey)
	}

	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sales order payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.ZohoURL+"/salesorders", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Zoho-oauthtoken "+a.ZohoToken)
	httpReq.Header.Set("X-Idempotency-Key", req.IdempotencyKey)

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call order API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, temporal.NewApplicationError(
			fmt.Sprintf("order API returned status %d: %s", resp.StatusCode, string(respBody)),
			models.ErrTypeExternalOrderCreation)
	}

	var result zoho.SalesOrderResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order API response: %w", err)
	}

	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("External sales order created",
			"salesorder_id", result.SalesOrderID, "salesorder_number", result.SalesOrderNumber)
	}
	return &result, nil
}

// RecordSalesOrder persists the materialized sales order
func (a *ApprovalActivities) RecordSalesOrder(ctx context.Context, so models.SalesOrder) (string, error) {
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Recording sales order", "salesorder_id", so.SalesOrderID)
	}
	return a.Store.InsertSalesOrder(ctx, so)
}

// MarkApprovedRequest finalizes the pending order after approval
type MarkApprovedRequest struct {
	OrderID          string    `json:"order_id"`
	ApproverID       string    `json:"approver_id"`
	SalesOrderID     string    `json:"salesorder_id"`
	SalesOrderNumber string    `json:"salesorder_number"`
	At               time.Time `json:"at"`
}

// MarkOrderApproved updates the pending order's status to approved
func (a *ApprovalActivities) MarkOrderApproved(ctx context.Context, req MarkApprovedRequest) error {
	return a.Store.MarkOrderApproved(ctx, req.OrderID, req.ApproverID, req.SalesOrderID, req.SalesOrderNumber, req.At)
}

// MarkRejectedRequest finalizes the pending order after rejection
type MarkRejectedRequest struct {
	OrderID    string    `json:"order_id"`
	RejectorID string    `json:"rejector_id"`
	Reason     string    `json:"reason"`
	At         time.Time `json:"at"`
}

// MarkOrderRejected updates the pending order's status to rejected
func (a *ApprovalActivities) MarkOrderRejected(ctx context.Context, req MarkRejectedRequest) error {
	return a.Store.MarkOrderRejected(ctx, req.OrderID, req.RejectorID, req.Reason, req.At)
}

// ApprovalEmailRequest is the confirmation email payload. Field names
// are a contract with the email service.
type ApprovalEmailRequest struct {
	To                  string             `json:"to"`
	CustomerName        string             `json:"customerName"`
	OrderNumber         string             `json:"orderNumber"`
	ZohoOrderNumber     string             `json:"zohoOrderNumber"`
	Items               []models.OrderItem `json:"items"`
	Subtotal            float64            `json:"subtotal"`
	VAT                 float64            `json:"vat"`
	Total               float64            `json:"total"`
	ShippingAddress     models.Address     `json:"shippingAddress"`
	PurchaseOrderNumber string             `json:"purchaseOrderNumber,omitempty"`
	DeliveryNotes       string             `json:"deliveryNotes,omitempty"`
}

// SendApprovalEmail posts the confirmation email. The caller treats
// failure as best-effort; approval has already succeeded by the time
// this runs.
func (a *ApprovalActivities) SendApprovalEmail(ctx context.Context, req ApprovalEmailRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIBase+"/api/emails/order-approved", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call email service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email service returned status %d: %s", resp.StatusCode, string(msg))
	}

	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Approval email sent", "order_number", req.OrderNumber)
	}
	return nil
}

// CreateNotification writes a customer notification record
func (a *ApprovalActivities) CreateNotification(ctx context.Context, n models.Notification) error {
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Creating notification", "type", n.Type, "recipient", n.RecipientID)
	}
	return a.Store.InsertNotification(ctx, n)
}
