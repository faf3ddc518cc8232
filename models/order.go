package models

import (
	"encoding/json"
	"time"
)

// Address holds the UK-style address fields collected at checkout
type Address struct {
	Address1 string `json:"address1" bson:"address1"`
	Street2  string `json:"street2" bson:"street2"`
	City     string `json:"city" bson:"city"`
	County   string `json:"county" bson:"county"`
	Postcode string `json:"postcode" bson:"postcode"`
}

// OrderItem is a single line on a pending order
type OrderItem struct {
	ID       string  `json:"id" bson:"id"`
	ItemID   string  `json:"item_id" bson:"item_id"`
	Name     string  `json:"name" bson:"name"`
	SKU      string  `json:"sku" bson:"sku"`
	Price    float64 `json:"price" bson:"price"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Total    float64 `json:"total" bson:"total"`
	Unit     string  `json:"unit,omitempty" bson:"unit,omitempty"`
}

// PendingOrder is a customer order awaiting staff approval.
// ZohoPayload is kept opaque: it is the exact JSON shape the external
// order-management API expects and is only touched by the sanitizer.
type PendingOrder struct {
	ID                  string          `json:"id" bson:"_id,omitempty"`
	OrderNumber         string          `json:"orderNumber" bson:"orderNumber"`
	CustomerName        string          `json:"customerName" bson:"customerName"`
	CustomerEmail       string          `json:"customerEmail" bson:"customerEmail"`
	CustomerPhone       string          `json:"customerPhone,omitempty" bson:"customerPhone,omitempty"`
	CustomerCompany     string          `json:"customerCompany,omitempty" bson:"customerCompany,omitempty"`
	CustomerID          string          `json:"customerId,omitempty" bson:"customerId,omitempty"`
	ZohoCustomerID      string          `json:"customer_id,omitempty" bson:"customer_id,omitempty"`
	ZohoContactID       string          `json:"zohoContactId,omitempty" bson:"zohoContactId,omitempty"`
	Items               []OrderItem     `json:"items" bson:"items"`
	Subtotal            float64         `json:"subtotal" bson:"subtotal"`
	VAT                 float64         `json:"vat" bson:"vat"`
	Total               float64         `json:"total" bson:"total"`
	PurchaseOrderNumber string          `json:"purchaseOrderNumber,omitempty" bson:"purchaseOrderNumber,omitempty"`
	DeliveryNotes       string          `json:"deliveryNotes,omitempty" bson:"deliveryNotes,omitempty"`
	ShippingAddress     Address         `json:"shippingAddress" bson:"shippingAddress"`
	BillingAddress      *Address        `json:"billingAddress,omitempty" bson:"billingAddress,omitempty"`
	Status              string          `json:"status" bson:"status"`
	CreatedAt           time.Time       `json:"createdAt" bson:"createdAt"`
	ZohoPayload         json.RawMessage `json:"zohoPayload,omitempty" bson:"zohoPayload,omitempty"`
}

// BillingOrShipping returns the billing address, falling back to the
// shipping address when no separate billing address was captured.
func (o *PendingOrder) BillingOrShipping() Address {
	if o.BillingAddress != nil {
		return *o.BillingAddress
	}
	return o.ShippingAddress
}

// StructuredAddress is the denormalized address written onto approved
// sales orders, matching the external system's field names.
type StructuredAddress struct {
	Address     string `json:"address" bson:"address"`
	Street      string `json:"street" bson:"street"`
	Street2     string `json:"street2" bson:"street2"`
	City        string `json:"city" bson:"city"`
	State       string `json:"state" bson:"state"`
	Zip         string `json:"zip" bson:"zip"`
	Country     string `json:"country" bson:"country"`
	CountryCode string `json:"country_code" bson:"country_code"`
}

// SalesOrderLine mirrors the external API's line item shape
type SalesOrderLine struct {
	ItemID   string  `json:"item_id" bson:"item_id"`
	ItemName string  `json:"item_name" bson:"item_name"`
	SKU      string  `json:"sku" bson:"sku"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Rate     float64 `json:"rate" bson:"rate"`
	Total    float64 `json:"total" bson:"total"`
}

// SalesOrder is the record materialized exactly once when a pending
// order is approved and the external order has been created.
type SalesOrder struct {
	ID               string            `json:"id,omitempty" bson:"_id,omitempty"`
	SalesOrderID     string            `json:"salesorder_id" bson:"salesorder_id"`
	SalesOrderNumber string            `json:"salesorder_number" bson:"salesorder_number"`
	CustomerID       string            `json:"customer_id" bson:"customer_id"`
	CustomerName     string            `json:"customer_name" bson:"customer_name"`
	CompanyName      string            `json:"company_name" bson:"company_name"`
	Date             string            `json:"date" bson:"date"`
	CreatedTime      time.Time         `json:"created_time" bson:"created_time"`
	Total            float64           `json:"total" bson:"total"`
	SubTotal         float64           `json:"sub_total" bson:"sub_total"`
	TaxTotal         float64           `json:"tax_total" bson:"tax_total"`
	Status           string            `json:"status" bson:"status"`
	CurrentSubStatus string            `json:"current_sub_status" bson:"current_sub_status"`
	LineItems        []SalesOrderLine  `json:"line_items" bson:"line_items"`
	ShippingAddress  StructuredAddress `json:"shipping_address" bson:"shipping_address"`
	BillingAddress   StructuredAddress `json:"billing_address" bson:"billing_address"`
	Notes            string            `json:"notes" bson:"notes"`
	ReferenceNumber  string            `json:"reference_number" bson:"reference_number"`
	ApprovedBy       string            `json:"approvedBy" bson:"approvedBy"`
	ApprovedAt       time.Time         `json:"approvedAt" bson:"approvedAt"`
}

// Notification is a fire-and-forget message to the customer, never read
// back by this service.
type Notification struct {
	ID          string         `json:"id,omitempty" bson:"_id,omitempty"`
	Type        string         `json:"type" bson:"type"`
	RecipientID string         `json:"recipientId" bson:"recipientId"`
	Title       string         `json:"title" bson:"title"`
	Message     string         `json:"message" bson:"message"`
	CreatedAt   time.Time      `json:"createdAt" bson:"createdAt"`
	Read        bool           `json:"read" bson:"read"`
	Data        map[string]any `json:"data" bson:"data"`
}

// ApprovalDecision is the operator's signal payload
type ApprovalDecision struct {
	Action     string `json:"action"`
	OperatorID string `json:"operator_id"`
	Reason     string `json:"reason,omitempty"`
}

// ApprovalState is the queryable state of an approval workflow
type ApprovalState struct {
	OrderID          string    `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	Status           string    `json:"status"`
	Stage            string    `json:"stage"`
	SalesOrderID     string    `json:"salesorder_id,omitempty"`
	SalesOrderNumber string    `json:"salesorder_number,omitempty"`
	LastError        string    `json:"last_error,omitempty"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Signal and query names
const (
	SignalDecision = "decision"
	SignalAdjust   = "adjust-quantity"
	SignalFinish   = "finish-analysis"

	QueryStatus = "getStatus"
	QueryOrder  = "getOrder"
	QueryResult = "getResult"
)

// Decision actions
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Pending order statuses
const (
	StatusPendingApproval = "pending_approval"
	StatusApproving       = "approving"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

// Approval workflow stages
const (
	StageAwaitingDecision = "awaiting_decision"
	StageCreatingOrder    = "creating_order"
	StageRecording        = "recording"
	StageNotifying        = "notifying"
	StageDone             = "done"
)

// Notification types
const (
	NotificationOrderApproved = "order_approved"
	NotificationOrderRejected = "order_rejected"
)
