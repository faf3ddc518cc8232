package zoho

import (
	"time"

	"github.com/splitfin/order-service/models"
)

// SalesOrderResult is the order API's response to a create call
type SalesOrderResult struct {
	SalesOrderID     string `json:"salesorder_id"`
	SalesOrderNumber string `json:"salesorder_number"`
}

// BuildSalesOrderRecord materializes the local sales order written
// after the external create succeeds. Addresses are duplicated into
// free-text and structured form; the country is hardcoded to the UK
// destination locale, matching the approval payload.
func BuildSalesOrderRecord(order *models.PendingOrder, result SalesOrderResult, approverID string, now time.Time) models.SalesOrder {
	billing := order.BillingOrShipping()
	shipping := order.ShippingAddress

	customerID := order.ZohoCustomerID
	if customerID == "" {
		customerID = order.ZohoContactID
	}

	lines := make([]models.SalesOrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, models.SalesOrderLine{
			ItemID:   item.ItemID,
			ItemName: item.Name,
			SKU:      item.SKU,
			Quantity: item.Quantity,
			Rate:     item.Price,
			Total:    item.Total,
		})
	}

	return models.SalesOrder{
		SalesOrderID:     result.SalesOrderID,
		SalesOrderNumber: result.SalesOrderNumber,
		CustomerID:       customerID,
		CustomerName:     order.CustomerName,
		CompanyName:      order.CustomerCompany,
		Date:             now.Format("2006-01-02"),
		CreatedTime:      now,
		Total:            order.Total,
		SubTotal:         order.Subtotal,
		TaxTotal:         order.VAT,
		Status:           "confirmed",
		CurrentSubStatus: "confirmed",
		LineItems:        lines,
		ShippingAddress:  structuredUK(shipping),
		BillingAddress:   structuredUK(billing),
		Notes:            order.DeliveryNotes,
		ReferenceNumber:  order.PurchaseOrderNumber,
		ApprovedBy:       approverID,
		ApprovedAt:       now,
	}
}

func structuredUK(addr models.Address) models.StructuredAddress {
	return models.StructuredAddress{
		Address:     addr.Address1,
		Street:      addr.Address1,
		Street2:     addr.Street2,
		City:        addr.City,
		State:       addr.County,
		Zip:         addr.Postcode,
		Country:     "United Kingdom",
		CountryCode: "GB",
	}
}
