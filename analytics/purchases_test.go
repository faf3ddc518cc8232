package analytics

import (
	"testing"

	"github.com/splitfin/order-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatePurchaseOrders_LeadTime(t *testing.T) {
	orders := []models.PurchaseOrderRecord{
		{Status: "closed", Date: "2026-01-01", DeliveryDate: "2026-01-11", Total: 100},
		{Status: "billed", Date: "2026-02-01", DeliveryDate: "2026-02-21", Total: 200},
		// Closed without a delivery date: no lead-time sample.
		{Status: "closed", Date: "2026-03-01", Total: 50},
	}

	metrics := AggregatePurchaseOrders(orders)

	assert.Equal(t, 15.0, metrics.AvgLeadTime)
	assert.Equal(t, 350.0, metrics.TotalCompleted)
	assert.Len(t, metrics.CompletedOrders, 3)
}

func TestAggregatePurchaseOrders_DefaultLeadTime(t *testing.T) {
	metrics := AggregatePurchaseOrders([]models.PurchaseOrderRecord{
		{Status: "open", Total: 100},
	})
	assert.Equal(t, 14.0, metrics.AvgLeadTime)
}

func TestAggregatePurchaseOrders_PendingSplit(t *testing.T) {
	orders := []models.PurchaseOrderRecord{
		{Status: "open", Total: 100},
		{Status: "pending", Total: 50},
		{Status: "closed", Total: 500},
	}

	metrics := AggregatePurchaseOrders(orders)

	assert.Len(t, metrics.PendingOrders, 2)
	assert.Equal(t, 150.0, metrics.TotalPending)
	assert.Equal(t, 500.0, metrics.TotalCompleted)
	assert.Len(t, metrics.RecentOrders, 3)
}

func TestAggregatePurchaseOrders_ReorderPatterns(t *testing.T) {
	orders := []models.PurchaseOrderRecord{
		{Status: "closed", LineItems: []models.PurchaseOrderLine{
			{SKU: "A", Quantity: 10},
			{ItemCode: "B", Quantity: 4},
		}},
		{Status: "open", LineItems: []models.PurchaseOrderLine{
			{SKU: "A", Quantity: 20},
			{Quantity: 7}, // no sku or item code, dropped
		}},
	}

	metrics := AggregatePurchaseOrders(orders)

	require.Contains(t, metrics.ReorderPatterns, "A")
	a := metrics.ReorderPatterns["A"]
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, 15.0, a.AvgQuantity)

	require.Contains(t, metrics.ReorderPatterns, "B")
	assert.Equal(t, 1, metrics.ReorderPatterns["B"].Count)
	assert.Len(t, metrics.ReorderPatterns, 2)
}

func TestAggregatePurchaseOrders_Empty(t *testing.T) {
	metrics := AggregatePurchaseOrders(nil)

	assert.Equal(t, 14.0, metrics.AvgLeadTime)
	assert.Empty(t, metrics.ReorderPatterns)
	assert.Empty(t, metrics.RecentOrders)
}
