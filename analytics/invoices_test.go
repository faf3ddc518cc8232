package analytics

import (
	"testing"

	"github.com/splitfin/order-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateInvoices_RiskBucketBoundaries(t *testing.T) {
	invoices := []models.InvoiceRecord{
		{InvoiceNumber: "I-61", Status: "overdue", Balance: 100, DaysOverdue: 61},
		{InvoiceNumber: "I-60", Status: "overdue", Balance: 100, DaysOverdue: 60},
		{InvoiceNumber: "I-30", Status: "overdue", Balance: 100, DaysOverdue: 30},
		{InvoiceNumber: "I-29", Status: "overdue", Balance: 100, DaysOverdue: 29},
	}

	metrics := AggregateInvoices(invoices)

	require.Len(t, metrics.HighRisk, 1)
	assert.Equal(t, "I-61", metrics.HighRisk[0].InvoiceNumber)

	require.Len(t, metrics.MediumRisk, 1)
	assert.Equal(t, "I-60", metrics.MediumRisk[0].InvoiceNumber)

	require.Len(t, metrics.LowRisk, 2)
	assert.Equal(t, "I-30", metrics.LowRisk[0].InvoiceNumber)
	assert.Equal(t, "I-29", metrics.LowRisk[1].InvoiceNumber)
}

func TestAggregateInvoices_AvgPaymentDays(t *testing.T) {
	invoices := []models.InvoiceRecord{
		{Status: "paid", Amount: 100, Date: "2026-01-01", PaidDate: "2026-01-21"},
		{Status: "paid", Amount: 100, Date: "2026-01-01", PaidDate: "2026-01-31"},
		// Paid without dates: contributes to totals, not to the average.
		{Status: "paid", Amount: 50},
	}

	metrics := AggregateInvoices(invoices)

	assert.Equal(t, 250.0, metrics.TotalPaid)
	assert.Equal(t, 25.0, metrics.AvgPaymentDays)
}

func TestAggregateInvoices_DefaultPaymentDays(t *testing.T) {
	metrics := AggregateInvoices([]models.InvoiceRecord{
		{Status: "paid", Amount: 10},
	})
	assert.Equal(t, 30.0, metrics.AvgPaymentDays)
}

func TestAggregateInvoices_CashFlowSplit(t *testing.T) {
	invoices := []models.InvoiceRecord{
		{Status: "outstanding", Balance: 600},
		{Status: "overdue", Balance: 400, DaysOverdue: 10},
	}

	metrics := AggregateInvoices(invoices)

	assert.Equal(t, 1000.0, metrics.TotalOutstanding)
	assert.Equal(t, 400.0, metrics.TotalOverdue)
	assert.InDelta(t, 600.0, metrics.CashFlowProjection.Next30Days, 0.001)
	assert.InDelta(t, 300.0, metrics.CashFlowProjection.Next60Days, 0.001)
	assert.InDelta(t, 100.0, metrics.CashFlowProjection.Beyond60Days, 0.001)
	assert.Equal(t, 1000.0, metrics.CashFlowProjection.TotalExpected)
}

func TestAggregateInvoices_BalanceFallsBackToAmount(t *testing.T) {
	metrics := AggregateInvoices([]models.InvoiceRecord{
		{Status: "outstanding", Amount: 250},
	})
	assert.Equal(t, 250.0, metrics.TotalOutstanding)
}

func TestAggregateInvoices_Empty(t *testing.T) {
	metrics := AggregateInvoices(nil)

	assert.Zero(t, metrics.TotalPaid)
	assert.Zero(t, metrics.TotalOutstanding)
	assert.Equal(t, 30.0, metrics.AvgPaymentDays)
}
