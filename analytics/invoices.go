package analytics

import "github.com/splitfin/order-service/models"

// Overdue risk boundaries: strictly more than 60 days is high risk,
// strictly more than 30 is medium, anything else overdue is low.
const (
	highRiskDays   = 60
	mediumRiskDays = 30
)

// defaultPaymentDays is assumed when no invoice has both dates
const defaultPaymentDays = 30

// Fixed cash-flow projection split across 30/60/60+ day windows. A
// policy constant, not derived from aging data.
const (
	projectionNext30   = 0.6
	projectionNext60   = 0.3
	projectionBeyond60 = 0.1
)

// AggregateInvoices folds invoices into payment and risk metrics.
// Average days-to-pay only counts invoices carrying both the issue and
// paid dates.
func AggregateInvoices(invoices []models.InvoiceRecord) *models.InvoiceMetrics {
	metrics := &models.InvoiceMetrics{}

	totalPaymentDays := 0
	paidCount := 0

	for _, inv := range invoices {
		amount := inv.Amount
		if amount == 0 {
			amount = inv.Total
		}

		switch inv.Status {
		case "paid":
			metrics.TotalPaid += amount

			issued := parseDate(inv.Date)
			paid := parseDate(inv.PaidDate)
			if !issued.IsZero() && !paid.IsZero() {
				totalPaymentDays += int(paid.Sub(issued).Hours() / 24)
				paidCount++
			}

		case "outstanding", "overdue":
			balance := inv.Balance
			if balance == 0 {
				balance = amount
			}
			metrics.TotalOutstanding += balance

			if inv.DaysOverdue > 0 {
				metrics.TotalOverdue += balance

				risk := models.InvoiceRisk{
					InvoiceNumber: inv.InvoiceNumber,
					CustomerName:  inv.CustomerName,
					Amount:        balance,
					DaysOverdue:   inv.DaysOverdue,
				}
				switch {
				case inv.DaysOverdue > highRiskDays:
					metrics.HighRisk = append(metrics.HighRisk, risk)
				case inv.DaysOverdue > mediumRiskDays:
					metrics.MediumRisk = append(metrics.MediumRisk, risk)
				default:
					metrics.LowRisk = append(metrics.LowRisk, risk)
				}
			}
		}
	}

	if paidCount > 0 {
		metrics.AvgPaymentDays = float64(totalPaymentDays) / float64(paidCount)
	} else {
		metrics.AvgPaymentDays = defaultPaymentDays
	}

	metrics.CashFlowProjection = models.CashFlowProjection{
		Next30Days:    metrics.TotalOutstanding * projectionNext30,
		Next60Days:    metrics.TotalOutstanding * projectionNext60,
		Beyond60Days:  metrics.TotalOutstanding * projectionBeyond60,
		TotalExpected: metrics.TotalOutstanding,
	}

	return metrics
}
