// Package export renders a finished brand analysis as a purchase-order
// CSV ready for upload into the purchasing system.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/splitfin/order-service/models"
)

var productHeader = []string{
	"sku",
	"product_name",
	"quantity",
	"unit_cost",
	"line_total",
	"confidence",
	"trend",
	"reasoning",
}

// WritePurchaseOrderCSV writes the purchase-order document: a summary
// block, the strategic analysis, headline business metrics, one row per
// suggestion with a non-zero final quantity, the order total, and a
// trend summary. An operator adjustment overrides the recommended
// quantity; unit cost comes from the product catalog when the sku is
// known there. Product rows are ordered by sku for stable output.
func WritePurchaseOrderCSV(w io.Writer, result *models.AnalysisResult, now time.Time) error {
	if result == nil {
		return fmt.Errorf("no analysis result to export")
	}

	cw := csv.NewWriter(w)

	write := func(fields ...string) {
		cw.Write(fields)
	}

	write("PURCHASE ORDER SUGGESTIONS")
	write("Brand", result.BrandID)
	write("Generated", now.Format("2006-01-02"))
	write("Suggestions", strconv.Itoa(len(result.Suggestions)))
	write()

	if result.Insights != nil {
		write("STRATEGIC ANALYSIS")
		write("Executive Summary", result.Insights.ExecutiveSummary)
		write("Market Timing", result.Insights.MarketTiming)
		write("Risk Assessment", result.Insights.RiskAssessment)
		write("Cash Flow Impact", result.Insights.CashFlowImpact)
		write()
	}

	if c := result.Comprehensive; c != nil {
		write("BUSINESS METRICS")
		if c.SalesTransactions != nil {
			write("6-Month Revenue", formatAmount(c.SalesTransactions.TotalRevenue))
			write("6-Month Units", strconv.Itoa(c.SalesTransactions.TotalUnits))
		}
		if c.InvoiceMetrics != nil {
			write("Outstanding Invoices", formatAmount(c.InvoiceMetrics.TotalOutstanding))
			write("Overdue", formatAmount(c.InvoiceMetrics.TotalOverdue))
		}
		if c.CustomerInsights != nil {
			write("Active Customers", strconv.Itoa(c.CustomerInsights.TotalActiveCustomers))
		}
		write()
	}

	write(productHeader...)

	suggestions := make([]models.Suggestion, len(result.Suggestions))
	copy(suggestions, result.Suggestions)
	sort.Slice(suggestions, func(i, j int) bool { return suggestions[i].SKU < suggestions[j].SKU })

	var orderTotal float64
	rising := 0
	for _, s := range suggestions {
		quantity := s.RecommendedQuantity
		if adjusted, ok := result.AdjustedQuantities[s.SKU]; ok {
			quantity = adjusted
		}
		if quantity <= 0 {
			continue
		}
		if s.TrendDirection == models.DirectionUp {
			rising++
		}

		var unitCost, lineTotal float64
		if product, ok := result.Products[s.SKU]; ok {
			unitCost = product.RetailPrice
			lineTotal = unitCost * float64(quantity)
		}
		orderTotal += lineTotal

		write(
			s.SKU,
			s.ProductName,
			strconv.Itoa(quantity),
			formatAmount(unitCost),
			formatAmount(lineTotal),
			strconv.FormatFloat(s.Confidence, 'f', 2, 64),
			s.TrendDirection,
			s.Reasoning,
		)
	}

	write()
	write("Order Total", formatAmount(orderTotal))
	write("Rising Trend Products", strconv.Itoa(rising))

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
