// Package analytics folds raw store records into the summary metrics
// that feed the purchase-order suggestion pipeline. Every reducer is a
// pure function over an already time-filtered record set and treats
// missing numbers as zero and missing dates as "no contribution".
package analytics

import (
	"sort"

	"github.com/splitfin/order-service/models"
)

// velocityMonths is the fixed divisor for sales velocity. The query
// window is six months and the constant is deliberately not derived
// from the actual date range.
const velocityMonths = 6

// topProductCount caps the topProducts slice
const topProductCount = 10

// AggregateSales folds sales transactions into per-sku running totals
// and the derived velocity/diversity metrics, sorted by revenue.
func AggregateSales(transactions []models.SalesTransaction) *models.SalesMetrics {
	type running struct {
		sku       string
		name      string
		units     int
		revenue   float64
		orders    int
		customers map[string]struct{}
	}

	perSKU := make(map[string]*running)
	monthly := make(map[string]float64)
	totalRevenue := 0.0
	totalUnits := 0

	for _, sale := range transactions {
		if ts := parseDate(sale.OrderDate); !ts.IsZero() {
			monthly[monthKey(ts)] += sale.Total
		}
		totalRevenue += sale.Total
		totalUnits += sale.Quantity

		if sale.SKU == "" {
			continue
		}
		cur, ok := perSKU[sale.SKU]
		if !ok {
			name := sale.ItemName
			if name == "" {
				name = sale.SKU
			}
			cur = &running{sku: sale.SKU, name: name, customers: make(map[string]struct{})}
			perSKU[sale.SKU] = cur
		}
		cur.units += sale.Quantity
		cur.revenue += sale.Total
		cur.orders++
		if sale.CustomerID != "" {
			cur.customers[sale.CustomerID] = struct{}{}
		}
	}

	metrics := make([]models.ProductSales, 0, len(perSKU))
	for _, r := range perSKU {
		unitFloor := r.units
		if unitFloor < 1 {
			unitFloor = 1
		}
		orderFloor := r.orders
		if orderFloor < 1 {
			orderFloor = 1
		}
		metrics = append(metrics, models.ProductSales{
			SKU:               r.sku,
			Name:              r.name,
			Units:             r.units,
			Revenue:           r.revenue,
			Orders:            r.orders,
			UniqueCustomers:   len(r.customers),
			Velocity:          float64(r.units) / velocityMonths,
			CustomerDiversity: float64(len(r.customers)) / float64(unitFloor),
			AvgOrderSize:      float64(r.units) / float64(orderFloor),
		})
	}

	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].Revenue != metrics[j].Revenue {
			return metrics[i].Revenue > metrics[j].Revenue
		}
		return metrics[i].SKU < metrics[j].SKU
	})

	top := metrics
	if len(top) > topProductCount {
		top = top[:topProductCount]
	}

	return &models.SalesMetrics{
		TotalRevenue:   totalRevenue,
		TotalUnits:     totalUnits,
		MonthlyRevenue: monthly,
		ProductMetrics: metrics,
		TopProducts:    top,
	}
}
