package analytics

import (
	"time"

	"github.com/splitfin/order-service/models"
)

// Segment thresholds in GBP. Strict greater-than boundaries: exactly
// 5000 is regular, exactly 1000 is occasional.
const (
	vipThreshold     = 5000
	regularThreshold = 1000
)

// AggregateCustomers segments active customers by lifetime value and
// flags churn risk. now anchors the new-customer and churn windows.
func AggregateCustomers(customers []models.CustomerRecord, now time.Time) *models.CustomerMetrics {
	metrics := &models.CustomerMetrics{}

	threeMonthsAgo := now.AddDate(0, -3, 0)
	oneMonthAgo := now.AddDate(0, -1, 0)
	totalOrders := 0

	for _, c := range customers {
		metrics.TotalActiveCustomers++
		totalOrders += c.OrderCount

		if created := parseDate(c.CreatedAt); !created.IsZero() && created.After(threeMonthsAgo) {
			metrics.NewCustomers++
		}
		if c.OrderCount > 1 {
			metrics.RepeatCustomers++
		}

		summary := models.CustomerSummary{
			ID:        c.ID,
			Name:      c.CustomerName,
			Email:     c.Email,
			Value:     c.TotalSpent,
			Orders:    c.OrderCount,
			LastOrder: c.LastOrderDate,
		}

		switch {
		case c.TotalSpent > vipThreshold:
			metrics.VIP = append(metrics.VIP, summary)
		case c.TotalSpent > regularThreshold:
			metrics.Regular = append(metrics.Regular, summary)
		default:
			metrics.Occasional = append(metrics.Occasional, summary)
		}

		lastOrder := parseDate(c.LastOrderDate)
		if !lastOrder.IsZero() && lastOrder.Before(oneMonthAgo) && c.OrderCount > 2 {
			metrics.ChurnRisk = append(metrics.ChurnRisk, models.ChurnRisk{
				ID:                 c.ID,
				Name:               c.CustomerName,
				DaysSinceLastOrder: int(now.Sub(lastOrder).Hours() / 24),
				TotalSpent:         c.TotalSpent,
				OrderCount:         c.OrderCount,
			})
		}
	}

	activeFloor := metrics.TotalActiveCustomers
	if activeFloor < 1 {
		activeFloor = 1
	}
	metrics.AvgOrdersPerCustomer = float64(totalOrders) / float64(activeFloor)
	if metrics.TotalActiveCustomers > 0 {
		metrics.RetentionRate = float64(metrics.RepeatCustomers) / float64(metrics.TotalActiveCustomers) * 100
	}

	return metrics
}
