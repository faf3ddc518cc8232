package analytics

import "github.com/splitfin/order-service/models"

// defaultLeadTimeDays is assumed when no completed purchase order
// carries both the order and delivery dates.
const defaultLeadTimeDays = 14

// AggregatePurchaseOrders folds historical purchase orders into lead
// time and per-sku reorder patterns.
func AggregatePurchaseOrders(orders []models.PurchaseOrderRecord) *models.PurchaseMetrics {
	metrics := &models.PurchaseMetrics{
		ReorderPatterns: make(map[string]models.ReorderPattern),
	}

	quantities := make(map[string][]int)
	totalLeadTime := 0
	completedCount := 0

	for _, po := range orders {
		info := models.PurchaseOrderInfo{
			ID:           po.ID,
			Date:         po.Date,
			ExpectedDate: po.ExpectedDeliveryDate,
			Status:       po.Status,
			Items:        len(po.LineItems),
			Total:        po.Total,
			Vendor:       po.VendorName,
		}
		metrics.RecentOrders = append(metrics.RecentOrders, info)

		switch po.Status {
		case "open", "pending":
			metrics.PendingOrders = append(metrics.PendingOrders, info)
			metrics.TotalPending += po.Total
		case "billed", "closed":
			metrics.CompletedOrders = append(metrics.CompletedOrders, info)
			metrics.TotalCompleted += po.Total

			ordered := parseDate(po.Date)
			delivered := parseDate(po.DeliveryDate)
			if !ordered.IsZero() && !delivered.IsZero() {
				totalLeadTime += int(delivered.Sub(ordered).Hours() / 24)
				completedCount++
			}
		}

		for _, item := range po.LineItems {
			sku := item.SKU
			if sku == "" {
				sku = item.ItemCode
			}
			if sku == "" {
				continue
			}
			quantities[sku] = append(quantities[sku], item.Quantity)
		}
	}

	if completedCount > 0 {
		metrics.AvgLeadTime = float64(totalLeadTime) / float64(completedCount)
	} else {
		metrics.AvgLeadTime = defaultLeadTimeDays
	}

	for sku, qtys := range quantities {
		sum := 0
		for _, q := range qtys {
			sum += q
		}
		metrics.ReorderPatterns[sku] = models.ReorderPattern{
			Count:       len(qtys),
			AvgQuantity: float64(sum) / float64(len(qtys)),
		}
	}

	return metrics
}
