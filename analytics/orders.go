package analytics

import (
	"sort"
	"strings"

	"github.com/splitfin/order-service/models"
)

// topBundleCount caps the topBundles slice
const topBundleCount = 5

// NormalizeBrandKey lower-cases a brand name and collapses whitespace
// to underscores, matching how brand_normalized keys are stored.
func NormalizeBrandKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// AggregateOrderPatterns folds historical sales orders into brand-level
// order patterns. Only orders containing at least one line matching the
// target brand are counted; bundles are detected when an order carries
// more than one brand-matching line.
func AggregateOrderPatterns(orders []models.RawSalesOrder, brandName string) *models.OrderPatterns {
	patterns := &models.OrderPatterns{
		OrderFrequency: make(map[string]int),
	}
	brandLower := strings.ToLower(brandName)
	bundles := make(map[string]int)

	for _, order := range orders {
		var brandItems []models.RawOrderLine
		for _, item := range order.LineItems {
			if item.Brand == brandName || item.BrandNormalized == brandLower {
				brandItems = append(brandItems, item)
			}
		}
		if len(brandItems) == 0 {
			continue
		}

		patterns.TotalOrders++
		for _, item := range brandItems {
			patterns.TotalValue += float64(item.Quantity) * item.Rate
		}

		if order.CustomerID != "" {
			patterns.OrderFrequency[order.CustomerID]++
		}

		if len(brandItems) > 1 {
			skus := make([]string, 0, len(brandItems))
			for _, item := range brandItems {
				skus = append(skus, item.SKU)
			}
			sort.Strings(skus)
			bundles[strings.Join(skus, "|")]++
		}

		if order.IsMarketplaceOrder {
			patterns.Marketplace++
		} else {
			patterns.DirectOrders++
		}
	}

	orderFloor := patterns.TotalOrders
	if orderFloor < 1 {
		orderFloor = 1
	}
	patterns.AvgOrderValue = patterns.TotalValue / float64(orderFloor)

	keys := make([]string, 0, len(bundles))
	for key := range bundles {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if bundles[keys[i]] != bundles[keys[j]] {
			return bundles[keys[i]] > bundles[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > topBundleCount {
		keys = keys[:topBundleCount]
	}

	for _, key := range keys {
		patterns.TopBundles = append(patterns.TopBundles, models.Bundle{
			Items:      strings.Split(key, "|"),
			Count:      bundles[key],
			Percentage: float64(bundles[key]) / float64(patterns.TotalOrders) * 100,
		})
	}

	return patterns
}
