package analytics

import (
	"sort"
	"strings"

	"github.com/splitfin/order-service/models"
)

// totalMarketSize is the assumed category market size in GBP used for
// the market-share estimate.
const totalMarketSize = 1_000_000

// MergeTrends annotates each suggestion with the matching search
// trend, if any: a trend matches when its keyword contains the product
// name, case-insensitively. Returns a new slice.
func MergeTrends(suggestions []models.Suggestion, trends []models.SearchTrend) []models.Suggestion {
	merged := make([]models.Suggestion, len(suggestions))
	for i, s := range suggestions {
		merged[i] = s
		merged[i].TrendDirection = models.DirectionStable

		nameLower := strings.ToLower(s.ProductName)
		for _, trend := range trends {
			if !strings.Contains(strings.ToLower(trend.Keyword), nameLower) {
				continue
			}
			merged[i].SearchVolume = trend.Volume
			switch trend.Trend {
			case models.TrendRising:
				merged[i].TrendDirection = models.DirectionUp
			case models.TrendFalling:
				merged[i].TrendDirection = models.DirectionDown
			default:
				merged[i].TrendDirection = models.DirectionStable
			}
			break
		}
	}
	return merged
}

// MarketShare estimates brand share of the assumed market from six
// months of revenue.
func MarketShare(data *models.ComprehensiveData) float64 {
	if data == nil || data.SalesTransactions == nil {
		return 0
	}
	return data.SalesTransactions.TotalRevenue / totalMarketSize * 100
}

// CategoryGrowth is the month-over-month change between the two most
// recent revenue months.
func CategoryGrowth(data *models.ComprehensiveData) float64 {
	if data == nil || data.SalesTransactions == nil {
		return 0
	}
	monthly := data.SalesTransactions.MonthlyRevenue
	if len(monthly) < 2 {
		return 0
	}

	type monthRevenue struct {
		ts      int64
		revenue float64
	}
	series := make([]monthRevenue, 0, len(monthly))
	for key, revenue := range monthly {
		ts := parseMonthKey(key)
		if ts == 0 {
			continue
		}
		series = append(series, monthRevenue{ts: ts, revenue: revenue})
	}
	if len(series) < 2 {
		return 0
	}
	sort.Slice(series, func(i, j int) bool { return series[i].ts < series[j].ts })

	last := series[len(series)-1].revenue
	previous := series[len(series)-2].revenue
	if previous <= 0 {
		return 0
	}
	return (last - previous) / previous * 100
}
