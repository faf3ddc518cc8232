package workflows

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/splitfin/order-service/activities"
	"github.com/splitfin/order-service/analytics"
	"github.com/splitfin/order-service/models"
)

const (
	// adjustmentDebounce batches rapid quantity edits into a single
	// validation call.
	adjustmentDebounce = time.Second

	// adjustmentIdleTimeout closes the review session when the operator
	// walks away without finishing.
	adjustmentIdleTimeout = 30 * time.Minute
)

// Analysis workflow stages
const (
	StageFetching     = "fetching_data"
	StageAnalyzing    = "analyzing"
	StageEnriching    = "enriching"
	StageReviewing    = "reviewing"
	StageAnalysisDone = "done"
)

// BrandAnalysisWorkflow runs the purchase-order suggestion pipeline for
// one brand: fan out the data fetches, reuse a fresh cached analysis or
// run a new one, enrich suggestions with market trends, then hold the
// result open for interactive quantity adjustments until the operator
// finishes or the session goes idle.
func BrandAnalysisWorkflow(ctx workflow.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Brand analysis started", "brand_id", req.BrandID, "brand_name", req.BrandName)

	result := &models.AnalysisResult{
		BrandID:            req.BrandID,
		Stage:              StageFetching,
		AdjustedQuantities: map[string]int{},
	}

	err := workflow.SetQueryHandler(ctx, models.QueryResult, func() (*models.AnalysisResult, error) {
		return result, nil
	})
	if err != nil {
		logger.Error("Failed to register result query handler", "error", err)
		return nil, err
	}

	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())

	// The three source fetches are independent, so they run in parallel.
	dataFuture := workflow.ExecuteActivity(ctx, "FetchComprehensiveData", req)
	productsFuture := workflow.ExecuteActivity(ctx, "LoadBrandProducts", req)
	trendsFuture := workflow.ExecuteActivity(ctx, "FetchSearchTrends", req.BrandName)

	var comprehensive models.ComprehensiveData
	if err := dataFuture.Get(ctx, &comprehensive); err != nil {
		result.Stage = StageAnalysisDone
		result.Error = err.Error()
		return result, err
	}
	result.Comprehensive = &comprehensive

	var products map[string]models.Product
	if err := productsFuture.Get(ctx, &products); err != nil {
		result.Stage = StageAnalysisDone
		result.Error = err.Error()
		return result, err
	}
	result.Products = products

	// Trends are additive; analysis proceeds without them.
	var trends []models.SearchTrend
	if err := trendsFuture.Get(ctx, &trends); err != nil {
		logger.Warn("Search trends unavailable", "brand", req.BrandName, "error", err)
	}
	result.SearchTrends = trends

	result.Stage = StageAnalyzing
	suggestions, fromCache, err := suggestionsFor(ctx, req, &comprehensive)
	if err != nil {
		result.Stage = StageAnalysisDone
		result.Error = err.Error()
		return result, err
	}
	result.FromCache = fromCache

	result.Stage = StageEnriching
	result.Suggestions = analytics.MergeTrends(suggestions, trends)

	market := models.MarketData{
		SearchTrends:   trends,
		MarketShare:    analytics.MarketShare(&comprehensive),
		CategoryGrowth: analytics.CategoryGrowth(&comprehensive),
	}

	// The strategic summary is optional decoration on the suggestions.
	var insights models.PurchaseInsights
	err = workflow.ExecuteActivity(ctx, "GeneratePurchaseInsights", activities.InsightRequest{
		Brand:       req.BrandName,
		UserID:      req.UserID,
		Suggestions: result.Suggestions,
		Historical:  &comprehensive,
		Market:      market,
	}).Get(ctx, &insights)
	if err != nil {
		logger.Warn("Insight generation failed", "brand", req.BrandName, "error", err)
	} else {
		result.Insights = &insights
	}

	result.Stage = StageReviewing
	runAdjustmentSession(ctx, req, result)

	result.Stage = StageAnalysisDone
	logger.Info("Brand analysis complete", "brand_id", req.BrandID,
		"suggestions", len(result.Suggestions), "from_cache", result.FromCache)
	return result, nil
}

// suggestionsFor returns a fresh-enough cached analysis when one
// exists, otherwise runs a new one against the comprehensive bundle.
func suggestionsFor(ctx workflow.Context, req models.AnalysisRequest, data *models.ComprehensiveData) ([]models.Suggestion, bool, error) {
	var cached activities.CachedSuggestions
	err := workflow.ExecuteActivity(ctx, "FetchCachedAnalysis", req.BrandID).Get(ctx, &cached)
	if err != nil {
		workflow.GetLogger(ctx).Warn("Analysis cache lookup failed", "brand_id", req.BrandID, "error", err)
	} else if cached.Valid {
		return cached.Suggestions, true, nil
	}

	var suggestions []models.Suggestion
	err = workflow.ExecuteActivity(ctx, "AnalyzeBrand", activities.AnalyzeBrandRequest{
		BrandID:       req.BrandID,
		Limit:         req.Limit,
		Comprehensive: data,
	}).Get(ctx, &suggestions)
	if err != nil {
		return nil, false, err
	}
	return suggestions, false, nil
}

// runAdjustmentSession holds the workflow open while the operator tunes
// quantities. Each edit is applied immediately; validation runs once
// per quiet second rather than per keystroke. The session ends on the
// finish signal or after the idle timeout.
func runAdjustmentSession(ctx workflow.Context, req models.AnalysisRequest, result *models.AnalysisResult) {
	logger := workflow.GetLogger(ctx)
	adjustCh := workflow.GetSignalChannel(ctx, models.SignalAdjust)
	finishCh := workflow.GetSignalChannel(ctx, models.SignalFinish)

	original := make(map[string]int, len(result.Suggestions))
	for _, s := range result.Suggestions {
		original[s.SKU] = s.RecommendedQuantity
	}

	dirty := false
	finished := false

	for !finished {
		selector := workflow.NewSelector(ctx)

		selector.AddReceive(adjustCh, func(c workflow.ReceiveChannel, more bool) {
			var adj models.QuantityAdjustment
			c.Receive(ctx, &adj)
			result.AdjustedQuantities[adj.SKU] = adj.Quantity
			dirty = true
			logger.Info("Quantity adjusted", "sku", adj.SKU, "quantity", adj.Quantity)
		})

		selector.AddReceive(finishCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, nil)
			finished = true
		})

		if dirty {
			selector.AddFuture(workflow.NewTimer(ctx, adjustmentDebounce), func(workflow.Future) {
				dirty = false

				adjustments := make([]models.Adjustment, 0, len(result.AdjustedQuantities))
				for sku, qty := range result.AdjustedQuantities {
					adjustments = append(adjustments, models.Adjustment{
						SKU:              sku,
						OriginalQuantity: original[sku],
						AdjustedQuantity: qty,
					})
				}

				var feedback models.ValidationFeedback
				err := workflow.ExecuteActivity(ctx, "ValidateAdjustments", activities.ValidateAdjustmentsRequest{
					Brand:               req.BrandName,
					UserID:              req.UserID,
					OriginalSuggestions: result.Suggestions,
					UserAdjustments:     adjustments,
				}).Get(ctx, &feedback)
				if err != nil {
					logger.Warn("Adjustment validation failed", "brand", req.BrandName, "error", err)
					return
				}
				result.Validation = &feedback
			})
		} else {
			selector.AddFuture(workflow.NewTimer(ctx, adjustmentIdleTimeout), func(workflow.Future) {
				logger.Info("Adjustment session idle, closing", "brand_id", req.BrandID)
				finished = true
			})
		}

		selector.Select(ctx)
	}
}
