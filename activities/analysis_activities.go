package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/splitfin/order-service/analytics"
	"github.com/splitfin/order-service/models"
)

// analysisWindowMonths is the lookback window for the local fallback
// reads, matching the server-side aggregate endpoint.
const analysisWindowMonths = 6

// CacheMaxAge is how long a cached brand analysis stays valid
const CacheMaxAge = 24 * time.Hour

// AnalysisStore is the slice of the document store the suggestion
// pipeline's local fallback uses
type AnalysisStore interface {
	ProductsByBrand(ctx context.Context, brandName, brandKey string) ([]models.Product, error)
	SalesTransactionsSince(ctx context.Context, brandKey string, since time.Time) ([]models.SalesTransaction, error)
	HistoricalOrdersSince(ctx context.Context, since time.Time) ([]models.RawSalesOrder, error)
	ActiveCustomersSince(ctx context.Context, since time.Time) ([]models.CustomerRecord, error)
	InvoicesSince(ctx context.Context, since time.Time) ([]models.InvoiceRecord, error)
	PurchaseOrdersByVendor(ctx context.Context, vendorID string) ([]models.PurchaseOrderRecord, error)
}

// AnalysisActivities contains the data-fetching and analysis steps of
// the purchase-order suggestion pipeline
type AnalysisActivities struct {
	Store      AnalysisStore
	HTTPClient *http.Client
	APIBase    string
}

// NewAnalysisActivities creates an AnalysisActivities instance
func NewAnalysisActivities(st AnalysisStore, apiBase string) *AnalysisActivities {
	return &AnalysisActivities{
		Store: st,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		APIBase: apiBase,
	}
}

// brandKey is the normalized key the store reads filter on, derived
// from the brand name when the request carries no explicit id.
func brandKey(req models.AnalysisRequest) string {
	if req.BrandID != "" {
		return req.BrandID
	}
	return analytics.NormalizeBrandKey(req.BrandName)
}

// FetchComprehensiveData prefers the backend's aggregate endpoint and
// falls back to five parallel store reads folded locally when the
// endpoint is unavailable.
func (a *AnalysisActivities) FetchComprehensiveData(ctx context.Context, req models.AnalysisRequest) (*models.ComprehensiveData, error) {
	logger := activityLogger(ctx)

	data, err := a.fetchRemoteComprehensive(ctx, req)
	if err == nil {
		logger.Info("Comprehensive data fetched from aggregate endpoint", "brand", req.BrandID)
		return data, nil
	}
	logger.Warn("Aggregate endpoint unavailable, folding locally", "brand", req.BrandID, "error", err)

	return a.fetchLocalComprehensive(ctx, req)
}

func (a *AnalysisActivities) fetchRemoteComprehensive(ctx context.Context, req models.AnalysisRequest) (*models.ComprehensiveData, error) {
	body, err := json.Marshal(map[string]string{
		"brandId":   req.BrandID,
		"brandName": req.BrandName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comprehensive request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIBase+"/api/analytics/comprehensive", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.UserID)

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call analytics endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analytics endpoint returned status %d", resp.StatusCode)
	}

	var data models.ComprehensiveData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode comprehensive data: %w", err)
	}
	return &data, nil
}

// fetchLocalComprehensive runs the five collection reads in parallel
// and folds each with the analytics reducers. The read targets are
// disjoint collections, so the fan-out shares no mutable state.
func (a *AnalysisActivities) fetchLocalComprehensive(ctx context.Context, req models.AnalysisRequest) (*models.ComprehensiveData, error) {
	now := time.Now()
	since := now.AddDate(0, -analysisWindowMonths, 0)

	var (
		sales     []models.SalesTransaction
		orders    []models.RawSalesOrder
		customers []models.CustomerRecord
		invoices  []models.InvoiceRecord
		purchases []models.PurchaseOrderRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sales, err = a.Store.SalesTransactionsSince(gctx, brandKey(req), since)
		return err
	})
	g.Go(func() (err error) {
		orders, err = a.Store.HistoricalOrdersSince(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		customers, err = a.Store.ActiveCustomersSince(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		invoices, err = a.Store.InvoicesSince(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		purchases, err = a.Store.PurchaseOrdersByVendor(gctx, req.VendorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("local comprehensive fetch failed: %w", err)
	}

	return &models.ComprehensiveData{
		SalesTransactions: analytics.AggregateSales(sales),
		SalesOrders:       analytics.AggregateOrderPatterns(orders, req.BrandName),
		CustomerInsights:  analytics.AggregateCustomers(customers, now),
		InvoiceMetrics:    analytics.AggregateInvoices(invoices),
		PurchaseHistory:   analytics.AggregatePurchaseOrders(purchases),
	}, nil
}

// LoadBrandProducts loads the product catalog for the brand keyed by
// sku, trying the exact brand name before the normalized key.
func (a *AnalysisActivities) LoadBrandProducts(ctx context.Context, req models.AnalysisRequest) (map[string]models.Product, error) {
	products, err := a.Store.ProductsByBrand(ctx, req.BrandName, brandKey(req))
	if err != nil {
		return nil, err
	}

	bySKU := make(map[string]models.Product, len(products))
	for _, p := range products {
		if p.SKU == "" {
			continue
		}
		if p.ReorderLevel == 0 {
			p.ReorderLevel = 10
		}
		bySKU[p.SKU] = p
	}

	activityLogger(ctx).Info("Loaded brand products", "brand", req.BrandName, "count", len(bySKU))
	return bySKU, nil
}

// FetchSearchTrends fetches market search-trend data for the brand
func (a *AnalysisActivities) FetchSearchTrends(ctx context.Context, brandName string) ([]models.SearchTrend, error) {
	endpoint := a.APIBase + "/api/market/search-trends?brand=" + url.QueryEscape(brandName)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call trends endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends endpoint returned status %d", resp.StatusCode)
	}

	var trends []models.SearchTrend
	if err := json.NewDecoder(resp.Body).Decode(&trends); err != nil {
		return nil, fmt.Errorf("failed to decode search trends: %w", err)
	}
	return trends, nil
}

// CachedAnalysis is the cache endpoint's response envelope
type CachedAnalysis struct {
	Success bool `json:"success"`
	Data    *struct {
		Predictions []models.Suggestion `json:"predictions"`
		AgeMillis   int64               `json:"age"`
	} `json:"data"`
}

// FetchCachedAnalysis checks the server-side analysis cache for the
// brand. Valid reports whether a fresh enough entry was found.
func (a *AnalysisActivities) FetchCachedAnalysis(ctx context.Context, brandID string) (*CachedSuggestions, error) {
	endpoint := fmt.Sprintf("%s/api/purchase-analysis/%s/latest", a.APIBase, url.PathEscape(brandID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call analysis cache: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// A cache miss is not an error; the caller falls through to a
		// fresh analysis.
		return &CachedSuggestions{}, nil
	}

	var cached CachedAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}

	if !cached.Success || cached.Data == nil {
		return &CachedSuggestions{}, nil
	}
	if time.Duration(cached.Data.AgeMillis)*time.Millisecond >= CacheMaxAge {
		return &CachedSuggestions{}, nil
	}

	return &CachedSuggestions{
		Valid:       true,
		Suggestions: cached.Data.Predictions,
	}, nil
}

// CachedSuggestions is the activity-level view of the analysis cache
type CachedSuggestions struct {
	Valid       bool                `json:"valid"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// AnalyzeBrandRequest asks the analysis endpoint for fresh suggestions
type AnalyzeBrandRequest struct {
	BrandID       string                    `json:"brandId"`
	Limit         int                       `json:"limit"`
	Comprehensive *models.ComprehensiveData `json:"comprehensiveData"`
}

type analysisResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    *struct {
		Predictions []models.Suggestion `json:"predictions"`
	} `json:"data"`
}

// AnalyzeBrand runs a fresh analysis with the comprehensive data
// bundle as context
func (a *AnalysisActivities) AnalyzeBrand(ctx context.Context, req AnalyzeBrandRequest) ([]models.Suggestion, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	body, err := json.Marshal(map[string]any{
		"brandId":             req.BrandID,
		"limit":               limit,
		"includeSearchTrends": true,
		"comprehensiveData":   req.Comprehensive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIBase+"/api/purchase-analysis/analyze-brand", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call analysis endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed analysisResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis response: %w", err)
	}
	if !parsed.Success || parsed.Data == nil {
		if parsed.Error != "" {
			return nil, fmt.Errorf("analysis failed: %s", parsed.Error)
		}
		return nil, fmt.Errorf("analysis failed")
	}
	return parsed.Data.Predictions, nil
}

// InsightRequest asks for the second-order strategic summary
type InsightRequest struct {
	Brand       string                    `json:"brand"`
	UserID      string                    `json:"userId"`
	Suggestions []models.Suggestion       `json:"suggestions"`
	Historical  *models.ComprehensiveData `json:"historicalSales"`
	Market      models.MarketData         `json:"marketData"`
}

type insightResponse struct {
	Data *models.PurchaseInsights `json:"data"`
}

// GeneratePurchaseInsights requests the strategic insight summary from
// the enriched suggestions and comprehensive data
func (a *AnalysisActivities) GeneratePurchaseInsights(ctx context.Context, req InsightRequest) (*models.PurchaseInsights, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal insight request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIBase+"/api/ai-insights/purchase-order-insights", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-ID", req.UserID)

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call insight endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("insight endpoint returned status %d", resp.StatusCode)
	}

	var parsed insightResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode insight response: %w", err)
	}
	return parsed.Data, nil
}

// ValidateAdjustmentsRequest re-evaluates user quantity overrides
type ValidateAdjustmentsRequest struct {
	Brand               string              `json:"brand"`
	UserID              string              `json:"userId"`
	OriginalSuggestions []models.Suggestion `json:"originalSuggestions"`
	UserAdjustments     []models.Adjustment `json:"userAdjustments"`
}

type validationResponse struct {
	Data *models.ValidationFeedback `json:"data"`
}

// ValidateAdjustments asks the backend to re-score confidence for the
// current adjustment set
func (a *AnalysisActivities) ValidateAdjustments(ctx context.Context, req ValidateAdjustmentsRequest) (*models.ValidationFeedback, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal validation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIBase+"/api/ai-insights/validate-adjustments", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-ID", req.UserID)

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call validation endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("validation endpoint returned status %d", resp.StatusCode)
	}

	var parsed validationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode validation response: %w", err)
	}
	return parsed.Data, nil
}
