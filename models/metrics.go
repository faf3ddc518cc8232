package models

// Raw record shapes read from the document store for analysis. Fields
// are pointers or zero-defaulted where upstream data quality is not
// guaranteed; the aggregators treat missing values as "no contribution".

// SalesTransaction is one brand-filtered sale row
type SalesTransaction struct {
	SKU        string  `json:"sku" bson:"sku"`
	ItemName   string  `json:"item_name" bson:"item_name"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	Total      float64 `json:"total" bson:"total"`
	CustomerID string  `json:"customer_id" bson:"customer_id"`
	OrderDate  string  `json:"order_date" bson:"order_date"`
}

// RawOrderLine is a line item on a historical sales order
type RawOrderLine struct {
	SKU             string  `json:"sku" bson:"sku"`
	Brand           string  `json:"brand" bson:"brand"`
	BrandNormalized string  `json:"brand_normalized" bson:"brand_normalized"`
	Quantity        int     `json:"quantity" bson:"quantity"`
	Rate            float64 `json:"rate" bson:"rate"`
}

// RawSalesOrder is a historical sales order used for pattern analysis
type RawSalesOrder struct {
	CustomerID         string         `json:"customer_id" bson:"customer_id"`
	Date               string         `json:"date" bson:"date"`
	LineItems          []RawOrderLine `json:"line_items" bson:"line_items"`
	IsMarketplaceOrder bool           `json:"is_marketplace_order" bson:"is_marketplace_order"`
}

// CustomerRecord is one row from the customer_data collection
type CustomerRecord struct {
	ID            string  `json:"id" bson:"_id,omitempty"`
	CustomerName  string  `json:"customer_name" bson:"customer_name"`
	Email         string  `json:"email" bson:"email"`
	TotalSpent    float64 `json:"total_spent" bson:"total_spent"`
	OrderCount    int     `json:"order_count" bson:"order_count"`
	CreatedAt     string  `json:"created_at" bson:"created_at"`
	LastOrderDate string  `json:"last_order_date" bson:"last_order_date"`
}

// InvoiceRecord is one row from the invoices collection
type InvoiceRecord struct {
	InvoiceNumber string  `json:"invoice_number" bson:"invoice_number"`
	CustomerName  string  `json:"customer_name" bson:"customer_name"`
	Status        string  `json:"status" bson:"status"`
	Amount        float64 `json:"amount" bson:"amount"`
	Total         float64 `json:"total" bson:"total"`
	Balance       float64 `json:"balance" bson:"balance"`
	Date          string  `json:"date" bson:"date"`
	PaidDate      string  `json:"paid_date" bson:"paid_date"`
	DaysOverdue   int     `json:"days_overdue" bson:"days_overdue"`
}

// PurchaseOrderLine is a line on a historical purchase order
type PurchaseOrderLine struct {
	SKU      string `json:"sku" bson:"sku"`
	ItemCode string `json:"item_code" bson:"item_code"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

// PurchaseOrderRecord is one row from the purchaseorders collection
type PurchaseOrderRecord struct {
	ID                   string              `json:"id" bson:"_id,omitempty"`
	Date                 string              `json:"date" bson:"date"`
	DeliveryDate         string              `json:"delivery_date" bson:"delivery_date"`
	ExpectedDeliveryDate string              `json:"expected_delivery_date" bson:"expected_delivery_date"`
	Status               string              `json:"status" bson:"status"`
	Total                float64             `json:"total" bson:"total"`
	VendorName           string              `json:"vendor_name" bson:"vendor_name"`
	LineItems            []PurchaseOrderLine `json:"line_items" bson:"line_items"`
}

// Product is a catalog entry for the selected brand
type Product struct {
	ID              string  `json:"id" bson:"_id,omitempty"`
	SKU             string  `json:"sku" bson:"sku"`
	Name            string  `json:"item_name" bson:"item_name"`
	Category        string  `json:"category" bson:"category"`
	RetailPrice     float64 `json:"rate" bson:"rate"`
	Brand           string  `json:"brand" bson:"brand"`
	BrandNormalized string  `json:"brand_normalized" bson:"brand_normalized"`
	CurrentStock    int     `json:"stock_on_hand" bson:"stock_on_hand"`
	ReorderLevel    int     `json:"reorder_level" bson:"reorder_level"`
}

// Brand is a selectable brand from the brands collection
type Brand struct {
	Name       string `json:"brand_name" bson:"brand_name"`
	Normalized string `json:"brand_normalized" bson:"brand_normalized"`
	VendorID   string `json:"vendor_id" bson:"vendor_id"`
}

// --- Folded metrics ---

// ProductSales is the per-sku fold of sales transactions
type ProductSales struct {
	SKU               string  `json:"sku"`
	Name              string  `json:"name"`
	Units             int     `json:"units"`
	Revenue           float64 `json:"revenue"`
	Orders            int     `json:"orders"`
	UniqueCustomers   int     `json:"uniqueCustomers"`
	Velocity          float64 `json:"velocity"`
	CustomerDiversity float64 `json:"customerDiversity"`
	AvgOrderSize      float64 `json:"avgOrderSize"`
}

// SalesMetrics is the output of the sales aggregation
type SalesMetrics struct {
	TotalRevenue   float64            `json:"totalRevenue"`
	TotalUnits     int                `json:"totalUnits"`
	MonthlyRevenue map[string]float64 `json:"monthlyRevenue"`
	ProductMetrics []ProductSales     `json:"productMetrics"`
	TopProducts    []ProductSales     `json:"topProducts"`
}

// Bundle is a set of skus that co-occur in brand orders
type Bundle struct {
	Items      []string `json:"items"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
}

// OrderPatterns is the output of the order-pattern aggregation
type OrderPatterns struct {
	TotalOrders    int            `json:"totalOrders"`
	TotalValue     float64        `json:"totalValue"`
	AvgOrderValue  float64        `json:"avgOrderValue"`
	OrderFrequency map[string]int `json:"orderFrequency"`
	TopBundles     []Bundle       `json:"topBundles"`
	DirectOrders   int            `json:"directOrders"`
	Marketplace    int            `json:"marketplaceOrders"`
}

// CustomerSummary is a customer entry inside a segment
type CustomerSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Value     float64 `json:"value"`
	Orders    int     `json:"orders"`
	LastOrder string  `json:"lastOrder"`
}

// ChurnRisk is a customer flagged as at risk of churning
type ChurnRisk struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	DaysSinceLastOrder int     `json:"daysSinceLastOrder"`
	TotalSpent         float64 `json:"totalSpent"`
	OrderCount         int     `json:"orderCount"`
}

// CustomerMetrics is the output of the customer aggregation
type CustomerMetrics struct {
	TotalActiveCustomers int               `json:"totalActiveCustomers"`
	NewCustomers         int               `json:"newCustomers"`
	RepeatCustomers      int               `json:"repeatCustomers"`
	AvgOrdersPerCustomer float64           `json:"avgOrdersPerCustomer"`
	VIP                  []CustomerSummary `json:"vip"`
	Regular              []CustomerSummary `json:"regular"`
	Occasional           []CustomerSummary `json:"occasional"`
	RetentionRate        float64           `json:"retentionRate"`
	ChurnRisk            []ChurnRisk       `json:"churnRisk"`
}

// InvoiceRisk is an overdue invoice in a risk bucket
type InvoiceRisk struct {
	InvoiceNumber string  `json:"invoiceNumber"`
	CustomerName  string  `json:"customerName"`
	Amount        float64 `json:"amount"`
	DaysOverdue   int     `json:"daysOverdue"`
}

// CashFlowProjection splits outstanding amounts across collection windows
type CashFlowProjection struct {
	Next30Days    float64 `json:"next30Days"`
	Next60Days    float64 `json:"next60Days"`
	Beyond60Days  float64 `json:"beyond60Days"`
	TotalExpected float64 `json:"totalExpected"`
}

// InvoiceMetrics is the output of the invoice aggregation
type InvoiceMetrics struct {
	TotalOutstanding   float64            `json:"totalOutstanding"`
	TotalPaid          float64            `json:"totalPaid"`
	TotalOverdue       float64            `json:"totalOverdue"`
	AvgPaymentDays     float64            `json:"avgPaymentDays"`
	HighRisk           []InvoiceRisk      `json:"highRisk"`
	MediumRisk         []InvoiceRisk      `json:"mediumRisk"`
	LowRisk            []InvoiceRisk      `json:"lowRisk"`
	CashFlowProjection CashFlowProjection `json:"cashFlowProjection"`
}

// ReorderPattern tracks historical ordering of one sku
type ReorderPattern struct {
	Count       int     `json:"count"`
	AvgQuantity float64 `json:"avgQuantity"`
}

// PurchaseOrderInfo is a summarized historical purchase order
type PurchaseOrderInfo struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	ExpectedDate string  `json:"expectedDate"`
	Status       string  `json:"status"`
	Items        int     `json:"items"`
	Total        float64 `json:"total"`
	Vendor       string  `json:"vendor"`
}

// PurchaseMetrics is the output of the purchase-order aggregation
type PurchaseMetrics struct {
	RecentOrders    []PurchaseOrderInfo       `json:"recentOrders"`
	PendingOrders   []PurchaseOrderInfo       `json:"pendingOrders"`
	CompletedOrders []PurchaseOrderInfo       `json:"completedOrders"`
	TotalPending    float64                   `json:"totalPending"`
	TotalCompleted  float64                   `json:"totalCompleted"`
	AvgLeadTime     float64                   `json:"avgLeadTime"`
	ReorderPatterns map[string]ReorderPattern `json:"reorderPatterns"`
}

// ComprehensiveData bundles every folded metric set for one brand. It
// is recomputed per analysis run and never persisted.
type ComprehensiveData struct {
	SalesTransactions *SalesMetrics    `json:"salesTransactions"`
	SalesOrders       *OrderPatterns   `json:"salesOrders"`
	CustomerInsights  *CustomerMetrics `json:"customerInsights"`
	InvoiceMetrics    *InvoiceMetrics  `json:"invoiceMetrics"`
	PurchaseHistory   *PurchaseMetrics `json:"purchaseHistory"`
}

// SearchTrend is one market search-trend entry for the brand
type SearchTrend struct {
	Keyword          string   `json:"keyword"`
	Volume           int      `json:"volume"`
	Trend            string   `json:"trend"`
	PercentageChange float64  `json:"percentageChange"`
	RelatedQueries   []string `json:"relatedQueries"`
}

// Trend values as returned by the trends endpoint
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

// Suggestion trend directions after the merge
const (
	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStable = "stable"
)

// Suggestion is one recommended reorder line. Confidence is in [0,1].
type Suggestion struct {
	SKU                 string  `json:"sku"`
	ProductName         string  `json:"product_name"`
	RecommendedQuantity int     `json:"recommendedQuantity"`
	Confidence          float64 `json:"confidence"`
	Reasoning           string  `json:"reasoning"`
	SearchVolume        int     `json:"searchVolume,omitempty"`
	TrendDirection      string  `json:"trendDirection,omitempty"`
	CompetitorStock     int     `json:"competitorStock,omitempty"`
}

// MarketData accompanies suggestions into the insight request
type MarketData struct {
	SearchTrends   []SearchTrend `json:"searchTrends"`
	MarketShare    float64       `json:"marketShare"`
	CategoryGrowth float64       `json:"categoryGrowth"`
}

// PurchaseInsights is the strategic summary from the insight endpoint
type PurchaseInsights struct {
	ExecutiveSummary          string   `json:"executiveSummary"`
	MarketTiming              string   `json:"marketTiming"`
	RiskAssessment            string   `json:"riskAssessment"`
	CashFlowImpact            string   `json:"cashFlowImpact"`
	CustomerImpact            string   `json:"customerImpact"`
	ChannelStrategy           string   `json:"channelStrategy"`
	InventoryOptimization     string   `json:"inventoryOptimization"`
	TrendBasedRecommendations []string `json:"trendBasedRecommendations"`
	CategoryOptimization      []string `json:"categoryOptimization"`
}

// Adjustment is one user override of a recommended quantity
type Adjustment struct {
	SKU              string `json:"sku"`
	OriginalQuantity int    `json:"originalQuantity"`
	AdjustedQuantity int    `json:"adjustedQuantity"`
}

// ValidationFeedback is the re-evaluation of adjusted quantities
type ValidationFeedback struct {
	OverallAssessment string            `json:"overallAssessment"`
	Confidence        float64           `json:"confidence"`
	Warnings          []string          `json:"warnings"`
	PerSKU            map[string]string `json:"perSku"`
}

// AnalysisRequest starts a brand analysis workflow
type AnalysisRequest struct {
	BrandID   string `json:"brandId"`
	BrandName string `json:"brandName"`
	VendorID  string `json:"vendorId"`
	UserID    string `json:"userId"`
	Limit     int    `json:"limit"`
}

// AnalysisResult is the queryable state of a brand analysis workflow
type AnalysisResult struct {
	BrandID            string              `json:"brandId"`
	Stage              string              `json:"stage"`
	FromCache          bool                `json:"fromCache"`
	Suggestions        []Suggestion        `json:"suggestions"`
	Products           map[string]Product  `json:"products"`
	SearchTrends       []SearchTrend       `json:"searchTrends"`
	Comprehensive      *ComprehensiveData  `json:"comprehensive"`
	Insights           *PurchaseInsights   `json:"insights"`
	AdjustedQuantities map[string]int      `json:"adjustedQuantities"`
	Validation         *ValidationFeedback `json:"validation"`
	Error              string              `json:"error,omitempty"`
}

// QuantityAdjustment is the adjust-quantity signal payload
type QuantityAdjustment struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}
