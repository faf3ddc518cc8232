package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/splitfin/order-service/codec"
	"github.com/splitfin/order-service/export"
	"github.com/splitfin/order-service/models"
	"github.com/splitfin/order-service/store"
	"github.com/splitfin/order-service/workflows"
)

const (
	taskQueue = "splitfin-order-queue"
)

func main() {
	// Command line flags
	action := flag.String("action", "", "Action to perform: pending, submit, approve, reject, status, preview, brands, analyze, adjust, finish, result, export")
	orderID := flag.String("order-id", "", "Pending order ID (for submit)")
	workflowID := flag.String("workflow-id", "", "Workflow ID for signal/query operations")
	operatorID := flag.String("operator-id", "", "Operator performing the decision")
	reason := flag.String("reason", "", "Rejection reason")
	brandID := flag.String("brand-id", "", "Brand ID (for analyze)")
	brandName := flag.String("brand-name", "", "Brand name (for analyze)")
	vendorID := flag.String("vendor-id", "", "Vendor ID (for analyze)")
	userID := flag.String("user-id", "", "User ID (for analyze)")
	limit := flag.Int("limit", 25, "Suggestion limit (for analyze)")
	sku := flag.String("sku", "", "SKU to adjust")
	quantity := flag.Int("quantity", 0, "Adjusted quantity")
	out := flag.String("out", "", "Output file for export (default stdout)")
	flag.Parse()

	// Get configuration from environment variables
	temporalHost := getEnv("TEMPORAL_HOST", "localhost:7233")
	encryptionEnabled := getEnv("ENCRYPTION_ENABLED", "false") == "true"

	clientOptions := client.Options{
		HostPort: temporalHost,
	}

	if encryptionEnabled {
		keyID, key := loadEncryptionKey()
		dataConverter, err := codec.NewEncryptionDataConverter(keyID, map[string][]byte{keyID: key})
		if err != nil {
			log.Fatalf("Failed to create encryption data converter: %v", err)
		}
		clientOptions.DataConverter = dataConverter
		log.Println("Encryption enabled for starter")
	}

	c, err := client.Dial(clientOptions)
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	switch *action {
	case "pending":
		listPending(ctx)
	case "brands":
		listBrands(ctx)
	case "submit":
		submitOrder(ctx, c, *orderID)
	case "approve":
		sendDecision(ctx, c, *workflowID, models.ApprovalDecision{
			Action:     models.ActionApprove,
			OperatorID: *operatorID,
		})
	case "reject":
		sendDecision(ctx, c, *workflowID, models.ApprovalDecision{
			Action:     models.ActionReject,
			OperatorID: *operatorID,
			Reason:     *reason,
		})
	case "status":
		queryJSON(ctx, c, *workflowID, models.QueryStatus)
	case "preview":
		queryJSON(ctx, c, *workflowID, models.QueryOrder)
	case "analyze":
		startAnalysis(ctx, c, models.AnalysisRequest{
			BrandID:   *brandID,
			BrandName: *brandName,
			VendorID:  *vendorID,
			UserID:    *userID,
			Limit:     *limit,
		})
	case "adjust":
		sendAdjustment(ctx, c, *workflowID, *sku, *quantity)
	case "finish":
		sendFinish(ctx, c, *workflowID)
	case "result":
		queryJSON(ctx, c, *workflowID, models.QueryResult)
	case "export":
		exportCSV(ctx, c, *workflowID, *out)
	default:
		log.Fatalf("Unknown action: %q", *action)
	}
}

// connectStore dials the document store using the same env config as
// the worker
func connectStore(ctx context.Context) (func(), *store.Store) {
	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDB := getEnv("MONGO_DB", "splitfin")

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	mongoClient, st, err := store.Connect(connectCtx, mongoURI, mongoDB)
	if err != nil {
		log.Fatalf("Unable to connect to document store: %v", err)
	}
	return func() { mongoClient.Disconnect(ctx) }, st
}

// listPending prints the orders currently awaiting a decision
func listPending(ctx context.Context) {
	disconnect, st := connectStore(ctx)
	defer disconnect()

	orders, err := st.PendingApprovals(ctx)
	if err != nil {
		log.Fatalf("Unable to list pending approvals: %v", err)
	}

	if len(orders) == 0 {
		log.Println("No orders awaiting approval")
		return
	}
	for _, o := range orders {
		fmt.Printf("%s  %-12s  %-30s  £%.2f\n", o.ID, o.OrderNumber, o.CustomerName, o.Total)
	}
}

// listBrands prints the brands available for analysis
func listBrands(ctx context.Context) {
	disconnect, st := connectStore(ctx)
	defer disconnect()

	brands, err := st.Brands(ctx)
	if err != nil {
		log.Fatalf("Unable to list brands: %v", err)
	}
	for _, b := range brands {
		fmt.Printf("%-30s  %-30s  vendor=%s\n", b.Name, b.Normalized, b.VendorID)
	}
}

// submitOrder loads the pending order from the document store and
// starts its approval workflow. The workflow id is derived from the
// order id, so resubmitting the same order reuses the running workflow.
func submitOrder(ctx context.Context, c client.Client, orderID string) {
	if orderID == "" {
		log.Fatal("order-id is required for submit")
	}

	disconnect, st := connectStore(ctx)
	defer disconnect()

	order, err := st.GetPendingOrder(ctx, orderID)
	if err != nil {
		log.Fatalf("Unable to load pending order: %v", err)
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("order-approval-%s", order.ID),
		TaskQueue: taskQueue,
	}

	we, err := c.ExecuteWorkflow(ctx, workflowOptions, workflows.OrderApprovalWorkflow, order)
	if err != nil {
		log.Fatalf("Unable to execute workflow: %v", err)
	}

	log.Printf("Started approval workflow")
	log.Printf("  Workflow ID: %s", we.GetID())
	log.Printf("  Run ID: %s", we.GetRunID())
	log.Printf("  Order: %s (%s, £%.2f)", order.OrderNumber, order.CustomerName, order.Total)
	log.Println()
	log.Println("To preview the order, run:")
	log.Printf("  go run starter/main.go -action=preview -workflow-id=%s", we.GetID())
	log.Println()
	log.Println("To approve, run:")
	log.Printf("  go run starter/main.go -action=approve -workflow-id=%s -operator-id=<staff>", we.GetID())
	log.Println()
	log.Println("To reject, run:")
	log.Printf("  go run starter/main.go -action=reject -workflow-id=%s -operator-id=<staff> -reason=\"...\"", we.GetID())
}

func startAnalysis(ctx context.Context, c client.Client, req models.AnalysisRequest) {
	if req.BrandID == "" || req.BrandName == "" {
		log.Fatal("brand-id and brand-name are required for analyze")
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("brand-analysis-%s-%d", req.BrandID, time.Now().Unix()),
		TaskQueue: taskQueue,
	}

	we, err := c.ExecuteWorkflow(ctx, workflowOptions, workflows.BrandAnalysisWorkflow, req)
	if err != nil {
		log.Fatalf("Unable to execute workflow: %v", err)
	}

	log.Printf("Started brand analysis")
	log.Printf("  Workflow ID: %s", we.GetID())
	log.Printf("  Run ID: %s", we.GetRunID())
	log.Printf("  Brand: %s (%s)", req.BrandName, req.BrandID)
	log.Println()
	log.Println("To watch progress, run:")
	log.Printf("  go run starter/main.go -action=result -workflow-id=%s", we.GetID())
	log.Println()
	log.Println("To adjust a quantity, run:")
	log.Printf("  go run starter/main.go -action=adjust -workflow-id=%s -sku=<sku> -quantity=<n>", we.GetID())
	log.Println()
	log.Println("To finish the session, run:")
	log.Printf("  go run starter/main.go -action=finish -workflow-id=%s", we.GetID())
}

func sendDecision(ctx context.Context, c client.Client, workflowID string, decision models.ApprovalDecision) {
	if workflowID == "" {
		log.Fatal("workflow-id is required for signal operations")
	}
	if decision.OperatorID == "" {
		log.Fatal("operator-id is required for decisions")
	}

	if err := c.SignalWorkflow(ctx, workflowID, "", models.SignalDecision, decision); err != nil {
		log.Fatalf("Unable to signal workflow: %v", err)
	}
	log.Printf("Decision %q sent to workflow: %s", decision.Action, workflowID)
}

func sendAdjustment(ctx context.Context, c client.Client, workflowID, sku string, quantity int) {
	if workflowID == "" {
		log.Fatal("workflow-id is required for signal operations")
	}
	if sku == "" {
		log.Fatal("sku is required for adjust")
	}

	adj := models.QuantityAdjustment{SKU: sku, Quantity: quantity}
	if err := c.SignalWorkflow(ctx, workflowID, "", models.SignalAdjust, adj); err != nil {
		log.Fatalf("Unable to signal workflow: %v", err)
	}
	log.Printf("Adjustment sent: %s -> %d", sku, quantity)
}

func sendFinish(ctx context.Context, c client.Client, workflowID string) {
	if workflowID == "" {
		log.Fatal("workflow-id is required for signal operations")
	}
	if err := c.SignalWorkflow(ctx, workflowID, "", models.SignalFinish, nil); err != nil {
		log.Fatalf("Unable to signal workflow: %v", err)
	}
	log.Printf("Finish signal sent to workflow: %s", workflowID)
}

func queryJSON(ctx context.Context, c client.Client, workflowID, queryType string) {
	if workflowID == "" {
		log.Fatal("workflow-id is required for query operations")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	response, err := c.QueryWorkflow(queryCtx, workflowID, "", queryType)
	if err != nil {
		log.Fatalf("Unable to query workflow: %v", err)
	}

	var raw json.RawMessage
	if err := response.Get(&raw); err != nil {
		log.Fatalf("Unable to decode query result: %v", err)
	}

	var pretty map[string]any
	if err := json.Unmarshal(raw, &pretty); err != nil {
		log.Fatalf("Unable to render query result: %v", err)
	}
	formatted, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(formatted))
}

// exportCSV queries the analysis result and writes the purchase-order
// CSV, with any operator adjustments applied.
func exportCSV(ctx context.Context, c client.Client, workflowID, outPath string) {
	if workflowID == "" {
		log.Fatal("workflow-id is required for export")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	response, err := c.QueryWorkflow(queryCtx, workflowID, "", models.QueryResult)
	if err != nil {
		log.Fatalf("Unable to query workflow: %v", err)
	}

	var result models.AnalysisResult
	if err := response.Get(&result); err != nil {
		log.Fatalf("Unable to decode analysis result: %v", err)
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Unable to create output file: %v", err)
		}
		defer f.Close()
		w = f
	}

	if err := export.WritePurchaseOrderCSV(w, &result, time.Now()); err != nil {
		log.Fatalf("Unable to export purchase order: %v", err)
	}
	if outPath != "" {
		log.Printf("Purchase order written to %s", outPath)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadEncryptionKey() (string, []byte) {
	keyID := getEnv("ENCRYPTION_KEY_ID", "local-dev")
	keyFile := ".encryption.key"

	key, err := os.ReadFile(keyFile)
	if err != nil || len(key) != 32 {
		log.Fatalf("Encryption enabled but %s is missing or not 32 bytes", keyFile)
	}
	return keyID, key
}
