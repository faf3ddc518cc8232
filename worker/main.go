package main

import (
	"context"
	"crypto/rand"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/splitfin/order-service/activities"
	"github.com/splitfin/order-service/codec"
	"github.com/splitfin/order-service/health"
	"github.com/splitfin/order-service/store"
	"github.com/splitfin/order-service/workflows"
)

const (
	taskQueue = "splitfin-order-queue"
	version   = "1.0.0"
)

func main() {
	// Get configuration from environment variables
	temporalHost := getEnv("TEMPORAL_HOST", "localhost:7233")
	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDB := getEnv("MONGO_DB", "splitfin")
	zohoURL := getEnv("ZOHO_API_URL", "https://www.zohoapis.eu/inventory/v1")
	zohoToken := getEnv("ZOHO_OAUTH_TOKEN", "")
	apiBase := getEnv("SPLITFIN_API_URL", "http://localhost:3000")
	encryptionEnabled := getEnv("ENCRYPTION_ENABLED", "false") == "true"
	healthPort := getEnvAsInt("HEALTH_PORT", 8090)

	clientOptions := client.Options{
		HostPort: temporalHost,
	}

	// Workflow payloads carry customer PII, so encryption is expected
	// everywhere outside local development.
	if encryptionEnabled {
		keyID, key := loadEncryptionKey()
		dataConverter, err := codec.NewEncryptionDataConverter(keyID, map[string][]byte{keyID: key})
		if err != nil {
			log.Fatalf("Failed to create encryption data converter: %v", err)
		}
		clientOptions.DataConverter = dataConverter
		log.Println("Encryption enabled for worker")
	}

	c, err := client.Dial(clientOptions)
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	// Connect to the document store
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, st, err := store.Connect(connectCtx, mongoURI, mongoDB)
	connectCancel()
	if err != nil {
		log.Fatalf("Unable to connect to document store: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Create worker
	w := worker.New(c, taskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(workflows.OrderApprovalWorkflow)
	w.RegisterWorkflow(workflows.BrandAnalysisWorkflow)

	// Register approval activities
	approvalActivities := activities.NewApprovalActivities(st, zohoURL, zohoToken, apiBase)
	w.RegisterActivity(approvalActivities.ClaimPendingOrder)
	w.RegisterActivity(approvalActivities.CreateZohoOrder)
	w.RegisterActivity(approvalActivities.RecordSalesOrder)
	w.RegisterActivity(approvalActivities.MarkOrderApproved)
	w.RegisterActivity(approvalActivities.MarkOrderRejected)
	w.RegisterActivity(approvalActivities.SendApprovalEmail)
	w.RegisterActivity(approvalActivities.CreateNotification)

	// Register analysis activities
	analysisActivities := activities.NewAnalysisActivities(st, apiBase)
	w.RegisterActivity(analysisActivities.FetchComprehensiveData)
	w.RegisterActivity(analysisActivities.LoadBrandProducts)
	w.RegisterActivity(analysisActivities.FetchSearchTrends)
	w.RegisterActivity(analysisActivities.FetchCachedAnalysis)
	w.RegisterActivity(analysisActivities.AnalyzeBrand)
	w.RegisterActivity(analysisActivities.GeneratePurchaseInsights)
	w.RegisterActivity(analysisActivities.ValidateAdjustments)

	log.Printf("Worker starting on task queue: %s", taskQueue)
	log.Printf("Temporal Host: %s", temporalHost)
	log.Printf("API Base: %s", apiBase)

	// Create and configure health check server
	healthServer := health.NewServer(healthPort, version)
	healthServer.RegisterChecker(health.NewTemporalChecker(c))
	healthServer.RegisterChecker(health.NewStoreChecker(st))
	healthServer.RegisterChecker(health.NewHTTPChecker("splitfin-api", apiBase+"/health"))

	if err := healthServer.Start(); err != nil {
		log.Fatalf("Failed to start health check server: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Println("Worker started successfully")
		if err := w.Run(worker.InterruptCh()); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		log.Println("Received shutdown signal, gracefully stopping...")
	case err := <-errCh:
		log.Printf("Worker error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	log.Println("Stopping worker...")
	w.Stop()

	log.Println("Stopping health check server...")
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Health server shutdown error: %v", err)
	}

	log.Println("Worker shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func loadEncryptionKey() (string, []byte) {
	// In production, load this from a secure key management system
	keyID := getEnv("ENCRYPTION_KEY_ID", "local-dev")
	keyFile := ".encryption.key"

	if key, err := os.ReadFile(keyFile); err == nil && len(key) == 32 {
		log.Println("Using existing encryption key")
		return keyID, key
	}

	key := make([]byte, 32) // AES-256
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("Failed to generate encryption key: %v", err)
	}

	// Save key for future use (development only!)
	if err := os.WriteFile(keyFile, key, 0600); err != nil {
		log.Printf("Warning: Failed to save encryption key: %v", err)
	}

	log.Println("Generated new encryption key")
	return keyID, key
}
