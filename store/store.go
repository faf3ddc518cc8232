// Package store is the document-store layer. Collection names and
// field shapes mirror the production database; date fields are stored
// as ISO date strings so range filters compare lexicographically.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/splitfin/order-service/models"
)

// Collection names
const (
	ColPendingOrders     = "pending_orders"
	ColSalesOrders       = "sales_orders"
	ColNotifications     = "notifications"
	ColProducts          = "products"
	ColBrands            = "brands"
	ColSalesTransactions = "sales_transactions"
	ColHistoricalOrders  = "salesorders"
	ColCustomerData      = "customer_data"
	ColInvoices          = "invoices"
	ColPurchaseOrders    = "purchaseorders"
)

// ErrOrderNotClaimable means the pending order is no longer in a state
// that allows approval to begin (already approved, rejected, or gone).
var ErrOrderNotClaimable = errors.New("pending order is not claimable")

// Store wraps the Mongo database with the operations this service uses
type Store struct {
	db *mongo.Database
}

// New returns a Store over the given database
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Connect dials Mongo and pings it before returning the database handle
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return client, New(client.Database(dbName)), nil
}

// Ping reports store reachability for health checks
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// PendingApprovals lists orders awaiting a decision, newest first
func (s *Store) PendingApprovals(ctx context.Context) ([]models.PendingOrder, error) {
	cur, err := s.db.Collection(ColPendingOrders).Find(ctx,
		bson.M{"status": models.StatusPendingApproval},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending orders: %w", err)
	}
	var orders []models.PendingOrder
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode pending orders: %w", err)
	}
	return orders, nil
}

// GetPendingOrder fetches one pending order by id
func (s *Store) GetPendingOrder(ctx context.Context, id string) (*models.PendingOrder, error) {
	var order models.PendingOrder
	err := s.db.Collection(ColPendingOrders).FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending order %s: %w", id, err)
	}
	return &order, nil
}

// ClaimPendingOrder conditionally transitions an order into the
// approving state and returns its idempotency key. The key is minted
// on first claim and stable on re-claims, so a retried approval reuses
// it and the order API can de-duplicate the external create. Orders
// already approved or rejected return ErrOrderNotClaimable.
func (s *Store) ClaimPendingOrder(ctx context.Context, id string) (string, error) {
	newKey := uuid.NewString()

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status": models.StatusApproving,
			"approvalKey": bson.M{
				"$ifNull": bson.A{"$approvalKey", newKey},
			},
		}}},
	}

	var claimed struct {
		ApprovalKey string `bson:"approvalKey"`
	}
	err := s.db.Collection(ColPendingOrders).FindOneAndUpdate(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$in": bson.A{models.StatusPendingApproval, models.StatusApproving}},
		},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&claimed)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrOrderNotClaimable
	}
	if err != nil {
		return "", fmt.Errorf("failed to claim pending order %s: %w", id, err)
	}
	return claimed.ApprovalKey, nil
}

// MarkOrderApproved finalizes the approve transition
func (s *Store) MarkOrderApproved(ctx context.Context, id, approverID, zohoOrderID, zohoOrderNumber string, now time.Time) error {
	_, err := s.db.Collection(ColPendingOrders).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":          models.StatusApproved,
			"approvedBy":      approverID,
			"approvedAt":      now,
			"zohoOrderId":     zohoOrderID,
			"zohoOrderNumber": zohoOrderNumber,
			"updatedAt":       now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark order %s approved: %w", id, err)
	}
	return nil
}

// MarkOrderRejected finalizes the reject transition
func (s *Store) MarkOrderRejected(ctx context.Context, id, rejectorID, reason string, now time.Time) error {
	_, err := s.db.Collection(ColPendingOrders).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":          models.StatusRejected,
			"rejectedBy":      rejectorID,
			"rejectedAt":      now,
			"rejectionReason": reason,
			"updatedAt":       now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark order %s rejected: %w", id, err)
	}
	return nil
}

// InsertSalesOrder writes the materialized sales order
func (s *Store) InsertSalesOrder(ctx context.Context, so models.SalesOrder) (string, error) {
	if so.ID == "" {
		so.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(ColSalesOrders).InsertOne(ctx, so); err != nil {
		return "", fmt.Errorf("failed to insert sales order: %w", err)
	}
	return so.ID, nil
}

// InsertNotification writes a customer notification
func (s *Store) InsertNotification(ctx context.Context, n models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(ColNotifications).InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// Brands lists the selectable brands
func (s *Store) Brands(ctx context.Context) ([]models.Brand, error) {
	cur, err := s.db.Collection(ColBrands).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "brand_name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	var brands []models.Brand
	if err := cur.All(ctx, &brands); err != nil {
		return nil, fmt.Errorf("failed to decode brands: %w", err)
	}
	return brands, nil
}

// ProductsByBrand loads the catalog for a brand, trying the exact
// brand name first and falling back to the normalized key when the
// exact match returns nothing.
func (s *Store) ProductsByBrand(ctx context.Context, brandName, brandKey string) ([]models.Product, error) {
	products, err := s.findProducts(ctx, bson.M{"brand": brandName})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		products, err = s.findProducts(ctx, bson.M{"brand_normalized": brandKey})
		if err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (s *Store) findProducts(ctx context.Context, filter bson.M) ([]models.Product, error) {
	cur, err := s.db.Collection(ColProducts).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// SalesTransactionsSince reads brand sales rows inside the window
func (s *Store) SalesTransactionsSince(ctx context.Context, brandKey string, since time.Time) ([]models.SalesTransaction, error) {
	cur, err := s.db.Collection(ColSalesTransactions).Find(ctx,
		bson.M{
			"brand_normalized": brandKey,
			"order_date":       bson.M{"$gte": since.Format("2006-01-02")},
		},
		options.Find().SetSort(bson.D{{Key: "order_date", Value: -1}}).SetLimit(1000),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales transactions: %w", err)
	}
	var rows []models.SalesTransaction
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode sales transactions: %w", err)
	}
	return rows, nil
}

// HistoricalOrdersSince reads sales orders inside the window
func (s *Store) HistoricalOrdersSince(ctx context.Context, since time.Time) ([]models.RawSalesOrder, error) {
	cur, err := s.db.Collection(ColHistoricalOrders).Find(ctx,
		bson.M{"date": bson.M{"$gte": since.Format("2006-01-02")}},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(500),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical orders: %w", err)
	}
	var rows []models.RawSalesOrder
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode historical orders: %w", err)
	}
	return rows, nil
}

// ActiveCustomersSince reads customers with recent orders
func (s *Store) ActiveCustomersSince(ctx context.Context, since time.Time) ([]models.CustomerRecord, error) {
	cur, err := s.db.Collection(ColCustomerData).Find(ctx,
		bson.M{"last_order_date": bson.M{"$gte": since.Format("2006-01-02")}},
		options.Find().SetLimit(500),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer data: %w", err)
	}
	var rows []models.CustomerRecord
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode customer data: %w", err)
	}
	return rows, nil
}

// InvoicesSince reads invoices issued inside the window
func (s *Store) InvoicesSince(ctx context.Context, since time.Time) ([]models.InvoiceRecord, error) {
	cur, err := s.db.Collection(ColInvoices).Find(ctx,
		bson.M{"date": bson.M{"$gte": since.Format("2006-01-02")}},
		options.Find().SetLimit(500),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	var rows []models.InvoiceRecord
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode invoices: %w", err)
	}
	return rows, nil
}

// PurchaseOrdersByVendor reads the vendor's recent purchase orders
func (s *Store) PurchaseOrdersByVendor(ctx context.Context, vendorID string) ([]models.PurchaseOrderRecord, error) {
	cur, err := s.db.Collection(ColPurchaseOrders).Find(ctx,
		bson.M{"vendor_id": vendorID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(50),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase orders: %w", err)
	}
	var rows []models.PurchaseOrderRecord
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode purchase orders: %w", err)
	}
	return rows, nil
}
