package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/raushankrgupta/catalog-scraper/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	CatalogRunsCollection = "catalog_runs"
	ProductRunsCollection = "product_runs"
)

// MongoStore records finished runs.
type MongoStore struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectMongo opens and pings a MongoDB connection.
func ConnectMongo(ctx context.Context, uri, databaseName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	zap.L().Info("Connected to MongoDB", zap.String("database", databaseName))
	return &MongoStore{Client: client, Database: client.Database(databaseName)}, nil
}

// GetCollection returns a handle to a collection of the store's database.
func (m *MongoStore) GetCollection(name string) *mongo.Collection {
	return m.Database.Collection(name)
}

// SaveCatalogRun inserts run and sets its ID.
func (m *MongoStore) SaveCatalogRun(ctx context.Context, run *models.CatalogRun) error {
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	if _, err := m.GetCollection(CatalogRunsCollection).InsertOne(ctx, run); err != nil {
		return fmt.Errorf("insert catalog run: %w", err)
	}
	return nil
}

// SaveProductRun inserts run and sets its ID.
func (m *MongoStore) SaveProductRun(ctx context.Context, run *models.ProductRun) error {
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	if _, err := m.GetCollection(ProductRunsCollection).InsertOne(ctx, run); err != nil {
		return fmt.Errorf("insert product run: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (m *MongoStore) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// ListCatalogRuns returns catalog runs newest first and the total count.
func (m *MongoStore) ListCatalogRuns(ctx context.Context, skip, limit int64) ([]models.CatalogRun, int64, error) {
	var runs []models.CatalogRun
	total, err := m.list(ctx, CatalogRunsCollection, skip, limit, &runs)
	return runs, total, err
}

// ListProductRuns returns product runs newest first and the total count.
func (m *MongoStore) ListProductRuns(ctx context.Context, skip, limit int64) ([]models.ProductRun, int64, error) {
	var runs []models.ProductRun
	total, err := m.list(ctx, ProductRunsCollection, skip, limit, &runs)
	return runs, total, err
}

func (m *MongoStore) list(ctx context.Context, collectionName string, skip, limit int64, out interface{}) (int64, error) {
	collection := m.GetCollection(collectionName)
	filter := bson.M{}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collectionName, err)
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "started_at", Value: -1}})
	findOptions.SetSkip(skip)
	findOptions.SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return 0, fmt.Errorf("find %s: %w", collectionName, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return 0, fmt.Errorf("decode %s: %w", collectionName, err)
	}
	return total, nil
}
