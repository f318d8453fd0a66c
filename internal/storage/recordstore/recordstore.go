package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docqa/internal/config"
	"docqa/internal/models"
	"docqa/pkg/logger"
)

// ErrNotFound is returned when no record matches a document ID.
var ErrNotFound = errors.New("document record not found")

// Connect establishes and pings a MongoDB connection.
func Connect(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" && cfg.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// Store is the registry of ingested documents. The embedding reconciliation
// sweep uses it to find documents whose content was never indexed.
type Store struct {
	coll *mongo.Collection
	log  *logger.Logger
}

// New creates a Store over the configured database and collection.
func New(client *mongo.Client, cfg *config.MongoConfig, log *logger.Logger) *Store {
	return &Store{
		coll: client.Database(cfg.Database).Collection(cfg.Collection),
		log:  log,
	}
}

// Save registers a newly ingested document.
func (s *Store) Save(ctx context.Context, rec *models.DocumentRecord) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to save document record %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record for a document ID.
func (s *Store) Get(ctx context.Context, id string) (*models.DocumentRecord, error) {
	var rec models.DocumentRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document record %s: %w", id, err)
	}
	return &rec, nil
}

// List returns every registered document record.
func (s *Store) List(ctx context.Context) ([]models.DocumentRecord, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list document records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.DocumentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode document records: %w", err)
	}
	return records, nil
}

// MarkIndexed flags a document as having its embeddings created.
func (s *Store) MarkIndexed(ctx context.Context, id string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"indexed": true}})
	if err != nil {
		return fmt.Errorf("failed to mark document %s as indexed: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
