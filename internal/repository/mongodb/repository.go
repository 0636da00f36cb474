package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/repository"
)

const (
	entriesCollection   = "production_entries"
	summariesCollection = "production_summaries"
	countersCollection  = "counters"
)

// MongoDBRepository implements repository.Repository for MongoDB. Numeric ids come from a
// counters collection so they match the other backends.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

var _ repository.Repository = (*MongoDBRepository)(nil)

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		dbName: dbName,
		logger: logger.Named("mongodb"),
	}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection(entriesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create entry indexes: %w", err)
	}

	_, err = r.collection(summariesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "calculated_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create summary indexes: %w", err)
	}
	return nil
}

// nextID atomically increments the named counter and returns the new value.
func (r *MongoDBRepository) nextID(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.collection(countersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).
		Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", name, err)
	}
	return counter.Seq, nil
}

// CreateEntry inserts the entry under a freshly allocated id.
func (r *MongoDBRepository) CreateEntry(ctx context.Context, entry *models.Entry) error {
	id, err := r.nextID(ctx, entriesCollection)
	if err != nil {
		return err
	}
	entry.ID = id

	doc, err := toEntryDocument(entry)
	if err != nil {
		return err
	}
	if _, err := r.collection(entriesCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	var doc entryDocument
	err := r.collection(entriesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("entry %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry %d: %w", id, err)
	}

	entry, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry replaces the stored document with the same id.
func (r *MongoDBRepository) UpdateEntry(ctx context.Context, entry *models.Entry) error {
	doc, err := toEntryDocument(entry)
	if err != nil {
		return err
	}

	res, err := r.collection(entriesCollection).ReplaceOne(ctx, bson.M{"_id": entry.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to replace entry %d: %w", entry.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("entry %d: %w", entry.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoDBRepository) DeleteEntry(ctx context.Context, id int64) error {
	res, err := r.collection(entriesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete entry %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("entry %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoDBRepository) ListEntries(ctx context.Context) ([]models.Entry, error) {
	cursor, err := r.collection(entriesCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}

	entries := make([]models.Entry, 0, len(docs))
	for _, doc := range docs {
		entry, err := doc.toModel()
		if err != nil {
			r.logger.Warn("skipping malformed entry document", zap.Int64("entry_id", doc.ID), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// AppendSummary saves a summary snapshot to the database.
func (r *MongoDBRepository) AppendSummary(ctx context.Context, summary *models.Summary) error {
	id, err := r.nextID(ctx, summariesCollection)
	if err != nil {
		return err
	}
	summary.ID = id

	doc, err := toSummaryDocument(summary)
	if err != nil {
		return err
	}
	if _, err := r.collection(summariesCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) LatestSummary(ctx context.Context) (*models.Summary, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "calculated_at", Value: -1}, {Key: "_id", Value: -1}})

	var doc summaryDocument
	err := r.collection(summariesCollection).FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("summary: %w", repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest summary: %w", err)
	}

	summary, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
