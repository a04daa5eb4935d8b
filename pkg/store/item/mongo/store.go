// Package mongo implements the item repository on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/item"
)

// MongoItemStoreConfig configures the MongoDB connection.
type MongoItemStoreConfig struct {
	// URI is the connection string (mongodb:// or mongodb+srv://)
	URI string `mapstructure:"uri"`

	// Database name (default "clouddrive")
	Database string `mapstructure:"database"`

	// Collection name (default "driveitems")
	Collection string `mapstructure:"collection"`

	// ConnectTimeout bounds the initial connection and ping (default 10s)
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// MongoItemStore stores one document per item in a single collection with
// a compound {ownerId, parentId} index serving ListChildren.
type MongoItemStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoItemStore connects, pings the primary and ensures the index.
func NewMongoItemStore(ctx context.Context, cfg MongoItemStoreConfig) (*MongoItemStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = "clouddrive"
	}
	if cfg.Collection == "" {
		cfg.Collection = "driveitems"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, item.NewUnavailableError("connect to mongo", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, item.NewUnavailableError("ping mongo", err)
	}

	store := &MongoItemStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		now:        time.Now,
	}

	_, err = store.collection.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "parentId", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create owner/parent index: %w", err)
	}

	logger.Debug("Mongo item store connected: db=%s collection=%s", cfg.Database, cfg.Collection)
	return store, nil
}

// mapError converts driver errors to repository errors.
func mapError(id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return item.NewNotFoundError(id)
	case mongo.IsDuplicateKeyError(err):
		return item.NewDuplicateKeyError(id, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		return item.NewUnavailableError("mongo unavailable", err)
	default:
		return err
	}
}

// objectID parses an item id. Ids that are not valid ObjectIDs cannot exist
// in the collection, so they are reported as NotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, item.NewNotFoundError(id)
	}
	return oid, nil
}

func (s *MongoItemStore) find(ctx context.Context, filter bson.M) ([]*item.Item, error) {
	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, mapError("", err)
	}
	defer cursor.Close(ctx)

	var out []*item.Item
	for cursor.Next(ctx) {
		var doc itemDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		out = append(out, doc.toItem())
	}
	if err := cursor.Err(); err != nil {
		return nil, mapError("", err)
	}
	return out, nil
}

func (s *MongoItemStore) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*item.Item, error) {
	if err := item.ValidateScope(ownerID, parentID); err != nil {
		return nil, err
	}
	filter := bson.M{"ownerId": ownerFilter(ownerID), "parentId": nil}
	if parentID != nil {
		filter["parentId"] = *parentID
	}
	return s.find(ctx, filter)
}

func (s *MongoItemStore) ListByOwner(ctx context.Context, ownerID string) ([]*item.Item, error) {
	if err := item.ValidateScope(ownerID, nil); err != nil {
		return nil, err
	}
	return s.find(ctx, bson.M{"ownerId": ownerFilter(ownerID)})
}

func (s *MongoItemStore) ListByParent(ctx context.Context, parentID string) ([]*item.Item, error) {
	return s.find(ctx, bson.M{"parentId": parentID})
}

func (s *MongoItemStore) Create(ctx context.Context, it *item.Item) (*item.Item, error) {
	if err := item.Validate(it); err != nil {
		return nil, err
	}

	doc := toDocument(it)
	if it.ID != "" {
		oid, err := primitive.ObjectIDFromHex(it.ID)
		if err != nil {
			return nil, item.NewInvalidArgumentError("item id is not an ObjectID", it.ID)
		}
		doc.ID = oid
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, mapError(it.ID, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toItem(), nil
}

func (s *MongoItemStore) Get(ctx context.Context, id string) (*item.Item, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc itemDocument
	if err := s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapError(id, err)
	}
	return doc.toItem(), nil
}

func (s *MongoItemStore) Update(ctx context.Context, it *item.Item) (*item.Item, error) {
	if err := item.Validate(it); err != nil {
		return nil, err
	}
	oid, err := objectID(it.ID)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"name":      it.Name,
		"parentId":  it.ParentID,
		"updatedAt": s.now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc itemDocument
	if err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, mapError(it.ID, err)
	}
	return doc.toItem(), nil
}

func (s *MongoItemStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapError(id, err)
	}
	if res.DeletedCount == 0 {
		return item.NewNotFoundError(id)
	}
	return nil
}

func fileFilter() bson.M {
	return bson.M{"type": bson.M{"$ne": string(item.KindFolder)}}
}

// Files streams file records through a server-side cursor.
func (s *MongoItemStore) Files(ctx context.Context) iter.Seq2[*item.Item, error] {
	return func(yield func(*item.Item, error) bool) {
		cursor, err := s.collection.Find(ctx, fileFilter(), options.Find().SetBatchSize(500))
		if err != nil {
			yield(nil, mapError("", err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var doc itemDocument
			if err := cursor.Decode(&doc); err != nil {
				yield(nil, fmt.Errorf("decode item: %w", err))
				return
			}
			if !yield(doc.toItem(), nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(nil, mapError("", err))
		}
	}
}

func (s *MongoItemStore) CountFiles(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, fileFilter())
	if err != nil {
		return 0, mapError("", err)
	}
	return n, nil
}

func (s *MongoItemStore) CountByParent(ctx context.Context) ([]item.ParentCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$parentId"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mapError("", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ParentID *string `bson:"_id"`
		Count    int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, mapError("", err)
	}

	out := make([]item.ParentCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, item.ParentCount{ParentID: row.ParentID, Count: row.Count})
	}
	item.SortParentCounts(out)
	return out, nil
}

func (s *MongoItemStore) Healthcheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return item.NewUnavailableError("ping mongo", err)
	}
	return nil
}

func (s *MongoItemStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
