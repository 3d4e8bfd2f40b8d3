package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection is the collection MongoCache stores entries in.
const MongoCollection = "format_cache"

// MongoCache stores entries as documents keyed by cache key. A TTL index
// on expires_at lets the server reap expired entries; Get also checks the
// expiry because the reaper runs only once a minute.
type MongoCache struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoEntry struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoCache connects to MongoDB at uri, selects database, and ensures
// the TTL index exists.
func NewMongoCache(ctx context.Context, uri, database string) (*MongoCache, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo ping: %v", ErrNetwork, err)
	}
	c := &MongoCache{
		client: client,
		coll:   client.Database(database).Collection(MongoCollection),
	}
	_, err = c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo create ttl index: %w", err)
	}
	return c, nil
}

// Get retrieves a value from MongoDB.
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry mongoEntry
	err := RetryWithBackoff(ctx, func() error {
		return classifyMongo(c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&entry))
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if entry.ExpiresAt != nil && time.Now().After(*entry.ExpiresAt) {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set upserts a value into MongoDB.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := mongoEntry{Key: key, Data: data}
	if ttl > 0 {
		exp := time.Now().Add(ttl).UTC()
		entry.ExpiresAt = &exp
	}
	return RetryWithBackoff(ctx, func() error {
		_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": key}, entry, options.Replace().SetUpsert(true))
		return classifyMongo(err)
	})
}

// Delete removes a document from MongoDB.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
	return classifyMongo(err)
}

// Clear removes every document in the cache collection.
func (c *MongoCache) Clear(ctx context.Context) (int, error) {
	res, err := c.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, classifyMongo(err)
	}
	return int(res.DeletedCount), nil
}

// Close disconnects the client.
func (c *MongoCache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// classifyMongo marks network and timeout failures as retryable.
func classifyMongo(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
	}
	return err
}

var (
	_ Cache   = (*MongoCache)(nil)
	_ Clearer = (*MongoCache)(nil)
)
