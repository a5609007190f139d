// Package db manages MongoDB connections, collections and id sequences.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client wraps mongo.Client and exposes the collections the stores use.
type Client struct {
	client *mongo.Client

	// db is the "chat_db" database; all collections hang off it.
	db *mongo.Database
}

// New connects to MongoDB and returns a Client.
func New(ctx context.Context, mongoURI string) (*Client, error) {
	// Fail fast if MongoDB is unreachable.
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Connect is lazy; ping is the actual connection test.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database("chat_db"),
	}, nil
}

// UsersCollection returns the users collection.
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection("users")
}

// MessagesCollection returns the messages collection.
func (c *Client) MessagesCollection() *mongo.Collection {
	return c.db.Collection("messages")
}

// FriendRequestsCollection returns the friend_requests collection.
func (c *Client) FriendRequestsCollection() *mongo.Collection {
	return c.db.Collection("friend_requests")
}

// countersCollection backs NextSequence.
func (c *Client) countersCollection() *mongo.Collection {
	return c.db.Collection("counters")
}

// NextSequence atomically allocates the next value of a named counter.
// Values start at 1 and are strictly increasing; concurrent callers each get
// a distinct value because $inc runs server-side on a single document.
func (c *Client) NextSequence(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	err := c.countersCollection().FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("allocate %s sequence: %w", name, err)
	}

	return doc.Value, nil
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the stores rely on.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// Users: unique username and email so duplicate registration fails at
	// the database rather than in a racy read-then-write.
	usersIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := c.UsersCollection().Indexes().CreateMany(ctx, usersIndexes); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}

	// Messages: conversation pages filter on the (sender, recipient) pair in
	// both directions and sort on _id, which carries the sequence id.
	messagesIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sender_id", Value: 1},
				{Key: "recipient_id", Value: 1},
				{Key: "_id", Value: -1},
			},
		},
	}
	if _, err := c.MessagesCollection().Indexes().CreateMany(ctx, messagesIndexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	// Friend requests: one request per directed pair; pending-inbox lookups.
	friendIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sender_id", Value: 1},
				{Key: "receiver_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "receiver_id", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}
	if _, err := c.FriendRequestsCollection().Indexes().CreateMany(ctx, friendIndexes); err != nil {
		return fmt.Errorf("failed to create friend request indexes: %w", err)
	}

	return nil
}
