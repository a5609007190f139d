// Package data provides DB models and stores.
package data

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/simplechat/chat-server/internal/normalize"
)

// Sequencer allocates strictly increasing ids from a named counter.
// Implemented by db.Client.
type Sequencer interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

// UsersStore performs user DB operations.
type UsersStore struct {
	coll *mongo.Collection
	seq  Sequencer
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection, seq Sequencer) *UsersStore {
	return &UsersStore{coll: coll, seq: seq}
}

// CreateUser inserts a new user document with an already-hashed password.
// Username and email are stored normalized so the unique indexes catch
// mixed-case duplicates.
func (u *UsersStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*User, error) {
	id, err := u.seq.NextSequence(ctx, "users")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &User{
		ID:           id,
		Username:     normalize.Username(username),
		Email:        normalize.Email(email),
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := u.coll.InsertOne(ctx, user); err != nil {
		// Unique index violation on username or email.
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

// GetUserByUsername finds a user by username.
func (u *UsersStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"username": normalize.Username(username)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID finds a user by id.
func (u *UsersStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UserExists checks whether a user id refers to a real account.
func (u *UsersStore) UserExists(ctx context.Context, id int64) (bool, error) {
	count, err := u.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SearchUsers finds users whose username contains the query, excluding the
// caller's own account. Capped at 20 results.
func (u *UsersStore) SearchUsers(ctx context.Context, query string, excludeID int64) ([]*User, error) {
	query = normalize.Username(query)
	if query == "" {
		return nil, nil
	}

	filter := bson.M{
		"username": bson.M{"$regex": fmt.Sprintf(".*%s.*", regexp.QuoteMeta(query))},
		"_id":      bson.M{"$ne": excludeID},
	}
	opts := options.Find().SetSort(bson.M{"username": 1}).SetLimit(20)

	cursor, err := u.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
