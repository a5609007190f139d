package data

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// FriendsStore manages friend requests and the resulting friendship graph.
// The core delivery path only consults AreFriends; everything else serves the
// management API.
type FriendsStore struct {
	coll *mongo.Collection
	seq  Sequencer
}

// NewFriendsStore returns a FriendsStore using the given collection.
func NewFriendsStore(coll *mongo.Collection, seq Sequencer) *FriendsStore {
	return &FriendsStore{coll: coll, seq: seq}
}

func (f *FriendsStore) findPair(ctx context.Context, senderID, receiverID int64) (*FriendRequest, error) {
	var req FriendRequest
	err := f.coll.FindOne(ctx, bson.M{"sender_id": senderID, "receiver_id": receiverID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// SendRequest creates (or revives) a friend request from sender to receiver.
// The state rules mirror the management UI: a pending or accepted request in
// either direction blocks a new one; a declined request from the same sender
// is reset to pending.
func (f *FriendsStore) SendRequest(ctx context.Context, senderID, receiverID int64) (*FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	existing, err := f.findPair(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case FriendPending:
			return nil, ErrRequestPending
		case FriendAccepted:
			return nil, ErrAlreadyFriends
		case FriendDeclined:
			existing.Status = FriendPending
			existing.CreatedAt = time.Now().UTC()
			_, err := f.coll.UpdateOne(ctx,
				bson.M{"_id": existing.ID},
				bson.M{"$set": bson.M{"status": FriendPending, "created_at": existing.CreatedAt}},
			)
			if err != nil {
				return nil, err
			}
			return existing, nil
		}
	}

	reverse, err := f.findPair(ctx, receiverID, senderID)
	if err != nil {
		return nil, err
	}
	if reverse != nil {
		switch reverse.Status {
		case FriendPending:
			return nil, ErrRequestInbound
		case FriendAccepted:
			return nil, ErrAlreadyFriends
		}
	}

	id, err := f.seq.NextSequence(ctx, "friend_requests")
	if err != nil {
		return nil, err
	}
	req := &FriendRequest{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     FriendPending,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := f.coll.InsertOne(ctx, req); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Raced with another send of the same request.
			return nil, ErrRequestPending
		}
		return nil, err
	}
	return req, nil
}

// Respond lets the receiver accept or decline a pending request.
func (f *FriendsStore) Respond(ctx context.Context, userID, requestID int64, status FriendStatus) (*FriendRequest, error) {
	var req FriendRequest
	err := f.coll.FindOne(ctx, bson.M{"_id": requestID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	if req.ReceiverID != userID {
		return nil, ErrNotReceiver
	}
	if req.Status != FriendPending {
		return nil, ErrAlreadyResponded
	}

	if _, err := f.coll.UpdateOne(ctx,
		bson.M{"_id": requestID},
		bson.M{"$set": bson.M{"status": status}},
	); err != nil {
		return nil, err
	}

	req.Status = status
	return &req, nil
}

// Pending returns the requests waiting on the given user.
func (f *FriendsStore) Pending(ctx context.Context, userID int64) ([]*FriendRequest, error) {
	cursor, err := f.coll.Find(ctx, bson.M{"receiver_id": userID, "status": FriendPending})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reqs []*FriendRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// FriendIDs returns the ids of every user the given user is friends with,
// regardless of who sent the original request.
func (f *FriendsStore) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	filter := bson.M{
		"status": FriendAccepted,
		"$or": bson.A{
			bson.M{"sender_id": userID},
			bson.M{"receiver_id": userID},
		},
	}

	cursor, err := f.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reqs []*FriendRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}

	return lo.Map(reqs, func(r *FriendRequest, _ int) int64 {
		if r.SenderID == userID {
			return r.ReceiverID
		}
		return r.SenderID
	}), nil
}

// AreFriends reports whether an accepted friendship exists between a and b.
// The gateway checks this before handing a message to the delivery router.
func (f *FriendsStore) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	filter := bson.M{
		"status": FriendAccepted,
		"$or": bson.A{
			bson.M{"sender_id": a, "receiver_id": b},
			bson.M{"sender_id": b, "receiver_id": a},
		},
	}
	count, err := f.coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
