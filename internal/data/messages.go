package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PageSize is the fixed number of messages per history page.
const PageSize = 20

// Sealer encrypts message content before it is written and decrypts it on
// the way out. Implemented by secure.Box; a nil Sealer stores plaintext.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// MessagesStore provides message database operations.
type MessagesStore struct {
	coll *mongo.Collection
	seq  Sequencer
	box  Sealer
}

// NewMessagesStore returns a MessagesStore using the given collection.
// box may be nil, in which case content is stored as-is.
func NewMessagesStore(coll *mongo.Collection, seq Sequencer, box Sealer) *MessagesStore {
	return &MessagesStore{coll: coll, seq: seq, box: box}
}

// Append assigns the next message id and persists the message. The id comes
// from a single server-side counter, so ids are strictly increasing across
// the whole store and in particular within any one conversation; retrieval
// sorts on _id, which makes store order the conversation order.
func (m *MessagesStore) Append(ctx context.Context, senderID, recipientID int64, content string) (*Message, error) {
	id, err := m.seq.NextSequence(ctx, "messages")
	if err != nil {
		return nil, err
	}

	stored := content
	if m.box != nil {
		if stored, err = m.box.Seal(content); err != nil {
			return nil, err
		}
	}

	msg := &Message{
		ID:          id,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     stored,
		Timestamp:   time.Now().UTC(),
	}

	if _, err := m.coll.InsertOne(ctx, msg); err != nil {
		return nil, err
	}

	// Callers always see plaintext; sealing is a storage concern.
	msg.Content = content
	return msg, nil
}

// Page returns the pageIndex-th most-recent block of messages for the
// conversation between userA and userB. Page 0 is the newest PageSize
// messages. Results come back in chronological (oldest-first) order so they
// can be rendered directly; only the oldest page is shorter than PageSize.
func (m *MessagesStore) Page(ctx context.Context, userA, userB, pageIndex int64) ([]*Message, error) {
	if pageIndex < 0 {
		pageIndex = 0
	}

	// Match both directions of the conversation.
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": userA, "recipient_id": userB},
			bson.M{"sender_id": userB, "recipient_id": userA},
		},
	}

	opts := options.Find().
		SetSort(bson.M{"_id": -1}). // newest first
		SetSkip(pageIndex * PageSize).
		SetLimit(PageSize)

	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	// The query returned newest first; the client wants oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if m.box != nil {
		for _, msg := range messages {
			plain, err := m.box.Open(msg.Content)
			if err != nil {
				return nil, err
			}
			msg.Content = plain
		}
	}

	return messages, nil
}
