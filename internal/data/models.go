package data

import "time"

// User maps to the users collection. Ids come from the "users" sequence
// counter so they are small integers like the rest of the system expects.
type User struct {
	ID           int64     `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"-"`
	UpdatedAt    time.Time `bson:"updated_at" json:"-"`
}

// UserDto is the public view of a user returned by the API.
type UserDto struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Dto strips a user down to its public fields.
func (u *User) Dto() UserDto {
	return UserDto{ID: u.ID, Username: u.Username}
}

// Message maps to the messages collection. The _id is the value allocated
// from the "messages" sequence counter, so sorting on _id yields send order.
// Messages are immutable once persisted.
type Message struct {
	ID          int64     `bson:"_id" json:"id"`
	SenderID    int64     `bson:"sender_id" json:"senderId"`
	RecipientID int64     `bson:"recipient_id" json:"recipientId"`
	Content     string    `bson:"content" json:"content"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

// FriendStatus is the lifecycle state of a friend request.
type FriendStatus string

const (
	FriendPending  FriendStatus = "PENDING"
	FriendAccepted FriendStatus = "ACCEPTED"
	FriendDeclined FriendStatus = "DECLINED"
)

// FriendRequest maps to the friend_requests collection. A directed pair
// (sender, receiver) has at most one request document; re-sending after a
// decline resets the existing one.
type FriendRequest struct {
	ID         int64        `bson:"_id" json:"id"`
	SenderID   int64        `bson:"sender_id" json:"senderId"`
	ReceiverID int64        `bson:"receiver_id" json:"receiverId"`
	Status     FriendStatus `bson:"status" json:"status"`
	CreatedAt  time.Time    `bson:"created_at" json:"createdAt"`
}
