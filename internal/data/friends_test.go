package data

import (
	"context"
	"errors"
	"testing"
)

func TestFriendRequestLifecycle(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()

	_ = c.FriendRequestsCollection().Drop(ctx)
	friends := NewFriendsStore(c.FriendRequestsCollection(), c)

	const alice, bob, carol = int64(1), int64(2), int64(3)

	if _, err := friends.SendRequest(ctx, alice, alice); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest, got %v", err)
	}

	req, err := friends.SendRequest(ctx, alice, bob)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if req.Status != FriendPending {
		t.Fatalf("new request should be pending: %+v", req)
	}

	// Duplicate and reverse sends are rejected while pending.
	if _, err := friends.SendRequest(ctx, alice, bob); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("expected ErrRequestPending, got %v", err)
	}
	if _, err := friends.SendRequest(ctx, bob, alice); !errors.Is(err, ErrRequestInbound) {
		t.Fatalf("expected ErrRequestInbound, got %v", err)
	}

	// Only the receiver may respond.
	if _, err := friends.Respond(ctx, alice, req.ID, FriendAccepted); !errors.Is(err, ErrNotReceiver) {
		t.Fatalf("expected ErrNotReceiver, got %v", err)
	}

	pending, err := friends.Pending(ctx, bob)
	if err != nil || len(pending) != 1 {
		t.Fatalf("Pending = %v, %v", pending, err)
	}

	accepted, err := friends.Respond(ctx, bob, req.ID, FriendAccepted)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if accepted.Status != FriendAccepted {
		t.Fatalf("expected accepted, got %+v", accepted)
	}

	if _, err := friends.Respond(ctx, bob, req.ID, FriendDeclined); !errors.Is(err, ErrAlreadyResponded) {
		t.Fatalf("expected ErrAlreadyResponded, got %v", err)
	}

	ok, err := friends.AreFriends(ctx, alice, bob)
	if err != nil || !ok {
		t.Fatalf("AreFriends(alice,bob) = %v, %v", ok, err)
	}
	ok, err = friends.AreFriends(ctx, bob, alice)
	if err != nil || !ok {
		t.Fatalf("AreFriends is not symmetric: %v, %v", ok, err)
	}
	ok, err = friends.AreFriends(ctx, alice, carol)
	if err != nil || ok {
		t.Fatalf("AreFriends(alice,carol) = %v, %v", ok, err)
	}

	// Friendship visible from both sides.
	ids, err := friends.FriendIDs(ctx, alice)
	if err != nil || len(ids) != 1 || ids[0] != bob {
		t.Fatalf("FriendIDs(alice) = %v, %v", ids, err)
	}
	ids, err = friends.FriendIDs(ctx, bob)
	if err != nil || len(ids) != 1 || ids[0] != alice {
		t.Fatalf("FriendIDs(bob) = %v, %v", ids, err)
	}

	// Re-sending after an accept is blocked in both directions.
	if _, err := friends.SendRequest(ctx, bob, alice); !errors.Is(err, ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends, got %v", err)
	}
}

func TestFriendRequestDeclineAndRevive(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()

	_ = c.FriendRequestsCollection().Drop(ctx)
	friends := NewFriendsStore(c.FriendRequestsCollection(), c)

	const dave, erin = int64(4), int64(5)

	req, err := friends.SendRequest(ctx, dave, erin)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if _, err := friends.Respond(ctx, erin, req.ID, FriendDeclined); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	ok, err := friends.AreFriends(ctx, dave, erin)
	if err != nil || ok {
		t.Fatalf("declined request should not create a friendship: %v, %v", ok, err)
	}

	// A declined request can be revived by the original sender.
	revived, err := friends.SendRequest(ctx, dave, erin)
	if err != nil {
		t.Fatalf("revive failed: %v", err)
	}
	if revived.ID != req.ID || revived.Status != FriendPending {
		t.Fatalf("expected the same request reset to pending: %+v", revived)
	}
}
