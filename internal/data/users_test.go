package data

import (
	"context"
	"errors"
	"testing"
)

func TestUsersCreateAndLookup(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()

	_ = c.UsersCollection().Drop(ctx)
	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}

	users := NewUsersStore(c.UsersCollection(), c)

	created, err := users.CreateUser(ctx, "Alice", "Alice@Example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected a non-zero sequence id")
	}
	if created.Username != "alice" || created.Email != "alice@example.com" {
		t.Fatalf("fields not normalized: %+v", created)
	}

	// Duplicate (different case) must hit the unique index.
	if _, err := users.CreateUser(ctx, "ALICE", "other@example.com", "hash"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	byName, err := users.GetUserByUsername(ctx, " alice ")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("lookup returned wrong user: %+v", byName)
	}

	byID, err := users.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Username != "alice" {
		t.Fatalf("lookup by id returned wrong user: %+v", byID)
	}

	ok, err := users.UserExists(ctx, created.ID)
	if err != nil || !ok {
		t.Fatalf("UserExists(%d) = %v, %v", created.ID, ok, err)
	}
	ok, err = users.UserExists(ctx, created.ID+1000)
	if err != nil || ok {
		t.Fatalf("UserExists for unknown id = %v, %v", ok, err)
	}

	if _, err := users.GetUserByUsername(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUsersSearch(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()

	_ = c.UsersCollection().Drop(ctx)
	users := NewUsersStore(c.UsersCollection(), c)

	anna, err := users.CreateUser(ctx, "anna", "anna@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := users.CreateUser(ctx, "annabel", "annabel@example.com", "hash"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := users.CreateUser(ctx, "bob", "bob@example.com", "hash"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	// Substring match, excluding the caller.
	found, err := users.SearchUsers(ctx, "Ann", anna.ID)
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(found) != 1 || found[0].Username != "annabel" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	// Empty query returns nothing rather than everything.
	found, err = users.SearchUsers(ctx, "  ", anna.ID)
	if err != nil || len(found) != 0 {
		t.Fatalf("empty query: got %v, %v", found, err)
	}
}
