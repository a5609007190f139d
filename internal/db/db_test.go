package db

import (
	"context"
	"os"
	"testing"
)

func TestNextSequence(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := New(ctx, uri)
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}
	defer func() { _ = c.Close(context.Background()) }()

	name := "test_seq_" + os.Getenv("TEST_RUN_ID")
	defer func() { _ = c.countersCollection().Drop(context.Background()) }()

	first, err := c.NextSequence(ctx, name)
	if err != nil {
		t.Fatalf("NextSequence failed: %v", err)
	}
	second, err := c.NextSequence(ctx, name)
	if err != nil {
		t.Fatalf("NextSequence failed: %v", err)
	}

	if second != first+1 {
		t.Fatalf("expected consecutive values, got %d then %d", first, second)
	}
}

func TestCreateIndexes(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := New(ctx, uri)
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}
	defer func() { _ = c.Close(context.Background()) }()

	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}
	// Idempotent: creating the same indexes again must not error.
	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes second run failed: %v", err)
	}
}
