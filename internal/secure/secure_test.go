package secure

import "testing"

func TestSealAndOpen(t *testing.T) {
	box, err := NewBox("0123456789abcdef") // 16 bytes
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}

	sealed, err := box.Seal("hello bob")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if sealed == "hello bob" {
		t.Fatal("sealed value equals plaintext")
	}

	opened, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if opened != "hello bob" {
		t.Fatalf("roundtrip mismatch: %q", opened)
	}
}

func TestSealIsRandomized(t *testing.T) {
	box, err := NewBox("0123456789abcdef")
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}

	a, _ := box.Seal("same message")
	b, _ := box.Seal("same message")
	if a == b {
		t.Fatal("two seals of the same plaintext should differ (fresh nonce)")
	}
}

func TestOpenWrongKey(t *testing.T) {
	box1, _ := NewBox("0123456789abcdef")
	box2, _ := NewBox("fedcba9876543210")

	sealed, err := box1.Seal("secret")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if _, err := box2.Open(sealed); err == nil {
		t.Fatal("expected Open to fail under a different key")
	}
}

func TestNewBoxRejectsBadKey(t *testing.T) {
	if _, err := NewBox("short"); err == nil {
		t.Fatal("expected error for invalid key length")
	}
}

func TestOpenGarbage(t *testing.T) {
	box, _ := NewBox("0123456789abcdef")
	if _, err := box.Open("not base64!!"); err == nil {
		t.Fatal("expected error for non-base64 input")
	}
	if _, err := box.Open("AAAA"); err == nil {
		t.Fatal("expected error for truncated input")
	}
}
