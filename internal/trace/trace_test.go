package trace

import (
	"context"
	"testing"
)

func TestWithIDRoundTrip(t *testing.T) {
	ctx := WithID(context.Background(), "req-1")
	if got := ID(ctx); got != "req-1" {
		t.Fatalf("id mismatch: %q", got)
	}
}

func TestWithIDFirstWriterWins(t *testing.T) {
	ctx := WithID(context.Background(), "req-1")
	ctx = WithID(ctx, "req-2")
	if got := ID(ctx); got != "req-1" {
		t.Fatalf("correlation id was overwritten: %q", got)
	}
}

func TestIDAbsent(t *testing.T) {
	if got := ID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestWithIDEmptyIsNoop(t *testing.T) {
	ctx := WithID(context.Background(), "")
	if got := ID(ctx); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestNewIDUnique(t *testing.T) {
	if NewID() == NewID() {
		t.Fatalf("expected distinct identifiers")
	}
}
