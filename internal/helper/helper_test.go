package helper

import (
	"context"
	"testing"
)

func TestHash8(t *testing.T) {
	a := Hash8("a@x.com")
	if len(a) != 16 {
		t.Fatalf("len = %d", len(a))
	}
	if a != Hash8("a@x.com") || a == Hash8("b@x.com") {
		t.Fatal("hash must be stable and distinct")
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("got %q", got)
	}
	ctx := WithRequestID(context.Background(), "r-1")
	if got := RequestID(ctx); got != "r-1" {
		t.Fatalf("got %q", got)
	}
}
