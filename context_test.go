package authkit

import (
	"context"
	"testing"
)

func TestClientIPRoundTrip(t *testing.T) {
	ctx := WithClientIP(context.Background(), "203.0.113.7")
	if got := clientIPFromContext(ctx); got != "203.0.113.7" {
		t.Fatalf("ip = %q, want 203.0.113.7", got)
	}

	if got := clientIPFromContext(context.Background()); got != "" {
		t.Fatalf("bare context ip = %q, want empty", got)
	}
	if got := clientIPFromContext(nil); got != "" {
		t.Fatalf("nil context ip = %q, want empty", got)
	}
}
