package runtime

import (
	"context"
	"testing"
)

// TestBuffer_AccumulatesInOrderAndDropsEmpty verifies fragment ordering and
// the empty-fragment rule.
func TestBuffer_AccumulatesInOrderAndDropsEmpty(t *testing.T) {
	b := NewBuffer(context.Background())
	for _, f := range []string{"<p>", "", "hi", "</p>"} {
		if err := b.Append(f); err != nil {
			t.Fatalf("Append(%q) failed: %v", f, err)
		}
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (empty fragment dropped)", b.Len())
	}
	if got := b.String(); got != "<p>hi</p>" {
		t.Errorf("String() = %q, want %q", got, "<p>hi</p>")
	}
}

// TestBuffer_CancelledContextRejectsAppends verifies that cancellation
// abandons the render: appends after cancel fail with the context error.
func TestBuffer_CancelledContextRejectsAppends(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBuffer(ctx)
	if err := b.Append("before"); err != nil {
		t.Fatalf("Append before cancel failed: %v", err)
	}
	cancel()
	if err := b.Append("after"); err != context.Canceled {
		t.Errorf("Append after cancel = %v, want context.Canceled", err)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (partial output abandoned)", b.Len())
	}
}

// TestBuffer_StreamDeliversFragmentsInAppendOrder verifies the streaming
// sink sees every fragment, in order, as it is appended.
func TestBuffer_StreamDeliversFragmentsInAppendOrder(t *testing.T) {
	sink := make(chan string, 8)
	b := NewBuffer(context.Background())
	b.Stream(sink)

	frags := []string{"a", "b", "c"}
	for _, f := range frags {
		if err := b.Append(f); err != nil {
			t.Fatalf("Append(%q) failed: %v", f, err)
		}
	}
	close(sink)

	i := 0
	for got := range sink {
		if got != frags[i] {
			t.Errorf("fragment %d = %q, want %q", i, got, frags[i])
		}
		i++
	}
	if i != len(frags) {
		t.Errorf("received %d fragments, want %d", i, len(frags))
	}
}

// TestBuffer_StreamUnblocksOnCancel verifies that a blocked sink send
// returns once the context is cancelled instead of deadlocking.
func TestBuffer_StreamUnblocksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := make(chan string) // unbuffered, nobody receiving
	b := NewBuffer(ctx)
	b.Stream(sink)

	done := make(chan error, 1)
	go func() { done <- b.Append("x") }()
	cancel()

	if err := <-done; err != context.Canceled {
		t.Errorf("Append on blocked sink after cancel = %v, want context.Canceled", err)
	}
}
