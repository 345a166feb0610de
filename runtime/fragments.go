package runtime

import (
	"context"
	"strings"
)

// Buffer accumulates the ordered output fragments of one render invocation.
// A Buffer is local to a single call and never shared; the compiled artifact
// that fills it is immutable and safe for concurrent use.
//
// Fragments are kept as an ordered list rather than a growing string so that
// appends never copy previously accumulated output. When a streaming sink is
// attached, each fragment is also delivered to the sink in append order.
type Buffer struct {
	ctx   context.Context
	frags []string
	sink  chan<- string
}

// NewBuffer returns an empty buffer bound to ctx. Once ctx is cancelled all
// further appends fail, abandoning the partial fragment list.
func NewBuffer(ctx context.Context) *Buffer {
	return &Buffer{ctx: ctx}
}

// Stream attaches a sink that receives every subsequently appended fragment
// in order.
func (b *Buffer) Stream(sink chan<- string) {
	b.sink = sink
}

// Append adds one fragment to the buffer. Empty fragments are dropped.
func (b *Buffer) Append(frag string) error {
	if frag == "" {
		return nil
	}
	if err := b.ctx.Err(); err != nil {
		return err
	}
	b.frags = append(b.frags, frag)
	if b.sink != nil {
		select {
		case b.sink <- frag:
		case <-b.ctx.Done():
			return b.ctx.Err()
		}
	}
	return nil
}

// Len returns the number of accumulated fragments.
func (b *Buffer) Len() int { return len(b.frags) }

// Fragments returns the accumulated fragments in append order.
func (b *Buffer) Fragments() []string { return b.frags }

// String concatenates the accumulated fragments.
func (b *Buffer) String() string {
	return strings.Join(b.frags, "")
}
