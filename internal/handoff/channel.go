package handoff

import (
	"context"

	"github.com/noah-isme/storefront-checkout/internal/financing"
)

// Channel is a named, typed hand-off slot shared by one producer page and
// one consumer page.
type Channel[T any] struct {
	Name string
}

// FinancingChannel carries the financing breakdown from checkout to the
// order confirmation.
var FinancingChannel = Channel[financing.Info]{Name: "checkout_financing"}

// Publish stores v for the session, replacing any earlier value.
func (c Channel[T]) Publish(ctx context.Context, s Session, v T) error {
	return s.Write(ctx, c.Name, v)
}

// Peek returns the current value without consuming it.
func (c Channel[T]) Peek(ctx context.Context, s Session) (T, bool) {
	var v T
	ok := s.Read(ctx, c.Name, &v)
	return v, ok
}

// Consume returns the current value and removes it.
func (c Channel[T]) Consume(ctx context.Context, s Session) (T, bool) {
	var v T
	ok := s.ConsumeOnce(ctx, c.Name, &v)
	return v, ok
}

// Discard removes the current value.
func (c Channel[T]) Discard(ctx context.Context, s Session) {
	s.Clear(ctx, c.Name)
}
