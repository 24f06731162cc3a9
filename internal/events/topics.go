package events

import (
	"github.com/noah-isme/storefront-checkout/internal/discount"
	"github.com/noah-isme/storefront-checkout/internal/financing"
)

// Topic constants for domain events emitted by the storefront.
const (
	TopicCartEvaluated      = "cart.evaluated"
	TopicFinancingPublished = "financing.published"
	TopicFinancingConsumed  = "financing.consumed"
)

// DefaultTopics returns the canonical list of storefront topics.
func DefaultTopics() []string {
	return []string{
		TopicCartEvaluated,
		TopicFinancingPublished,
		TopicFinancingConsumed,
	}
}

// CartEvaluated is emitted after a cart snapshot was evaluated for the volume discount.
type CartEvaluated struct {
	CartID         string
	Result         discount.Result
	Reconciliation discount.Reconciliation
}

func (CartEvaluated) Topic() string { return TopicCartEvaluated }

// FinancingPublished is emitted when checkout derives a financing breakdown.
// Info is nil when the payment took the simple path.
type FinancingPublished struct {
	SessionID string
	Info      *financing.Info
	Stored    bool
}

func (FinancingPublished) Topic() string { return TopicFinancingPublished }

// Source values for FinancingConsumed.
const (
	SourceHandoff = "handoff"
	SourceOrder   = "order"
	SourceNone    = "none"
)

// FinancingConsumed is emitted when the confirmation view resolves financing
// context for an order.
type FinancingConsumed struct {
	SessionID string
	OrderID   string
	Source    string
}

func (FinancingConsumed) Topic() string { return TopicFinancingConsumed }
