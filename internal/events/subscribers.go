package events

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-checkout/internal/discount"
	"github.com/noah-isme/storefront-checkout/internal/obs"
)

// RegisterDefaultSubscribers wires the metric and log subscribers.
func RegisterDefaultSubscribers(b *Bus, logger zerolog.Logger) {
	Subscribe(b, func(_ context.Context, e CartEvaluated) {
		if obs.BulkDiscountEvaluations != nil {
			obs.BulkDiscountEvaluations.WithLabelValues(strconv.FormatBool(e.Result.IsEligible), string(e.Reconciliation)).Inc()
		}
		if e.Reconciliation != discount.ReconcileOK {
			logger.Warn().
				Str("cart_id", e.CartID).
				Int("total_items", e.Result.TotalItems).
				Bool("has_backend_discount", e.Result.HasBackendDiscount).
				Str("reconciliation", string(e.Reconciliation)).
				Msg("bulk_discount_mismatch")
		}
	})
	Subscribe(b, func(_ context.Context, e FinancingPublished) {
		if obs.FinancingDerivations != nil {
			obs.FinancingDerivations.WithLabelValues(string(e.Info.Path())).Inc()
		}
		if e.Info != nil && e.Info.HasFinancing {
			logger.Debug().
				Str("session_id", e.SessionID).
				Int("installments", e.Info.Installments).
				Bool("has_financing_cost", e.Info.HasFinancingCost).
				Bool("stored", e.Stored).
				Msg("financing_published")
		}
	})
	Subscribe(b, func(_ context.Context, e FinancingConsumed) {
		logger.Debug().
			Str("session_id", e.SessionID).
			Str("order_id", e.OrderID).
			Str("source", e.Source).
			Msg("financing_resolved")
	})
}
