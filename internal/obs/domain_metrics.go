package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BulkDiscountEvaluations counts volume-discount evaluations by eligibility and reconciliation outcome.
	BulkDiscountEvaluations *prometheus.CounterVec
	// FinancingDerivations counts financing derivations by rendering path.
	FinancingDerivations *prometheus.CounterVec
	// HandoffReads counts hand-off reads by operation and result.
	HandoffReads *prometheus.CounterVec
	// HandoffWrites counts hand-off writes by result.
	HandoffWrites *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BulkDiscountEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_discount_evaluations_total",
			Help:      "Count of volume discount evaluations by eligibility and reconciliation.",
		}, []string{"eligible", "reconciliation"})
		FinancingDerivations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "financing_derivations_total",
			Help:      "Count of financing derivations by rendering path.",
		}, []string{"path"})
		HandoffReads = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoff_reads_total",
			Help:      "Count of cross-page hand-off reads by operation and result.",
		}, []string{"op", "result"})
		HandoffWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoff_writes_total",
			Help:      "Count of cross-page hand-off writes by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, BulkDiscountEvaluations, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BulkDiscountEvaluations = v
			}
		})
		mustRegisterCollector(reg, FinancingDerivations, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				FinancingDerivations = v
			}
		})
		mustRegisterCollector(reg, HandoffReads, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				HandoffReads = v
			}
		})
		mustRegisterCollector(reg, HandoffWrites, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				HandoffWrites = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
