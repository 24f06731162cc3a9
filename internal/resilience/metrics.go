package resilience

import "github.com/prometheus/client_golang/prometheus"

var (
	// BreakerState exposes the current state per upstream: 0=closed, 1=open, 2=half-open.
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "upstream_breaker_state",
		Help: "Current upstream breaker state: 0=closed,1=open,2=half-open.",
	}, []string{"target"})
	// BreakerTransitions counts state changes.
	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_breaker_transitions_total",
		Help: "Count of upstream breaker state transitions.",
	}, []string{"target", "from", "to"})
	// BreakerOpenedTotal counts transitions into the open state.
	BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_breaker_open_total",
		Help: "Number of times an upstream breaker opened.",
	}, []string{"target"})
)

// RegisterMetrics registers the breaker collectors, tolerating repeated registration.
func RegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{BreakerState, BreakerTransitions, BreakerOpenedTotal} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
