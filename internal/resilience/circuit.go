package resilience

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the breaker refuses to call the upstream.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the breaker state.
type State int

const (
	// Closed lets every call through and counts failures.
	Closed State = iota
	// Open rejects calls until the cool-off period expires.
	Open
	// HalfOpen lets a single probe through.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

func (s State) gauge() float64 {
	switch s {
	case Closed:
		return 0
	case Open:
		return 1
	case HalfOpen:
		return 2
	default:
		return -1
	}
}

// Breaker guards an upstream dependency (the commerce backend) with a
// failure-ratio circuit.
type Breaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	openedAt     time.Time
	minRequests  int
	failureRatio float64
	openFor      time.Duration
	target       string
	logger       zerolog.Logger
}

// NewBreaker returns a closed breaker that opens once at least minRequests
// outcomes were observed and the failure ratio reaches failureRatio.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 || failureRatio > 1 {
		failureRatio = 0.5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
		logger:       zerolog.Nop(),
	}
}

// WithTarget names the guarded dependency for metric labels and logs.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = strings.TrimSpace(target)
	b.publishStateLocked()
	return b
}

// WithLogger sets the logger used for state transitions.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. An open breaker moves to
// half-open once the cool-off period elapsed.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return true
	}
	if time.Since(b.openedAt) < b.openFor {
		return false
	}
	b.transitionLocked(ctx, HalfOpen)
	return true
}

// Report records the outcome of a call.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		if success {
			b.transitionLocked(ctx, Closed)
		} else {
			b.transitionLocked(ctx, Open)
		}
		return
	}

	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.minRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.failureRatio {
		b.transitionLocked(ctx, Open)
		return
	}
	if total > b.minRequests*2 {
		// decay so old outcomes stop dominating the ratio
		b.successes = (b.successes + 1) / 2
		b.failures = (b.failures + 1) / 2
	}
}

// Backoff returns base * 2^(attempt-1) with +/- jitter (fraction of the delay).
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << uint(attempt-1)
	if jitter <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * float64(d) * jitter
	return d + time.Duration(delta)
}

func (b *Breaker) transitionLocked(ctx context.Context, next State) {
	prev := b.state
	b.state = next
	b.failures, b.successes = 0, 0
	switch next {
	case Open:
		b.openedAt = time.Now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.publishStateLocked()
	if prev == next {
		return
	}
	label := b.label()
	BreakerTransitions.WithLabelValues(label, prev.String(), next.String()).Inc()
	if next == Open {
		BreakerOpenedTotal.WithLabelValues(label).Inc()
	}
	evt := b.logger.Info().Str("target", label).Str("from_state", prev.String()).Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) publishStateLocked() {
	BreakerState.WithLabelValues(b.label()).Set(b.state.gauge())
}

func (b *Breaker) label() string {
	if b.target == "" {
		return "default"
	}
	return b.target
}
