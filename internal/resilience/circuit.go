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

// ErrOpenCircuit is returned when the breaker refuses a call to the upstream.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the position of a breaker.
type State int

const (
	Closed State = iota
	Open
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

// gauge is the value exported on the breaker_state metric.
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

// Breaker trips when the failure ratio over the most recent calls reaches a
// threshold. Outcomes are kept in a fixed window of twice the minimum call
// count. After the cooldown one probe call is let through; its outcome
// closes or reopens the breaker.
type Breaker struct {
	mu sync.Mutex

	state    State
	outcomes []bool
	pos      int
	seen     int

	minCalls int
	ratio    float64
	cooldown time.Duration
	openedAt time.Time
	probeAt  time.Time

	target string
	logger zerolog.Logger
}

// NewBreaker builds a breaker that opens once at least minCalls outcomes are
// recorded and the share of failures among them is failureRatio or more.
func NewBreaker(minCalls int, failureRatio float64, cooldown time.Duration) *Breaker {
	if minCalls <= 0 {
		minCalls = 1
	}
	if failureRatio <= 0 {
		failureRatio = 0.5
	}
	if failureRatio > 1 {
		failureRatio = 1
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		outcomes: make([]bool, minCalls*2),
		minCalls: minCalls,
		ratio:    failureRatio,
		cooldown: cooldown,
		logger:   zerolog.Nop(),
	}
}

// WithTarget names the upstream in metrics and logs.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = strings.TrimSpace(target)
	b.publishLocked()
	return b
}

// WithLogger sets the logger used for transitions when the context carries none.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// Allow reports whether a call may go out. An open breaker admits a single
// probe once the cooldown has passed; a probe that never reports back is
// replaced after another cooldown.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	switch b.state {
	case Closed:
		return true
	case Open:
		if now.Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.moveLocked(ctx, HalfOpen)
		b.probeAt = now
		return true
	default:
		if !b.probeAt.IsZero() && now.Sub(b.probeAt) < b.cooldown {
			return false
		}
		b.probeAt = now
		return true
	}
}

// Report records the outcome of a call admitted by Allow.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		if success {
			b.moveLocked(ctx, Closed)
		} else {
			b.moveLocked(ctx, Open)
		}
		return
	}

	b.outcomes[b.pos] = !success
	b.pos = (b.pos + 1) % len(b.outcomes)
	if b.seen < len(b.outcomes) {
		b.seen++
	}
	if b.seen < b.minCalls {
		return
	}
	failed := 0
	for i := 0; i < b.seen; i++ {
		if b.outcomes[i] {
			failed++
		}
	}
	if float64(failed)/float64(b.seen) >= b.ratio {
		b.moveLocked(ctx, Open)
	}
}

// State returns the breaker position as health checks see it: an open
// breaker whose cooldown has passed reads as half open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && time.Since(b.openedAt) >= b.cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) moveLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.probeAt = time.Time{}
	switch next {
	case Open:
		b.openedAt = time.Now()
	case Closed:
		b.openedAt = time.Time{}
		b.pos, b.seen = 0, 0
		clear(b.outcomes)
	}
	b.publishLocked()

	label := b.label()
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(label, prev.String(), next.String()).Inc()
	}
	if next == Open && BreakerOpenedTotal != nil {
		BreakerOpenedTotal.WithLabelValues(label).Inc()
	}

	logger := b.logger
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		logger = *l
	}
	evt := logger.Info().Str("target", label).Str("from_state", prev.String()).Str("to_state", next.String())
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) publishLocked() {
	if BreakerState != nil {
		BreakerState.WithLabelValues(b.label()).Set(b.state.gauge())
	}
}

func (b *Breaker) label() string {
	if b.target == "" {
		return "default"
	}
	return b.target
}

// Backoff is the delay before retry number attempt: base doubled per attempt,
// spread by ±jitter (0.2 means 20%).
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	d := base << uint(attempt-1)
	if jitter <= 0 {
		return d
	}
	spread := float64(d) * jitter
	return d + time.Duration((rand.Float64()*2-1)*spread)
}
