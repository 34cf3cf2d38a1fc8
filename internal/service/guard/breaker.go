package guard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/observability"
)

// Breaker is the process-wide circuit breaker in front of the AI provider.
// It has exactly two states. While closed it counts failures; once the count
// reaches the threshold it opens and upstream work is rejected. An open
// circuit closes lazily: the first state check after resetTimeout has elapsed
// since the last failure flips it back. There is no timer goroutine.
//
// Closing does not reset the failure count. One more failure right after a
// close re-opens the circuit immediately, while one success decays the count
// to just below the threshold.
type Breaker struct {
	mu           sync.Mutex
	threshold    int
	resetTimeout time.Duration
	failures     int
	open         bool
	lastFailure  time.Time
	now          func() time.Time
}

// NewBreaker creates a closed breaker that opens after threshold failures
// and rejects work for resetTimeout after the last one.
func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// IsOpen reports the breaker state, lazily closing an expired open circuit.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeClose()
	return b.open
}

// Gate combines IsOpen and the remaining wait in one locked view.
func (b *Breaker) Gate() (open bool, retryAfter time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeClose()
	if !b.open {
		return false, 0
	}
	return true, b.lastFailure.Add(b.resetTimeout).Sub(b.now())
}

// maybeClose flips open->closed once resetTimeout has elapsed since the last
// failure. The failure count is retained. Caller holds the lock.
func (b *Breaker) maybeClose() {
	if !b.open {
		return
	}
	if b.now().Sub(b.lastFailure) >= b.resetTimeout {
		b.open = false
		observability.BreakerState.Set(0)
		observability.BreakerTransitionsTotal.WithLabelValues("closed").Inc()
		slog.Info("circuit breaker closed after reset timeout",
			slog.Int("failures", b.failures),
			slog.Duration("reset_timeout", b.resetTimeout))
	}
}

// RecordFailure counts one upstream failure and opens the circuit at the
// threshold. Failures while already open push the close deadline out.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if !b.open && b.failures >= b.threshold {
		b.open = true
		observability.BreakerState.Set(1)
		observability.BreakerTransitionsTotal.WithLabelValues("open").Inc()
		slog.Warn("circuit breaker opened",
			slog.Int("failures", b.failures),
			slog.Int("threshold", b.threshold))
	}
}

// RecordSuccess decays the failure count by one, never below zero.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures > 0 {
		b.failures--
	}
}

// RetryAfter reports how long callers should wait for the circuit to close.
// Zero when the breaker is closed or already due to close.
func (b *Breaker) RetryAfter() time.Duration {
	_, wait := b.Gate()
	return wait
}

// BreakerStats is a point-in-time breaker snapshot for the ops endpoint.
type BreakerStats struct {
	State          string    `json:"state"`
	Failures       int       `json:"failures"`
	Threshold      int       `json:"threshold"`
	ResetTimeoutMS int64     `json:"reset_timeout_ms"`
	LastFailure    time.Time `json:"last_failure,omitzero"`
	RetryAfterMS   int64     `json:"retry_after_ms"`
}

// Stats returns a snapshot of the breaker.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeClose()
	st := BreakerStats{
		State:          "closed",
		Failures:       b.failures,
		Threshold:      b.threshold,
		ResetTimeoutMS: b.resetTimeout.Milliseconds(),
		LastFailure:    b.lastFailure,
	}
	if b.open {
		st.State = "open"
		st.RetryAfterMS = b.lastFailure.Add(b.resetTimeout).Sub(b.now()).Milliseconds()
	}
	return st
}
