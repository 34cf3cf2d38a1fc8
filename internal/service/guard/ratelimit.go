// Package guard implements the request guard in front of the AI provider:
// a per-client sliding-window rate limiter composed with a circuit breaker
// shared across endpoints. All state is process-local.
package guard

import (
	"container/list"
	"sync"
	"time"
)

// Reason classifies the outcome of a guard check.
type Reason string

const (
	// ReasonOK indicates the attempt may proceed upstream.
	ReasonOK Reason = "ok"
	// ReasonRateLimited indicates the client exhausted its window quota.
	ReasonRateLimited Reason = "rate_limited"
	// ReasonBreakerOpen indicates the shared circuit breaker is open.
	ReasonBreakerOpen Reason = "breaker_open"
)

// Decision is the outcome of one guard check for one request attempt.
type Decision struct {
	Allowed    bool
	Reason     Reason
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// clientWindow holds the recent attempt timestamps for one client.
type clientWindow struct {
	id     string
	stamps []time.Time
}

// SlidingWindow is a per-client sliding-window rate limiter. Every check
// appends the attempt timestamp before counting, so rejected attempts still
// consume quota and hammering during a rejection extends the lockout.
// Distinct clients are bounded by maxClients; inserting a new client over
// capacity evicts the least recently seen one.
type SlidingWindow struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	maxClients int
	clients    map[string]*list.Element
	order      *list.List // front = most recently seen
	now        func() time.Time
}

// NewSlidingWindow creates a limiter allowing limit attempts per window for
// each client, tracking at most maxClients distinct clients.
func NewSlidingWindow(limit int, window time.Duration, maxClients int) *SlidingWindow {
	if maxClients <= 0 {
		maxClients = 1
	}
	return &SlidingWindow{
		limit:      limit,
		window:     window,
		maxClients: maxClients,
		clients:    make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

// Check records one attempt for clientID and reports whether it is allowed.
// Stale timestamps are pruned lazily here; there is no background sweeper.
func (l *SlidingWindow) Check(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	el, ok := l.clients[clientID]
	if !ok {
		if len(l.clients) >= l.maxClients {
			l.evictOldest()
		}
		el = l.order.PushFront(&clientWindow{id: clientID})
		l.clients[clientID] = el
	} else {
		l.order.MoveToFront(el)
	}
	w := el.Value.(*clientWindow)

	cutoff := now.Add(-l.window)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = append(kept, now)

	d := Decision{Limit: l.limit}
	if n := len(w.stamps); n > l.limit {
		d.Reason = ReasonRateLimited
		// Quota frees up when the oldest surviving attempt leaves the window.
		d.RetryAfter = w.stamps[0].Add(l.window).Sub(now)
	} else {
		d.Allowed = true
		d.Reason = ReasonOK
		d.Remaining = l.limit - n
	}
	return d
}

// evictOldest drops the least recently seen client. Caller holds the lock.
func (l *SlidingWindow) evictOldest() {
	back := l.order.Back()
	if back == nil {
		return
	}
	w := back.Value.(*clientWindow)
	delete(l.clients, w.id)
	l.order.Remove(back)
}

// Len reports how many distinct clients are currently tracked.
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// LimiterStats is a point-in-time limiter snapshot for the ops endpoint.
type LimiterStats struct {
	Limit    int   `json:"limit"`
	WindowMS int64 `json:"window_ms"`
	Clients  int   `json:"clients"`
	Capacity int   `json:"capacity"`
}

// Stats returns a snapshot of the limiter.
func (l *SlidingWindow) Stats() LimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LimiterStats{
		Limit:    l.limit,
		WindowMS: l.window.Milliseconds(),
		Clients:  len(l.clients),
		Capacity: l.maxClients,
	}
}
