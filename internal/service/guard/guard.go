package guard

// Guard composes the checks for one endpoint: its own sliding-window limiter
// plus the breaker shared with every other guard in the process.
type Guard struct {
	endpoint string
	limiter  *SlidingWindow
	breaker  *Breaker
}

// New creates a guard for the named endpoint.
func New(endpoint string, limiter *SlidingWindow, breaker *Breaker) *Guard {
	return &Guard{endpoint: endpoint, limiter: limiter, breaker: breaker}
}

// Endpoint returns the guarded endpoint name.
func (g *Guard) Endpoint() string { return g.endpoint }

// Check runs the limiter first, then the breaker. The limiter records the
// attempt either way, so a request bounced by an open breaker still consumes
// window quota.
func (g *Guard) Check(clientID string) Decision {
	d := g.limiter.Check(clientID)
	if !d.Allowed {
		return d
	}
	if open, wait := g.breaker.Gate(); open {
		return Decision{
			Reason:     ReasonBreakerOpen,
			Limit:      d.Limit,
			Remaining:  d.Remaining,
			RetryAfter: wait,
		}
	}
	return d
}

// ReportSuccess forwards a successful upstream call to the shared breaker.
func (g *Guard) ReportSuccess() { g.breaker.RecordSuccess() }

// ReportFailure forwards a failed upstream call to the shared breaker.
func (g *Guard) ReportFailure() { g.breaker.RecordFailure() }

// Stats snapshots this guard's limiter.
func (g *Guard) Stats() LimiterStats { return g.limiter.Stats() }

// Breaker exposes the shared breaker for ops snapshots.
func (g *Guard) Breaker() *Breaker { return g.breaker }
