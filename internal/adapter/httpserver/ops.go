package httpserver

import (
	"crypto/subtle"
	"net/http"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/service/guard"
)

// OpsAuth gates the ops endpoints behind HTTP basic auth. The configured
// password may be an argon2id hash or plaintext; see checkOpsCredential.
func (s *Server) OpsAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.Cfg.OpsUsername)) != 1 ||
			!checkOpsCredential(s.Cfg.OpsPassword, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="ops"`)
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: apiError{
				Code:    "UNAUTHORIZED",
				Message: "ops credentials required",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// guardStats is the ops view of the whole request guard: one limiter
// snapshot per guarded endpoint plus the shared breaker.
type guardStats struct {
	Endpoints map[string]guard.LimiterStats `json:"endpoints"`
	Breaker   guard.BreakerStats            `json:"breaker"`
}

// GuardStatsHandler reports limiter and breaker snapshots. Reading the
// breaker state performs the same lazy close a request would, so the
// snapshot never shows an open circuit that is already past its reset.
func (s *Server) GuardStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := guardStats{Endpoints: make(map[string]guard.LimiterStats)}
		var breaker *guard.Breaker
		for _, g := range s.guards() {
			stats.Endpoints[g.Endpoint()] = g.Stats()
			breaker = g.Breaker()
		}
		if s.VocabLimiter != nil {
			stats.Endpoints["vocabulary"] = s.VocabLimiter.Stats()
		}
		if breaker != nil {
			stats.Breaker = breaker.Stats()
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) guards() []*guard.Guard {
	out := make([]*guard.Guard, 0, 3)
	for _, g := range []*guard.Guard{s.ChatGuard, s.CorrectGuard, s.TranslateGuard} {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}
