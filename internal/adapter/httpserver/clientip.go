package httpserver

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the client identity the rate limiter keys on. Behind a
// trusted proxy the first X-Forwarded-For hop is the real client; straight
// from the internet that header is attacker-controlled and only RemoteAddr
// can be believed.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := xff
			if idx := strings.IndexByte(xff, ','); idx != -1 {
				first = xff[:idx]
			}
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if rip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); rip != "" {
			return rip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port (some tests and proxies).
		return r.RemoteAddr
	}
	return host
}
