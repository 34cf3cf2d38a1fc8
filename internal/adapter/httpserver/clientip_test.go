package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		trustProxy bool
		want       string
	}{
		{name: "direct connection", remoteAddr: "203.0.113.7:51442", want: "203.0.113.7"},
		{name: "xff ignored without trust", remoteAddr: "203.0.113.7:51442", xff: "198.51.100.9", want: "203.0.113.7"},
		{name: "xff first hop when trusted", remoteAddr: "10.0.0.2:80", xff: "198.51.100.9, 10.0.0.1", trustProxy: true, want: "198.51.100.9"},
		{name: "xff single value when trusted", remoteAddr: "10.0.0.2:80", xff: "198.51.100.9", trustProxy: true, want: "198.51.100.9"},
		{name: "real-ip fallback when trusted", remoteAddr: "10.0.0.2:80", realIP: "198.51.100.10", trustProxy: true, want: "198.51.100.10"},
		{name: "trusted but no proxy headers", remoteAddr: "203.0.113.7:51442", trustProxy: true, want: "203.0.113.7"},
		{name: "remote addr without port", remoteAddr: "203.0.113.7", want: "203.0.113.7"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-Ip", tt.realIP)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
