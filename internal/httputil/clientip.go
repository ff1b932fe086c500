// Package httputil carries small HTTP helpers shared by the service
// handlers: client address resolution and request logging middleware.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP reports the address of the client that sent r, for request
// logging. With trustProxy set, the usual reverse-proxy headers are
// consulted first: the leftmost X-Forwarded-For entry, then X-Real-IP.
// Leave trustProxy off unless a trusted proxy terminates the connection,
// since both headers are client-controlled otherwise.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedClient(r.Header); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. from a hand-built request.
		return r.RemoteAddr
	}
	return host
}

func forwardedClient(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(h.Get("X-Real-IP"))
}
