// Package clientip resolves the caller address used for rate limiting and
// access logs.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

const unknown = "unknown"

// RealClientIP returns the host part of r.RemoteAddr. Proxy headers are
// ignored because they are caller-controlled.
func RealClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return unknown
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = strings.Trim(addr, "[]")
	}
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return unknown
	}
	return host
}
