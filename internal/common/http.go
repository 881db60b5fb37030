package common

import (
	"net"
	"net/http"
)

// ClientIP returns the address part of r.RemoteAddr. Proxy headers are
// expected to have been applied by chi's RealIP middleware.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
