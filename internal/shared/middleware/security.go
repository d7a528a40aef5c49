package middleware

import (
	"net"
	"net/http"
	"strings"
)

const hstsValue = "max-age=31536000; includeSubDomains"

// HSTS sets Strict-Transport-Security on every response.
func HSTS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", hstsValue)
		next.ServeHTTP(w, r)
	})
}

// SecureCookies adds Secure and HttpOnly to every cookie the page sets, and
// SameSite=Lax unless the cookie names its own policy.
func SecureCookies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cookieGuard{ResponseWriter: w}, r)
	})
}

type cookieGuard struct {
	http.ResponseWriter
	flushed bool
}

func (g *cookieGuard) Write(b []byte) (int, error) {
	if !g.flushed {
		g.WriteHeader(http.StatusOK)
	}
	return g.ResponseWriter.Write(b)
}

func (g *cookieGuard) WriteHeader(status int) {
	if g.flushed {
		return
	}
	g.flushed = true

	h := g.ResponseWriter.Header()
	if set := h.Values("Set-Cookie"); len(set) > 0 {
		h.Del("Set-Cookie")
		for _, c := range set {
			h.Add("Set-Cookie", ensureSecureCookie(c))
		}
	}
	g.ResponseWriter.WriteHeader(status)
}

func ensureSecureCookie(cookie string) string {
	attrs := strings.Split(cookie, ";")
	seen := make(map[string]bool, len(attrs))
	for i := range attrs {
		attrs[i] = strings.TrimSpace(attrs[i])
		if i == 0 {
			// name=value pair
			continue
		}
		name, _, _ := strings.Cut(attrs[i], "=")
		seen[strings.ToLower(name)] = true
	}

	for _, want := range []struct{ key, attr string }{
		{"secure", "Secure"},
		{"httponly", "HttpOnly"},
		{"samesite", "SameSite=Lax"},
	} {
		if !seen[want.key] {
			attrs = append(attrs, want.attr)
		}
	}
	return strings.Join(attrs, "; ")
}

// IsHostAllowed reports whether host, with or without a port, is in
// allowedHosts. An empty list allows every host.
func IsHostAllowed(host string, allowedHosts []string) bool {
	if len(allowedHosts) == 0 {
		return true
	}

	host = strings.ToLower(strings.TrimSpace(host))
	name := hostOnly(host)
	for _, a := range allowedHosts {
		a = strings.ToLower(strings.TrimSpace(a))
		if host == a || name == hostOnly(a) {
			return true
		}
	}
	return false
}

// hostOnly strips an optional port and IPv6 brackets from a host.
func hostOnly(h string) string {
	if name, _, err := net.SplitHostPort(h); err == nil {
		return name
	}
	return strings.Trim(h, "[]")
}
