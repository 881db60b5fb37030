package tenant

import (
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/growmax/storefront-pricing/internal/common"
)

// DefaultHeader carries the tenant id when no header name is configured.
const DefaultHeader = "X-Tenant-ID"

// Tenant ids end up inside cache and rate-limit keys, so separators are not allowed.
var validID = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Resolver finds the tenant of a request from a header, or from the first
// label of the host below RootDomain.
type Resolver struct {
	Header     string
	RootDomain string
	Default    string
}

func NewResolver(header, rootDomain, defaultTenant string) *Resolver {
	if header == "" {
		header = DefaultHeader
	}
	return &Resolver{
		Header:     header,
		RootDomain: strings.Trim(strings.ToLower(strings.TrimSpace(rootDomain)), "."),
		Default:    normalise(defaultTenant),
	}
}

// Resolve returns the tenant id named by the request, lower-cased, or "".
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if id := normalise(req.Header.Get(r.Header)); id != "" {
		return id
	}
	if r.RootDomain == "" {
		return ""
	}
	host := strings.ToLower(req.Host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	sub, ok := strings.CutSuffix(host, "."+r.RootDomain)
	if !ok || sub == "" {
		return ""
	}
	// a.b.shop.example.com resolves to the label closest to the root
	if i := strings.LastIndexByte(sub, '.'); i >= 0 {
		sub = sub[i+1:]
	}
	return sub
}

// Middleware stores the resolved tenant, or the default one, in the request
// context. Ids that cannot be used in keys are rejected with 400.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := r.Resolve(req)
		if id == "" {
			id = r.Default
		}
		if id == "" {
			next.ServeHTTP(w, req)
			return
		}
		if !validID.MatchString(id) {
			common.JSONError(w, http.StatusBadRequest, "INVALID_TENANT", "tenant id is not valid", nil)
			return
		}
		next.ServeHTTP(w, req.WithContext(WithTenant(req.Context(), id)))
	})
}

// Require rejects requests that reach it without a tenant.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, ok := FromContext(req.Context()); !ok {
			common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func normalise(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
