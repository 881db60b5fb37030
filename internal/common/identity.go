package common

import (
	"context"
	"net/http"
	"strings"
)

// Headers set by the API gateway once it has authenticated the caller.
const (
	HeaderUserID      = "X-User-ID"
	HeaderPermissions = "X-User-Permissions"
	HeaderBuyerStatus = "X-Buyer-Status"
)

type ctxKey string

const identityKey ctxKey = "auth/identity"

// Identity describes the authenticated caller.
type Identity struct {
	UserID      string
	Permissions map[string]bool
	BuyerActive bool
}

// Can reports whether the identity carries the permission.
func (id Identity) Can(permission string) bool {
	return id.Permissions[permission]
}

// WithIdentity stores the caller identity on the provided context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the caller identity from the context if present.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)
	return id.UserID, ok
}

// GatewayIdentity reads the identity headers forwarded by the gateway.
// Requests without a user header pass through anonymously.
func GatewayIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}
		id := Identity{
			UserID:      userID,
			Permissions: parsePermissions(r.Header.Get(HeaderPermissions)),
			BuyerActive: !strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderBuyerStatus)), "inactive"),
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func parsePermissions(raw string) map[string]bool {
	perms := map[string]bool{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms[p] = true
		}
	}
	return perms
}
