package tenant

import "context"

type ctxKey struct{}

// WithTenant returns a copy of ctx carrying the tenant id.
func WithTenant(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the tenant id stored by WithTenant. Empty ids count as absent.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id, id != ""
}
