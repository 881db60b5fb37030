package tenant

import (
	"context"
	"strings"
)

// Key joins parts into a colon separated key, prefixed with the tenant found
// in ctx. Empty parts are kept so positional keys stay unambiguous.
func Key(ctx context.Context, parts ...string) string {
	key := strings.Join(parts, ":")
	id, ok := FromContext(ctx)
	if !ok {
		return key
	}
	return id + ":" + key
}
