package api

import "context"

type contextKey string

// ContextTenantKey is the key used to store the authorized tenant in context.
const ContextTenantKey contextKey = "tenant_id"

// WithTenantID adds the tenant resolved by the authorizer to the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ContextTenantKey, tenantID)
}

// GetTenantID retrieves the authorized tenant from context.
func GetTenantID(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextTenantKey).(string)
	return val, ok && val != ""
}
