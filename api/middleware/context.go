package middleware

import "context"

type contextKey string

const (
	ctxAdminID    contextKey = "admin_id"
	ctxAdminRole  contextKey = "admin_role"
	ctxAccessID   contextKey = "access_id"
	ctxAdminEmail contextKey = "admin_email"
)

func AdminIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminRole).(string); ok {
		return v
	}
	return ""
}

// AccessIDFromContext returns the JTI of the verified access token, used by
// logout to revoke the matching session.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func AdminEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminEmail).(string); ok {
		return v
	}
	return ""
}
