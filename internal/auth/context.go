package auth

import "context"

type ctxKey struct{}

// ContextWithUserID stores the authenticated user id on the context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFromContext retrieves the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	userID, ok := ctx.Value(ctxKey{}).(string)
	return userID, ok && userID != ""
}
