package session

import "context"

type contextKey int

const (
	tokenContextKey contextKey = iota
	recordContextKey
)

// WithToken returns a context carrying the upstream bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// TokenFromContext extracts the upstream bearer token, or empty when
// the request is unauthenticated. Shaped to plug directly into the API
// client's token provider hook.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// WithRecord returns a context carrying the resolved session record.
func WithRecord(ctx context.Context, record Record) context.Context {
	return context.WithValue(ctx, recordContextKey, record)
}

// RecordFromContext extracts the resolved session record.
func RecordFromContext(ctx context.Context) (Record, bool) {
	record, ok := ctx.Value(recordContextKey).(Record)
	return record, ok
}
