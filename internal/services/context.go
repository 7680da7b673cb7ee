package services

import "context"

type ctxKey int

const (
	itemIDKey ctxKey = iota
	operationKey
	requestIDKey
)

// WithItemID tags ctx with the inventory item being worked on.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext returns the item id set by WithItemID.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemIDKey).(int64)
	return id, ok
}

// WithOperation tags ctx with the engine operation name (classify, patch,
// batch_update, ...). A blank name leaves ctx unchanged.
func WithOperation(ctx context.Context, operation string) context.Context {
	return withString(ctx, operationKey, operation)
}

// OperationFromContext returns the operation set by WithOperation.
func OperationFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, operationKey)
}

// WithRequestID tags ctx with the X-Request-ID of the HTTP request that
// started the work. A blank id leaves ctx unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key ctxKey) (string, bool) {
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}
