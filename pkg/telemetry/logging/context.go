package logging

import "context"

type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// PublishDateKey is the context key for the newsletter date being worked on.
	PublishDateKey contextKey = "publish_date"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithPublishDate adds a publish date to the context.
func WithPublishDate(ctx context.Context, date string) context.Context {
	return context.WithValue(ctx, PublishDateKey, date)
}

// GetPublishDate retrieves the publish date from the context.
func GetPublishDate(ctx context.Context) string {
	if date, ok := ctx.Value(PublishDateKey).(string); ok {
		return date
	}
	return ""
}
