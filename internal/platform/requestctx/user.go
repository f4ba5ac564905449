// Package requestctx carries per-request caller details across transport
// and service boundaries.
package requestctx

import "context"

type (
	userIDKey struct{}
	clubIDKey struct{}
	localeKey struct{}
)

// WithUserID stores the authenticated user identifier in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return with(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the user identifier stored in context.
func UserIDFromContext(ctx context.Context) string {
	return get(ctx, userIDKey{})
}

// WithClubID stores the club the caller claims to act for.
func WithClubID(ctx context.Context, clubID string) context.Context {
	return with(ctx, clubIDKey{}, clubID)
}

// ClubIDFromContext returns the claimed club, empty when none was sent.
func ClubIDFromContext(ctx context.Context) string {
	return get(ctx, clubIDKey{})
}

// WithLocale stores the caller's preferred message locale.
func WithLocale(ctx context.Context, locale string) context.Context {
	return with(ctx, localeKey{}, locale)
}

// LocaleFromContext returns the preferred locale, empty when unknown.
func LocaleFromContext(ctx context.Context) string {
	return get(ctx, localeKey{})
}

func with(ctx context.Context, key any, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func get(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
