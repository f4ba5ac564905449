package requestctx

import (
	"context"
	"testing"
)

func TestValuesRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-42")
	ctx = WithClubID(ctx, "club-7")
	ctx = WithLocale(ctx, "ga-IE")
	if got := UserIDFromContext(ctx); got != "user-42" {
		t.Fatalf("UserIDFromContext = %q, want %q", got, "user-42")
	}
	if got := ClubIDFromContext(ctx); got != "club-7" {
		t.Fatalf("ClubIDFromContext = %q, want %q", got, "club-7")
	}
	if got := LocaleFromContext(ctx); got != "ga-IE" {
		t.Fatalf("LocaleFromContext = %q, want %q", got, "ga-IE")
	}
}

func TestValuesEmpty(t *testing.T) {
	ctx := context.Background()
	if UserIDFromContext(ctx) != "" || ClubIDFromContext(ctx) != "" || LocaleFromContext(ctx) != "" {
		t.Fatal("expected empty values")
	}
}

func TestNilContext(t *testing.T) {
	if got := UserIDFromContext(nil); got != "" {
		t.Fatalf("expected empty string for nil context, got %q", got)
	}
	ctx := WithClubID(nil, "club-9")
	if ctx == nil {
		t.Fatalf("expected non-nil context")
	}
	if got := ClubIDFromContext(ctx); got != "club-9" {
		t.Fatalf("ClubIDFromContext = %q, want %q", got, "club-9")
	}
}
