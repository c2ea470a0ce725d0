package utils

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/appctx"
	"github.com/google/uuid"
)

// FoldEquals compares two legacy text values the way the legacy system does:
// fixed-width fields are space-padded and case is unreliable.
func FoldEquals(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FoldContains reports whether haystack contains needle, trimmed and case-insensitive.
func FoldContains(haystack, needle string) bool {
	return strings.Contains(
		strings.ToUpper(strings.TrimSpace(haystack)),
		strings.ToUpper(strings.TrimSpace(needle)),
	)
}

// SameDay compares the date portions only; cut timestamps carry a time-of-day
// that is irrelevant to settlement.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DisplayDate renders a date the way the settlement reports always have: dd/mm/yyyy.
func DisplayDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyCorrelationId, correlationId)
}

// EnsureCorrelationId returns the correlation id from ctx, minting one if absent.
func EnsureCorrelationId(ctx context.Context) (context.Context, string) {
	if cid, ok := GetCorrelationIdFromContext(ctx); ok && cid != "" {
		return ctx, cid
	}
	cid := uuid.NewString()
	return SetCorrelationIdInContext(ctx, cid), cid
}
