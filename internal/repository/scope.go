package repository

import "context"

type includeDeletedKey struct{}

// WithDeleted marks the context so repository reads include soft-deleted
// rows. Every repository entry point applies the deleted_at filter by
// default; this is the only bypass.
func WithDeleted(ctx context.Context) context.Context {
	return context.WithValue(ctx, includeDeletedKey{}, true)
}

// IncludeDeleted reports whether the context opts into soft-deleted rows.
func IncludeDeleted(ctx context.Context) bool {
	v, _ := ctx.Value(includeDeletedKey{}).(bool)
	return v
}

// notDeleted renders the default soft-delete predicate for the given table
// alias, honoring the context opt-in.
func notDeleted(ctx context.Context, alias string) string {
	if IncludeDeleted(ctx) {
		return ""
	}
	if alias == "" {
		return " AND deleted_at IS NULL"
	}
	return " AND " + alias + ".deleted_at IS NULL"
}
