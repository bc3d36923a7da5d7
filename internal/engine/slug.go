package engine

import (
	"context"
	"fmt"
	"strings"

	"estate-backend/internal/metadata"
	"estate-backend/internal/store"
)

// Slugify lowercases the source, replaces runs of non-alphanumerics with a
// single hyphen, and trims hyphens from both ends.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// EnsureSlug fills the module's slug field when the client did not supply
// one, deriving it from the configured source field and suffixing -2, -3,
// ... until it is unique within the table.
func EnsureSlug(ctx context.Context, q store.Querier, module *metadata.Module, fields map[string]any) error {
	cfg := module.Slug
	if cfg == nil {
		return nil
	}
	if v, ok := fields[cfg.Field].(string); ok && v != "" {
		fields[cfg.Field] = Slugify(v)
		return nil
	}

	source, _ := fields[cfg.Source].(string)
	base := Slugify(source)
	if base == "" {
		return nil
	}

	slug := base
	for i := 2; ; i++ {
		var count int
		sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1", module.Table, cfg.Field)
		if err := q.QueryRow(ctx, sql, slug).Scan(&count); err != nil {
			return fmt.Errorf("check slug %s: %w", slug, err)
		}
		if count == 0 {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	fields[cfg.Field] = slug
	return nil
}
