package database

import (
	"strconv"
	"strings"
)

// Translate rewrites a neutral-dialect statement for the given backend.
// Neutral statements use ? placeholders and plain INSERTs. The embedded engine
// accepts those natively; the cloud engine needs 1-based $n markers assigned
// left to right, and INSERTs gain a RETURNING clause so insert-id retrieval is
// uniform. Translating an already-translated statement is a no-op as long as
// no ? remains.
func Translate(stmt string, kind Kind) string {
	if kind != KindCloud {
		return stmt
	}

	var b strings.Builder
	b.Grow(len(stmt) + 8)
	n := 0
	for _, r := range stmt {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	out := b.String()
	if isInsert(out) && !hasReturning(out) {
		out += " RETURNING id"
	}
	return out
}

func isInsert(stmt string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "INSERT")
}

func hasReturning(stmt string) bool {
	return strings.Contains(strings.ToUpper(stmt), "RETURNING")
}

// isRead reports whether a statement produces rows rather than mutating.
func isRead(stmt string) bool {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	return strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH")
}
