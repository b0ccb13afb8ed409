package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind tags which storage engine is active behind the gateway.
type Kind int

const (
	KindEmbedded Kind = iota
	KindCloud
	KindDegraded
)

func (k Kind) String() string {
	switch k {
	case KindEmbedded:
		return "embedded"
	case KindCloud:
		return "cloud"
	case KindDegraded:
		return "degraded"
	}
	return "unknown"
}

// Result reports the outcome of a mutating statement.
type Result struct {
	InsertID    int64
	RowsChanged int64
}

// Row is one result row keyed by column name.
type Row map[string]any

// Backend is the capability surface the gateway depends on. Statements are
// written in the neutral dialect (? placeholders, no RETURNING clause); each
// implementation translates as needed.
type Backend interface {
	Kind() Kind
	Query(ctx context.Context, stmt string, args ...any) ([]Row, error)
	Exec(ctx context.Context, stmt string, args ...any) (Result, error)
	Close() error
}

// sqlBackend adapts a *sql.DB to the Backend contract for both real engines.
type sqlBackend struct {
	kind Kind
	db   *sql.DB
}

func (b *sqlBackend) Kind() Kind { return b.kind }

func (b *sqlBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *sqlBackend) Query(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	rows, err := b.db.QueryContext(ctx, Translate(stmt, b.kind), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (b *sqlBackend) Exec(ctx context.Context, stmt string, args ...any) (Result, error) {
	translated := Translate(stmt, b.kind)

	// The cloud dialect reports insert identity through RETURNING.
	if b.kind == KindCloud && isInsert(translated) {
		var id int64
		if err := b.db.QueryRowContext(ctx, translated, args...).Scan(&id); err != nil {
			return Result{}, err
		}
		return Result{InsertID: id, RowsChanged: 1}, nil
	}

	res, err := b.db.ExecContext(ctx, translated, args...)
	if err != nil {
		return Result{}, err
	}
	changed, _ := res.RowsAffected()
	out := Result{RowsChanged: changed}
	if b.kind == KindEmbedded {
		out.InsertID, _ = res.LastInsertId()
	}
	return out, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// String returns the named column as a string, empty when absent or NULL.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.DateOnly)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the named column as an int64, zero when absent or NULL.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	default:
		return 0
	}
}

// Float returns the named column as a float64, zero when absent or NULL.
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	default:
		return 0
	}
}

// Bool returns the named column as a bool. Both engines round-trip booleans
// differently (integer vs native), so every truthy form is accepted.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "t")
	default:
		return false
	}
}
