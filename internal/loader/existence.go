package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Queryer is the read side of *sql.DB used to fetch existence sets.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const (
	keySeparator = "\x1f"
	nullKeyPart  = "\x00"
)

// KeySet is the materialized set of identity tuples already stored in a table.
type KeySet map[string]struct{}

// Has reports whether the tuple is in the set.
func (k KeySet) Has(tuple ...any) bool {
	_, ok := k[keyOf(tuple)]
	return ok
}

// Add records the tuple.
func (k KeySet) Add(tuple ...any) {
	k[keyOf(tuple)] = struct{}{}
}

// FetchExisting loads every identity tuple of table with a single query.
// Any failure is returned as-is; callers must not fall back to an empty set.
func FetchExisting(ctx context.Context, q Queryer, table string, keyColumns []string) (KeySet, error) {
	if len(keyColumns) == 0 {
		return nil, fmt.Errorf("table %s: no key columns", table)
	}

	quoted := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		quoted[i] = pq.QuoteIdentifier(col)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), pq.QuoteIdentifier(table))

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying existing keys of %s: %w", table, err)
	}
	defer rows.Close()

	keys := make(KeySet)
	dest := make([]sql.NullString, len(keyColumns))
	ptrs := make([]any, len(keyColumns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	parts := make([]any, len(keyColumns))
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning existing keys of %s: %w", table, err)
		}
		for i, ns := range dest {
			if ns.Valid {
				parts[i] = ns.String
			} else {
				parts[i] = nil
			}
		}
		keys.Add(parts...)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating existing keys of %s: %w", table, err)
	}

	return keys, nil
}

// keyOf renders a tuple so that a stored value and a classified candidate
// compare equal: the season 2021 matches "2021" read back from the store.
func keyOf(tuple []any) string {
	parts := make([]string, len(tuple))
	for i, v := range tuple {
		parts[i] = keyPart(v)
	}
	return strings.Join(parts, keySeparator)
}

func keyPart(v any) string {
	switch val := v.(type) {
	case nil:
		return nullKeyPart
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// tupleAt picks the values at the given indexes.
func tupleAt(values []any, indexes []int) []any {
	tuple := make([]any, len(indexes))
	for i, idx := range indexes {
		tuple[i] = values[idx]
	}
	return tuple
}
