package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/hoopsdb/internal/store"
)

// WarehouseRepository answers aggregate questions about the warehouse tables.
type WarehouseRepository struct {
	db *store.Database
}

// NewWarehouseRepository constructs a WarehouseRepository.
func NewWarehouseRepository(db *store.Database) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// TableCounts returns the row count of each table, in the given order.
func (r *WarehouseRepository) TableCounts(ctx context.Context, tables []string) ([]store.TableCount, error) {
	counts := make([]store.TableCount, 0, len(tables))
	for _, table := range tables {
		var n int64
		query := "SELECT COUNT(*) FROM " + pq.QuoteIdentifier(table)
		if err := r.db.DB().QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts = append(counts, store.TableCount{Table: table, Rows: n})
	}
	return counts, nil
}
