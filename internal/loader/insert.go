package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// maxBindParams is PostgreSQL's limit on parameters in one statement.
const maxBindParams = 65535

// BatchInserter writes rows for one table inside a single transaction.
type BatchInserter struct {
	db     *sql.DB
	logger *log.Logger
}

// NewBatchInserter constructs a BatchInserter.
func NewBatchInserter(db *sql.DB, logger *log.Logger) *BatchInserter {
	if logger == nil {
		logger = log.New(log.Writer(), "[loader] ", log.LstdFlags)
	}
	return &BatchInserter{db: db, logger: logger}
}

// Insert adds rows to table. An empty batch is a no-op, not an error.
// Either every row is committed or none is.
func (b *BatchInserter) Insert(ctx context.Context, table string, columns []string, rows [][]any) (int, error) {
	return b.write(ctx, table, columns, rows, "")
}

// Upsert adds rows to table, overwriting every non-key column of rows whose
// key already exists.
func (b *BatchInserter) Upsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int, error) {
	return b.write(ctx, table, columns, rows, onConflictUpdate(columns, keyColumns))
}

func (b *BatchInserter) write(ctx context.Context, table string, columns []string, rows [][]any, suffix string) (int, error) {
	if len(rows) == 0 {
		b.logger.Printf("No new data to insert into %s", table)
		return 0, nil
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("%w: %s row %d has %d values, want %d", ErrArity, table, i, len(row), len(columns))
		}
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert into %s: %w", table, err)
	}
	defer tx.Rollback()

	affected := 0
	for _, chunk := range chunkRows(rows, len(columns)) {
		query, args := buildInsert(table, columns, chunk, suffix)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(len(chunk))
		}
		affected += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert into %s: %w", table, err)
	}

	b.logger.Printf("✓ Data inserted to %s table (%d rows)", table, affected)
	return affected, nil
}

// chunkRows splits rows so no statement exceeds maxBindParams. For the
// warehouse's table widths this is almost always a single chunk.
func chunkRows(rows [][]any, width int) [][][]any {
	perStmt := maxBindParams / width
	if perStmt >= len(rows) {
		return [][][]any{rows}
	}

	var chunks [][][]any
	for start := 0; start < len(rows); start += perStmt {
		end := start + perStmt
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

func buildInsert(table string, columns []string, rows [][]any, suffix string) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(pq.QuoteIdentifier(table))
	sb.WriteString(" (")
	sb.WriteString(quoteAll(columns))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	n := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
			args = append(args, v)
		}
		sb.WriteByte(')')
	}

	if suffix != "" {
		sb.WriteByte(' ')
		sb.WriteString(suffix)
	}

	return sb.String(), args
}

func onConflictUpdate(columns, keyColumns []string) string {
	isKey := make(map[string]bool, len(keyColumns))
	for _, k := range keyColumns {
		isKey[k] = true
	}

	var sets []string
	for _, col := range columns {
		if isKey[col] {
			continue
		}
		q := pq.QuoteIdentifier(col)
		sets = append(sets, q+" = EXCLUDED."+q)
	}

	if len(sets) == 0 {
		return "ON CONFLICT (" + quoteAll(keyColumns) + ") DO NOTHING"
	}
	return "ON CONFLICT (" + quoteAll(keyColumns) + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pq.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}
