// Package postgres executes validated read-only SQL against PostgreSQL and
// exposes the database schema in the textual form the SQL generation prompts
// expect. Large results are read in fixed-size chunks and concatenated.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/askdb/askdb/internal/datatable"
	"github.com/askdb/askdb/internal/sqlcheck"
	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultChunkSize bounds how many rows are collected per chunk while
// draining a result set.
const DefaultChunkSize = 10000

// Executor runs queries against one database over a connection pool. The
// schema description is cached until invalidated.
type Executor struct {
	pool      *pgxpool.Pool
	chunkSize int
	logger    *slog.Logger

	mu           sync.Mutex
	schemaText   string
	schemaTables sqlcheck.Schema
	schemaLoaded bool
}

// Connect creates a pool for the given URL and verifies connectivity,
// retrying pings with exponential backoff while the database comes up.
func Connect(ctx context.Context, url string, chunkSize int, logger *slog.Logger) (*Executor, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("database ping failed, retrying", slog.String("error", err.Error()))
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(30*time.Second))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Executor{
		pool:      pool,
		chunkSize: chunkSize,
		logger:    logger.With(slog.String("component", "postgres")),
	}, nil
}

// Close releases the connection pool.
func (e *Executor) Close() {
	e.pool.Close()
}

// Ping verifies the database is reachable.
func (e *Executor) Ping(ctx context.Context) error {
	return e.pool.Ping(ctx)
}

// Query runs a single read-only statement and materializes the full result.
// Rows are collected in chunks of the configured size and appended to the
// result table, so column typing is established once by the first chunk.
func (e *Executor) Query(ctx context.Context, sql string) (*datatable.Table, error) {
	start := time.Now()
	rows, err := e.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns := columnsOf(rows.FieldDescriptions())
	result := datatable.New(columns)
	chunk := datatable.New(columns)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = normalizeValue(v)
		}
		chunk.Rows = append(chunk.Rows, row)

		if len(chunk.Rows) >= e.chunkSize {
			if err := result.Append(chunk); err != nil {
				return nil, fmt.Errorf("appending result chunk: %w", err)
			}
			chunk = datatable.New(columns)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("draining result: %w", err)
	}
	if len(chunk.Rows) > 0 {
		if err := result.Append(chunk); err != nil {
			return nil, fmt.Errorf("appending result chunk: %w", err)
		}
	}

	e.logger.Debug("query executed",
		slog.Int("rows", result.RowCount()),
		slog.Int("columns", result.ColumnCount()),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// SchemaDescription returns the textual schema summary used in generation
// prompts ("Table: x\nColumns: a (type), ...") together with a table-to-
// columns map for ambiguity resolution. The result is cached until
// InvalidateSchema is called.
func (e *Executor) SchemaDescription(ctx context.Context) (string, sqlcheck.Schema, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.schemaLoaded {
		return e.schemaText, e.schemaTables, nil
	}

	const query = `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position
	`
	rows, err := e.pool.Query(ctx, query)
	if err != nil {
		return "", nil, fmt.Errorf("reading schema: %w", err)
	}
	defer rows.Close()

	schema := sqlcheck.Schema{}
	types := map[string][]string{}
	var order []string
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return "", nil, fmt.Errorf("scanning schema row: %w", err)
		}
		if _, seen := schema[table]; !seen {
			order = append(order, table)
		}
		schema[table] = append(schema[table], column)
		types[table] = append(types[table], fmt.Sprintf("%s (%s)", column, dataType))
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("draining schema rows: %w", err)
	}

	var b strings.Builder
	for _, table := range order {
		fmt.Fprintf(&b, "Table: %s\n", table)
		fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(types[table], ", "))
	}

	e.schemaText = b.String()
	e.schemaTables = schema
	e.schemaLoaded = true
	e.logger.Info("schema description loaded", slog.Int("tables", len(order)))
	return e.schemaText, e.schemaTables, nil
}

// InvalidateSchema drops the cached schema description so the next call
// re-reads it.
func (e *Executor) InvalidateSchema() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.schemaLoaded = false
	e.schemaText = ""
	e.schemaTables = nil
}

// columnsOf maps result field descriptions to typed columns using the
// PostgreSQL type OIDs.
func columnsOf(fields []pgconn.FieldDescription) []datatable.Column {
	columns := make([]datatable.Column, len(fields))
	for i, f := range fields {
		columns[i] = datatable.Column{Name: f.Name, Kind: kindForOID(f.DataTypeOID)}
	}
	return columns
}

func kindForOID(oid uint32) datatable.Kind {
	switch oid {
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID,
		pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return datatable.KindNumeric
	case pgtype.DateOID, pgtype.TimestampOID, pgtype.TimestamptzOID:
		return datatable.KindDatetime
	default:
		return datatable.KindCategorical
	}
}

// normalizeValue converts driver-specific values into the small set of Go
// types the rest of the pipeline understands.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte: // uuid
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])
	default:
		return v
	}
}
