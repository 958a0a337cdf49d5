package datatable

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Kind classifies a column for visualization purposes.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindDatetime    Kind = "datetime"
)

// Column describes one table column.
type Column struct {
	Name string
	Kind Kind
}

// Table is an ordered, immutable-by-convention tabular result. Rows hold one
// value per column; a nil cell represents SQL NULL.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// ErrColumnMismatch is returned by Append when two tables do not share the
// same column layout.
var ErrColumnMismatch = errors.New("tables have different columns")

// New creates a table with the given columns and no rows.
func New(columns []Column) *Table {
	return &Table{Columns: columns}
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool {
	return t.RowCount() == 0 || t.ColumnCount() == 0
}

// ColumnIndex returns the position of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnsOfKind returns the names of all columns of the given kind, in order.
func (t *Table) ColumnsOfKind(kind Kind) []string {
	var names []string
	for _, c := range t.Columns {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// NumericColumns returns the names of all numeric columns.
func (t *Table) NumericColumns() []string { return t.ColumnsOfKind(KindNumeric) }

// CategoricalColumns returns the names of all categorical columns.
func (t *Table) CategoricalColumns() []string { return t.ColumnsOfKind(KindCategorical) }

// DatetimeColumns returns the names of all datetime columns.
func (t *Table) DatetimeColumns() []string { return t.ColumnsOfKind(KindDatetime) }

// Cell returns the raw value at (row, col). Out-of-range access returns nil.
func (t *Table) Cell(row, col int) any {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Columns) {
		return nil
	}
	return t.Rows[row][col]
}

// CellString renders the value at (row, col) as text. NULL renders as empty.
func (t *Table) CellString(row, col int) string {
	v := t.Cell(row, col)
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the value at (row, col) as a float64. The second result is
// false for NULLs and non-numeric values.
func (t *Table) Float(row, col int) (float64, bool) {
	return toFloat(t.Cell(row, col))
}

// FloatColumn returns all non-NULL numeric values of the named column.
func (t *Table) FloatColumn(name string) []float64 {
	col := t.ColumnIndex(name)
	if col < 0 {
		return nil
	}
	out := make([]float64, 0, len(t.Rows))
	for row := range t.Rows {
		if v, ok := t.Float(row, col); ok {
			out = append(out, v)
		}
	}
	return out
}

// DistinctCount returns the number of distinct rendered values in the named
// column, or 0 if the column does not exist.
func (t *Table) DistinctCount(name string) int {
	col := t.ColumnIndex(name)
	if col < 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(t.Rows))
	for row := range t.Rows {
		seen[t.CellString(row, col)] = struct{}{}
	}
	return len(seen)
}

// ValueCount pairs a rendered cell value with its occurrence count.
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts returns the distinct values of the named column ordered by
// descending count, ties broken by value for determinism.
func (t *Table) ValueCounts(name string) []ValueCount {
	col := t.ColumnIndex(name)
	if col < 0 {
		return nil
	}
	counts := make(map[string]int)
	for row := range t.Rows {
		counts[t.CellString(row, col)]++
	}
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Append concatenates another table's rows onto this one. Both tables must
// have identical column layouts. Used to merge chunked query results.
func (t *Table) Append(other *Table) error {
	if other == nil || other.RowCount() == 0 {
		return nil
	}
	if len(t.Columns) != len(other.Columns) {
		return ErrColumnMismatch
	}
	for i := range t.Columns {
		if t.Columns[i].Name != other.Columns[i].Name {
			return ErrColumnMismatch
		}
	}
	t.Rows = append(t.Rows, other.Rows...)
	return nil
}

// Head returns a copy-free view of at most n leading rows.
func (t *Table) Head(n int) *Table {
	if n >= len(t.Rows) {
		return t
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// ClassifyValue maps a cell value to the column kind it suggests.
func ClassifyValue(v any) (Kind, bool) {
	switch v.(type) {
	case nil:
		return "", false
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return KindNumeric, true
	case time.Time:
		return KindDatetime, true
	default:
		return KindCategorical, true
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
