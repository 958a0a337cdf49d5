package datatable

// Builder accumulates scanned rows and infers column kinds from the first
// non-NULL value seen in each column. Columns that never see a value are
// treated as categorical.
type Builder struct {
	names    []string
	kinds    []Kind
	resolved []bool
	rows     [][]any
}

// NewBuilder creates a builder for the given column names.
func NewBuilder(names []string) *Builder {
	return &Builder{
		names:    names,
		kinds:    make([]Kind, len(names)),
		resolved: make([]bool, len(names)),
	}
}

// AddRow appends one row of raw values. Rows shorter or longer than the
// column set are ignored.
func (b *Builder) AddRow(values []any) {
	if len(values) != len(b.names) {
		return
	}
	row := make([]any, len(values))
	copy(row, values)
	for i, v := range row {
		if b.resolved[i] {
			continue
		}
		if kind, ok := ClassifyValue(v); ok {
			b.kinds[i] = kind
			b.resolved[i] = true
		}
	}
	b.rows = append(b.rows, row)
}

// Build finalizes the table.
func (b *Builder) Build() *Table {
	columns := make([]Column, len(b.names))
	for i, name := range b.names {
		kind := b.kinds[i]
		if !b.resolved[i] {
			kind = KindCategorical
		}
		columns[i] = Column{Name: name, Kind: kind}
	}
	return &Table{Columns: columns, Rows: b.rows}
}
