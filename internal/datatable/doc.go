// Package datatable defines the in-memory tabular result produced by SQL
// execution and consumed by summarization, chart recommendation and rendering.
// Column order and row order are significant and preserved.
package datatable
