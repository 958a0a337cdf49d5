// Package cachekey derives deterministic, content-addressed cache keys for a
// (table, query) pair. Two logically identical inputs always produce the same
// key; any internal failure produces a process-unique key instead so a
// corrupted entry can never be shared between callers.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sync/atomic"
	"time"

	"github.com/askdb/askdb/internal/datatable"
)

// Separator joins the table-content segment and the query segment.
const Separator = "_"

// noQuerySentinel stands in for the query segment when no query text is given.
const noQuerySentinel = "no-query"

var fallbackSeq atomic.Uint64

// Derive returns the cache key for the given table and optional query text.
// The key is order-sensitive over column identity, column kinds and every
// cell value, so any change to the data yields a different key.
func Derive(t *datatable.Table, query string) (key string) {
	defer func() {
		if recover() != nil {
			key = fallbackKey(t)
		}
	}()

	if t == nil {
		return fallbackKey(t)
	}

	h := sha256.New()
	for _, c := range t.Columns {
		writeField(h, c.Name)
		writeField(h, string(c.Kind))
	}
	fmt.Fprintf(h, "|%dx%d|", t.RowCount(), t.ColumnCount())
	for row := range t.Rows {
		for col := range t.Columns {
			writeField(h, t.CellString(row, col))
		}
		h.Write([]byte{'\n'})
	}
	dataHash := hex.EncodeToString(h.Sum(nil))

	querySegment := noQuerySentinel
	if query != "" {
		q := sha256.Sum256([]byte(query))
		querySegment = hex.EncodeToString(q[:])
	}

	return dataHash + Separator + querySegment
}

// fallbackKey builds a key that is unique for the lifetime of the process,
// combining object identity, a monotonic reading and a sequence counter.
func fallbackKey(t *datatable.Table) string {
	return fmt.Sprintf("unhashable-%p-%d-%d", t, time.Now().UnixNano(), fallbackSeq.Add(1))
}

func writeField(h hash.Hash, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0}) // field delimiter, prevents boundary collisions
}
