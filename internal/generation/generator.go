package generation

import (
	"context"

	"github.com/askdb/askdb/internal/datatable"
)

// SQLGenerator converts a natural-language question into a single SQL
// statement, given a textual schema description. Implementations must return
// exactly one statement terminated by one semicolon; the caller still
// validates it against the security policy before execution.
type SQLGenerator interface {
	GenerateSQL(ctx context.Context, question, schemaDescription string) (string, error)
}

// Summarizer produces a short natural-language summary of a query result.
// Summarization failures are expected to degrade, never to abort a pipeline
// run, so callers treat any error here as recoverable.
type Summarizer interface {
	Summarize(ctx context.Context, question, sql string, table *datatable.Table) (string, error)
}
