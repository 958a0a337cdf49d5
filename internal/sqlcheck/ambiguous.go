package sqlcheck

import (
	"log/slog"
	"regexp"
	"strings"
)

// Schema maps table names to their column names, as reported by database
// introspection.
type Schema map[string][]string

var fromJoinPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// QualifyAmbiguousColumns rewrites unqualified references to columns that
// exist in more than one of the query's joined tables, qualifying each with
// the first table that declares it.
//
// This is a heuristic regex rewrite, not a SQL-AST transformation: it can
// mis-qualify columns in self-joins, subqueries or aliased tables. It is kept
// isolated here so it can be swapped for a proper parser-based pass. On any
// doubt it returns the query unchanged; the rewrite never blocks execution.
func QualifyAmbiguousColumns(sql string, schema Schema, logger *slog.Logger) string {
	if !regexp.MustCompile(`(?i)\bJOIN\b`).MatchString(sql) || len(schema) == 0 {
		return sql
	}

	tables := referencedTables(sql)
	if len(tables) < 2 {
		return sql
	}

	// Collect the owning tables of every column across referenced tables,
	// preserving the query's table order so "first matching table" wins.
	owners := make(map[string][]string)
	for _, table := range tables {
		cols, ok := schema[table]
		if !ok {
			logger.Warn("table not found in schema, skipping", "table", table)
			continue
		}
		for _, col := range cols {
			owners[col] = append(owners[col], table)
		}
	}

	rewritten := sql
	for col, tabs := range owners {
		if len(tabs) < 2 {
			continue
		}
		rewritten = qualifyColumn(rewritten, col, tabs[0])
	}
	if rewritten != sql {
		logger.Debug("qualified ambiguous column references",
			"tables", strings.Join(tables, ","))
	}
	return rewritten
}

// referencedTables extracts table names following FROM and JOIN keywords, in
// order of appearance, de-duplicated.
func referencedTables(sql string) []string {
	var tables []string
	seen := make(map[string]struct{})
	for _, m := range fromJoinPattern.FindAllStringSubmatch(sql, -1) {
		name := m[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}
	return tables
}

// qualifyColumn replaces standalone occurrences of col with table.col. An
// occurrence is standalone when it is not already part of a qualified name on
// either side (no adjacent "." segment).
func qualifyColumn(sql, col, table string) string {
	pattern := regexp.MustCompile(`(^|[^A-Za-z0-9_.])(` + regexp.QuoteMeta(col) + `)($|[^A-Za-z0-9_.])`)
	return pattern.ReplaceAllString(sql, "${1}"+table+".${2}${3}")
}
