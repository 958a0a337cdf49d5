package sqlcheck

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Blacklist enumerates SQL keywords that must never appear outside quoted
// literals. Anything that can mutate data or schema is rejected before
// execution.
var Blacklist = []string{
	"DELETE", "DROP", "UPDATE", "INSERT", "ALTER", "TRUNCATE",
	"CREATE", "RENAME", "REPLACE", "GRANT", "REVOKE",
}

// Validation errors. Each names the specific rule that was violated.
var (
	ErrForbiddenKeyword   = errors.New("forbidden SQL keyword")
	ErrNotReadOnly        = errors.New("only SELECT and SHOW queries are allowed")
	ErrMultipleStatements = errors.New("multiple SQL statements are not allowed")
	ErrEmptyStatement     = errors.New("empty SQL statement")
)

var blacklistPattern = regexp.MustCompile(`\b(` + strings.Join(Blacklist, "|") + `)\b`)

// stringLiteral matches single- or double-quoted literals, tolerating
// doubled-quote escapes.
var stringLiteral = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"`)

// Validate checks a SQL statement against the security policy:
// no blacklisted keyword outside quoted literals, a SELECT or SHOW statement
// only, and a single statement (no semicolon before the final one).
func Validate(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return ErrEmptyStatement
	}

	// Strip literals first so quoted occurrences of keywords and semicolons
	// cannot trigger false rejections.
	stripped := stringLiteral.ReplaceAllString(trimmed, "''")
	upper := strings.ToUpper(stripped)

	if m := blacklistPattern.FindString(upper); m != "" {
		return fmt.Errorf("%w: %s commands are not allowed for security reasons", ErrForbiddenKeyword, m)
	}

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "SHOW") {
		return ErrNotReadOnly
	}

	body := strings.TrimRight(stripped, " \t\r\n")
	body = strings.TrimSuffix(body, ";")
	if strings.Contains(body, ";") {
		return ErrMultipleStatements
	}

	return nil
}
