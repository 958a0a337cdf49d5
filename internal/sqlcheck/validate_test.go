package sqlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestValidateAcceptsReadOnly(t *testing.T) {
	t.Parallel()
	for _, sql := range []string{
		"SELECT * FROM users;",
		"select id, name from users where id = 1",
		"  SELECT 1  ",
		"SHOW search_path;",
	} {
		assert.NoError(t, Validate(sql), "sql: %s", sql)
	}
}

func TestValidateRejectsBlacklistedKeywords(t *testing.T) {
	t.Parallel()
	cases := []string{
		"DELETE FROM users",
		"DROP TABLE users",
		"UPDATE users SET name = 'x'",
		"INSERT INTO users VALUES (1)",
		"ALTER TABLE users ADD COLUMN x int",
		"TRUNCATE users",
		"CREATE TABLE t (id int)",
		"GRANT ALL ON users TO public",
		"SELECT * FROM users; DROP TABLE users",
		"select * from t where exists (delete from u)",
	}
	for _, sql := range cases {
		assert.ErrorIs(t, Validate(sql), ErrForbiddenKeyword, "sql: %s", sql)
	}
}

func TestValidateIgnoresKeywordsInLiterals(t *testing.T) {
	t.Parallel()
	cases := []string{
		"SELECT * FROM logs WHERE message = 'please DELETE me'",
		`SELECT * FROM logs WHERE message = "DROP everything"`,
		"SELECT * FROM logs WHERE note = 'it''s an UPDATE; honest'",
	}
	for _, sql := range cases {
		assert.NoError(t, Validate(sql), "sql: %s", sql)
	}
}

func TestValidateRejectsNonSelect(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, Validate("EXPLAIN SELECT 1"), ErrNotReadOnly)
	assert.ErrorIs(t, Validate("WITH x AS (SELECT 1) SELECT * FROM x"), ErrNotReadOnly)
}

func TestValidateRejectsMultipleStatements(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, Validate("SELECT 1; SELECT 2;"), ErrMultipleStatements)
	assert.NoError(t, Validate("SELECT 1;"), "single trailing semicolon is fine")
	assert.NoError(t, Validate("SELECT ';' AS sep FROM t"), "quoted semicolon is data")
}

func TestValidateRejectsEmpty(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, Validate(""), ErrEmptyStatement)
	assert.ErrorIs(t, Validate("   \n\t"), ErrEmptyStatement)
}

// A statement containing a bare blacklisted keyword never validates, no
// matter the casing or surrounding clauses.
func TestValidateBlacklistCaseInsensitive(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.SampledFrom(Blacklist).Draw(t, "keyword")
		cased := make([]byte, len(word))
		for i := range word {
			if rapid.Bool().Draw(t, "lower") {
				cased[i] = word[i] | 0x20
			} else {
				cased[i] = word[i]
			}
		}
		sql := "SELECT * FROM t WHERE " + string(cased) + " = 1"
		if Validate(sql) == nil {
			t.Fatalf("statement with %q validated", string(cased))
		}
	})
}
