package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSQL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain statement gains semicolon",
			in:   "SELECT * FROM users",
			want: "SELECT * FROM users;",
		},
		{
			name: "already terminated",
			in:   "SELECT * FROM users;",
			want: "SELECT * FROM users;",
		},
		{
			name: "markdown fences stripped",
			in:   "```sql\nSELECT id FROM users;\n```",
			want: "SELECT id FROM users;",
		},
		{
			name: "bare fences stripped",
			in:   "```\nSHOW TABLES\n```",
			want: "SHOW TABLES;",
		},
		{
			name: "second statement dropped",
			in:   "SELECT 1; DROP TABLE users;",
			want: "SELECT 1;",
		},
		{
			name: "whitespace trimmed",
			in:   "   SELECT name FROM t   ",
			want: "SELECT name FROM t;",
		},
		{
			name: "empty response",
			in:   "  ```sql``` ",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanSQL(tc.in))
		})
	}
}

func TestStripJSONFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripJSONFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFences(`{"a":1}`))
}
