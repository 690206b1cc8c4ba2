package sqldb

import (
	"strconv"
	"strings"
)

// Query extends a stored statement that already ends in a WHERE clause
// with optional conditions, ordering and a limit, numbering placeholders per dialect.
type Query struct {
	b    strings.Builder
	ph   func(...int) string
	args []any
}

func NewQuery(base string, prefix byte, args ...any) *Query {
	q := &Query{ph: PlaceholderGF(prefix), args: append([]any(nil), args...)}
	q.b.WriteString(strings.TrimRight(strings.TrimSpace(base), ";"))
	return q
}

// And appends " AND expr", where expr holds exactly one `?`
func (q *Query) And(expr string, arg any) *Query {
	q.args = append(q.args, arg)
	q.b.WriteString(" AND ")
	q.b.WriteString(strings.Replace(expr, "?", q.ph(len(q.args)), 1))
	return q
}

func (q *Query) OrderBy(orders ...OrderBy) *Query {
	q.b.WriteString(OrderByClause(orders))
	return q
}

// Limit is skipped for n <= 0
func (q *Query) Limit(n int) *Query {
	if n > 0 {
		q.b.WriteString(" LIMIT ")
		q.b.WriteString(strconv.Itoa(n))
	}
	return q
}

func (q *Query) String() string {
	return q.b.String()
}

func (q *Query) Args() []any {
	return q.args
}
