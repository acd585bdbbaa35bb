package database

import (
	"strings"
)

// QueryBuilder converts SQL written with ? placeholders to the dialect's
// placeholder syntax.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build rewrites each ? outside a quoted literal as a dialect placeholder.
//
//	input:    "SELECT id FROM maps WHERE digest = ? AND seed = ?"
//	SQLite:   "SELECT id FROM maps WHERE digest = ? AND seed = ?"
//	Postgres: "SELECT id FROM maps WHERE digest = $1 AND seed = $2"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var result strings.Builder
	position := 1
	quoted := false

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			result.WriteByte(c)
		case c == '?' && !quoted:
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			result.WriteByte(c)
		}
	}

	return result.String()
}

// BuildWithReturning is Build plus a RETURNING clause when the dialect
// cannot report LastInsertId.
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}
