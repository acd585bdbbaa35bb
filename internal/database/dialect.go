package database

// Dialect abstracts the SQL differences between SQLite and PostgreSQL.
type Dialect interface {
	// DriverName returns the driver name for sql.Open().
	DriverName() string

	// Placeholder returns the parameter placeholder for the given position
	// (1-indexed).
	Placeholder(position int) string

	// SupportsLastInsertID reports whether Result.LastInsertId works.
	SupportsLastInsertID() bool

	// ReturningClause returns the RETURNING clause for INSERT statements,
	// or "" when LastInsertId is used instead.
	ReturningClause(column string) string

	// InitStatements run once per connection pool before migrations.
	InitStatements() []string

	// IsDuplicateKeyError reports a unique constraint violation.
	IsDuplicateKeyError(err error) bool

	// SerialPrimaryKey returns the column definition of an auto-increment id.
	SerialPrimaryKey() string
}

// DialectType identifies the database dialect.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect creates a new Dialect for the given type.
func NewDialect(dialectType DialectType) Dialect {
	switch dialectType {
	case DialectPostgres:
		return &PostgresDialect{}
	default:
		return &SQLiteDialect{}
	}
}
