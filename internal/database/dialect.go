package database

import (
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect interface {
	// Name is the database/sql driver name.
	Name() string

	// Placeholder is the squirrel bind parameter format.
	Placeholder() squirrel.PlaceholderFormat

	// UseReturning reports whether INSERT retrieves the generated id with a
	// RETURNING clause (postgres) instead of LastInsertId.
	UseReturning() bool

	// NeedsSavepoint reports whether a failed statement aborts the whole
	// transaction, so inserts that may hit a unique constraint must run
	// inside a savepoint.
	NeedsSavepoint() bool
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string                            { return "mysql" }
func (mysqlDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }
func (mysqlDialect) UseReturning() bool                      { return false }
func (mysqlDialect) NeedsSavepoint() bool                    { return false }

type postgresDialect struct{}

func (postgresDialect) Name() string                            { return "pgx" }
func (postgresDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Dollar }
func (postgresDialect) UseReturning() bool                      { return true }
func (postgresDialect) NeedsSavepoint() bool                    { return true }

type sqliteDialect struct{}

func (sqliteDialect) Name() string                            { return "sqlite3" }
func (sqliteDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }
func (sqliteDialect) UseReturning() bool                      { return false }
func (sqliteDialect) NeedsSavepoint() bool                    { return false }

func DialectFor(provider string) (Dialect, error) {
	switch provider {
	case "mysql":
		return mysqlDialect{}, nil
	case "postgresql", "postgres":
		return postgresDialect{}, nil
	case "sqlite", "sqlite3":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", provider)
	}
}
