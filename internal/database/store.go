package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Outcome is the result of an insert that is allowed to be rejected as a duplicate.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// runner is satisfied by both *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store writes generated rows through a single connection. Writes go into an
// open transaction that only becomes durable on Commit.
type Store struct {
	db         *sql.DB
	dialect    Dialect
	qb         squirrel.StatementBuilderType
	tx         *sql.Tx
	primaryKey string
}

func Open(ctx context.Context, provider, dsn string) (*Store, error) {
	dialect, err := DialectFor(provider)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", provider, err)
	}

	// One logical thread of control: a single connection keeps the open
	// transaction and plain statements on the same session.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, ok := dialect.(sqliteDialect); !ok {
		db.SetConnMaxLifetime(15 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewStore(db, dialect), nil
}

// NewStore wraps an existing pool. The pool must not hand out more than one
// connection at a time.
func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:         db,
		dialect:    dialect,
		qb:         squirrel.StatementBuilder.PlaceholderFormat(dialect.Placeholder()),
		primaryKey: "id",
	}
}

// SetPrimaryKey sets the column returned by RETURNING on dialects that need it.
func (s *Store) SetPrimaryKey(column string) error {
	if !validIdentifier.MatchString(column) {
		return fmt.Errorf("invalid primary key column: %s", column)
	}
	s.primaryKey = column
	return nil
}

func (s *Store) runner() runner {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Store) begin(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

func validateIdentifiers(table string, columns []string) error {
	if !validIdentifier.MatchString(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}
	for _, col := range columns {
		if !validIdentifier.MatchString(col) {
			return fmt.Errorf("invalid column name: %s", col)
		}
	}
	return nil
}

// Insert adds one row and returns its autoincrement id.
func (s *Store) Insert(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	if err := validateIdentifiers(table, columns); err != nil {
		return 0, err
	}
	if len(columns) != len(values) {
		return 0, fmt.Errorf("insert into %s: %d columns but %d values", table, len(columns), len(values))
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}

	q := s.qb.Insert(table).Columns(columns...).Values(values...)
	if s.dialect.UseReturning() {
		q = q.Suffix("RETURNING " + s.primaryKey)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert for %s: %w", table, err)
	}

	if s.dialect.UseReturning() {
		var id int64
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id for %s: %w", table, err)
	}
	return id, nil
}

// InsertUnique adds one row without reading back an id. A duplicate key is
// reported as OutcomeSkipped with a nil error; the transaction stays usable.
func (s *Store) InsertUnique(ctx context.Context, table string, columns []string, values []any) (Outcome, error) {
	if err := validateIdentifiers(table, columns); err != nil {
		return OutcomeSkipped, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return OutcomeSkipped, err
	}

	query, args, err := s.qb.Insert(table).Columns(columns...).Values(values...).ToSql()
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("failed to build insert for %s: %w", table, err)
	}

	savepoint := s.dialect.NeedsSavepoint()
	if savepoint {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT unique_insert"); err != nil {
			return OutcomeSkipped, fmt.Errorf("failed to create savepoint: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if !IsUniqueViolation(err) {
			return OutcomeSkipped, err
		}
		if savepoint {
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT unique_insert"); rbErr != nil {
				return OutcomeSkipped, fmt.Errorf("failed to roll back savepoint: %w", rbErr)
			}
		}
		return OutcomeSkipped, nil
	}

	if savepoint {
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT unique_insert"); err != nil {
			return OutcomeInserted, fmt.Errorf("failed to release savepoint: %w", err)
		}
	}
	return OutcomeInserted, nil
}

// InsertMany adds all rows with a single multi-row INSERT statement.
func (s *Store) InsertMany(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	if err := validateIdentifiers(table, columns); err != nil {
		return err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	q := s.qb.Insert(table).Columns(columns...)
	for _, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("insert into %s: %d columns but a row has %d values", table, len(columns), len(row))
		}
		q = q.Values(row...)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build batch insert for %s: %w", table, err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// Exec runs a statement that is not part of the generated data, such as DDL.
func (s *Store) Exec(ctx context.Context, stmt string) error {
	_, err := s.runner().ExecContext(ctx, stmt)
	return err
}

// Commit makes every write since the previous checkpoint durable. It is a
// no-op when nothing was written.
func (s *Store) Commit(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	if !validIdentifier.MatchString(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}

	query, args, err := s.qb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.runner().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Close discards uncommitted writes and releases the connection.
func (s *Store) Close() error {
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}
