package database

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

func (mysqlDialect) tableExists(qb squirrel.StatementBuilderType, table string) squirrel.SelectBuilder {
	return qb.Select("COUNT(*)").
		From("information_schema.tables").
		Where("table_schema = DATABASE()").
		Where(squirrel.Eq{"table_name": table})
}

func (mysqlDialect) columnNullable(qb squirrel.StatementBuilderType, table, column string) squirrel.SelectBuilder {
	return qb.Select("is_nullable").
		From("information_schema.columns").
		Where("table_schema = DATABASE()").
		Where(squirrel.Eq{"table_name": table, "column_name": column})
}

func (postgresDialect) tableExists(qb squirrel.StatementBuilderType, table string) squirrel.SelectBuilder {
	return qb.Select("COUNT(*)").
		From("information_schema.tables").
		Where("table_schema = current_schema()").
		Where(squirrel.Eq{"table_name": table})
}

func (postgresDialect) columnNullable(qb squirrel.StatementBuilderType, table, column string) squirrel.SelectBuilder {
	return qb.Select("is_nullable").
		From("information_schema.columns").
		Where("table_schema = current_schema()").
		Where(squirrel.Eq{"table_name": table, "column_name": column})
}

func (sqliteDialect) tableExists(qb squirrel.StatementBuilderType, table string) squirrel.SelectBuilder {
	return qb.Select("COUNT(*)").
		From("sqlite_master").
		Where(squirrel.Eq{"type": "table", "name": table})
}

// table is a validated identifier, so it can be inlined into the pragma call.
func (sqliteDialect) columnNullable(qb squirrel.StatementBuilderType, table, column string) squirrel.SelectBuilder {
	return qb.Select(`CASE WHEN "notnull" = 0 THEN 'YES' ELSE 'NO' END`).
		From(fmt.Sprintf("pragma_table_info('%s')", table)).
		Where(squirrel.Eq{"name": column})
}

type inspector interface {
	tableExists(qb squirrel.StatementBuilderType, table string) squirrel.SelectBuilder
	columnNullable(qb squirrel.StatementBuilderType, table, column string) squirrel.SelectBuilder
}

func (s *Store) inspector() (inspector, error) {
	i, ok := s.dialect.(inspector)
	if !ok {
		return nil, fmt.Errorf("schema inspection is not supported for %s", s.dialect.Name())
	}
	return i, nil
}

func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	if !validIdentifier.MatchString(table) {
		return false, fmt.Errorf("invalid table name: %s", table)
	}
	i, err := s.inspector()
	if err != nil {
		return false, err
	}

	query, args, err := i.tableExists(s.qb, table).ToSql()
	if err != nil {
		return false, err
	}

	var n int
	if err := s.runner().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return n > 0, nil
}

// MissingTables returns the tables that do not exist, in the given order.
func (s *Store) MissingTables(ctx context.Context, tables []string) ([]string, error) {
	var missing []string
	for _, table := range tables {
		exists, err := s.TableExists(ctx, table)
		if err != nil {
			return nil, err
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}

// ColumnNullable reports whether column currently accepts NULL.
func (s *Store) ColumnNullable(ctx context.Context, table, column string) (bool, error) {
	if err := validateIdentifiers(table, []string{column}); err != nil {
		return false, err
	}
	i, err := s.inspector()
	if err != nil {
		return false, err
	}

	query, args, err := i.columnNullable(s.qb, table, column).ToSql()
	if err != nil {
		return false, err
	}

	var nullable string
	if err := s.runner().QueryRowContext(ctx, query, args...).Scan(&nullable); err != nil {
		return false, fmt.Errorf("failed to inspect column %s.%s: %w", table, column, err)
	}
	return nullable == "YES", nil
}
