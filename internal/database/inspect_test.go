package database

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestMissingTables(t *testing.T) {
	s := openTestStore(t)

	missing, err := s.MissingTables(context.Background(), []string{"sede", "docente", "clase_has_sede", "pago"})
	if err != nil {
		t.Fatalf("MissingTables() failed: %v", err)
	}
	if want := []string{"docente", "pago"}; !reflect.DeepEqual(missing, want) {
		t.Errorf("got %v, want %v", missing, want)
	}
}

func TestTableExistsRejectsBadIdentifiers(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.TableExists(context.Background(), "sede; DROP TABLE sede"); err == nil {
		t.Fatal("expected an invalid table name error")
	}
}

func TestColumnNullable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		table    string
		column   string
		nullable bool
	}{
		{"sede", "ubicacion", true},
		{"sede", "nombre_sede", true},
		{"clase_has_sede", "clase_id", false},
	}

	for _, tt := range tests {
		got, err := s.ColumnNullable(ctx, tt.table, tt.column)
		if err != nil {
			t.Fatalf("ColumnNullable(%s, %s) failed: %v", tt.table, tt.column, err)
		}
		if got != tt.nullable {
			t.Errorf("ColumnNullable(%s, %s) = %v, want %v", tt.table, tt.column, got, tt.nullable)
		}
	}

	if _, err := s.ColumnNullable(ctx, "sede", "no_such_column"); err == nil {
		t.Error("expected an error for an unknown column")
	}
}

func TestInspectionQueries(t *testing.T) {
	tests := []struct {
		provider string
		want     []string
	}{
		{"mysql", []string{"FROM information_schema.columns", "table_schema = DATABASE()", "column_name = ?", "table_name = ?"}},
		{"postgres", []string{"FROM information_schema.columns", "table_schema = current_schema()", "$1", "$2"}},
	}

	for _, tt := range tests {
		d, err := DialectFor(tt.provider)
		if err != nil {
			t.Fatal(err)
		}
		s := NewStore(nil, d)
		i, err := s.inspector()
		if err != nil {
			t.Fatal(err)
		}
		query, args, err := i.columnNullable(s.qb, "pago", "fecha").ToSql()
		if err != nil {
			t.Fatal(err)
		}
		for _, part := range tt.want {
			if !strings.Contains(query, part) {
				t.Errorf("%s: query %q missing %q", tt.provider, query, part)
			}
		}
		if len(args) != 2 {
			t.Errorf("%s: expected 2 args, got %v", tt.provider, args)
		}
	}
}
