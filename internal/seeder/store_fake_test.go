package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rana718/cargador/internal/database"
)

// fakeStore keeps rows in memory, enforces foreign keys on columns named
// <parent>_id and the unique pair on clase_has_sede.
type fakeStore struct {
	rows      map[string][][]any
	ids       map[string]map[int64]bool
	nextID    map[string]int64
	links     map[[2]int64]bool
	commits   int
	batches   map[string]int
	execs     []string
	failExec  func(stmt string) bool
	failTable string
	failAfter int // successful writes into failTable before it starts failing
	writes    map[string]int
	fkErrors  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:    make(map[string][][]any),
		ids:     make(map[string]map[int64]bool),
		nextID:  make(map[string]int64),
		links:   make(map[[2]int64]bool),
		batches: make(map[string]int),
		writes:  make(map[string]int),
	}
}

var errFakeFailure = errors.New("fake: connection lost")

func (f *fakeStore) shouldFail(table string) bool {
	if table != f.failTable {
		return false
	}
	if f.writes[table] >= f.failAfter {
		return true
	}
	f.writes[table]++
	return false
}

func (f *fakeStore) checkForeignKeys(table string, columns []string, values []any) {
	for i, col := range columns {
		if !strings.HasSuffix(col, "_id") {
			continue
		}
		parent := strings.TrimSuffix(col, "_id")
		id, ok := values[i].(int64)
		if !ok || !f.ids[parent][id] {
			f.fkErrors = append(f.fkErrors, fmt.Sprintf("%s.%s=%v has no parent in %s", table, col, values[i], parent))
		}
	}
}

func (f *fakeStore) Insert(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	if f.shouldFail(table) {
		return 0, errFakeFailure
	}
	f.checkForeignKeys(table, columns, values)

	f.nextID[table]++
	id := f.nextID[table]
	if f.ids[table] == nil {
		f.ids[table] = make(map[int64]bool)
	}
	f.ids[table][id] = true
	f.rows[table] = append(f.rows[table], values)
	return id, nil
}

func (f *fakeStore) InsertUnique(ctx context.Context, table string, columns []string, values []any) (database.Outcome, error) {
	if f.shouldFail(table) {
		return database.OutcomeSkipped, errFakeFailure
	}
	f.checkForeignKeys(table, columns, values)

	key := [2]int64{values[0].(int64), values[1].(int64)}
	if f.links[key] {
		return database.OutcomeSkipped, nil
	}
	f.links[key] = true
	f.rows[table] = append(f.rows[table], values)
	return database.OutcomeInserted, nil
}

func (f *fakeStore) InsertMany(ctx context.Context, table string, columns []string, rows [][]any) error {
	if f.shouldFail(table) {
		return errFakeFailure
	}
	for _, row := range rows {
		f.checkForeignKeys(table, columns, row)
	}
	f.rows[table] = append(f.rows[table], rows...)
	f.batches[table]++
	return nil
}

func (f *fakeStore) Exec(ctx context.Context, stmt string) error {
	f.execs = append(f.execs, stmt)
	if f.failExec != nil && f.failExec(stmt) {
		return errors.New("fake: ALTER command denied")
	}
	return nil
}

func (f *fakeStore) Commit(ctx context.Context) error {
	f.commits++
	return nil
}

// column returns every value of one column of a table.
func (f *fakeStore) column(table, column string) []any {
	idx := -1
	for _, t := range insertionOrder {
		if t.name != table {
			continue
		}
		for i, c := range t.columns {
			if c == column {
				idx = i
			}
		}
	}
	if idx < 0 {
		panic("unknown column " + table + "." + column)
	}

	values := make([]any, 0, len(f.rows[table]))
	for _, row := range f.rows[table] {
		values = append(values, row[idx])
	}
	return values
}
