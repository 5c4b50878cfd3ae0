package seeder

import (
	"context"
	"time"

	"github.com/Rana718/cargador/internal/database"
)

const (
	Rows              = 1000 // target rows per table
	NullRatio         = 0.10
	CommonRatio       = 0.70
	BatchSize         = 200 // rows per durability checkpoint
	LinkAttemptFactor = 4   // clase_has_sede gives up after Rows*LinkAttemptFactor attempts
)

// Store is the persistence the generator writes through.
type Store interface {
	Insert(ctx context.Context, table string, columns []string, values []any) (int64, error)
	InsertUnique(ctx context.Context, table string, columns []string, values []any) (database.Outcome, error)
	InsertMany(ctx context.Context, table string, columns []string, rows [][]any) error
	Exec(ctx context.Context, stmt string) error
	Commit(ctx context.Context) error
}

// ColumnInspector is implemented by stores that can report whether a column
// accepts NULL. Null gating uses it to keep columns that were nullable before
// relaxation.
type ColumnInspector interface {
	ColumnNullable(ctx context.Context, table, column string) (bool, error)
}

type Options struct {
	Provider          string
	Rows              int
	BatchSize         int
	LinkAttemptFactor int
	NullRatio         float64
	CommonRatio       float64
	Seed              int64 // 0 = seeded from the clock
	GateNulls         bool  // only inject nulls into columns whose relaxation applied
	SkipRelax         bool
	Verbose           bool
	Now               func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Provider:          "mysql",
		Rows:              Rows,
		BatchSize:         BatchSize,
		LinkAttemptFactor: LinkAttemptFactor,
		NullRatio:         NullRatio,
		CommonRatio:       CommonRatio,
	}
}

// IDs is the ordered, append-only list of ids generated for one table.
type IDs struct {
	table  string
	values []int64
}

func NewIDs(table string) *IDs {
	return &IDs{table: table}
}

func (ids *IDs) Append(id int64) {
	ids.values = append(ids.values, id)
}

func (ids *IDs) Len() int {
	return len(ids.values)
}

func (ids *IDs) At(i int) int64 {
	return ids.values[i]
}

func (ids *IDs) Table() string {
	return ids.table
}

type table struct {
	name    string
	columns []string
	parents []string
}

var (
	tableSede         = table{name: "sede", columns: []string{"nombre_sede", "ubicacion"}}
	tableDocente      = table{name: "docente", columns: []string{"nombre_docente"}}
	tableClase        = table{name: "clase", columns: []string{"nombre_clase", "docente_id"}, parents: []string{"docente"}}
	tableMatricula    = table{name: "matricula", columns: []string{"costo", "fecha_pago"}}
	tableAlumno       = table{name: "alumno", columns: []string{"nombre_alumno", "matricula_id", "sede_id"}, parents: []string{"matricula", "sede"}}
	tableClaseHasSede = table{name: "clase_has_sede", columns: []string{"clase_id", "sede_id"}, parents: []string{"clase", "sede"}}
	tablePago         = table{name: "pago", columns: []string{"fecha", "valor_pago", "periodo", "alumno_id"}, parents: []string{"alumno"}}
	tableAsistencia   = table{name: "asistencia", columns: []string{"fecha", "alumno_id", "clase_id", "sede_id"}, parents: []string{"alumno", "clase", "sede"}}
)

// nullTargets are the columns the generator may write NULL into.
var nullTargets = []struct{ table, column string }{
	{"sede", "ubicacion"},
	{"docente", "nombre_docente"},
	{"clase", "nombre_clase"},
	{"matricula", "costo"},
	{"alumno", "nombre_alumno"},
	{"pago", "valor_pago"},
	{"pago", "periodo"},
}

// insertionOrder is the fixed order tables are populated in; every parent
// precedes its children.
var insertionOrder = []table{
	tableSede,
	tableDocente,
	tableClase,
	tableMatricula,
	tableAlumno,
	tableClaseHasSede,
	tablePago,
	tableAsistencia,
}

// TableNames returns the populated tables in insertion order.
func TableNames() []string {
	names := make([]string, len(insertionOrder))
	for i, t := range insertionOrder {
		names[i] = t.name
	}
	return names
}

type TableCount struct {
	Table string
	Rows  int
}

// Summary holds the final counts of one run.
type Summary struct {
	Sedes        int
	Docentes     int
	Clases       int
	Matriculas   int
	Alumnos      int
	ClaseHasSede int
	LinkAttempts int
	Pagos        int
	Asistencias  int
	RelaxApplied int
	Relaxation   []RelaxResult
	Duration     time.Duration
}

// Counts lists the row count of every table in insertion order.
func (s *Summary) Counts() []TableCount {
	return []TableCount{
		{Table: "sede", Rows: s.Sedes},
		{Table: "docente", Rows: s.Docentes},
		{Table: "clase", Rows: s.Clases},
		{Table: "matricula", Rows: s.Matriculas},
		{Table: "alumno", Rows: s.Alumnos},
		{Table: "clase_has_sede", Rows: s.ClaseHasSede},
		{Table: "pago", Rows: s.Pagos},
		{Table: "asistencia", Rows: s.Asistencias},
	}
}
