package seeder

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Rana718/cargador/internal/database"
	"github.com/fatih/color"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	faint  = color.New(color.Faint)
)

type Seeder struct {
	store Store
	opts  Options
	gen   *Generator
	out   io.Writer

	// nil means every nullable column may receive nulls
	nullable map[string]bool

	sedes      *IDs
	docentes   *IDs
	clases     *IDs
	matriculas *IDs
	alumnos    *IDs
}

func New(store Store, opts Options, out io.Writer) *Seeder {
	defaults := DefaultOptions()
	if opts.Rows <= 0 {
		opts.Rows = defaults.Rows
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaults.BatchSize
	}
	if opts.LinkAttemptFactor <= 0 {
		opts.LinkAttemptFactor = defaults.LinkAttemptFactor
	}
	if out == nil {
		out = os.Stdout
	}

	return &Seeder{
		store:      store,
		opts:       opts,
		gen:        NewGenerator(opts.Seed, opts.NullRatio, opts.CommonRatio, opts.Now),
		out:        out,
		sedes:      NewIDs(tableSede.name),
		docentes:   NewIDs(tableDocente.name),
		clases:     NewIDs(tableClase.name),
		matriculas: NewIDs(tableMatricula.name),
		alumnos:    NewIDs(tableAlumno.name),
	}
}

// Run relaxes the schema, populates the eight tables in dependency order and
// returns the final counts. Any error other than an expected duplicate link
// or a failed relaxation statement stops the run; rows committed before it
// stay in the store.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	if err := checkInsertionOrder(insertionOrder); err != nil {
		return summary, fmt.Errorf("invalid insertion order: %w", err)
	}

	if err := s.relax(ctx, summary); err != nil {
		return summary, err
	}

	cyan.Fprintf(s.out, "🌱 Inserting %d records per table. This may take a few minutes...\n", s.opts.Rows)

	steps := []struct {
		table table
		run   func(context.Context) (int, error)
		count *int
	}{
		{tableSede, s.seedSedes, &summary.Sedes},
		{tableDocente, s.seedDocentes, &summary.Docentes},
		{tableClase, s.seedClases, &summary.Clases},
		{tableMatricula, s.seedMatriculas, &summary.Matriculas},
		{tableAlumno, s.seedAlumnos, &summary.Alumnos},
		{tableClaseHasSede, func(ctx context.Context) (int, error) {
			inserted, attempts, err := s.seedClaseHasSede(ctx, s.clases, s.sedes)
			summary.LinkAttempts = attempts
			return inserted, err
		}, &summary.ClaseHasSede},
		{tablePago, s.seedPagos, &summary.Pagos},
		{tableAsistencia, s.seedAsistencias, &summary.Asistencias},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		n, err := step.run(ctx)
		*step.count = n
		if err != nil {
			return summary, fmt.Errorf("failed to seed table %s: %w", step.table.name, err)
		}
		if step.table.name == tableClaseHasSede.name {
			green.Fprintf(s.out, "  ✅ %s: %d relations (attempts: %d)\n", step.table.name, n, summary.LinkAttempts)
		} else {
			green.Fprintf(s.out, "  ✅ %s: %d rows\n", step.table.name, n)
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// checkInsertionOrder rejects a table list with a dependency cycle, a parent
// outside the list, or a child listed before one of its parents.
func checkInsertionOrder(tables []table) error {
	graph := NewDependencyGraph()
	names := make([]string, len(tables))
	for i, t := range tables {
		graph.AddTable(t)
		names[i] = t.name
	}

	order, err := graph.BuildInsertionOrder()
	if err != nil {
		return err
	}
	if len(order) != len(names) {
		return fmt.Errorf("%d tables reachable from the schema, %d listed", len(order), len(names))
	}
	return graph.ValidateOrder(names)
}

func (s *Seeder) relax(ctx context.Context, summary *Summary) error {
	if s.opts.SkipRelax {
		yellow.Fprintln(s.out, "⚠️  Schema relaxation skipped")
		if s.opts.GateNulls {
			s.nullable = s.alreadyNullable(ctx, map[string]bool{})
		}
		return nil
	}

	results := Relax(ctx, s.store, RelaxStatements(s.opts.Provider))
	summary.Relaxation = results
	summary.RelaxApplied = appliedCount(results)

	if s.opts.Verbose {
		for _, r := range results {
			if r.Applied {
				faint.Fprintf(s.out, "    applied: %s\n", r.SQL)
			} else {
				faint.Fprintf(s.out, "    skipped: %s (%v)\n", r.SQL, r.Err)
			}
		}
	}

	if summary.RelaxApplied > 0 {
		if err := s.store.Commit(ctx); err != nil {
			return err
		}
		cyan.Fprintf(s.out, "🔧 Relaxation statements applied: %d\n", summary.RelaxApplied)
	} else {
		yellow.Fprintln(s.out, "⚠️  No relaxation statements applied (missing privilege or already applied)")
	}

	if s.opts.GateNulls {
		s.nullable = s.alreadyNullable(ctx, relaxedColumns(results))
	}
	return nil
}

// alreadyNullable adds the columns that accept NULL without relaxation, when
// the store can inspect its schema. Lookup failures leave a column gated.
func (s *Seeder) alreadyNullable(ctx context.Context, cols map[string]bool) map[string]bool {
	inspector, ok := s.store.(ColumnInspector)
	if !ok {
		return cols
	}
	for _, target := range nullTargets {
		key := target.table + "." + target.column
		if cols[key] {
			continue
		}
		if nullable, err := inspector.ColumnNullable(ctx, target.table, target.column); err == nil && nullable {
			cols[key] = true
		}
	}
	return cols
}

// maybeNull applies the null policy to a nullable column, honoring null
// gating when it is enabled.
func (s *Seeder) maybeNull(t table, column string, v any) any {
	if s.nullable != nil && !s.nullable[t.name+"."+column] {
		return v
	}
	return s.gen.MaybeNull(v)
}

func requireRows(parents ...*IDs) error {
	for _, ids := range parents {
		if ids.Len() == 0 {
			return fmt.Errorf("no rows available in parent table %s", ids.Table())
		}
	}
	return nil
}

func (s *Seeder) sedeRow() []any {
	nombre := "Sede Principal"
	if !s.gen.Common() {
		nombre = "Sede " + s.gen.Text(4, 10)
	}
	ubicacion := s.maybeNull(tableSede, "ubicacion", "Ciudad "+s.gen.Choice(cities))
	return []any{nombre, ubicacion}
}

func (s *Seeder) docenteRow() []any {
	nombre := "Profesor Común"
	if !s.gen.Common() {
		nombre = s.gen.docenteName()
	}
	return []any{s.maybeNull(tableDocente, "nombre_docente", nombre)}
}

func (s *Seeder) claseRow() []any {
	var nombre string
	if s.gen.Common() {
		nombre = s.gen.Choice(sports)
	} else {
		nombre = s.gen.Text(6, 18)
	}
	return []any{s.maybeNull(tableClase, "nombre_clase", nombre), s.gen.Pick(s.docentes)}
}

func (s *Seeder) matriculaRow() []any {
	costo := MoneyFromUnits(100000)
	if !s.gen.Common() {
		costo = s.gen.Money(50000, 300000)
	}
	return []any{s.maybeNull(tableMatricula, "costo", costo), s.gen.Date(365*2, 0)}
}

func (s *Seeder) alumnoRow() []any {
	nombre := "Estudiante Test"
	if !s.gen.Common() {
		nombre = s.gen.alumnoName()
	}
	return []any{
		s.maybeNull(tableAlumno, "nombre_alumno", nombre),
		s.gen.Pick(s.matriculas),
		s.gen.Pick(s.sedes),
	}
}

func (s *Seeder) pagoRow() []any {
	fecha := s.gen.Date(365, 0)

	valor := MoneyFromUnits(50000)
	if !s.gen.Common() {
		valor = s.gen.Money(20000, 150000)
	}

	var periodo string
	if s.gen.Chance(0.85) {
		periodo = s.gen.Choice(periods)
	} else {
		periodo = s.gen.Text(4, 7)
	}

	return []any{
		fecha,
		s.maybeNull(tablePago, "valor_pago", valor),
		s.maybeNull(tablePago, "periodo", periodo),
		s.gen.Pick(s.alumnos),
	}
}

func (s *Seeder) asistenciaRow() []any {
	return []any{
		s.gen.Date(90, 0),
		s.gen.Pick(s.alumnos),
		s.gen.Pick(s.clases),
		s.gen.Pick(s.sedes),
	}
}

// seedTable inserts Rows rows one at a time, recording each generated id and
// committing every BatchSize rows.
func (s *Seeder) seedTable(ctx context.Context, t table, ids *IDs, row func() []any) (int, error) {
	cyan.Fprintf(s.out, "  📝 Seeding %s (%d records)...\n", t.name, s.opts.Rows)

	b := newBatcher(s.opts.BatchSize, s.store.Commit)
	for i := 0; i < s.opts.Rows; i++ {
		id, err := s.store.Insert(ctx, t.name, t.columns, row())
		if err != nil {
			return b.committed(ids.Len()), fmt.Errorf("failed to insert into %s: %w", t.name, err)
		}
		ids.Append(id)
		if err := b.Add(ctx); err != nil {
			return b.committed(ids.Len()), err
		}
	}
	if err := b.Finish(ctx); err != nil {
		return b.committed(ids.Len()), err
	}

	if s.opts.Verbose {
		faint.Fprintf(s.out, "    %d commits\n", b.flushes)
	}
	return ids.Len(), nil
}

func (s *Seeder) seedSedes(ctx context.Context) (int, error) {
	return s.seedTable(ctx, tableSede, s.sedes, s.sedeRow)
}

func (s *Seeder) seedDocentes(ctx context.Context) (int, error) {
	return s.seedTable(ctx, tableDocente, s.docentes, s.docenteRow)
}

func (s *Seeder) seedClases(ctx context.Context) (int, error) {
	if err := requireRows(s.docentes); err != nil {
		return 0, err
	}
	return s.seedTable(ctx, tableClase, s.clases, s.claseRow)
}

func (s *Seeder) seedMatriculas(ctx context.Context) (int, error) {
	return s.seedTable(ctx, tableMatricula, s.matriculas, s.matriculaRow)
}

func (s *Seeder) seedAlumnos(ctx context.Context) (int, error) {
	if err := requireRows(s.matriculas, s.sedes); err != nil {
		return 0, err
	}
	return s.seedTable(ctx, tableAlumno, s.alumnos, s.alumnoRow)
}

// seedClaseHasSede links random class/site pairs until Rows links exist or
// Rows*LinkAttemptFactor attempts were made. Duplicate pairs are skipped, so
// a small classes x sites product ends early with fewer links.
func (s *Seeder) seedClaseHasSede(ctx context.Context, clases, sedes *IDs) (int, int, error) {
	if err := requireRows(clases, sedes); err != nil {
		return 0, 0, err
	}
	cyan.Fprintf(s.out, "  📝 Seeding %s (%d records)...\n", tableClaseHasSede.name, s.opts.Rows)

	b := newBatcher(s.opts.BatchSize, s.store.Commit)
	maxAttempts := s.opts.Rows * s.opts.LinkAttemptFactor
	inserted, attempts := 0, 0

	for inserted < s.opts.Rows && attempts < maxAttempts {
		attempts++
		values := []any{s.gen.Pick(clases), s.gen.Pick(sedes)}

		outcome, err := s.store.InsertUnique(ctx, tableClaseHasSede.name, tableClaseHasSede.columns, values)
		if err != nil {
			return b.committed(inserted), attempts, fmt.Errorf("failed to insert into %s: %w", tableClaseHasSede.name, err)
		}
		if outcome == database.OutcomeSkipped {
			continue
		}

		inserted++
		if err := b.Add(ctx); err != nil {
			return b.committed(inserted), attempts, err
		}
	}

	if err := b.Finish(ctx); err != nil {
		return b.committed(inserted), attempts, err
	}
	return inserted, attempts, nil
}

// seedBatched generates Rows rows and writes them through multi-row inserts.
func (s *Seeder) seedBatched(ctx context.Context, t table, row func() []any) (int, error) {
	cyan.Fprintf(s.out, "  📝 Seeding %s (%d records, batched)...\n", t.name, s.opts.Rows)

	buf := newRowBuffer(s.store, t, s.opts.BatchSize)
	for i := 0; i < s.opts.Rows; i++ {
		if err := buf.Add(ctx, row()); err != nil {
			return buf.written, err
		}
	}
	if err := buf.Flush(ctx); err != nil {
		return buf.written, err
	}

	if s.opts.Verbose {
		faint.Fprintf(s.out, "    %d batches\n", buf.flushes)
	}
	return buf.written, nil
}

func (s *Seeder) seedPagos(ctx context.Context) (int, error) {
	if err := requireRows(s.alumnos); err != nil {
		return 0, err
	}
	return s.seedBatched(ctx, tablePago, s.pagoRow)
}

func (s *Seeder) seedAsistencias(ctx context.Context) (int, error) {
	if err := requireRows(s.alumnos, s.clases, s.sedes); err != nil {
		return 0, err
	}
	return s.seedBatched(ctx, tableAsistencia, s.asistenciaRow)
}
