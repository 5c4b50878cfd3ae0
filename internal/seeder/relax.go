package seeder

import "context"

// RelaxStatement widens or un-NULLs one column.
type RelaxStatement struct {
	Table  string
	Column string
	SQL    string
}

type RelaxResult struct {
	RelaxStatement
	Applied bool
	Err     error
}

var mysqlRelaxStatements = []RelaxStatement{
	{"sede", "nombre_sede", "ALTER TABLE sede MODIFY nombre_sede VARCHAR(100) NULL"},
	{"sede", "ubicacion", "ALTER TABLE sede MODIFY ubicacion VARCHAR(45) NULL"},
	{"docente", "nombre_docente", "ALTER TABLE docente MODIFY nombre_docente VARCHAR(45) NULL"},
	{"clase", "nombre_clase", "ALTER TABLE clase MODIFY nombre_clase VARCHAR(45) NULL"},
	{"alumno", "nombre_alumno", "ALTER TABLE alumno MODIFY nombre_alumno VARCHAR(45) NULL"},
	{"matricula", "costo", "ALTER TABLE matricula MODIFY costo DECIMAL(10,2) NULL"},
	{"pago", "periodo", "ALTER TABLE pago MODIFY periodo VARCHAR(7) NULL"},
	{"pago", "valor_pago", "ALTER TABLE pago MODIFY valor_pago DECIMAL(10,2) NULL"},
	{"pago", "fecha", "ALTER TABLE pago MODIFY fecha DATETIME NULL"},
	{"asistencia", "fecha", "ALTER TABLE asistencia MODIFY fecha DATETIME NULL"},
}

var postgresRelaxStatements = []RelaxStatement{
	{"sede", "nombre_sede", "ALTER TABLE sede ALTER COLUMN nombre_sede TYPE VARCHAR(100), ALTER COLUMN nombre_sede DROP NOT NULL"},
	{"sede", "ubicacion", "ALTER TABLE sede ALTER COLUMN ubicacion DROP NOT NULL"},
	{"docente", "nombre_docente", "ALTER TABLE docente ALTER COLUMN nombre_docente DROP NOT NULL"},
	{"clase", "nombre_clase", "ALTER TABLE clase ALTER COLUMN nombre_clase DROP NOT NULL"},
	{"alumno", "nombre_alumno", "ALTER TABLE alumno ALTER COLUMN nombre_alumno DROP NOT NULL"},
	{"matricula", "costo", "ALTER TABLE matricula ALTER COLUMN costo TYPE DECIMAL(10,2), ALTER COLUMN costo DROP NOT NULL"},
	{"pago", "periodo", "ALTER TABLE pago ALTER COLUMN periodo DROP NOT NULL"},
	{"pago", "valor_pago", "ALTER TABLE pago ALTER COLUMN valor_pago TYPE DECIMAL(10,2), ALTER COLUMN valor_pago DROP NOT NULL"},
	{"pago", "fecha", "ALTER TABLE pago ALTER COLUMN fecha DROP NOT NULL"},
	{"asistencia", "fecha", "ALTER TABLE asistencia ALTER COLUMN fecha DROP NOT NULL"},
}

// RelaxStatements returns the schema relaxation for a provider. SQLite cannot
// alter column constraints, so it gets none.
func RelaxStatements(provider string) []RelaxStatement {
	switch provider {
	case "mysql":
		return mysqlRelaxStatements
	case "postgresql", "postgres":
		return postgresRelaxStatements
	default:
		return nil
	}
}

// Relax attempts every statement independently. A failing statement (missing
// privilege, already applied) is recorded and never stops the others.
func Relax(ctx context.Context, store Store, stmts []RelaxStatement) []RelaxResult {
	results := make([]RelaxResult, 0, len(stmts))
	for _, stmt := range stmts {
		err := store.Exec(ctx, stmt.SQL)
		results = append(results, RelaxResult{
			RelaxStatement: stmt,
			Applied:        err == nil,
			Err:            err,
		})
	}
	return results
}

func appliedCount(results []RelaxResult) int {
	n := 0
	for _, r := range results {
		if r.Applied {
			n++
		}
	}
	return n
}

// relaxedColumns maps "table.column" to true for every applied statement.
func relaxedColumns(results []RelaxResult) map[string]bool {
	cols := make(map[string]bool)
	for _, r := range results {
		if r.Applied {
			cols[r.Table+"."+r.Column] = true
		}
	}
	return cols
}
