package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Rana718/cargador/internal/database"
	"github.com/spf13/viper"
)

func setupLoadTest(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = prev })
}

func createSchoolDB(t *testing.T) string {
	t.Helper()

	schema, err := os.ReadFile(filepath.Join("testdata", "school_sqlite.sql"))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "school.db")
	store, err := database.Open(context.Background(), "sqlite", path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if err := store.Exec(context.Background(), string(schema)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return path
}

func TestLoadIntoSQLite(t *testing.T) {
	setupLoadTest(t)
	path := createSchoolDB(t)
	reportPath := filepath.Join(t.TempDir(), "run.yaml")

	viper.Set("database.provider", "sqlite")
	viper.Set("database.name", path+"?_foreign_keys=on")
	viper.Set("load.seed", 11)
	viper.Set("load.verify", true)
	viper.Set("load.report", reportPath)

	var out bytes.Buffer
	if err := runLoad(context.Background(), &out); err != nil {
		t.Fatalf("runLoad() failed: %v\n%s", err, out.String())
	}

	for _, want := range []string{"asistencia", "All counts match", "Report written"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(data), "clase_has_sede") {
		t.Errorf("report does not list the link table:\n%s", data)
	}
}

func TestLoadReportsErrorsWithoutFailing(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr string
	}{
		{
			name: "unsupported provider",
			setup: func(t *testing.T) {
				viper.Set("database.provider", "oracle")
			},
			wantErr: "unsupported database provider",
		},
		{
			name: "missing tables",
			setup: func(t *testing.T) {
				viper.Set("database.provider", "sqlite")
				viper.Set("database.name", filepath.Join(t.TempDir(), "empty.db"))
			},
			wantErr: "missing tables: sede, docente",
		},
		{
			name: "bad primary key column",
			setup: func(t *testing.T) {
				viper.Set("database.provider", "sqlite")
				viper.Set("database.name", filepath.Join(t.TempDir(), "empty.db"))
				viper.Set("database.primary_key", "id; DROP TABLE sede")
			},
			wantErr: "invalid primary key column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupLoadTest(t)
			tt.setup(t)

			var out bytes.Buffer
			loadCmd.SetOut(&out)
			defer loadCmd.SetOut(nil)

			if err := loadCmd.RunE(loadCmd, nil); err != nil {
				t.Fatalf("load should not fail the process, got %v", err)
			}
			if !strings.Contains(out.String(), "Error during load") || !strings.Contains(out.String(), tt.wantErr) {
				t.Errorf("expected error containing %q, got:\n%s", tt.wantErr, out.String())
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)
	if !strings.Contains(out.String(), Version) {
		t.Errorf("expected version %s, got %q", Version, out.String())
	}
}
