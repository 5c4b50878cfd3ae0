package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Rana718/cargador/internal/config"
	"github.com/Rana718/cargador/internal/database"
	"github.com/Rana718/cargador/internal/prompt"
	"github.com/Rana718/cargador/internal/report"
	"github.com/Rana718/cargador/internal/seeder"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Insert synthetic rows into every table",
	Long: `Insert 1000 synthetic rows into each of the eight school tables, parents
before children, committing every 200 rows.

Before inserting, the loader tries to relax the schema so that the nullable
text, decimal and date columns accept NULL. Statements the account is not
allowed to run are skipped.

Connection values come from flags, CARGADOR_* environment variables, a
cargador.config.yaml/json file and, on a terminal, an interactive prompt.
Blank values fall back to root@localhost:3306/mydb.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if err := runLoad(cmd.Context(), out); err != nil {
			color.New(color.FgRed).Fprintf(out, "❌ Error during load: %v\n", err)
		}
		return nil
	},
}

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runLoad(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.Load.NoPrompt && !cfg.IsSQLite() && stdinIsTerminal() {
		if err := prompt.Run(cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	color.New(color.FgCyan).Fprintf(out, "🔌 Connecting to %s\n", cfg.Redacted())
	store, err := database.Open(ctx, cfg.Database.Provider, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	if err := store.SetPrimaryKey(cfg.Database.PrimaryKey); err != nil {
		return err
	}

	missing, err := store.MissingTables(ctx, seeder.TableNames())
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}

	opts := seeder.DefaultOptions()
	opts.Provider = cfg.Database.Provider
	opts.Seed = cfg.Load.Seed
	opts.GateNulls = cfg.Load.GateNulls
	opts.SkipRelax = cfg.Load.SkipRelax
	opts.Verbose = cfg.Load.Verbose

	summary, err := seeder.New(store, opts, out).Run(ctx)
	if err != nil {
		return err
	}

	report.Print(out, summary)

	if cfg.Load.Verify {
		actual := make(map[string]int64, len(seeder.TableNames()))
		for _, table := range seeder.TableNames() {
			n, err := store.Count(ctx, table)
			if err != nil {
				return err
			}
			actual[table] = n
		}
		report.PrintVerification(out, summary.Counts(), actual)
	}

	if cfg.Load.Report != "" {
		doc := report.NewDocument(summary, report.Meta{
			Provider: cfg.Database.Provider,
			Target:   cfg.Redacted(),
			Seed:     cfg.Load.Seed,
		})
		if err := report.WriteFile(cfg.Load.Report, doc); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(out, "📄 Report written to %s\n", cfg.Load.Report)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(loadCmd)

	flags := loadCmd.Flags()
	flags.String("provider", "", "database provider: mysql, postgresql or sqlite (default mysql)")
	flags.String("host", "", "database host (default localhost)")
	flags.Int("port", 0, "database port (default 3306, 5432 for postgresql)")
	flags.String("user", "", "database user (default root)")
	flags.String("password", "", "database password")
	flags.String("database", "", "database name, or file path for sqlite (default mydb)")
	flags.String("primary-key", "", "generated id column read back on postgresql (default id)")
	flags.Int64("seed", 0, "random seed; 0 picks one from the clock")
	flags.Bool("gate-nulls", false, "only write NULL into columns whose relaxation succeeded")
	flags.Bool("skip-relax", false, "do not try to relax the schema")
	flags.Bool("verify", false, "compare the reported counts with COUNT(*) after loading")
	flags.String("report", "", "write a YAML (or .json) run report to this path")
	flags.Bool("no-prompt", false, "never ask for connection values")
	flags.Bool("verbose", false, "print relaxation statements and commit counts")

	bindings := map[string]string{
		"database.provider":    "provider",
		"database.host":        "host",
		"database.port":        "port",
		"database.user":        "user",
		"database.password":    "password",
		"database.name":        "database",
		"database.primary_key": "primary-key",
		"load.seed":            "seed",
		"load.gate_nulls":      "gate-nulls",
		"load.skip_relax":      "skip-relax",
		"load.verify":          "verify",
		"load.report":          "report",
		"load.no_prompt":       "no-prompt",
		"load.verbose":         "verbose",
	}
	for key, flag := range bindings {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}
