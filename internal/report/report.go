package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rana718/cargador/internal/seeder"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

const Version = "1.0"

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

// Print writes the final counts of a run.
func Print(w io.Writer, summary *seeder.Summary) {
	fmt.Fprintln(w)
	green.Fprintln(w, "🎉 Load completed")
	bold.Fprintln(w, "📊 Summary")
	fmt.Fprintln(w, "==================")

	for _, c := range summary.Counts() {
		if c.Table == "clase_has_sede" {
			fmt.Fprintf(w, "  %-16s %6d (attempts: %d)\n", c.Table, c.Rows, summary.LinkAttempts)
			continue
		}
		fmt.Fprintf(w, "  %-16s %6d\n", c.Table, c.Rows)
	}

	fmt.Fprintln(w)
	if summary.Relaxation == nil {
		yellow.Fprintln(w, "  relaxation: skipped")
	} else {
		fmt.Fprintf(w, "  relaxation: %d/%d statements applied\n", summary.RelaxApplied, len(summary.Relaxation))
	}
	fmt.Fprintf(w, "  duration:   %s\n", summary.Duration.Round(time.Millisecond))
}

// Mismatch is a table whose reported count differs from its COUNT(*).
type Mismatch struct {
	Table    string
	Reported int
	Actual   int64
}

// PrintVerification compares the reported counts with the counts read back
// from the database and returns the tables that differ.
func PrintVerification(w io.Writer, reported []seeder.TableCount, actual map[string]int64) []Mismatch {
	var mismatches []Mismatch

	fmt.Fprintln(w)
	bold.Fprintln(w, "🔍 Verification")
	for _, c := range reported {
		n, ok := actual[c.Table]
		switch {
		case !ok:
			yellow.Fprintf(w, "  ⚠️  %-16s not counted\n", c.Table)
		case n != int64(c.Rows):
			mismatches = append(mismatches, Mismatch{Table: c.Table, Reported: c.Rows, Actual: n})
			red.Fprintf(w, "  ❌ %-16s reported %d, found %d\n", c.Table, c.Rows, n)
		default:
			green.Fprintf(w, "  ✅ %-16s %d\n", c.Table, n)
		}
	}

	if len(mismatches) == 0 {
		green.Fprintln(w, "  All counts match")
	}
	return mismatches
}

// Document is the persisted form of a run summary.
type Document struct {
	Timestamp    string           `json:"timestamp" yaml:"timestamp"`
	Version      string           `json:"version" yaml:"version"`
	Provider     string           `json:"provider" yaml:"provider"`
	Target       string           `json:"target" yaml:"target"`
	Seed         int64            `json:"seed,omitempty" yaml:"seed,omitempty"`
	Tables       []TableEntry     `json:"tables" yaml:"tables"`
	LinkAttempts int              `json:"link_attempts" yaml:"link_attempts"`
	Relaxation   []RelaxationLine `json:"relaxation,omitempty" yaml:"relaxation,omitempty"`
	Duration     string           `json:"duration" yaml:"duration"`
}

type TableEntry struct {
	Name string `json:"name" yaml:"name"`
	Rows int    `json:"rows" yaml:"rows"`
}

type RelaxationLine struct {
	Statement string `json:"statement" yaml:"statement"`
	Applied   bool   `json:"applied" yaml:"applied"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Meta describes where a run went; it never carries credentials.
type Meta struct {
	Provider string
	Target   string
	Seed     int64
	Now      time.Time
}

func NewDocument(summary *seeder.Summary, meta Meta) Document {
	if meta.Now.IsZero() {
		meta.Now = time.Now()
	}

	doc := Document{
		Timestamp:    meta.Now.Format("2006-01-02 15:04:05"),
		Version:      Version,
		Provider:     meta.Provider,
		Target:       meta.Target,
		Seed:         meta.Seed,
		LinkAttempts: summary.LinkAttempts,
		Duration:     summary.Duration.Round(time.Millisecond).String(),
	}
	for _, c := range summary.Counts() {
		doc.Tables = append(doc.Tables, TableEntry{Name: c.Table, Rows: c.Rows})
	}
	for _, r := range summary.Relaxation {
		line := RelaxationLine{Statement: r.SQL, Applied: r.Applied}
		if r.Err != nil {
			line.Error = r.Err.Error()
		}
		doc.Relaxation = append(doc.Relaxation, line)
	}
	return doc
}

// WriteFile saves the document as JSON when path ends in .json and as YAML
// otherwise. Missing parent directories are created.
func WriteFile(path string, doc Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
