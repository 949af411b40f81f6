// Package output renders consolidation results for the two audiences
// the tool has: machine-readable JSON for automation and plain text
// for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// ToJSON serializes v as JSON, indented when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// WriteReport writes the report as indented JSON to path, creating
// parent directories as needed.
func WriteReport(r *models.Report, path string) error {
	data, err := ToJSON(r, true)
	if err != nil {
		return fmt.Errorf("output: encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("output: write report: %w", err)
	}
	return nil
}

// Summary renders the report as a text block for the terminal.
func Summary(r *models.Report) string {
	var b strings.Builder

	elapsed := r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)
	fmt.Fprintf(&b, "Consolidation %s: %s in %s\n", r.RunID, r.Outcome, elapsed)

	if r.Error != "" {
		fmt.Fprintf(&b, "  error     %s\n", r.Error)
	}
	if r.MasterPath != "" {
		fmt.Fprintf(&b, "  master    %s\n", r.MasterPath)
	}
	if r.BackupPath != "" {
		fmt.Fprintf(&b, "  backup    %s\n", r.BackupPath)
	}

	fmt.Fprintf(&b, "  files     %d consolidated of %d discovered, %d skipped\n",
		r.FilesConsolidated, r.FilesDiscovered, len(r.Skipped))
	fmt.Fprintf(&b, "  rows      %s read, %s written, %s duplicates removed\n",
		humanize.Comma(int64(r.RowsRead)), humanize.Comma(int64(r.RowsWritten)),
		humanize.Comma(int64(r.DuplicatesRemoved)))
	fmt.Fprintf(&b, "  styles    %d registered, %d collapsed\n",
		r.StylesRegistered, r.StylesCollapsed)
	fmt.Fprintf(&b, "  formulas  %d rewritten, %d downgraded\n",
		r.FormulasRewritten, r.FormulasDowngraded)
	fmt.Fprintf(&b, "  rules     %d in, %d out\n", r.RulesIn, r.RulesOut)

	if len(r.Skipped) > 0 {
		b.WriteString("\nSkipped:\n")
		w := tabwriter.NewWriter(&b, 2, 2, 2, ' ', 0)
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", s.Name, s.Reason, s.Detail)
		}
		w.Flush()
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, wn := range r.Warnings {
			b.WriteString("  [" + string(wn.Code) + "]")
			if wn.Source != "" {
				b.WriteString(" " + wn.Source)
			}
			if wn.Cell != "" {
				b.WriteString(" " + wn.Cell)
			}
			if wn.Detail != "" {
				b.WriteString(": " + wn.Detail)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Sources renders a scan listing: accepted files first, then the
// skipped ones with their reasons.
func Sources(refs []models.SourceRef, skipped []models.SkippedFile) string {
	var b strings.Builder

	if len(refs) == 0 && len(skipped) == 0 {
		return "no subordinate spreadsheets found\n"
	}

	if len(refs) > 0 {
		w := tabwriter.NewWriter(&b, 2, 2, 2, ' ', 0)
		for _, ref := range refs {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				ref.Name, humanize.Bytes(uint64(ref.Size)), humanize.Time(ref.ModTime))
		}
		w.Flush()
	}
	if len(skipped) > 0 {
		b.WriteString("\nSkipped:\n")
		w := tabwriter.NewWriter(&b, 2, 2, 2, ' ', 0)
		for _, s := range skipped {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", s.Name, s.Reason, s.Detail)
		}
		w.Flush()
	}
	return b.String()
}

// Backups renders backup records the way List returns them, newest
// first.
func Backups(records []models.BackupRecord) string {
	if len(records) == 0 {
		return "no backups\n"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 2, 2, 2, ' ', 0)
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			filepath.Base(rec.Path), humanize.Bytes(uint64(rec.Size)), humanize.Time(rec.CreatedAt))
	}
	w.Flush()
	return b.String()
}
