// Package scan discovers subordinate spreadsheets and validates them
// before extraction. Discovery is recursive and deterministic: results
// come back sorted by file name so consolidation order never depends
// on directory walk order. Validation rejects files that are too
// small, too large, unreadable, empty, or in the legacy OLE format,
// each with a coded reason for the run report.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// minFileSize is the smallest plausible workbook. Anything below this
// is a stub or a truncated upload.
const minFileSize = 1024

// Options bound what the scanner accepts.
type Options struct {
	// MaxFileSize is the largest accepted file in bytes.
	MaxFileSize int64
	// MinRows is the minimum row count, header included.
	MinRows int
}

// Result is the outcome of one scan.
type Result struct {
	// Refs lists the accepted files sorted by name.
	Refs []models.SourceRef
	// Skipped lists rejected files with coded reasons.
	Skipped []models.SkippedFile
}

// Scanner discovers and validates subordinate spreadsheets under a
// directory tree.
type Scanner struct {
	dir  string
	opts Options
	log  *slog.Logger
}

// New returns a Scanner rooted at dir.
func New(dir string, opts Options, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{dir: dir, opts: opts, log: log}
}

// Scan walks the subordinate directory and validates every candidate
// file. A missing directory is a fatal error; everything that is wrong
// with an individual file only lands in Result.Skipped.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	if info, err := os.Stat(s.dir); err != nil {
		return nil, fmt.Errorf("scan: subordinates directory %s: %w", s.dir, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("scan: %s is not a directory", s.dir)
	}

	res := &Result{}
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path != s.dir && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		// Hidden files and Excel lock files (~$...) are not candidates.
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
			return nil
		}

		switch strings.ToLower(filepath.Ext(name)) {
		case ".xlsx":
			s.checkWorkbook(path, name, res)
		case ".xls":
			s.checkLegacy(path, name, res)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan: walk %s: %w", s.dir, err)
	}

	sort.Slice(res.Refs, func(i, j int) bool {
		if res.Refs[i].Name != res.Refs[j].Name {
			return res.Refs[i].Name < res.Refs[j].Name
		}
		return res.Refs[i].Path < res.Refs[j].Path
	})

	s.log.Info("scan finished",
		slog.String("dir", s.dir),
		slog.Int("accepted", len(res.Refs)),
		slog.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// checkWorkbook validates one .xlsx candidate and appends it to the
// accepted refs or to the skip list.
func (s *Scanner) checkWorkbook(path, name string, res *Result) {
	info, err := os.Stat(path)
	if err != nil {
		s.skip(res, name, models.SkipCorrupted, err.Error())
		return
	}
	if info.Size() < minFileSize {
		s.skip(res, name, models.SkipTooSmall,
			fmt.Sprintf("%d bytes is below the %d byte minimum", info.Size(), minFileSize))
		return
	}
	if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
		s.skip(res, name, models.SkipTooLarge,
			fmt.Sprintf("%d bytes exceeds the %d byte limit", info.Size(), s.opts.MaxFileSize))
		return
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		s.skip(res, name, models.SkipCorrupted, err.Error())
		return
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		s.skip(res, name, models.SkipEmpty, "workbook has no sheets")
		return
	}
	n, err := countRows(f, sheets[0], s.opts.MinRows)
	if err != nil {
		s.skip(res, name, models.SkipCorrupted, err.Error())
		return
	}
	if n < s.opts.MinRows {
		s.skip(res, name, models.SkipEmpty,
			fmt.Sprintf("sheet %q has %d row(s), need at least %d", sheets[0], n, s.opts.MinRows))
		return
	}

	res.Refs = append(res.Refs, models.SourceRef{
		Name:    name,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

func (s *Scanner) skip(res *Result, name string, reason models.SkipReason, detail string) {
	s.log.Debug("skipping file",
		slog.String("file", name),
		slog.String("reason", string(reason)),
		slog.String("detail", detail),
	)
	res.Skipped = append(res.Skipped, models.SkippedFile{Name: name, Reason: reason, Detail: detail})
}

// countRows counts rows on sheet, stopping at limit.
func countRows(f *excelize.File, sheet string, limit int) (int, error) {
	it, err := f.Rows(sheet)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	for n < limit && it.Next() {
		n++
	}
	return n, it.Error()
}
