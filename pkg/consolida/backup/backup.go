// Package backup keeps timestamped copies of the master workbook.
//
// A backup is taken before every overwrite of the master, named after
// the moment it was created. Copies are verified by reopening them as
// workbooks, so a backup that reports success can be restored.
package backup

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// stampLayout names backup files, filesystem safe on every platform.
const stampLayout = "2006-01-02_15-04-05"

// ErrNoBackups indicates the backup directory holds no backups for the
// requested file.
var ErrNoBackups = errors.New("no backups available")

// Manager copies the master into a backup directory before each
// overwrite and restores or prunes those copies on demand.
type Manager struct {
	dir string
	log *slog.Logger
}

// New creates a Manager storing backups under dir. A nil logger falls
// back to slog.Default().
func New(dir string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{dir: dir, log: log}
}

// Create copies the file at src into the backup directory under a
// timestamped name and verifies the copy before reporting success. A
// copy that cannot be opened as a workbook again is deleted and
// reported as an error.
func (m *Manager) Create(src string) (*models.BackupRecord, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}

	now := time.Now()
	base := filepath.Base(src)
	dst := filepath.Join(m.dir, now.Format(stampLayout)+"_"+base)
	if _, err := os.Stat(dst); err == nil {
		// Same-second collision; widen the name instead of overwriting
		// an existing backup.
		dst = filepath.Join(m.dir, now.Format(stampLayout)+"_"+uuid.NewString()[:8]+"_"+base)
	}

	size, sum, err := copyFile(src, dst)
	if err != nil {
		return nil, fmt.Errorf("backup: copy %s: %w", base, err)
	}
	if err := verifyCopy(dst, size, sum); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("backup: verify %s: %w", filepath.Base(dst), err)
	}

	rec := &models.BackupRecord{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		SourcePath: src,
		Path:       dst,
		Size:       size,
		Checksum:   sum,
	}
	m.log.Info("backup created", "path", dst, "size", size)
	return rec, nil
}

// List returns the backups of the named file, newest first. Records
// from a listing carry no id or checksum; those exist only on the
// record returned at creation time.
func (m *Manager) List(name string) ([]models.BackupRecord, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: %w", err)
	}

	var out []models.BackupRecord
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stamp, ok := parseStamp(entry.Name(), name)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, models.BackupRecord{
			CreatedAt: stamp,
			Path:      filepath.Join(m.dir, entry.Name()),
			Size:      info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Latest returns the newest backup of the named file.
func (m *Manager) Latest(name string) (*models.BackupRecord, error) {
	records, err := m.List(name)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("backup: %s: %w", name, ErrNoBackups)
	}
	return &records[0], nil
}

// Restore copies the backup at backupPath over target. When target
// already exists it is backed up first, so a restore never destroys
// state.
func (m *Manager) Restore(backupPath, target string) error {
	if err := verifyWorkbook(backupPath); err != nil {
		return fmt.Errorf("backup: restore source unreadable: %w", err)
	}
	if _, err := os.Stat(target); err == nil {
		if _, err := m.Create(target); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	if _, _, err := copyFile(backupPath, target); err != nil {
		return fmt.Errorf("backup: restore: %w", err)
	}
	m.log.Info("backup restored", "from", backupPath, "to", target)
	return nil
}

// Prune deletes backups older than retention, judged by the timestamp
// in the file name. It returns the number of files removed.
func (m *Manager) Prune(retention time.Duration) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("backup: %w", err)
	}

	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stamp, ok := anyStamp(entry.Name())
		if !ok || !stamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("backup: prune: %w", err)
		}
		removed++
	}
	if removed > 0 {
		m.log.Info("backups pruned", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}

// copyFile copies src to dst and returns the byte count and MD5 of the
// data written.
func copyFile(src, dst string) (int64, string, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, "", err
	}

	h := md5.New()
	size, err := io.Copy(io.MultiWriter(out, h), in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return 0, "", err
	}
	return size, hex.EncodeToString(h.Sum(nil)), nil
}

// verifyCopy proves a copy landed intact: the size and MD5 on disk
// must match what was written, and the copy must reopen as a workbook.
func verifyCopy(path string, size int64, sum string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() != size {
		return fmt.Errorf("size mismatch: wrote %d bytes, found %d", size, info.Size())
	}
	got, err := fileChecksum(path)
	if err != nil {
		return err
	}
	if got != sum {
		return errors.New("checksum mismatch after copy")
	}
	return verifyWorkbook(path)
}

// verifyWorkbook reopens a workbook to prove it is readable.
func verifyWorkbook(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// parseStamp extracts the timestamp of a backup of the named file.
func parseStamp(file, name string) (time.Time, bool) {
	if !strings.HasSuffix(file, "_"+name) {
		return time.Time{}, false
	}
	return anyStamp(file)
}

// anyStamp extracts the leading timestamp of a backup file name.
func anyStamp(file string) (time.Time, bool) {
	if len(file) < len(stampLayout)+1 || file[len(stampLayout)] != '_' {
		return time.Time{}, false
	}
	stamp, err := time.ParseInLocation(stampLayout, file[:len(stampLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return stamp, true
}
