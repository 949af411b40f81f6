package backup

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeMaster saves a small workbook at path with a marker value in
// A1.
func writeMaster(t *testing.T, path, marker string) {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", marker))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func md5OfFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func TestCreateBackup(t *testing.T) {
	dir := t.TempDir()
	master := filepath.Join(dir, "mestre", "planilha_consolidada.xlsx")
	writeMaster(t, master, "v1")

	m := New(filepath.Join(dir, "backups"), nil)
	rec, err := m.Create(master)
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, master, rec.SourcePath)
	assert.Equal(t, md5OfFile(t, master), rec.Checksum)
	assert.FileExists(t, rec.Path)

	info, err := os.Stat(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), rec.Size)
}

func TestCreateRejectsUnreadableCopy(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "quebrado.xlsx")
	require.NoError(t, os.WriteFile(junk, []byte("not a workbook"), 0o644))

	m := New(filepath.Join(dir, "backups"), nil)
	_, err := m.Create(junk)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	assert.Empty(t, entries, "failed backups leave nothing behind")
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"2026-01-01_10-00-00_m.xlsx",
		"2026-03-05_10-00-00_m.xlsx",
		"2026-02-01_10-00-00_outro.xlsx",
		"notas.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	m := New(dir, nil)
	records, err := m.List("m.xlsx")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, time.March, records[0].CreatedAt.Month())
	assert.Equal(t, time.January, records[1].CreatedAt.Month())
}

func TestListMissingDir(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "nao-existe"), nil)
	records, err := m.List("m.xlsx")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLatestWithoutBackups(t *testing.T) {
	m := New(t.TempDir(), nil)
	_, err := m.Latest("m.xlsx")
	assert.ErrorIs(t, err, ErrNoBackups)
}

func TestRestoreBacksUpCurrentFirst(t *testing.T) {
	dir := t.TempDir()
	master := filepath.Join(dir, "mestre", "m.xlsx")
	backups := filepath.Join(dir, "backups")
	m := New(backups, nil)

	writeMaster(t, master, "v1")
	v1sum := md5OfFile(t, master)
	rec, err := m.Create(master)
	require.NoError(t, err)

	writeMaster(t, master, "v2")
	require.NotEqual(t, v1sum, md5OfFile(t, master))

	require.NoError(t, m.Restore(rec.Path, master))
	assert.Equal(t, v1sum, md5OfFile(t, master), "master holds the restored bytes")

	records, err := m.List("m.xlsx")
	require.NoError(t, err)
	assert.Len(t, records, 2, "the overwritten master was backed up first")
}

func TestRestoreRejectsUnreadableBackup(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "2026-01-01_10-00-00_m.xlsx")
	require.NoError(t, os.WriteFile(junk, []byte("broken"), 0o644))

	m := New(dir, nil)
	err := m.Restore(junk, filepath.Join(dir, "m.xlsx"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "m.xlsx"))
}

func TestPruneByNameStamp(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().AddDate(0, 0, -40).Format(stampLayout)
	recent := time.Now().AddDate(0, 0, -3).Format(stampLayout)
	for _, name := range []string{
		old + "_m.xlsx",
		recent + "_m.xlsx",
		"avulso.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	m := New(dir, nil)
	removed, err := m.Prune(30 * 24 * time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, filepath.Join(dir, old+"_m.xlsx"))
	assert.FileExists(t, filepath.Join(dir, recent+"_m.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "avulso.txt"), "files without a stamp are never pruned")
}
