package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consolida-dev/consolida/pkg/consolida/merge"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "planilha_consolidada.xlsx", cfg.MasterName)
	assert.Equal(t, 10, cfg.MaxConcurrent)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, merge.DedupeFullRow, cfg.Dedupe.Mode)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consolida.yaml")
	body := `
subordinates_dir: /srv/planilhas
master_name: geral.xlsx
max_concurrent: 4
dedupe:
  mode: keys
  key_columns: [id, data]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/planilhas", cfg.SubordinatesDir)
	assert.Equal(t, "geral.xlsx", cfg.MasterName)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 1000, cfg.BatchSize, "unset values keep their defaults")
	assert.Equal(t, merge.DedupeKeyColumns, cfg.Dedupe.Mode)
	assert.Equal(t, []string{"id", "data"}, cfg.Dedupe.KeyColumns)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consolida.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrent: 4\n"), 0o644))

	t.Setenv("CONSOLIDA_MAX_CONCURRENT", "2")
	t.Setenv("CONSOLIDA_MASTER_NAME", "outro.xlsx")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, "outro.xlsx", cfg.MasterName)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad extension", "master_name: consolidado.csv\n", ".xlsx"},
		{"negative concurrency", "max_concurrent: -1\n", "max_concurrent"},
		{"negative retention", "retention_days: -7\n", "retention_days"},
		{"keys mode without columns", "dedupe:\n  mode: keys\n", "key column"},
		{"unknown dedupe mode", "dedupe:\n  mode: fuzzy\n", "dedupe mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "consolida.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			_, err := Load(path)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestEnsureWritesDefaultOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consolida.yaml")

	require.NoError(t, Ensure(path))
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "subordinates_dir:")

	// A second Ensure must not clobber edits.
	require.NoError(t, os.WriteFile(path, []byte("sheet_name: Geral\n"), 0o644))
	require.NoError(t, Ensure(path))
	kept, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sheet_name: Geral\n", string(kept))
}

func TestMasterPathAndSizeLimit(t *testing.T) {
	cfg := Default()
	cfg.MasterDir = "/srv/mestre"

	assert.Equal(t, filepath.Join("/srv/mestre", "planilha_consolidada.xlsx"), cfg.MasterPath())
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize())
}
