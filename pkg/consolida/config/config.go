// Package config loads the consolidation configuration: a YAML file
// with environment-variable overrides, defaulted and validated before
// anything touches the filesystem.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/consolida-dev/consolida/pkg/consolida/merge"
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "consolida.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONSOLIDA_"

const defaultConfigYAML = `# consolida configuration
# Every value can be overridden with a CONSOLIDA_* environment
# variable, e.g. CONSOLIDA_SUBORDINATES_DIR.

# Where subordinate spreadsheets are scanned.
subordinates_dir: dados/subordinadas

# Where the consolidated master is written.
master_dir: dados/mestre

# Where master backups are kept.
backup_dir: dados/backups

master_name: planilha_consolidada.xlsx
sheet_name: Consolidado

# Parallel extraction and row batching.
max_concurrent: 10
batch_size: 1000

# Subordinate acceptance limits.
min_rows: 2
max_file_size_mb: 100

# Backups older than this are removed by prune. 0 keeps them forever.
retention_days: 30

# Duplicate-row definition: mode full compares every cell value,
# mode keys compares the named columns only.
dedupe:
  mode: full
  # key_columns: [id]
`

// Config is the runtime configuration of a consolidation run.
type Config struct {
	// SubordinatesDir is where subordinate spreadsheets are scanned.
	SubordinatesDir string `yaml:"subordinates_dir"`
	// MasterDir is where the consolidated master is written.
	MasterDir string `yaml:"master_dir"`
	// BackupDir is where master backups are kept.
	BackupDir string `yaml:"backup_dir"`
	// MasterName is the master workbook file name.
	MasterName string `yaml:"master_name"`
	// SheetName is the master sheet name.
	SheetName string `yaml:"sheet_name"`
	// MaxConcurrent bounds parallel file extraction.
	MaxConcurrent int `yaml:"max_concurrent"`
	// BatchSize is the number of rows extracted per batch; it is also
	// the cancellation granularity.
	BatchSize int `yaml:"batch_size"`
	// MinRows is the minimum row count, header included, a subordinate
	// must have to be consolidated.
	MinRows int `yaml:"min_rows"`
	// MaxFileSizeMB is the maximum accepted subordinate file size.
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
	// RetentionDays is how long backups are kept by prune; 0 disables
	// pruning.
	RetentionDays int `yaml:"retention_days"`
	// Dedupe selects the duplicate-row definition.
	Dedupe merge.DedupePolicy `yaml:"dedupe"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SubordinatesDir: filepath.Join("dados", "subordinadas"),
		MasterDir:       filepath.Join("dados", "mestre"),
		BackupDir:       filepath.Join("dados", "backups"),
		MasterName:      "planilha_consolidada.xlsx",
		SheetName:       "Consolidado",
		MaxConcurrent:   10,
		BatchSize:       1000,
		MinRows:         2,
		MaxFileSizeMB:   100,
		RetentionDays:   30,
		Dedupe:          merge.DedupePolicy{Mode: merge.DedupeFullRow},
	}
}

// Load reads the configuration at path, falling back to the built-in
// defaults when the file does not exist, and applies environment
// overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.overlayEnv()
	cfg.applyDefaults()
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Ensure writes the default configuration to path when no file exists
// there yet.
func Ensure(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// MasterPath returns the full path of the master workbook.
func (c *Config) MasterPath() string {
	return filepath.Join(c.MasterDir, c.MasterName)
}

// MaxFileSize returns the size limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// EnsureDirs creates the subordinate, master and backup directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.SubordinatesDir, c.MasterDir, c.BackupDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) overlayEnv() {
	str := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("SUBORDINATES_DIR", &c.SubordinatesDir)
	str("MASTER_DIR", &c.MasterDir)
	str("BACKUP_DIR", &c.BackupDir)
	str("MASTER_NAME", &c.MasterName)
	str("SHEET_NAME", &c.SheetName)
	num("MAX_CONCURRENT", &c.MaxConcurrent)
	num("BATCH_SIZE", &c.BatchSize)
	num("MIN_ROWS", &c.MinRows)
	num("MAX_FILE_SIZE_MB", &c.MaxFileSizeMB)
	num("RETENTION_DAYS", &c.RetentionDays)
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.SubordinatesDir == "" {
		c.SubordinatesDir = def.SubordinatesDir
	}
	if c.MasterDir == "" {
		c.MasterDir = def.MasterDir
	}
	if c.BackupDir == "" {
		c.BackupDir = def.BackupDir
	}
	if c.MasterName == "" {
		c.MasterName = def.MasterName
	}
	if c.SheetName == "" {
		c.SheetName = def.SheetName
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.BatchSize == 0 {
		c.BatchSize = def.BatchSize
	}
	if c.MinRows == 0 {
		c.MinRows = def.MinRows
	}
	if c.MaxFileSizeMB == 0 {
		c.MaxFileSizeMB = def.MaxFileSizeMB
	}
	if c.Dedupe.Mode == "" {
		c.Dedupe.Mode = merge.DedupeFullRow
	}
}

func (c *Config) normalize() {
	c.SubordinatesDir = filepath.Clean(strings.TrimSpace(c.SubordinatesDir))
	c.MasterDir = filepath.Clean(strings.TrimSpace(c.MasterDir))
	c.BackupDir = filepath.Clean(strings.TrimSpace(c.BackupDir))
	c.MasterName = strings.TrimSpace(c.MasterName)
	c.SheetName = strings.TrimSpace(c.SheetName)
	for i, k := range c.Dedupe.KeyColumns {
		c.Dedupe.KeyColumns[i] = strings.TrimSpace(k)
	}
}

func (c *Config) validate() error {
	if !strings.EqualFold(filepath.Ext(c.MasterName), ".xlsx") {
		return fmt.Errorf("master_name %q must have the .xlsx extension", c.MasterName)
	}
	if c.SheetName == "" {
		return errors.New("sheet_name is required")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be >= 1, got %d", c.MaxConcurrent)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", c.BatchSize)
	}
	if c.MinRows < 1 {
		return fmt.Errorf("min_rows must be >= 1, got %d", c.MinRows)
	}
	if c.MaxFileSizeMB < 1 {
		return fmt.Errorf("max_file_size_mb must be >= 1, got %d", c.MaxFileSizeMB)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must be >= 0, got %d", c.RetentionDays)
	}
	switch c.Dedupe.Mode {
	case merge.DedupeFullRow:
	case merge.DedupeKeyColumns:
		if len(c.Dedupe.KeyColumns) == 0 {
			return errors.New(`dedupe mode "keys" needs at least one key column`)
		}
	default:
		return fmt.Errorf("unknown dedupe mode %q", c.Dedupe.Mode)
	}
	return nil
}
