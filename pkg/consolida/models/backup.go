package models

import "time"

// BackupRecord describes one backup of the master document.
type BackupRecord struct {
	// ID uniquely identifies the backup.
	ID string `json:"id"`
	// CreatedAt is the backup creation time.
	CreatedAt time.Time `json:"created_at"`
	// SourcePath is the master file the backup was taken from.
	SourcePath string `json:"source_path"`
	// Path is the backup file location.
	Path string `json:"path"`
	// Size is the backup size in bytes.
	Size int64 `json:"size"`
	// Checksum is the MD5 hex digest of the backup content.
	Checksum string `json:"checksum"`
}
