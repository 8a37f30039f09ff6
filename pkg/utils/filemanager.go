// =============================================================================
// Abstract Preprocessor - File Manager Utility
// =============================================================================
//
// This module provides the file operations the batch driver needs:
//   - Discovering the XML documents of an issue folder
//   - Backing up originals before they are overwritten
//   - Replacing a file's contents without leaving a partial write
//
// BACKUP LAYOUT:
//   <backup_dir>/<issue>/<run id>/<file name>
//
//   Every run gets its own folder, so rerunning an issue never overwrites
//   the backups of an earlier run.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for one run.
type FileManager struct {
	// BackupDir is the root backup directory. Empty disables backups.
	BackupDir string

	// RunID identifies the run and names its backup folder.
	RunID string
}

// NewFileManager creates a FileManager with a fresh run id.
func NewFileManager(backupDir string) *FileManager {
	return &FileManager{
		BackupDir: backupDir,
		RunID:     uuid.New().String(),
	}
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverFiles returns the regular files in dir with the given extension
// (case-insensitive), sorted by name. Subdirectories are not scanned.
func DiscoverFiles(dir, extension string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), extension) {
			continue
		}
		result = append(result, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// BACKUPS
// =============================================================================

// Backup copies filePath into the run's backup folder for the given issue.
// It returns the backup path, or "" when backups are disabled.
func (fm *FileManager) Backup(issue, filePath string) (string, error) {
	if fm.BackupDir == "" {
		return "", nil
	}

	dir := filepath.Join(fm.BackupDir, issue, fm.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	target := filepath.Join(dir, filepath.Base(filePath))
	if err := copyFile(filePath, target); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", filePath, err)
	}
	return target, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// =============================================================================
// WRITING
// =============================================================================

// ReplaceFile writes data to a temporary file next to path and renames it
// over path, keeping the original file mode.
func ReplaceFile(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set mode of %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
