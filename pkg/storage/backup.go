package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// Backup artifact kinds by filename prefix.
const (
	BackupKindPreImport   = "pre_import"
	BackupKindPreRollback = "pre_rollback"
	BackupKindUnknown     = "unknown"
)

var (
	backupNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	backupExtensions  = map[string]struct{}{".db": {}, ".enc": {}, ".backup": {}}
)

// BackupFileInfo describes a stored backup artifact.
type BackupFileInfo struct {
	Filename  string    `json:"filename"`
	Kind      string    `json:"kind"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupVault stores backup artifacts in a flat directory and enforces the
// filename safety contract for every read and write.
type BackupVault struct {
	baseDir string
}

// NewBackupVault creates the backup directory and resolves it to an absolute,
// symlink-free path used for containment checks.
func NewBackupVault(dir string) (*BackupVault, error) {
	if dir == "" {
		dir = "./backups"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backups directory: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve backups directory: %w", err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return nil, fmt.Errorf("resolve backups directory: %w", err)
	}
	return &BackupVault{baseDir: abs}, nil
}

// Validate checks the filename against the safety contract: restricted
// character set, known extension, no traversal, no path separators, and a
// resolved path contained in the backup directory.
func (v *BackupVault) Validate(filename string) error {
	if filename == "" {
		return appErrors.Clone(appErrors.ErrValidation, "backup filename is required")
	}
	if strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return appErrors.Clone(appErrors.ErrValidation, "backup filename must not contain path separators or '..'")
	}
	if !backupNamePattern.MatchString(filename) {
		return appErrors.Clone(appErrors.ErrValidation, "backup filename contains unsupported characters")
	}
	if _, ok := backupExtensions[filepath.Ext(filename)]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, "backup filename must end in .db, .enc or .backup")
	}

	resolved := filepath.Join(v.baseDir, filename)
	if target, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = target
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "backup filename cannot be resolved")
	}
	if abs != v.baseDir && !strings.HasPrefix(abs, v.baseDir+string(os.PathSeparator)) {
		return appErrors.Clone(appErrors.ErrValidation, "backup filename escapes the backups directory")
	}
	return nil
}

// Write stores a backup artifact after validating the target name.
func (v *BackupVault) Write(filename string, data []byte) (BackupFileInfo, error) {
	if err := v.Validate(filename); err != nil {
		return BackupFileInfo{}, err
	}
	path := filepath.Join(v.baseDir, filename)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return BackupFileInfo{}, fmt.Errorf("write backup %s: %w", filename, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return BackupFileInfo{}, fmt.Errorf("stat backup %s: %w", filename, err)
	}
	return fileInfo(filename, info), nil
}

// Read loads a backup artifact after validating the name.
func (v *BackupVault) Read(filename string) ([]byte, error) {
	if err := v.Validate(filename); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(v.baseDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "backup not found")
		}
		return nil, fmt.Errorf("read backup %s: %w", filename, err)
	}
	return data, nil
}

// List enumerates stored artifacts, newest first.
func (v *BackupVault) List() ([]BackupFileInfo, error) {
	entries, err := os.ReadDir(v.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	infos := make([]BackupFileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if v.Validate(name) != nil {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo(name, stat))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

// Dir returns the absolute backups directory.
func (v *BackupVault) Dir() string {
	return v.baseDir
}

func fileInfo(name string, stat os.FileInfo) BackupFileInfo {
	kind := BackupKindUnknown
	switch {
	case strings.HasPrefix(name, "pre_import_backup_"):
		kind = BackupKindPreImport
	case strings.HasPrefix(name, "pre_rollback_backup_"):
		kind = BackupKindPreRollback
	}
	return BackupFileInfo{
		Filename:  name,
		Kind:      kind,
		SizeBytes: stat.Size(),
		CreatedAt: stat.ModTime().UTC(),
	}
}
