package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
	"github.com/openscholia/sms-api/pkg/storage"
)

type fakeBackupStore struct {
	dump        *models.StoreDump
	dumpCalls   int
	restored    []*models.StoreDump
	restoreErr  error
	dumpFailure error
}

func (f *fakeBackupStore) DumpAll(_ context.Context) (*models.StoreDump, error) {
	f.dumpCalls++
	if f.dumpFailure != nil {
		return nil, f.dumpFailure
	}
	if f.dump != nil {
		return f.dump, nil
	}
	return &models.StoreDump{Version: models.StoreDumpVersion}, nil
}

func (f *fakeBackupStore) RestoreAll(_ context.Context, dump *models.StoreDump) error {
	if f.restoreErr != nil {
		return f.restoreErr
	}
	f.restored = append(f.restored, dump)
	return nil
}

type fakeVault struct {
	real       *storage.BackupVault
	files      map[string][]byte
	written    []string
	readCalls  int
	listResult []storage.BackupFileInfo
}

func newFakeVault(t *testing.T) *fakeVault {
	t.Helper()
	real, err := storage.NewBackupVault(t.TempDir())
	require.NoError(t, err)
	return &fakeVault{real: real, files: make(map[string][]byte)}
}

func (f *fakeVault) Validate(filename string) error {
	return f.real.Validate(filename)
}

func (f *fakeVault) Write(filename string, data []byte) (storage.BackupFileInfo, error) {
	f.files[filename] = data
	f.written = append(f.written, filename)
	return storage.BackupFileInfo{Filename: filename, SizeBytes: int64(len(data))}, nil
}

func (f *fakeVault) Read(filename string) ([]byte, error) {
	f.readCalls++
	data, ok := f.files[filename]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "backup not found")
	}
	return data, nil
}

func (f *fakeVault) List() ([]storage.BackupFileInfo, error) {
	return f.listResult, nil
}

func (f *fakeVault) Dir() string { return "./backups" }

func fixedClock() func() time.Time {
	at := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestBackupCreatePreImportFilename(t *testing.T) {
	store := &fakeBackupStore{}
	vault := newFakeVault(t)
	svc := NewBackupService(store, vault, nil, nil, zap.NewNop())
	svc.now = fixedClock()

	name, err := svc.CreatePreImport(context.Background(), "2025-Spring")

	require.NoError(t, err)
	assert.Equal(t, "pre_import_backup_2025-Spring_20250901_120000.backup", name)
	assert.Equal(t, 1, store.dumpCalls)
	require.Len(t, vault.written, 1)

	var dump models.StoreDump
	require.NoError(t, json.Unmarshal(vault.files[name], &dump))
	assert.Equal(t, models.StoreDumpVersion, dump.Version)
}

func TestBackupCreatePreImportSanitizesSemester(t *testing.T) {
	svc := NewBackupService(&fakeBackupStore{}, newFakeVault(t), nil, nil, zap.NewNop())
	svc.now = fixedClock()

	name, err := svc.CreatePreImport(context.Background(), "2025/Spring Term")

	require.NoError(t, err)
	assert.Equal(t, "pre_import_backup_2025_Spring_Term_20250901_120000.backup", name)
}

func TestRollbackRejectsUnsafeFilenamesBeforeAnyFileAccess(t *testing.T) {
	store := &fakeBackupStore{}
	vault := newFakeVault(t)
	svc := NewBackupService(store, vault, nil, nil, zap.NewNop())

	cases := []string{
		"../../etc/passwd",
		"backup/../../../tmp/x.backup",
		"nested/dir.backup",
		"snapshot.txt",
		"bad name.backup",
		"",
	}
	for _, name := range cases {
		_, err := svc.Rollback(context.Background(), name)
		require.Error(t, err, "filename %q", name)
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code, "filename %q", name)
	}
	assert.Zero(t, vault.readCalls)
	assert.Zero(t, store.dumpCalls)
	assert.Empty(t, store.restored)
}

func TestRollbackRestoresDumpAndTakesSafetyBackup(t *testing.T) {
	dump := models.StoreDump{
		Version:  models.StoreDumpVersion,
		Students: []models.Student{{ID: "s-1", StudentID: "S001"}},
		Courses:  []models.Course{{ID: "c-1", CourseCode: "MATH101"}},
	}
	payload, err := json.Marshal(dump)
	require.NoError(t, err)

	store := &fakeBackupStore{}
	vault := newFakeVault(t)
	vault.files["pre_import_backup_2025-Spring_20250810_090000.backup"] = payload
	svc := NewBackupService(store, vault, nil, nil, zap.NewNop())
	svc.now = fixedClock()

	result, err := svc.Rollback(context.Background(), "pre_import_backup_2025-Spring_20250810_090000.backup")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "pre_import_backup_2025-Spring_20250810_090000.backup", result.BackupFile)
	assert.Equal(t, "pre_rollback_backup_20250901_120000.backup", result.SafetyBackup)
	assert.Equal(t, 1, result.RestoredCounts["students"])
	assert.Equal(t, 1, result.RestoredCounts["courses"])

	// Safety snapshot lands in the vault before the restore happens.
	require.Len(t, vault.written, 1)
	assert.Equal(t, result.SafetyBackup, vault.written[0])
	require.Len(t, store.restored, 1)
	assert.Equal(t, "MATH101", store.restored[0].Courses[0].CourseCode)
}

func TestRollbackRejectsUnsupportedDumpVersion(t *testing.T) {
	store := &fakeBackupStore{}
	vault := newFakeVault(t)
	vault.files["old.backup"] = []byte(`{"version":"0.9"}`)
	svc := NewBackupService(store, vault, nil, nil, zap.NewNop())

	_, err := svc.Rollback(context.Background(), "old.backup")

	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Zero(t, store.dumpCalls)
	assert.Empty(t, store.restored)
}

func TestRollbackRejectsCorruptArtifact(t *testing.T) {
	store := &fakeBackupStore{}
	vault := newFakeVault(t)
	vault.files["corrupt.backup"] = []byte("not json")
	svc := NewBackupService(store, vault, nil, nil, zap.NewNop())

	_, err := svc.Rollback(context.Background(), "corrupt.backup")

	require.Error(t, err)
	assert.Empty(t, store.restored)
}
