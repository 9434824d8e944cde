package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
	"github.com/openscholia/sms-api/pkg/storage"
)

// BackupStore snapshots and restores the whole persistent store.
type BackupStore interface {
	DumpAll(ctx context.Context) (*models.StoreDump, error)
	RestoreAll(ctx context.Context, dump *models.StoreDump) error
}

// BackupVault is the artifact directory the snapshots live in.
type BackupVault interface {
	Validate(filename string) error
	Write(filename string, data []byte) (storage.BackupFileInfo, error)
	Read(filename string) ([]byte, error)
	List() ([]storage.BackupFileInfo, error)
	Dir() string
}

// BackupService produces pre-import and pre-rollback store snapshots and
// restores them. The import pipeline only sees the sink interface, so it
// stays agnostic to how the store is persisted.
type BackupService struct {
	store   BackupStore
	vault   BackupVault
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewBackupService constructs a backup service.
func NewBackupService(store BackupStore, vault BackupVault, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{store: store, vault: vault, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// CreatePreImport snapshots the store before a session import.
func (s *BackupService) CreatePreImport(ctx context.Context, semester string) (string, error) {
	name := fmt.Sprintf("pre_import_backup_%s_%s.backup", sanitizeLabel(semester), s.now().UTC().Format("20060102_150405"))
	return s.create(ctx, name, storage.BackupKindPreImport)
}

// CreatePreRollback snapshots the store before a restore overwrites it.
func (s *BackupService) CreatePreRollback(ctx context.Context) (string, error) {
	name := fmt.Sprintf("pre_rollback_backup_%s.backup", s.now().UTC().Format("20060102_150405"))
	return s.create(ctx, name, storage.BackupKindPreRollback)
}

func (s *BackupService) create(ctx context.Context, filename, kind string) (string, error) {
	dump, err := s.store.DumpAll(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot store: %w", err)
	}
	payload, err := json.Marshal(dump)
	if err != nil {
		return "", fmt.Errorf("serialize snapshot: %w", err)
	}
	info, err := s.vault.Write(filename, payload)
	if err != nil {
		return "", err
	}
	s.metrics.RecordBackup(kind)
	s.logger.Info("store backup created",
		zap.String("filename", info.Filename),
		zap.Int64("size_bytes", info.SizeBytes))
	return info.Filename, nil
}

// List enumerates stored backup artifacts, newest first.
func (s *BackupService) List() ([]storage.BackupFileInfo, error) {
	return s.vault.List()
}

// Rollback validates the requested artifact, snapshots the current store to
// a pre-rollback backup, then restores the artifact atomically.
func (s *BackupService) Rollback(ctx context.Context, filename string) (*models.RollbackResult, error) {
	if err := s.vault.Validate(filename); err != nil {
		return nil, err
	}

	data, err := s.vault.Read(filename)
	if err != nil {
		return nil, err
	}
	var dump models.StoreDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "backup artifact is not a valid store dump")
	}
	if dump.Version != models.StoreDumpVersion {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported backup version %q", dump.Version))
	}

	safety, err := s.CreatePreRollback(ctx)
	if err != nil {
		return nil, fmt.Errorf("create pre-rollback backup: %w", err)
	}

	if err := s.store.RestoreAll(ctx, &dump); err != nil {
		return nil, fmt.Errorf("restore backup %s: %w", filename, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "analytics:*"); err != nil {
			s.logger.Warn("invalidate analytics cache", zap.Error(err))
		}
	}

	s.logger.Info("store restored from backup",
		zap.String("filename", filename),
		zap.String("safety_backup", safety))
	return &models.RollbackResult{
		Success:        true,
		BackupFile:     filename,
		SafetyBackup:   safety,
		RestoredCounts: dump.RowCounts(),
		RestoredAt:     s.now().UTC(),
	}, nil
}

// sanitizeLabel maps arbitrary labels onto the backup filename alphabet.
func sanitizeLabel(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "store"
	}
	return b.String()
}
