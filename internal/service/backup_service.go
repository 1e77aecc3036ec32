package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/chapter-participation-api/internal/dto"
	"github.com/noah-isme/chapter-participation-api/pkg/config"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
	"github.com/noah-isme/chapter-participation-api/pkg/jobs"
	"github.com/noah-isme/chapter-participation-api/pkg/storage"
)

const backupJobType = "database_backup"

// BackupFunc copies the live database to destination.
type BackupFunc func(ctx context.Context, destination string) error

type backupQueue interface {
	Enqueue(job jobs.Job) (string, error)
	Status(id string) (jobs.Status, bool)
}

type backupStorage interface {
	Path(filename string) (string, error)
	List(suffix string) ([]storage.FileInfo, error)
	Delete(filename string) error
}

type backupPayload struct {
	Filename string
}

// BackupConfig names the database being copied.
type BackupConfig struct {
	DatabaseName string
	Driver       string
}

// BackupService runs database backups on a background queue.
type BackupService struct {
	backup  BackupFunc
	storage backupStorage
	queue   backupQueue
	metrics *MetricsService
	logger  *zap.Logger
	cfg     BackupConfig
	now     func() time.Time
	suffix  func() string
}

// NewBackupService constructs the service. Call AttachQueue before Enqueue.
func NewBackupService(backup BackupFunc, storage backupStorage, cfg BackupConfig, metrics *MetricsService, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		backup:  backup,
		storage: storage,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		suffix:  func() string { return uuid.NewString()[:8] },
	}
}

// AttachQueue sets the queue that runs Handle.
func (s *BackupService) AttachQueue(queue backupQueue) {
	s.queue = queue
}

// Database reports which database backups are taken from.
func (s *BackupService) Database() dto.DatabaseInfo {
	return dto.DatabaseInfo{Driver: s.cfg.Driver, Filename: s.cfg.DatabaseName}
}

// Enqueue schedules a backup to a fresh file named after the database, the
// UTC time and a random suffix, so requests within one second never collide.
func (s *BackupService) Enqueue(ctx context.Context) (*dto.BackupJobResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnsupported, "backups are not enabled")
	}
	if s.cfg.Driver != config.DriverSQLite {
		return nil, appErrors.Clone(appErrors.ErrUnsupported, "backups require the sqlite driver")
	}
	filename := fmt.Sprintf("%s-backup-%s-%s.db", baseName(s.cfg.DatabaseName), s.now().UTC().Format("20060102T150405Z"), s.suffix())
	id, err := s.queue.Enqueue(jobs.Job{Type: backupJobType, Payload: backupPayload{Filename: filename}})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule backup")
	}
	s.logger.Info("backup scheduled", zap.String("job_id", id), zap.String("filename", filename))
	return &dto.BackupJobResponse{JobID: id, Filename: filename, State: string(jobs.StateQueued)}, nil
}

// Status returns the last known state of a backup job.
func (s *BackupService) Status(id string) (jobs.Status, error) {
	if s.queue == nil {
		return jobs.Status{}, appErrors.Clone(appErrors.ErrNotFound, "backup job not found")
	}
	status, ok := s.queue.Status(id)
	if !ok {
		return jobs.Status{}, appErrors.Clone(appErrors.ErrNotFound, "backup job not found")
	}
	return status, nil
}

// List returns existing backups, newest first.
func (s *BackupService) List() ([]dto.BackupFile, error) {
	files, err := s.storage.List(".db")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list backups")
	}
	result := make([]dto.BackupFile, 0, len(files))
	for _, file := range files {
		result = append(result, dto.BackupFile{Filename: file.Name, SizeBytes: file.SizeBytes, CreatedAt: file.ModifiedAt})
	}
	return result, nil
}

// Handle is the queue handler performing one backup attempt. A retry first
// removes whatever the failed attempt left at the destination.
func (s *BackupService) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(backupPayload)
	if !ok {
		s.metrics.RecordBackup("failed")
		return fmt.Errorf("unexpected backup payload %T", job.Payload)
	}
	destination, err := s.storage.Path(payload.Filename)
	if err != nil {
		s.metrics.RecordBackup("failed")
		return err
	}
	if job.Attempt > 0 {
		if err := s.storage.Delete(payload.Filename); err != nil {
			s.metrics.RecordBackup("failed")
			return fmt.Errorf("remove partial backup: %w", err)
		}
	}
	if err := s.backup(ctx, destination); err != nil {
		s.metrics.RecordBackup("failed")
		s.logger.Warn("backup attempt failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt+1), zap.Error(err))
		return err
	}
	s.metrics.RecordBackup("succeeded")
	s.logger.Info("backup written", zap.String("job_id", job.ID), zap.String("file", filepath.Base(destination)))
	return nil
}
