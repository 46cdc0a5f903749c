package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/village-api/internal/dto"
	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/pkg/config"
	appErrors "github.com/noah-isme/village-api/pkg/errors"
)

const maxBackupBytes = 32 << 20

type snapshotExchanger interface {
	ExportSnapshot(ctx context.Context, classID string) (*models.Snapshot, error)
	ImportSnapshot(ctx context.Context, classID string, snap *models.Snapshot) (*models.Snapshot, error)
}

// BackupService copies class snapshots to and from a remote endpoint. Every
// call is one attempt; failures are returned to the caller.
type BackupService struct {
	cfg     config.BackupConfig
	village snapshotExchanger
	client  *http.Client
	metrics *MetricsService
	logger  *zap.Logger
}

// NewBackupService constructs the backup client.
func NewBackupService(cfg config.BackupConfig, village snapshotExchanger, metrics *MetricsService, logger *zap.Logger) *BackupService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		cfg:     cfg,
		village: village,
		client:  &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// Enabled reports whether a remote endpoint is configured.
func (s *BackupService) Enabled() bool {
	return s != nil && s.cfg.Enabled()
}

func (s *BackupService) endpoint(classID string) string {
	return strings.TrimRight(s.cfg.URL, "/") + "/backups/" + url.PathEscape(classID)
}

func (s *BackupService) newRequest(ctx context.Context, method, classID string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.endpoint(classID), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
	return req, nil
}

// Upload sends the current snapshot of a class to the remote endpoint.
func (s *BackupService) Upload(ctx context.Context, classID string) (result *dto.BackupResult, err error) {
	if !s.Enabled() {
		return nil, appErrors.ErrBackupDisabled
	}
	defer func() { s.metrics.RecordBackup("upload", err) }()

	snap, err := s.village.ExportSnapshot(ctx, classID)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode snapshot")
	}

	req, err := s.newRequest(ctx, http.MethodPost, classID, bytes.NewReader(payload))
	if err != nil {
		return nil, backupFailure(err, "upload failed")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("backup upload failed", zap.String("class_id", classID), zap.Error(err))
		return nil, backupFailure(err, "upload failed")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("remote responded %d", resp.StatusCode)
		s.logger.Warn("backup upload rejected", zap.String("class_id", classID), zap.Int("status", resp.StatusCode))
		return nil, backupFailure(err, "upload failed")
	}

	s.logger.Info("backup uploaded", zap.String("class_id", classID), zap.Int("bytes", len(payload)))
	return &dto.BackupResult{ClassID: classID, Operation: "upload", Bytes: len(payload), UpdatedAt: snap.UpdatedAt}, nil
}

// Download fetches the remote snapshot of a class and replaces the local
// state with it.
func (s *BackupService) Download(ctx context.Context, classID string) (result *dto.BackupResult, err error) {
	if !s.Enabled() {
		return nil, appErrors.ErrBackupDisabled
	}
	defer func() { s.metrics.RecordBackup("download", err) }()

	req, err := s.newRequest(ctx, http.MethodGet, classID, nil)
	if err != nil {
		return nil, backupFailure(err, "download failed")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("backup download failed", zap.String("class_id", classID), zap.Error(err))
		return nil, backupFailure(err, "download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no remote backup for class")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, backupFailure(fmt.Errorf("remote responded %d", resp.StatusCode), "download failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBackupBytes))
	if err != nil {
		return nil, backupFailure(err, "download failed")
	}
	var snap models.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, backupFailure(err, "remote snapshot is not valid JSON")
	}

	imported, err := s.village.ImportSnapshot(ctx, classID, &snap)
	if err != nil {
		return nil, err
	}
	s.logger.Info("backup restored", zap.String("class_id", classID), zap.Int("bytes", len(body)))
	return &dto.BackupResult{ClassID: classID, Operation: "download", Bytes: len(body), UpdatedAt: imported.UpdatedAt}, nil
}

func backupFailure(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrBackupFailed.Code, appErrors.ErrBackupFailed.Status, message)
}
