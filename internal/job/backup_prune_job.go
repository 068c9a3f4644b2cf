package job

import (
	"context"
	"time"

	"github.com/shelfmark/shelfmark/internal/service"
)

// BackupPruneJob deletes expired backups through the service so that stored
// blobs go away together with their records.
type BackupPruneJob struct {
	backups    *service.BackupService
	maxAgeDays int
}

func NewBackupPruneJob(backups *service.BackupService, maxAgeDays int) *BackupPruneJob {
	return &BackupPruneJob{backups: backups, maxAgeDays: maxAgeDays}
}

func (j *BackupPruneJob) Name() string {
	return "backup_prune"
}

func (j *BackupPruneJob) Run(ctx context.Context) error {
	if j.backups == nil {
		return nil
	}
	maxAgeDays := j.maxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	cutoff := time.Now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour).Unix()
	_, err := j.backups.PruneOlderThan(ctx, cutoff)
	return err
}
