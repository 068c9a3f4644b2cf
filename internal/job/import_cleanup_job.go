package job

import (
	"context"
	"time"

	"github.com/shelfmark/shelfmark/internal/service"
)

// ImportCleanupJob drops old import sessions and their tracking rows. The
// imported bookmarks themselves are kept.
type ImportCleanupJob struct {
	imports *service.ImportService
	maxAge  time.Duration
}

func NewImportCleanupJob(imports *service.ImportService, maxAge time.Duration) *ImportCleanupJob {
	return &ImportCleanupJob{imports: imports, maxAge: maxAge}
}

func (j *ImportCleanupJob) Name() string {
	return "import_cleanup"
}

func (j *ImportCleanupJob) Run(ctx context.Context) error {
	if j.imports == nil {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge).Unix()
	_, err := j.imports.PruneSessionsBefore(ctx, cutoff)
	return err
}
