package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/filestore"
	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/pkg/logutil"
	"github.com/shelfmark/shelfmark/internal/pkg/timeutil"
	"github.com/shelfmark/shelfmark/internal/repo"
)

type BackupStore interface {
	Create(ctx context.Context, b *model.Backup) error
	Get(ctx context.Context, userID, id string) (*model.Backup, error)
	ListByUser(ctx context.Context, userID string) ([]model.Backup, error)
	Update(ctx context.Context, userID, id string, update map[string]interface{}) error
	Delete(ctx context.Context, userID, id string) error
	ListOlderThan(ctx context.Context, cutoff int64) ([]model.Backup, error)
}

// BackupPayload is the serialized snapshot of one user's data.
type BackupPayload struct {
	Bookmarks  []model.Bookmark  `json:"bookmarks"`
	Tags       []repo.Tag        `json:"tags"`
	Lists      []model.List      `json:"lists"`
	Highlights []model.Highlight `json:"highlights"`
}

type BackupService struct {
	backups    BackupStore
	bookmarks  BookmarkStore
	tags       TagStore
	lists      ListStore
	highlights HighlightStore
	blobs      filestore.Store
}

func NewBackupService(backups BackupStore, bookmarks BookmarkStore, tags TagStore,
	lists ListStore, highlights HighlightStore, blobs filestore.Store) *BackupService {
	return &BackupService{
		backups:    backups,
		bookmarks:  bookmarks,
		tags:       tags,
		lists:      lists,
		highlights: highlights,
		blobs:      blobs,
	}
}

type memBlob struct {
	*bytes.Reader
}

func (memBlob) Close() error { return nil }

// Create records the backup first and flips it to success or failure once the
// blob write settles, so a crash mid-write leaves an inspectable pending row
// instead of an orphaned blob.
func (s *BackupService) Create(ctx context.Context, userID string) (*model.Backup, error) {
	record := &model.Backup{
		ID:     newID(),
		UserID: userID,
		Status: model.BackupStatusPending,
		Ctime:  timeutil.NowUnix(),
	}
	if err := s.backups.Create(ctx, record); err != nil {
		return nil, err
	}

	payload, err := s.collect(ctx, userID)
	if err == nil {
		var data []byte
		data, err = json.Marshal(payload)
		if err == nil {
			assetID := newID() + ".json"
			blob := memBlob{bytes.NewReader(data)}
			if err = s.blobs.Save(ctx, assetID, blob, int64(len(data))); err == nil {
				record.AssetID = assetID
				record.Size = int64(len(data))
				record.BookmarkCount = len(payload.Bookmarks)
				record.Status = model.BackupStatusSuccess
			}
		}
	}
	if err != nil {
		record.Status = model.BackupStatusFailure
		record.ErrorMessage = err.Error()
	}

	update := map[string]interface{}{
		"asset_id":       record.AssetID,
		"size":           record.Size,
		"bookmark_count": record.BookmarkCount,
		"status":         record.Status,
		"error_message":  record.ErrorMessage,
	}
	if err := s.backups.Update(ctx, userID, record.ID, update); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *BackupService) collect(ctx context.Context, userID string) (*BackupPayload, error) {
	count, err := s.bookmarks.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	bookmarks, err := s.bookmarks.List(ctx, userID, uint(count)+1, 0)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	lists, err := s.lists.ListOwned(ctx, userID)
	if err != nil {
		return nil, err
	}
	highlights, err := s.highlights.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BackupPayload{
		Bookmarks:  bookmarks,
		Tags:       tags,
		Lists:      lists,
		Highlights: highlights,
	}, nil
}

// FromID seals a handle for the caller's own backup record. Backups are never
// shared, so owner is the only level; a probe against someone else's record
// reads as not found.
func (s *BackupService) FromID(ctx context.Context, callerID, id string) (access.Verified[model.Backup], error) {
	var zero access.Verified[model.Backup]
	record, err := s.backups.Get(ctx, callerID, id)
	if err != nil {
		return zero, err
	}
	return access.Seal(callerID, id, *record, access.LevelOwner), nil
}

func (s *BackupService) List(ctx context.Context, userID string) ([]model.Backup, error) {
	return s.backups.ListByUser(ctx, userID)
}

func (s *BackupService) Download(ctx context.Context, v access.Verified[model.Backup]) (io.ReadCloser, *model.Backup, error) {
	record := v.Data()
	if record.Status != model.BackupStatusSuccess || record.AssetID == "" {
		return nil, nil, appErr.ErrInvalid
	}
	rc, err := s.blobs.Open(ctx, record.AssetID)
	if err != nil {
		return nil, nil, err
	}
	return rc, &record, nil
}

func (s *BackupService) Delete(ctx context.Context, grant access.OwnerGrant) error {
	return s.remove(ctx, grant.CallerID(), grant.ResourceID())
}

// remove deletes the blob before the record; a dangling record is retryable,
// a dangling blob is not. The prune job reaches it directly as the system.
func (s *BackupService) remove(ctx context.Context, userID, id string) error {
	record, err := s.backups.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if record.AssetID != "" {
		if err := s.blobs.Delete(ctx, record.AssetID); err != nil {
			return err
		}
	}
	return s.backups.Delete(ctx, userID, id)
}

// PruneOlderThan removes expired backups blob-first. One stubborn backup does
// not stop the sweep.
func (s *BackupService) PruneOlderThan(ctx context.Context, cutoff int64) (int, error) {
	records, err := s.backups.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	logger := logutil.GetLogger(ctx)
	pruned := 0
	for _, record := range records {
		if err := s.remove(ctx, record.UserID, record.ID); err != nil {
			logger.Warn("failed to prune backup",
				zap.String("backup_id", record.ID), zap.Error(err))
			continue
		}
		pruned++
	}
	return pruned, nil
}
