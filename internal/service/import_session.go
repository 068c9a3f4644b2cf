package service

import (
	"context"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/pkg/timeutil"
)

type ImportStore interface {
	CreateSession(ctx context.Context, s *model.ImportSession) error
	GetSession(ctx context.Context, userID, id string) (*model.ImportSession, error)
	ListSessions(ctx context.Context, userID string) ([]model.ImportSession, error)
	AttachBookmark(ctx context.Context, sessionID, bookmarkID string, now int64) error
	UpdateBookmarkStatus(ctx context.Context, sessionID, bookmarkID string, update map[string]interface{}) error
	ListBookmarks(ctx context.Context, sessionID string) ([]model.ImportBookmark, error)
	DeleteSessionsBefore(ctx context.Context, cutoff int64) (int64, error)
}

// ImportSessionView is a session with its status and counters. Neither is
// stored: both are derived from the attached bookmark rows on every read, so
// they can never drift from the pipeline's actual progress.
type ImportSessionView struct {
	Session model.ImportSession      `json:"session"`
	Status  string                   `json:"status"`
	Stats   model.ImportSessionStats `json:"stats"`
}

type ImportService struct {
	imports   ImportStore
	bookmarks BookmarkStore
	lists     ListStore
}

func NewImportService(imports ImportStore, bookmarks BookmarkStore, lists ListStore) *ImportService {
	return &ImportService{imports: imports, bookmarks: bookmarks, lists: lists}
}

func (s *ImportService) CreateSession(ctx context.Context, userID, name, rootListID string) (*model.ImportSession, error) {
	if name == "" {
		return nil, appErr.ErrInvalid
	}
	if rootListID != "" {
		if _, err := s.lists.GetOwned(ctx, userID, rootListID); err != nil {
			return nil, err
		}
	}
	session := &model.ImportSession{
		ID:         newID(),
		UserID:     userID,
		Name:       name,
		RootListID: rootListID,
		Ctime:      timeutil.NowUnix(),
	}
	if err := s.imports.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// FromID seals a handle for the caller's own session. Sessions are never
// shared, so owner is the only level a session handle can carry; anyone
// else's probe reads as not found.
func (s *ImportService) FromID(ctx context.Context, callerID, sessionID string) (access.Verified[model.ImportSession], error) {
	var zero access.Verified[model.ImportSession]
	session, err := s.imports.GetSession(ctx, callerID, sessionID)
	if err != nil {
		return zero, err
	}
	return access.Seal(callerID, sessionID, *session, access.LevelOwner), nil
}

func (s *ImportService) AttachBookmark(ctx context.Context, grant access.OwnerGrant, bookmarkID string) error {
	if _, err := s.bookmarks.Get(ctx, grant.CallerID(), bookmarkID); err != nil {
		return err
	}
	return s.imports.AttachBookmark(ctx, grant.ResourceID(), bookmarkID, timeutil.NowUnix())
}

const (
	ImportPhaseCrawl    = "crawl"
	ImportPhaseTagging  = "tagging"
	ImportPhaseIndexing = "indexing"
)

func (s *ImportService) SetPhaseStatus(ctx context.Context, grant access.OwnerGrant, bookmarkID, phase, status string) error {
	switch status {
	case model.ImportStatusPending, model.ImportStatusProcessing, model.ImportStatusCompleted, model.ImportStatusFailed:
	default:
		return appErr.ErrInvalid
	}
	var column string
	switch phase {
	case ImportPhaseCrawl:
		column = "crawl_status"
	case ImportPhaseTagging:
		column = "tagging_status"
	case ImportPhaseIndexing:
		column = "indexing_status"
	default:
		return appErr.ErrInvalid
	}
	return s.imports.UpdateBookmarkStatus(ctx, grant.ResourceID(), bookmarkID, map[string]interface{}{column: status})
}

func (s *ImportService) GetSession(ctx context.Context, v access.Verified[model.ImportSession]) (*ImportSessionView, error) {
	session := v.Data()
	return s.view(ctx, &session)
}

func (s *ImportService) ListSessions(ctx context.Context, userID string) ([]ImportSessionView, error) {
	sessions, err := s.imports.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]ImportSessionView, 0, len(sessions))
	for i := range sessions {
		view, err := s.view(ctx, &sessions[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *ImportService) view(ctx context.Context, session *model.ImportSession) (*ImportSessionView, error) {
	rows, err := s.imports.ListBookmarks(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	stats := model.ImportSessionStats{Total: len(rows)}
	for _, row := range rows {
		switch rollupBookmark(row) {
		case model.ImportStatusPending:
			stats.Pending++
		case model.ImportStatusProcessing:
			stats.Processing++
		case model.ImportStatusCompleted:
			stats.Completed++
		case model.ImportStatusFailed:
			stats.Failed++
		}
	}
	return &ImportSessionView{
		Session: *session,
		Status:  rollupSession(stats),
		Stats:   stats,
	}, nil
}

// rollupBookmark folds the three pipeline phases into one status. A single
// failed phase fails the bookmark; completion requires every phase.
func rollupBookmark(row model.ImportBookmark) string {
	statuses := []string{row.CrawlStatus, row.TaggingStatus, row.IndexingStatus}
	pending, completed := 0, 0
	for _, st := range statuses {
		switch st {
		case model.ImportStatusFailed:
			return model.ImportStatusFailed
		case model.ImportStatusPending:
			pending++
		case model.ImportStatusCompleted:
			completed++
		}
	}
	switch {
	case completed == len(statuses):
		return model.ImportStatusCompleted
	case pending == len(statuses):
		return model.ImportStatusPending
	default:
		return model.ImportStatusProcessing
	}
}

func rollupSession(stats model.ImportSessionStats) string {
	switch {
	case stats.Failed > 0:
		return model.ImportStatusFailed
	case stats.Total == 0 || stats.Pending == stats.Total:
		return model.ImportStatusPending
	case stats.Completed == stats.Total:
		return model.ImportStatusCompleted
	default:
		return model.ImportStatusProcessing
	}
}

// PruneSessionsBefore deletes sessions older than the cutoff together with
// their per-bookmark tracking rows. The bookmarks themselves stay.
func (s *ImportService) PruneSessionsBefore(ctx context.Context, cutoff int64) (int64, error) {
	return s.imports.DeleteSessionsBefore(ctx, cutoff)
}
