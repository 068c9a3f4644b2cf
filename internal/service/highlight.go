package service

import (
	"context"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/pkg/timeutil"
)

type HighlightStore interface {
	Create(ctx context.Context, h *model.Highlight) error
	Get(ctx context.Context, userID, id string) (*model.Highlight, error)
	ListForBookmark(ctx context.Context, userID, bookmarkID string) ([]model.Highlight, error)
	ListForUser(ctx context.Context, userID string) ([]model.Highlight, error)
	Update(ctx context.Context, userID, id string, update map[string]interface{}) error
	Delete(ctx context.Context, userID, id string) error
}

// HighlightService keeps highlights strictly private: every read and write is
// scoped to the requesting user, and list collaboration never widens that.
type HighlightService struct {
	highlights HighlightStore
	bookmarks  BookmarkStore
}

func NewHighlightService(highlights HighlightStore, bookmarks BookmarkStore) *HighlightService {
	return &HighlightService{highlights: highlights, bookmarks: bookmarks}
}

// FromID seals a handle for the caller's own highlight. There is no shared
// access path, so the only level a highlight handle can carry is owner.
func (s *HighlightService) FromID(ctx context.Context, callerID, id string) (access.Verified[model.Highlight], error) {
	var zero access.Verified[model.Highlight]
	h, err := s.highlights.Get(ctx, callerID, id)
	if err != nil {
		return zero, err
	}
	return access.Seal(callerID, id, *h, access.LevelOwner), nil
}

type CreateHighlightArgs struct {
	BookmarkID  string
	StartOffset int
	EndOffset   int
	Color       string
	Text        string
	Note        string
}

func (s *HighlightService) Create(ctx context.Context, userID string, args CreateHighlightArgs) (*model.Highlight, error) {
	if args.BookmarkID == "" || args.EndOffset < args.StartOffset {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.bookmarks.Get(ctx, userID, args.BookmarkID); err != nil {
		return nil, err
	}
	h := &model.Highlight{
		ID:          newID(),
		BookmarkID:  args.BookmarkID,
		UserID:      userID,
		StartOffset: args.StartOffset,
		EndOffset:   args.EndOffset,
		Color:       args.Color,
		Text:        args.Text,
		Note:        args.Note,
		Ctime:       timeutil.NowUnix(),
	}
	if err := s.highlights.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HighlightService) ForBookmark(ctx context.Context, userID, bookmarkID string) ([]model.Highlight, error) {
	return s.highlights.ListForBookmark(ctx, userID, bookmarkID)
}

func (s *HighlightService) ForUser(ctx context.Context, userID string) ([]model.Highlight, error) {
	return s.highlights.ListForUser(ctx, userID)
}

type UpdateHighlightArgs struct {
	Color *string
	Note  *string
}

func (s *HighlightService) Update(ctx context.Context, grant access.OwnerGrant, args UpdateHighlightArgs) error {
	update := map[string]interface{}{}
	if args.Color != nil {
		update["color"] = *args.Color
	}
	if args.Note != nil {
		update["note"] = *args.Note
	}
	if len(update) == 0 {
		return appErr.ErrInvalid
	}
	return s.highlights.Update(ctx, grant.CallerID(), grant.ResourceID(), update)
}

func (s *HighlightService) Delete(ctx context.Context, grant access.OwnerGrant) error {
	return s.highlights.Delete(ctx, grant.CallerID(), grant.ResourceID())
}
