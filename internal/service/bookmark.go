package service

import (
	"context"
	"strings"

	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/pkg/timeutil"
	"github.com/shelfmark/shelfmark/internal/repo"
	"github.com/shelfmark/shelfmark/internal/search"
)

type BookmarkStore interface {
	Create(ctx context.Context, b *model.Bookmark) error
	Get(ctx context.Context, userID, id string) (*model.Bookmark, error)
	GetByIDs(ctx context.Context, userID string, ids []string) ([]model.Bookmark, error)
	List(ctx context.Context, userID string, limit, offset uint) ([]model.Bookmark, error)
	Update(ctx context.Context, userID, id string, update map[string]interface{}) error
	Delete(ctx context.Context, userID, id string) error
	CountByUser(ctx context.Context, userID string) (int, error)
}

type TagStore interface {
	Ensure(ctx context.Context, userID, name, newID string, now int64) (string, error)
	ListByUser(ctx context.Context, userID string) ([]repo.Tag, error)
	Attach(ctx context.Context, userID, bookmarkID, tagID string) error
	Detach(ctx context.Context, userID, bookmarkID, tagID string) error
	TagNamesForBookmarks(ctx context.Context, userID string, bookmarkIDs []string) (map[string][]string, error)
}

type CreateBookmarkArgs struct {
	Title  string
	URL    string
	Type   string
	Note   string
	Source string
	FeedID string
	Tags   []string
}

// BookmarkItem is a bookmark together with its tag names, the shape every
// read path returns.
type BookmarkItem struct {
	Bookmark model.Bookmark `json:"bookmark"`
	Tags     []string       `json:"tags"`
}

type BookmarkService struct {
	bookmarks BookmarkStore
	tags      TagStore
	evaluator *search.Evaluator
}

func NewBookmarkService(bookmarks BookmarkStore, tags TagStore, evaluator *search.Evaluator) *BookmarkService {
	return &BookmarkService{bookmarks: bookmarks, tags: tags, evaluator: evaluator}
}

func (s *BookmarkService) Create(ctx context.Context, userID string, args CreateBookmarkArgs) (*BookmarkItem, error) {
	typ := args.Type
	if typ == "" {
		typ = model.BookmarkTypeLink
	}
	switch typ {
	case model.BookmarkTypeLink:
		if args.URL == "" {
			return nil, appErr.ErrInvalid
		}
	case model.BookmarkTypeText, model.BookmarkTypeAsset:
	default:
		return nil, appErr.ErrInvalid
	}
	now := timeutil.NowUnix()
	b := &model.Bookmark{
		ID:     newID(),
		UserID: userID,
		URL:    args.URL,
		Type:   typ,
		Note:   args.Note,
		Source: args.Source,
		FeedID: args.FeedID,
		Ctime:  now,
		Mtime:  now,
	}
	if title := strings.TrimSpace(args.Title); title != "" {
		b.Title = &title
	}
	if err := s.bookmarks.Create(ctx, b); err != nil {
		return nil, err
	}
	names, err := s.attachTags(ctx, userID, b.ID, args.Tags)
	if err != nil {
		return nil, err
	}
	return &BookmarkItem{Bookmark: *b, Tags: names}, nil
}

func (s *BookmarkService) attachTags(ctx context.Context, userID, bookmarkID string, tags []string) ([]string, error) {
	now := timeutil.NowUnix()
	names := make([]string, 0, len(tags))
	for _, raw := range tags {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		tagID, err := s.tags.Ensure(ctx, userID, name, newID(), now)
		if err != nil {
			return nil, err
		}
		if err := s.tags.Attach(ctx, userID, bookmarkID, tagID); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *BookmarkService) Get(ctx context.Context, userID, id string) (*BookmarkItem, error) {
	b, err := s.bookmarks.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tagMap, err := s.tags.TagNamesForBookmarks(ctx, userID, []string{id})
	if err != nil {
		return nil, err
	}
	return &BookmarkItem{Bookmark: *b, Tags: tagMap[id]}, nil
}

func (s *BookmarkService) List(ctx context.Context, userID string, limit, offset uint) ([]BookmarkItem, error) {
	if limit == 0 || limit > 200 {
		limit = 50
	}
	bookmarks, err := s.bookmarks.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, userID, bookmarks)
}

// Search evaluates a filter query and loads the matching bookmarks. The result
// is ordered by the evaluator's stable id ordering.
func (s *BookmarkService) Search(ctx context.Context, userID, query string) ([]BookmarkItem, error) {
	ids, err := s.evaluator.EvaluateQuery(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	bookmarks, err := s.bookmarks.GetByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, userID, bookmarks)
}

func (s *BookmarkService) decorate(ctx context.Context, userID string, bookmarks []model.Bookmark) ([]BookmarkItem, error) {
	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.ID)
	}
	tagMap, err := s.tags.TagNamesForBookmarks(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	items := make([]BookmarkItem, 0, len(bookmarks))
	for _, b := range bookmarks {
		items = append(items, BookmarkItem{Bookmark: b, Tags: tagMap[b.ID]})
	}
	return items, nil
}

type UpdateBookmarkArgs struct {
	Title      *string
	URL        *string
	Note       *string
	Archived   *bool
	Favourited *bool
	BrokenLink *bool
}

func (s *BookmarkService) Update(ctx context.Context, userID, id string, args UpdateBookmarkArgs) error {
	update := map[string]interface{}{
		"mtime": timeutil.NowUnix(),
	}
	if args.Title != nil {
		if t := strings.TrimSpace(*args.Title); t == "" {
			update["title"] = nil
		} else {
			update["title"] = t
		}
	}
	if args.URL != nil {
		update["url"] = *args.URL
	}
	if args.Note != nil {
		update["note"] = *args.Note
	}
	if args.Archived != nil {
		update["archived"] = boolToDB(*args.Archived)
	}
	if args.Favourited != nil {
		update["favourited"] = boolToDB(*args.Favourited)
	}
	if args.BrokenLink != nil {
		update["broken_link"] = boolToDB(*args.BrokenLink)
	}
	return s.bookmarks.Update(ctx, userID, id, update)
}

func (s *BookmarkService) Delete(ctx context.Context, userID, id string) error {
	return s.bookmarks.Delete(ctx, userID, id)
}

func (s *BookmarkService) AddTag(ctx context.Context, userID, bookmarkID, name string) error {
	if _, err := s.bookmarks.Get(ctx, userID, bookmarkID); err != nil {
		return err
	}
	_, err := s.attachTags(ctx, userID, bookmarkID, []string{name})
	return err
}

func (s *BookmarkService) RemoveTag(ctx context.Context, userID, bookmarkID, tagID string) error {
	return s.tags.Detach(ctx, userID, bookmarkID, tagID)
}

func (s *BookmarkService) Tags(ctx context.Context, userID string) ([]repo.Tag, error) {
	return s.tags.ListByUser(ctx, userID)
}

func boolToDB(b bool) int {
	if b {
		return 1
	}
	return 0
}
