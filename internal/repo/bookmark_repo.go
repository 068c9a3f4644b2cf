package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/pkg/dbutil"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

type BookmarkRepo struct {
	db *sql.DB
}

func NewBookmarkRepo(db *sql.DB) *BookmarkRepo {
	return &BookmarkRepo{db: db}
}

var bookmarkColumns = []string{
	"id", "user_id", "title", "url", "type", "note", "source", "feed_id",
	"archived", "favourited", "broken_link", "ctime", "mtime",
}

func scanBookmark(scanner interface{ Scan(...interface{}) error }) (*model.Bookmark, error) {
	var b model.Bookmark
	var title sql.NullString
	var archived, favourited, broken int
	if err := scanner.Scan(
		&b.ID, &b.UserID, &title, &b.URL, &b.Type, &b.Note, &b.Source, &b.FeedID,
		&archived, &favourited, &broken, &b.Ctime, &b.Mtime,
	); err != nil {
		return nil, err
	}
	if title.Valid {
		b.Title = &title.String
	}
	b.Archived = archived != 0
	b.Favourited = favourited != 0
	b.BrokenLink = broken != 0
	return &b, nil
}

func (r *BookmarkRepo) Create(ctx context.Context, b *model.Bookmark) error {
	data := map[string]interface{}{
		"id":          b.ID,
		"user_id":     b.UserID,
		"title":       b.Title,
		"url":         b.URL,
		"type":        b.Type,
		"note":        b.Note,
		"source":      b.Source,
		"feed_id":     b.FeedID,
		"archived":    boolToInt(b.Archived),
		"favourited":  boolToInt(b.Favourited),
		"broken_link": boolToInt(b.BrokenLink),
		"ctime":       b.Ctime,
		"mtime":       b.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("bookmarks", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *BookmarkRepo) Get(ctx context.Context, userID, id string) (*model.Bookmark, error) {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildSelect("bookmarks", where, bookmarkColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	b, err := scanBookmark(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *BookmarkRepo) GetByIDs(ctx context.Context, userID string, ids []string) ([]model.Bookmark, error) {
	if len(ids) == 0 {
		return []model.Bookmark{}, nil
	}
	where := map[string]interface{}{"user_id": userID, "id in": ids, "_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("bookmarks", where, bookmarkColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Bookmark, 0, len(ids))
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

func (r *BookmarkRepo) List(ctx context.Context, userID string, limit, offset uint) ([]model.Bookmark, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
		"_limit":   []uint{offset, limit},
	}
	sqlStr, args, err := builder.BuildSelect("bookmarks", where, bookmarkColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

// Update is a single conditional statement scoped by (id, user_id); the
// affected-row count is the existence proof, so a concurrent delete cannot
// race with it.
func (r *BookmarkRepo) Update(ctx context.Context, userID, id string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildUpdate("bookmarks", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *BookmarkRepo) Delete(ctx context.Context, userID, id string) error {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildDelete("bookmarks", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *BookmarkRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
