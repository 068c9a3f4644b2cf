package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/pkg/dbutil"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

type HighlightRepo struct {
	db *sql.DB
}

func NewHighlightRepo(db *sql.DB) *HighlightRepo {
	return &HighlightRepo{db: db}
}

var highlightColumns = []string{
	"id", "bookmark_id", "user_id", "start_offset", "end_offset", "color", "text", "note", "ctime",
}

func scanHighlight(scanner interface{ Scan(...interface{}) error }) (*model.Highlight, error) {
	var h model.Highlight
	if err := scanner.Scan(
		&h.ID, &h.BookmarkID, &h.UserID, &h.StartOffset, &h.EndOffset,
		&h.Color, &h.Text, &h.Note, &h.Ctime,
	); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HighlightRepo) Create(ctx context.Context, h *model.Highlight) error {
	data := map[string]interface{}{
		"id":           h.ID,
		"bookmark_id":  h.BookmarkID,
		"user_id":      h.UserID,
		"start_offset": h.StartOffset,
		"end_offset":   h.EndOffset,
		"color":        h.Color,
		"text":         h.Text,
		"note":         h.Note,
		"ctime":        h.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("highlights", []map[string]interface{}{data})
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

func (r *HighlightRepo) Get(ctx context.Context, userID, id string) (*model.Highlight, error) {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildSelect("highlights", where, highlightColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	h, err := scanHighlight(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// ListForBookmark is always scoped by the requesting user as well as the
// bookmark: highlights never cross user boundaries even on shared bookmarks.
func (r *HighlightRepo) ListForBookmark(ctx context.Context, userID, bookmarkID string) ([]model.Highlight, error) {
	where := map[string]interface{}{
		"user_id":     userID,
		"bookmark_id": bookmarkID,
		"_orderby":    "start_offset asc",
	}
	sqlStr, args, err := builder.BuildSelect("highlights", where, highlightColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Highlight, 0)
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *h)
	}
	return items, rows.Err()
}

func (r *HighlightRepo) ListForUser(ctx context.Context, userID string) ([]model.Highlight, error) {
	where := map[string]interface{}{"user_id": userID, "_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("highlights", where, highlightColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Highlight, 0)
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *h)
	}
	return items, rows.Err()
}

func (r *HighlightRepo) Update(ctx context.Context, userID, id string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildUpdate("highlights", where, update)
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

func (r *HighlightRepo) Delete(ctx context.Context, userID, id string) error {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildDelete("highlights", where)
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
