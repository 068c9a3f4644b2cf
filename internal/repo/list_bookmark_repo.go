package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/shelfmark/shelfmark/internal/pkg/dbutil"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

type ListBookmarkRepo struct {
	db *sql.DB
}

func NewListBookmarkRepo(db *sql.DB) *ListBookmarkRepo {
	return &ListBookmarkRepo{db: db}
}

// Add inserts a membership row; a duplicate insert is idempotent success.
func (r *ListBookmarkRepo) Add(ctx context.Context, listID, bookmarkID, addedBy string, now int64) error {
	const query = `
		INSERT INTO list_bookmarks (list_id, bookmark_id, added_by, ctime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (list_id, bookmark_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, listID, bookmarkID, addedBy, now)
	return err
}

// Remove deletes a membership row; removing an absent bookmark is reported,
// not swallowed.
func (r *ListBookmarkRepo) Remove(ctx context.Context, listID, bookmarkID string) error {
	where := map[string]interface{}{"list_id": listID, "bookmark_id": bookmarkID}
	sqlStr, args, err := builder.BuildDelete("list_bookmarks", where)
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

func (r *ListBookmarkRepo) BookmarkIDs(ctx context.Context, listID string) ([]string, error) {
	where := map[string]interface{}{"list_id": listID, "_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("list_bookmarks", where, []string{"bookmark_id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ListBookmarkRepo) Contains(ctx context.Context, listID, bookmarkID string) (bool, error) {
	const query = `SELECT 1 FROM list_bookmarks WHERE list_id = $1 AND bookmark_id = $2`
	var one int
	err := r.db.QueryRowContext(ctx, query, listID, bookmarkID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
