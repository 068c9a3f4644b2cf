package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/pkg/dbutil"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

type ImportRepo struct {
	db *sql.DB
}

func NewImportRepo(db *sql.DB) *ImportRepo {
	return &ImportRepo{db: db}
}

var importSessionColumns = []string{"id", "user_id", "name", "root_list_id", "ctime"}

func (r *ImportRepo) CreateSession(ctx context.Context, s *model.ImportSession) error {
	data := map[string]interface{}{
		"id":           s.ID,
		"user_id":      s.UserID,
		"name":         s.Name,
		"root_list_id": s.RootListID,
		"ctime":        s.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("import_sessions", []map[string]interface{}{data})
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

func (r *ImportRepo) GetSession(ctx context.Context, userID, id string) (*model.ImportSession, error) {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildSelect("import_sessions", where, importSessionColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var s model.ImportSession
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&s.ID, &s.UserID, &s.Name, &s.RootListID, &s.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ImportRepo) ListSessions(ctx context.Context, userID string) ([]model.ImportSession, error) {
	where := map[string]interface{}{"user_id": userID, "_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("import_sessions", where, importSessionColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ImportSession, 0)
	for rows.Next() {
		var s model.ImportSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.RootListID, &s.Ctime); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// AttachBookmark records a bookmark in the session with all pipeline stages
// pending; re-attaching the same bookmark is idempotent.
func (r *ImportRepo) AttachBookmark(ctx context.Context, sessionID, bookmarkID string, now int64) error {
	const query = `
		INSERT INTO import_bookmarks (session_id, bookmark_id, ctime)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, bookmark_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, sessionID, bookmarkID, now)
	return err
}

func (r *ImportRepo) UpdateBookmarkStatus(ctx context.Context, sessionID, bookmarkID string, update map[string]interface{}) error {
	where := map[string]interface{}{"session_id": sessionID, "bookmark_id": bookmarkID}
	sqlStr, args, err := builder.BuildUpdate("import_bookmarks", where, update)
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

func (r *ImportRepo) ListBookmarks(ctx context.Context, sessionID string) ([]model.ImportBookmark, error) {
	where := map[string]interface{}{"session_id": sessionID, "_orderby": "ctime asc"}
	sqlStr, args, err := builder.BuildSelect("import_bookmarks", where,
		[]string{"session_id", "bookmark_id", "crawl_status", "tagging_status", "indexing_status", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ImportBookmark, 0)
	for rows.Next() {
		var b model.ImportBookmark
		if err := rows.Scan(&b.SessionID, &b.BookmarkID, &b.CrawlStatus, &b.TaggingStatus, &b.IndexingStatus, &b.Ctime); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// DeleteSessionsBefore drops sessions older than the cutoff together with
// their per-bookmark rows.
func (r *ImportRepo) DeleteSessionsBefore(ctx context.Context, cutoff int64) (int64, error) {
	var deleted int64
	err := dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const dropBookmarks = `
			DELETE FROM import_bookmarks
			WHERE session_id IN (SELECT id FROM import_sessions WHERE ctime < $1)
		`
		if _, err := tx.ExecContext(ctx, dropBookmarks, cutoff); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM import_sessions WHERE ctime < $1`, cutoff)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}
