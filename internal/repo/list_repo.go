package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/pkg/dbutil"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

type ListRepo struct {
	db *sql.DB
}

func NewListRepo(db *sql.DB) *ListRepo {
	return &ListRepo{db: db}
}

var listColumns = []string{
	"id", "user_id", "name", "icon", "description", "type", "query",
	"parent_id", "public", "rss_token", "ctime", "mtime",
}

func scanList(scanner interface{ Scan(...interface{}) error }) (*model.List, error) {
	var l model.List
	var public int
	if err := scanner.Scan(
		&l.ID, &l.UserID, &l.Name, &l.Icon, &l.Description, &l.Type, &l.Query,
		&l.ParentID, &public, &l.RSSToken, &l.Ctime, &l.Mtime,
	); err != nil {
		return nil, err
	}
	l.Public = public != 0
	return &l, nil
}

func (r *ListRepo) Create(ctx context.Context, l *model.List) error {
	data := map[string]interface{}{
		"id":          l.ID,
		"user_id":     l.UserID,
		"name":        l.Name,
		"icon":        l.Icon,
		"description": l.Description,
		"type":        l.Type,
		"query":       l.Query,
		"parent_id":   l.ParentID,
		"public":      boolToInt(l.Public),
		"rss_token":   l.RSSToken,
		"ctime":       l.Ctime,
		"mtime":       l.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("lists", []map[string]interface{}{data})
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

func (r *ListRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.List, error) {
	sqlStr, args, err := builder.BuildSelect("lists", where, listColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	l, err := scanList(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// GetOwned succeeds only for the owner's own row.
func (r *ListRepo) GetOwned(ctx context.Context, userID, id string) (*model.List, error) {
	return r.getOne(ctx, map[string]interface{}{"id": id, "user_id": userID})
}

// GetAny is unscoped by owner; it exists for the role-resolution and
// public/token read paths, which apply their own access rules.
func (r *ListRepo) GetAny(ctx context.Context, id string) (*model.List, error) {
	return r.getOne(ctx, map[string]interface{}{"id": id})
}

func (r *ListRepo) listMany(ctx context.Context, where map[string]interface{}) ([]model.List, error) {
	sqlStr, args, err := builder.BuildSelect("lists", where, listColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.List, 0)
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *l)
	}
	return items, rows.Err()
}

func (r *ListRepo) ListOwned(ctx context.Context, userID string) ([]model.List, error) {
	return r.listMany(ctx, map[string]interface{}{"user_id": userID, "_orderby": "name asc"})
}

func (r *ListRepo) ListByParent(ctx context.Context, userID, parentID string) ([]model.List, error) {
	return r.listMany(ctx, map[string]interface{}{"user_id": userID, "parent_id": parentID, "_orderby": "name asc"})
}

// UpdateOwned is one conditional statement matching both id and owner; a zero
// affected-row count means the list is gone (or never was the caller's) and
// maps to NotFound.
func (r *ListRepo) UpdateOwned(ctx context.Context, userID, id string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildUpdate("lists", where, update)
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

// DeleteCascade removes the list row plus its membership, collaborator and
// invitation rows in one transaction.
func (r *ListRepo) DeleteCascade(ctx context.Context, userID, id string) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id = $1 AND user_id = $2`, id, userID)
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
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_bookmarks WHERE list_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_collaborators WHERE list_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_invitations WHERE list_id = $1`, id); err != nil {
			return err
		}
		return nil
	})
}

// MergeBookmarks unions the source list's membership rows into the target,
// ignoring duplicates, and optionally drops the source list afterwards, all
// inside one transaction.
func (r *ListRepo) MergeBookmarks(ctx context.Context, userID, srcID, dstID string, deleteSource bool) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const merge = `
			INSERT INTO list_bookmarks (list_id, bookmark_id, added_by, ctime)
			SELECT $1, bookmark_id, added_by, ctime FROM list_bookmarks WHERE list_id = $2
			ON CONFLICT (list_id, bookmark_id) DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, merge, dstID, srcID); err != nil {
			return err
		}
		if !deleteSource {
			return nil
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id = $1 AND user_id = $2`, srcID, userID)
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
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_bookmarks WHERE list_id = $1`, srcID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_collaborators WHERE list_id = $1`, srcID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_invitations WHERE list_id = $1`, srcID); err != nil {
			return err
		}
		return nil
	})
}
