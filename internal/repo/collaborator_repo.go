package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/pkg/dbutil"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

type CollaboratorRepo struct {
	db *sql.DB
}

func NewCollaboratorRepo(db *sql.DB) *CollaboratorRepo {
	return &CollaboratorRepo{db: db}
}

var collaboratorColumns = []string{"list_id", "user_id", "role", "ctime"}

func (r *CollaboratorRepo) Get(ctx context.Context, listID, userID string) (*model.ListCollaborator, error) {
	where := map[string]interface{}{"list_id": listID, "user_id": userID}
	sqlStr, args, err := builder.BuildSelect("list_collaborators", where, collaboratorColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var c model.ListCollaborator
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&c.ListID, &c.UserID, &c.Role, &c.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CollaboratorRepo) ListForList(ctx context.Context, listID string) ([]model.ListCollaborator, error) {
	where := map[string]interface{}{"list_id": listID, "_orderby": "ctime asc"}
	sqlStr, args, err := builder.BuildSelect("list_collaborators", where, collaboratorColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ListCollaborator, 0)
	for rows.Next() {
		var c model.ListCollaborator
		if err := rows.Scan(&c.ListID, &c.UserID, &c.Role, &c.Ctime); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *CollaboratorRepo) HasAny(ctx context.Context, listID string) (bool, error) {
	const query = `SELECT 1 FROM list_collaborators WHERE list_id = $1 LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, query, listID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListsSharedWithUser returns every list the user collaborates on.
func (r *CollaboratorRepo) ListsSharedWithUser(ctx context.Context, userID string) ([]model.List, error) {
	const query = `
		SELECT l.id, l.user_id, l.name, l.icon, l.description, l.type, l.query,
		       l.parent_id, l.public, l.rss_token, l.ctime, l.mtime
		FROM list_collaborators c
		JOIN lists l ON l.id = c.list_id
		WHERE c.user_id = $1
		ORDER BY l.name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
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

func (r *CollaboratorRepo) UpdateRole(ctx context.Context, listID, userID, role string) error {
	where := map[string]interface{}{"list_id": listID, "user_id": userID}
	update := map[string]interface{}{"role": role}
	sqlStr, args, err := builder.BuildUpdate("list_collaborators", where, update)
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

func (r *CollaboratorRepo) Delete(ctx context.Context, listID, userID string) error {
	where := map[string]interface{}{"list_id": listID, "user_id": userID}
	sqlStr, args, err := builder.BuildDelete("list_collaborators", where)
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

// DeleteWithContributions removes the collaborator row together with every
// membership row that collaborator contributed, in one transaction. This is
// the storage side of a collaborator leaving a list.
func (r *CollaboratorRepo) DeleteWithContributions(ctx context.Context, listID, userID string) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM list_collaborators WHERE list_id = $1 AND user_id = $2`, listID, userID)
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
		_, err = tx.ExecContext(ctx,
			`DELETE FROM list_bookmarks WHERE list_id = $1 AND added_by = $2`, listID, userID)
		return err
	})
}
