package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/pkg/dbutil"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

type BackupRepo struct {
	db *sql.DB
}

func NewBackupRepo(db *sql.DB) *BackupRepo {
	return &BackupRepo{db: db}
}

var backupColumns = []string{
	"id", "user_id", "asset_id", "size", "bookmark_count", "status", "error_message", "ctime",
}

func scanBackup(scanner interface{ Scan(...interface{}) error }) (*model.Backup, error) {
	var b model.Backup
	if err := scanner.Scan(
		&b.ID, &b.UserID, &b.AssetID, &b.Size, &b.BookmarkCount,
		&b.Status, &b.ErrorMessage, &b.Ctime,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BackupRepo) Create(ctx context.Context, b *model.Backup) error {
	data := map[string]interface{}{
		"id":             b.ID,
		"user_id":        b.UserID,
		"asset_id":       b.AssetID,
		"size":           b.Size,
		"bookmark_count": b.BookmarkCount,
		"status":         b.Status,
		"error_message":  b.ErrorMessage,
		"ctime":          b.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("backups", []map[string]interface{}{data})
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

func (r *BackupRepo) Get(ctx context.Context, userID, id string) (*model.Backup, error) {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildSelect("backups", where, backupColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	b, err := scanBackup(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *BackupRepo) ListByUser(ctx context.Context, userID string) ([]model.Backup, error) {
	where := map[string]interface{}{"user_id": userID, "_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("backups", where, backupColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Backup, 0)
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

func (r *BackupRepo) Update(ctx context.Context, userID, id string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildUpdate("backups", where, update)
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

func (r *BackupRepo) Delete(ctx context.Context, userID, id string) error {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildDelete("backups", where)
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

func (r *BackupRepo) ListOlderThan(ctx context.Context, cutoff int64) ([]model.Backup, error) {
	where := map[string]interface{}{"ctime <": cutoff}
	sqlStr, args, err := builder.BuildSelect("backups", where, backupColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Backup, 0)
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}
