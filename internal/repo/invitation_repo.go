package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/pkg/dbutil"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

const (
	InvitationStatusPending = 1
	// Accepted is terminal for the invitation row; the live collaboration is
	// the collaborator row created alongside it.
	InvitationStatusAccepted = 2
	InvitationStatusDeclined = 3
)

type InvitationRepo struct {
	db *sql.DB
}

func NewInvitationRepo(db *sql.DB) *InvitationRepo {
	return &InvitationRepo{db: db}
}

var invitationColumns = []string{
	"id", "list_id", "user_id", "role", "status", "invited_email", "invited_by", "invited_at",
}

func scanInvitation(scanner interface{ Scan(...interface{}) error }) (*model.ListInvitation, error) {
	var inv model.ListInvitation
	if err := scanner.Scan(
		&inv.ID, &inv.ListID, &inv.UserID, &inv.Role, &inv.Status,
		&inv.InvitedEmail, &inv.InvitedBy, &inv.InvitedAt,
	); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepo) Create(ctx context.Context, inv *model.ListInvitation) error {
	data := map[string]interface{}{
		"id":            inv.ID,
		"list_id":       inv.ListID,
		"user_id":       inv.UserID,
		"role":          inv.Role,
		"status":        inv.Status,
		"invited_email": inv.InvitedEmail,
		"invited_by":    inv.InvitedBy,
		"invited_at":    inv.InvitedAt,
	}
	sqlStr, args, err := builder.BuildInsert("list_invitations", []map[string]interface{}{data})
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

func (r *InvitationRepo) GetByListAndUser(ctx context.Context, listID, userID string) (*model.ListInvitation, error) {
	where := map[string]interface{}{"list_id": listID, "user_id": userID}
	sqlStr, args, err := builder.BuildSelect("list_invitations", where, invitationColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *InvitationRepo) ListForList(ctx context.Context, listID string) ([]model.ListInvitation, error) {
	where := map[string]interface{}{"list_id": listID, "_orderby": "invited_at asc"}
	sqlStr, args, err := builder.BuildSelect("list_invitations", where, invitationColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ListInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	return items, rows.Err()
}

func (r *InvitationRepo) ListPendingForUser(ctx context.Context, userID string) ([]model.ListInvitation, error) {
	where := map[string]interface{}{"user_id": userID, "status": InvitationStatusPending, "_orderby": "invited_at desc"}
	sqlStr, args, err := builder.BuildSelect("list_invitations", where, invitationColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ListInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	return items, rows.Err()
}

// Reinvite flips a settled invitation back to pending with a fresh role and
// timestamp. Declined rows and stale accepted rows (collaborator removed)
// both qualify; a row that is already pending stays untouched.
func (r *InvitationRepo) Reinvite(ctx context.Context, listID, userID, role string, now int64) error {
	const query = `
		UPDATE list_invitations
		SET status = $1, role = $2, invited_at = $3
		WHERE list_id = $4 AND user_id = $5 AND status <> $6
	`
	result, err := r.db.ExecContext(ctx, query,
		InvitationStatusPending, role, now, listID, userID, InvitationStatusPending)
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

// Accept atomically flips the pending invitation to accepted and inserts the
// collaborator grant. The grant insert ignores a conflict so that a repeated
// accept (a race, or a retry) succeeds without duplicating the row. When the
// invitation is already accepted the whole call is an idempotent no-op.
func (r *InvitationRepo) Accept(ctx context.Context, listID, userID string, now int64) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var role string
		var status int
		err := tx.QueryRowContext(ctx,
			`SELECT role, status FROM list_invitations WHERE list_id = $1 AND user_id = $2`,
			listID, userID).Scan(&role, &status)
		if err == sql.ErrNoRows {
			return appErr.ErrNotFound
		}
		if err != nil {
			return err
		}
		switch status {
		case InvitationStatusPending:
			if _, err := tx.ExecContext(ctx,
				`UPDATE list_invitations SET status = $1 WHERE list_id = $2 AND user_id = $3`,
				InvitationStatusAccepted, listID, userID); err != nil {
				return err
			}
		case InvitationStatusAccepted:
			// fall through to the grant insert so a half-applied accept heals
		default:
			return appErr.ErrInvalid
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO list_collaborators (list_id, user_id, role, ctime)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (list_id, user_id) DO NOTHING
		`, listID, userID, role, now)
		return err
	})
}

// Decline moves pending to declined; declining an already-declined invitation
// is idempotent success.
func (r *InvitationRepo) Decline(ctx context.Context, listID, userID string) error {
	const query = `
		UPDATE list_invitations
		SET status = $1
		WHERE list_id = $2 AND user_id = $3 AND status IN ($4, $5)
	`
	result, err := r.db.ExecContext(ctx, query,
		InvitationStatusDeclined, listID, userID, InvitationStatusPending, InvitationStatusDeclined)
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

// Revoke removes a pending invitation; caller authorization is enforced by
// the service layer.
func (r *InvitationRepo) Revoke(ctx context.Context, listID, userID string) error {
	const query = `
		DELETE FROM list_invitations
		WHERE list_id = $1 AND user_id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, listID, userID, InvitationStatusPending)
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
