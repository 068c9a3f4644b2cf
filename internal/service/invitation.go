package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/pkg/logutil"
	"github.com/shelfmark/shelfmark/internal/pkg/timeutil"
	"github.com/shelfmark/shelfmark/internal/repo"
)

type InvitationStore interface {
	Create(ctx context.Context, inv *model.ListInvitation) error
	GetByListAndUser(ctx context.Context, listID, userID string) (*model.ListInvitation, error)
	ListForList(ctx context.Context, listID string) ([]model.ListInvitation, error)
	ListPendingForUser(ctx context.Context, userID string) ([]model.ListInvitation, error)
	Reinvite(ctx context.Context, listID, userID, role string, now int64) error
	Accept(ctx context.Context, listID, userID string, now int64) error
	Decline(ctx context.Context, listID, userID string) error
	Revoke(ctx context.Context, listID, userID string) error
}

type InvitationUserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

type InvitationService struct {
	invitations   InvitationStore
	collaborators CollaboratorStore
	lists         ListStore
	users         InvitationUserStore
	mailer        EmailSender
}

func NewInvitationService(invitations InvitationStore, collaborators CollaboratorStore,
	lists ListStore, users InvitationUserStore, mailer EmailSender) *InvitationService {
	return &InvitationService{
		invitations:   invitations,
		collaborators: collaborators,
		lists:         lists,
		users:         users,
		mailer:        mailer,
	}
}

// InviteByEmail creates or revives an invitation for an existing account.
// A pending invitation is a conflict. A declined one is revived, and so is an
// accepted one whose collaborator row no longer exists: the user was removed
// or left, so the stale accepted row must not block inviting them again.
func (s *InvitationService) InviteByEmail(ctx context.Context, grant access.OwnerGrant, email, role string) (*model.ListInvitation, error) {
	if _, err := access.ParseRole(role); err != nil {
		return nil, err
	}
	row, err := s.lists.GetAny(ctx, grant.ResourceID())
	if err != nil {
		return nil, err
	}
	if row.Type != model.ListTypeManual {
		return nil, appErr.ErrInvalid
	}
	invitee, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if invitee.ID == grant.CallerID() {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.collaborators.Get(ctx, grant.ResourceID(), invitee.ID); err == nil {
		return nil, appErr.ErrConflict
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}

	now := timeutil.NowUnix()
	existing, err := s.invitations.GetByListAndUser(ctx, grant.ResourceID(), invitee.ID)
	switch {
	case err == nil:
		switch existing.Status {
		case repo.InvitationStatusPending:
			return nil, appErr.ErrConflict
		default:
			// declined, or accepted with the grant removed since
			if err := s.invitations.Reinvite(ctx, grant.ResourceID(), invitee.ID, role, now); err != nil {
				return nil, err
			}
			existing.Role = role
			existing.Status = repo.InvitationStatusPending
			existing.InvitedAt = now
		}
	case appErr.IsNotFound(err):
		existing = &model.ListInvitation{
			ID:           newID(),
			ListID:       grant.ResourceID(),
			UserID:       invitee.ID,
			Role:         role,
			Status:       repo.InvitationStatusPending,
			InvitedEmail: invitee.Email,
			InvitedBy:    grant.CallerID(),
			InvitedAt:    now,
		}
		if err := s.invitations.Create(ctx, existing); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.notify(ctx, invitee.Email, row.Name)
	return existing, nil
}

// notify sends the invitation email best effort; a delivery failure never
// rolls back the invitation.
func (s *InvitationService) notify(ctx context.Context, to, listName string) {
	if s.mailer == nil {
		return
	}
	logger := logutil.GetLogger(ctx).With(zap.String("to", to))
	go func() {
		subject := fmt.Sprintf("You have been invited to the list %q", listName)
		body := fmt.Sprintf("You have been invited to collaborate on the list %q.\nSign in to accept or decline the invitation.", listName)
		if err := s.mailer.Send(to, subject, body); err != nil {
			logger.Warn("failed to send invitation email", zap.Error(err))
		}
	}()
}

func (s *InvitationService) Accept(ctx context.Context, userID, listID string) error {
	return s.invitations.Accept(ctx, listID, userID, timeutil.NowUnix())
}

func (s *InvitationService) Decline(ctx context.Context, userID, listID string) error {
	return s.invitations.Decline(ctx, listID, userID)
}

func (s *InvitationService) Revoke(ctx context.Context, grant access.OwnerGrant, userID string) error {
	return s.invitations.Revoke(ctx, grant.ResourceID(), userID)
}

// InvitationView is one invitation as a viewer at a known level sees it.
// Invitee identity is owner-only; everyone else gets a placeholder.
type InvitationView struct {
	ID        string `json:"id"`
	ListID    string `json:"list_id"`
	UserID    string `json:"user_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	Status    int    `json:"status"`
	InvitedAt int64  `json:"invited_at"`
}

const maskedInviteeName = "Pending User"

func (s *InvitationService) ForList(ctx context.Context, v access.Verified[List]) ([]InvitationView, error) {
	rows, err := s.invitations.ListForList(ctx, v.ResourceID())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]InvitationView, 0, len(rows))
	for _, row := range rows {
		view := InvitationView{
			ID:        row.ID,
			ListID:    row.ListID,
			Role:      row.Role,
			Status:    row.Status,
			InvitedAt: row.InvitedAt,
			Name:      maskedInviteeName,
		}
		if v.IsOwner() {
			view.UserID = row.UserID
			view.Email = row.InvitedEmail
			if u, ok := users[row.UserID]; ok {
				view.Name = u.Name
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// PendingInvitation pairs a pending invitation with the name of the list it
// targets, for the invitee's inbox.
type PendingInvitation struct {
	Invitation model.ListInvitation `json:"invitation"`
	ListName   string               `json:"list_name"`
}

func (s *InvitationService) PendingForUser(ctx context.Context, userID string) ([]PendingInvitation, error) {
	rows, err := s.invitations.ListPendingForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]PendingInvitation, 0, len(rows))
	for _, row := range rows {
		item := PendingInvitation{Invitation: row}
		if list, err := s.lists.GetAny(ctx, row.ListID); err == nil {
			item.ListName = list.Name
		}
		out = append(out, item)
	}
	return out, nil
}
