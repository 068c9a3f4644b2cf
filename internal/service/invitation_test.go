package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/repo"
	"github.com/shelfmark/shelfmark/internal/search"
)

type invitationTestEnv struct {
	lists         *fakeListStore
	collaborators *fakeCollaboratorStore
	invitations   *fakeInvitationStore
	users         *fakeUserStore
	listSvc       *ListService
	svc           *InvitationService
}

func newInvitationTestEnv() *invitationTestEnv {
	lists := newFakeListStore()
	listBookmarks := newFakeListBookmarkStore()
	collaborators := newFakeCollaboratorStore(listBookmarks)
	invitations := newFakeInvitationStore(collaborators)
	bookmarks := newFakeBookmarkStore()
	users := newFakeUserStore(
		&model.User{ID: "owner", Email: "owner@example.com", Name: "Owner"},
		&model.User{ID: "friend", Email: "friend@example.com", Name: "Friend"},
	)
	evaluator := search.NewEvaluator(&fakeSearchStore{}, search.NewJSONQueryParser())
	listSvc := NewListService(lists, listBookmarks, collaborators, bookmarks, users, evaluator)
	svc := NewInvitationService(invitations, collaborators, lists, users, nil)
	return &invitationTestEnv{
		lists:         lists,
		collaborators: collaborators,
		invitations:   invitations,
		users:         users,
		listSvc:       listSvc,
		svc:           svc,
	}
}

func (env *invitationTestEnv) ownerGrant(t *testing.T, listID string) access.OwnerGrant {
	t.Helper()
	v, err := env.listSvc.FromID(context.Background(), "owner", listID)
	require.NoError(t, err)
	grant, err := v.RequireOwner()
	require.NoError(t, err)
	return grant
}

func TestInviteByEmailCreatesPending(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "reading", Type: model.ListTypeManual}
	grant := env.ownerGrant(t, "reading")

	inv, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "editor")
	require.NoError(t, err)
	require.Equal(t, repo.InvitationStatusPending, inv.Status)
	require.Equal(t, "friend", inv.UserID)
	require.Equal(t, "editor", inv.Role)
}

func TestInviteByEmailGuards(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "reading", Type: model.ListTypeManual}
	env.lists.lists["auto"] = &model.List{ID: "auto", UserID: "owner", Name: "auto", Type: model.ListTypeSmart, Query: `{"type":"tagged","bool":true}`}
	grant := env.ownerGrant(t, "reading")

	_, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "admin")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = env.svc.InviteByEmail(ctx, grant, "nobody@example.com", "editor")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = env.svc.InviteByEmail(ctx, grant, "owner@example.com", "editor")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = env.svc.InviteByEmail(ctx, env.ownerGrant(t, "auto"), "friend@example.com", "editor")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	env.collaborators.add("reading", "friend", "viewer")
	_, err = env.svc.InviteByEmail(ctx, grant, "friend@example.com", "editor")
	require.ErrorIs(t, err, appErr.ErrConflict)
}

func TestInviteByEmailRepeatPendingConflicts(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "reading", Type: model.ListTypeManual}
	grant := env.ownerGrant(t, "reading")

	_, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "editor")
	require.NoError(t, err)
	_, err = env.svc.InviteByEmail(ctx, grant, "friend@example.com", "editor")
	require.ErrorIs(t, err, appErr.ErrConflict)
}

func TestInviteByEmailRevivesDeclined(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "reading", Type: model.ListTypeManual}
	grant := env.ownerGrant(t, "reading")

	_, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "viewer")
	require.NoError(t, err)
	require.NoError(t, env.svc.Decline(ctx, "friend", "reading"))

	inv, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "editor")
	require.NoError(t, err)
	require.Equal(t, repo.InvitationStatusPending, inv.Status)
	require.Equal(t, "editor", inv.Role)
}

func TestInviteAfterRemovalRevives(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "reading", Type: model.ListTypeManual}
	grant := env.ownerGrant(t, "reading")

	_, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "editor")
	require.NoError(t, err)
	require.NoError(t, env.svc.Accept(ctx, "friend", "reading"))
	require.NoError(t, env.listSvc.RemoveCollaborator(ctx, grant, "friend"))

	// the accepted row is stale once the grant is gone; a fresh invite revives it
	inv, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "viewer")
	require.NoError(t, err)
	require.Equal(t, repo.InvitationStatusPending, inv.Status)
	require.Equal(t, "viewer", inv.Role)

	require.NoError(t, env.svc.Accept(ctx, "friend", "reading"))
	collab, err := env.collaborators.Get(ctx, "reading", "friend")
	require.NoError(t, err)
	require.Equal(t, "viewer", collab.Role)
}

func TestAcceptIsIdempotentAndDeclinedIsTerminalForAccept(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "reading", Type: model.ListTypeManual}
	grant := env.ownerGrant(t, "reading")

	_, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "editor")
	require.NoError(t, err)

	require.NoError(t, env.svc.Accept(ctx, "friend", "reading"))
	collab, err := env.collaborators.Get(ctx, "reading", "friend")
	require.NoError(t, err)
	require.Equal(t, "editor", collab.Role)

	// repeated accept: desired end state already holds
	require.NoError(t, env.svc.Accept(ctx, "friend", "reading"))

	// declining after acceptance is a state error
	require.ErrorIs(t, env.svc.Decline(ctx, "friend", "reading"), appErr.ErrInvalid)
}

func TestDeclineIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "reading", Type: model.ListTypeManual}
	grant := env.ownerGrant(t, "reading")

	_, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "viewer")
	require.NoError(t, err)
	require.NoError(t, env.svc.Decline(ctx, "friend", "reading"))
	require.NoError(t, env.svc.Decline(ctx, "friend", "reading"))
}

func TestRevokeOnlyPending(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "reading", Type: model.ListTypeManual}
	grant := env.ownerGrant(t, "reading")

	_, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "viewer")
	require.NoError(t, err)
	require.NoError(t, env.svc.Accept(ctx, "friend", "reading"))
	require.ErrorIs(t, env.svc.Revoke(ctx, grant, "friend"), appErr.ErrNotFound)
}

func TestForListMasksInviteeBelowOwner(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "reading", Type: model.ListTypeManual}
	grant := env.ownerGrant(t, "reading")

	_, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "viewer")
	require.NoError(t, err)
	env.collaborators.add("reading", "helper", "editor")
	env.users.users["helper"] = &model.User{ID: "helper", Email: "helper@example.com", Name: "Helper"}

	ownerV, _ := env.listSvc.FromID(ctx, "owner", "reading")
	views, err := env.svc.ForList(ctx, ownerV)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "Friend", views[0].Name)
	require.Equal(t, "friend@example.com", views[0].Email)

	helperV, _ := env.listSvc.FromID(ctx, "helper", "reading")
	views, err = env.svc.ForList(ctx, helperV)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, maskedInviteeName, views[0].Name)
	require.Empty(t, views[0].Email)
	require.Empty(t, views[0].UserID)
}

func TestPendingForUserCarriesListName(t *testing.T) {
	ctx := context.Background()
	env := newInvitationTestEnv()
	env.lists.lists["reading"] = &model.List{ID: "reading", UserID: "owner", Name: "Weekend Reading", Type: model.ListTypeManual}
	grant := env.ownerGrant(t, "reading")

	_, err := env.svc.InviteByEmail(ctx, grant, "friend@example.com", "viewer")
	require.NoError(t, err)

	items, err := env.svc.PendingForUser(ctx, "friend")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Weekend Reading", items[0].ListName)
}
