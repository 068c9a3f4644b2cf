package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/search"
)

type listTestEnv struct {
	lists         *fakeListStore
	listBookmarks *fakeListBookmarkStore
	collaborators *fakeCollaboratorStore
	bookmarks     *fakeBookmarkStore
	users         *fakeUserStore
	searchStore   *fakeSearchStore
	svc           *ListService
}

func newListTestEnv() *listTestEnv {
	lists := newFakeListStore()
	listBookmarks := newFakeListBookmarkStore()
	collaborators := newFakeCollaboratorStore(listBookmarks)
	collaborators.lists = lists
	bookmarks := newFakeBookmarkStore()
	users := newFakeUserStore(
		&model.User{ID: "owner", Email: "owner@example.com", Name: "Owner"},
		&model.User{ID: "editor", Email: "editor@example.com", Name: "Editor"},
		&model.User{ID: "viewer", Email: "viewer@example.com", Name: "Viewer"},
		&model.User{ID: "stranger", Email: "stranger@example.com", Name: "Stranger"},
	)
	searchStore := &fakeSearchStore{}
	evaluator := search.NewEvaluator(searchStore, search.NewJSONQueryParser())
	svc := NewListService(lists, listBookmarks, collaborators, bookmarks, users, evaluator)
	return &listTestEnv{
		lists:         lists,
		listBookmarks: listBookmarks,
		collaborators: collaborators,
		bookmarks:     bookmarks,
		users:         users,
		searchStore:   searchStore,
		svc:           svc,
	}
}

func (env *listTestEnv) addList(id, typ string) {
	env.lists.lists[id] = &model.List{ID: id, UserID: "owner", Name: id, Type: typ}
}

func TestFromIDResolvesLevels(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.addList("reading", model.ListTypeManual)
	env.collaborators.add("reading", "editor", "editor")
	env.collaborators.add("reading", "viewer", "viewer")

	v, err := env.svc.FromID(ctx, "owner", "reading")
	require.NoError(t, err)
	require.Equal(t, access.LevelOwner, v.Level())
	require.True(t, v.Data().HasCollaborators)

	v, err = env.svc.FromID(ctx, "editor", "reading")
	require.NoError(t, err)
	require.Equal(t, access.LevelEditor, v.Level())

	v, err = env.svc.FromID(ctx, "viewer", "reading")
	require.NoError(t, err)
	require.Equal(t, access.LevelViewer, v.Level())
}

func TestFromIDStrangerReadsAsNotFound(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.addList("reading", model.ListTypeManual)

	_, err := env.svc.FromID(ctx, "stranger", "reading")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = env.svc.FromID(ctx, "owner", "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestGrantsFollowLevelOrder(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.addList("reading", model.ListTypeManual)
	env.collaborators.add("reading", "editor", "editor")
	env.collaborators.add("reading", "viewer", "viewer")

	ownerV, _ := env.svc.FromID(ctx, "owner", "reading")
	editorV, _ := env.svc.FromID(ctx, "editor", "reading")
	viewerV, _ := env.svc.FromID(ctx, "viewer", "reading")

	_, err := ownerV.RequireOwner()
	require.NoError(t, err)
	_, err = editorV.RequireOwner()
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = editorV.RequireEditor()
	require.NoError(t, err)
	_, err = viewerV.RequireEditor()
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestUpdateRejectsQueryOnManualList(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.addList("reading", model.ListTypeManual)

	v, _ := env.svc.FromID(ctx, "owner", "reading")
	grant, err := v.RequireOwner()
	require.NoError(t, err)

	query := `{"type":"tag","name":"work"}`
	err = env.svc.Update(ctx, grant, UpdateListArgs{Query: &query})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	// presence of the field is what a manual list rejects, even empty
	empty := ""
	err = env.svc.Update(ctx, grant, UpdateListArgs{Query: &empty})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestUpdateRejectsEmptyQueryOnSmartList(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.addList("auto", model.ListTypeSmart)

	v, _ := env.svc.FromID(ctx, "owner", "auto")
	grant, err := v.RequireOwner()
	require.NoError(t, err)

	empty := ""
	err = env.svc.Update(ctx, grant, UpdateListArgs{Query: &empty})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestAddBookmarkManualOnlyAndOwnerScoped(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.addList("reading", model.ListTypeManual)
	env.addList("auto", model.ListTypeSmart)
	env.collaborators.add("reading", "editor", "editor")
	env.collaborators.add("auto", "editor", "editor")
	env.bookmarks.add("owner", "b1")
	env.bookmarks.add("editor", "b2")

	v, _ := env.svc.FromID(ctx, "editor", "reading")
	grant, err := v.RequireEditor()
	require.NoError(t, err)

	// collaborator attaches the owner's bookmark
	require.NoError(t, env.svc.AddBookmark(ctx, grant, "b1"))
	require.Equal(t, "editor", env.listBookmarks.members["reading"]["b1"])

	// the collaborator's own bookmark is not in the owner's space
	err = env.svc.AddBookmark(ctx, grant, "b2")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	smartV, _ := env.svc.FromID(ctx, "editor", "auto")
	smartGrant, err := smartV.RequireEditor()
	require.NoError(t, err)
	err = env.svc.AddBookmark(ctx, smartGrant, "b1")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestLeaveRemovesContributionsAndRejectsOwner(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.addList("reading", model.ListTypeManual)
	env.collaborators.add("reading", "editor", "editor")
	env.bookmarks.add("owner", "b1")
	env.bookmarks.add("owner", "b2")
	_ = env.listBookmarks.Add(ctx, "reading", "b1", "editor", 0)
	_ = env.listBookmarks.Add(ctx, "reading", "b2", "owner", 0)

	ownerV, _ := env.svc.FromID(ctx, "owner", "reading")
	require.ErrorIs(t, env.svc.Leave(ctx, ownerV), appErr.ErrInvalid)

	editorV, _ := env.svc.FromID(ctx, "editor", "reading")
	require.NoError(t, env.svc.Leave(ctx, editorV))

	ids, _ := env.listBookmarks.BookmarkIDs(ctx, "reading")
	require.Equal(t, []string{"b2"}, ids)
	_, err := env.collaborators.Get(ctx, "reading", "editor")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestMergeGuards(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.addList("a", model.ListTypeManual)
	env.addList("b", model.ListTypeManual)
	env.addList("auto", model.ListTypeSmart)

	get := func(callerID, listID string) access.OwnerGrant {
		v, err := env.svc.FromID(ctx, callerID, listID)
		require.NoError(t, err)
		grant, err := v.RequireOwner()
		require.NoError(t, err)
		return grant
	}

	a := get("owner", "a")
	require.ErrorIs(t, env.svc.MergeInto(ctx, a, a, true), appErr.ErrInvalid)
	require.ErrorIs(t, env.svc.MergeInto(ctx, a, get("owner", "auto"), true), appErr.ErrInvalid)

	b := get("owner", "b")
	require.NoError(t, env.svc.MergeInto(ctx, a, b, false))
	require.Contains(t, env.lists.lists, "a")

	require.NoError(t, env.svc.MergeInto(ctx, a, b, true))
	require.NotContains(t, env.lists.lists, "a")
	require.Equal(t, []string{"a->b", "a->b"}, env.lists.merged)
}

func TestSmartListEvaluatesUnderOwnerIdentity(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.lists.lists["auto"] = &model.List{
		ID: "auto", UserID: "owner", Name: "auto",
		Type: model.ListTypeSmart, Query: `{"type":"tag","name":"work"}`,
	}
	env.collaborators.add("auto", "viewer", "viewer")
	env.searchStore.ids = []string{"b1"}

	v, _ := env.svc.FromID(ctx, "viewer", "auto")
	ids, err := env.svc.BookmarkIDs(ctx, v)
	require.NoError(t, err)
	require.Equal(t, []string{"b1"}, ids)
	for _, seen := range env.searchStore.seenUserIDs {
		require.Equal(t, "owner", seen)
	}
}

func TestPublicAccess(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.lists.lists["open"] = &model.List{ID: "open", UserID: "owner", Name: "open", Type: model.ListTypeManual, Public: true}
	env.lists.lists["fed"] = &model.List{ID: "fed", UserID: "owner", Name: "fed", Type: model.ListTypeManual, RSSToken: "tok"}
	env.lists.lists["closed"] = &model.List{ID: "closed", UserID: "owner", Name: "closed", Type: model.ListTypeManual}

	v, err := env.svc.PublicFromToken(ctx, "open", "")
	require.NoError(t, err)
	require.True(t, v.Public())
	_, err = v.RequireEditor()
	require.ErrorIs(t, err, appErr.ErrForbidden)

	_, err = env.svc.PublicFromToken(ctx, "fed", "tok")
	require.NoError(t, err)
	_, err = env.svc.PublicFromToken(ctx, "fed", "wrong")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = env.svc.PublicFromToken(ctx, "closed", "")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = env.svc.PublicFromToken(ctx, "missing", "")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestCollaboratorEmailsAreOwnerOnly(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.addList("reading", model.ListTypeManual)
	env.collaborators.add("reading", "editor", "editor")
	env.collaborators.add("reading", "viewer", "viewer")

	ownerV, _ := env.svc.FromID(ctx, "owner", "reading")
	views, err := env.svc.Collaborators(ctx, ownerV)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, view := range views {
		require.NotEmpty(t, view.Email)
	}

	viewerV, _ := env.svc.FromID(ctx, "viewer", "reading")
	views, err = env.svc.Collaborators(ctx, viewerV)
	require.NoError(t, err)
	for _, view := range views {
		require.Empty(t, view.Email)
		require.NotEmpty(t, view.Name)
	}
}

func TestChildrenWalkSurvivesParentCycle(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.lists.lists["a"] = &model.List{ID: "a", UserID: "owner", Name: "a", Type: model.ListTypeManual, ParentID: "b"}
	env.lists.lists["b"] = &model.List{ID: "b", UserID: "owner", Name: "b", Type: model.ListTypeManual, ParentID: "a"}
	env.lists.lists["c"] = &model.List{ID: "c", UserID: "owner", Name: "c", Type: model.ListTypeManual, ParentID: "a"}

	v, err := env.svc.FromID(ctx, "owner", "a")
	require.NoError(t, err)
	children, err := env.svc.Children(ctx, v)
	require.NoError(t, err)
	ids := make([]string, 0, len(children))
	for _, child := range children {
		ids = append(ids, child.ID)
	}
	require.ElementsMatch(t, []string{"b", "c"}, ids)
}

func TestPublicProjectionOmitsOwnerFields(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.lists.lists["open"] = &model.List{
		ID: "open", UserID: "owner", Name: "open", Type: model.ListTypeManual,
		Public: true, RSSToken: "tok", ParentID: "secret-parent",
	}
	v, err := env.svc.PublicFromToken(ctx, "open", "")
	require.NoError(t, err)
	pub := env.svc.AsPublicList(v)
	require.Equal(t, "open", pub.ID)
	require.Equal(t, "open", pub.Name)
}

func TestViewProjectionHidesOwnerFieldsBelowOwner(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.lists.lists["reading"] = &model.List{
		ID: "reading", UserID: "owner", Name: "reading",
		Type: model.ListTypeManual, ParentID: "secret-parent",
	}
	env.collaborators.add("reading", "viewer", "viewer")

	ownerV, err := env.svc.FromID(ctx, "owner", "reading")
	require.NoError(t, err)
	view := env.svc.AsView(ownerV)
	require.Equal(t, "owner", view.UserID)
	require.Equal(t, "secret-parent", view.ParentID)
	require.Equal(t, "owner", view.Role)

	viewerV, err := env.svc.FromID(ctx, "viewer", "reading")
	require.NoError(t, err)
	view = env.svc.AsView(viewerV)
	require.Empty(t, view.UserID)
	require.Empty(t, view.ParentID)
	require.Equal(t, "viewer", view.Role)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret-parent")
	require.NotContains(t, string(data), "user_id")
}

func TestSharedListsProjectAtCollaboratorLevel(t *testing.T) {
	ctx := context.Background()
	env := newListTestEnv()
	env.lists.lists["reading"] = &model.List{
		ID: "reading", UserID: "owner", Name: "reading",
		Type: model.ListTypeManual, ParentID: "secret-parent",
	}
	env.lists.lists["notes"] = &model.List{
		ID: "notes", UserID: "owner", Name: "notes", Type: model.ListTypeManual,
	}
	env.collaborators.add("reading", "viewer", "viewer")
	env.collaborators.add("notes", "viewer", "editor")

	views, err := env.svc.GetSharedWithUser(ctx, "viewer")
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, view := range views {
		require.Empty(t, view.UserID)
		require.Empty(t, view.ParentID)
	}
	require.Equal(t, "notes", views[0].ID)
	require.Equal(t, "editor", views[0].Role)
	require.Equal(t, "reading", views[1].ID)
	require.Equal(t, "viewer", views[1].Role)
}
