package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

func newHighlightTestEnv() (*fakeHighlightStore, *fakeBookmarkStore, *HighlightService) {
	highlights := newFakeHighlightStore()
	bookmarks := newFakeBookmarkStore()
	svc := NewHighlightService(highlights, bookmarks)
	return highlights, bookmarks, svc
}

func TestHighlightCreateGuards(t *testing.T) {
	ctx := context.Background()
	_, bookmarks, svc := newHighlightTestEnv()
	bookmarks.add("alice", "bm")

	_, err := svc.Create(ctx, "alice", CreateHighlightArgs{BookmarkID: "", StartOffset: 0, EndOffset: 5})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Create(ctx, "alice", CreateHighlightArgs{BookmarkID: "bm", StartOffset: 10, EndOffset: 5})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	// the bookmark must live in the caller's own space
	_, err = svc.Create(ctx, "bob", CreateHighlightArgs{BookmarkID: "bm", StartOffset: 0, EndOffset: 5})
	require.ErrorIs(t, err, appErr.ErrNotFound)

	h, err := svc.Create(ctx, "alice", CreateHighlightArgs{BookmarkID: "bm", StartOffset: 0, EndOffset: 5, Text: "quote"})
	require.NoError(t, err)
	require.Equal(t, "alice", h.UserID)
}

func TestHighlightsStayPrivatePerUser(t *testing.T) {
	ctx := context.Background()
	_, bookmarks, svc := newHighlightTestEnv()
	bookmarks.add("alice", "bm")
	bookmarks.add("bob", "bm")

	aliceH, err := svc.Create(ctx, "alice", CreateHighlightArgs{BookmarkID: "bm", StartOffset: 0, EndOffset: 5, Text: "hers"})
	require.NoError(t, err)
	bobH, err := svc.Create(ctx, "bob", CreateHighlightArgs{BookmarkID: "bm", StartOffset: 3, EndOffset: 9, Text: "his"})
	require.NoError(t, err)

	// each reader sees only their own rows on the shared bookmark
	rows, err := svc.ForBookmark(ctx, "bob", "bm")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, bobH.ID, rows[0].ID)

	rows, err = svc.ForBookmark(ctx, "alice", "bm")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, aliceH.ID, rows[0].ID)
}

func TestHighlightHandleIsCallerScoped(t *testing.T) {
	ctx := context.Background()
	_, bookmarks, svc := newHighlightTestEnv()
	bookmarks.add("alice", "bm")

	h, err := svc.Create(ctx, "alice", CreateHighlightArgs{BookmarkID: "bm", StartOffset: 0, EndOffset: 5})
	require.NoError(t, err)

	_, err = svc.FromID(ctx, "bob", h.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	v, err := svc.FromID(ctx, "alice", h.ID)
	require.NoError(t, err)
	grant, err := v.RequireOwner()
	require.NoError(t, err)

	require.ErrorIs(t, svc.Update(ctx, grant, UpdateHighlightArgs{}), appErr.ErrInvalid)

	note := "revisit"
	require.NoError(t, svc.Update(ctx, grant, UpdateHighlightArgs{Note: &note}))
	got, err := svc.FromID(ctx, "alice", h.ID)
	require.NoError(t, err)
	require.Equal(t, "revisit", got.Data().Note)

	require.NoError(t, svc.Delete(ctx, grant))
	_, err = svc.FromID(ctx, "alice", h.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
