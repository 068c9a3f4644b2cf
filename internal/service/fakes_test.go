package service

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/shelfmark/shelfmark/internal/filestore"
	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/repo"
	"github.com/shelfmark/shelfmark/internal/search"
)

type fakeListStore struct {
	lists  map[string]*model.List
	merged []string
}

func newFakeListStore() *fakeListStore {
	return &fakeListStore{lists: make(map[string]*model.List)}
}

func (f *fakeListStore) Create(ctx context.Context, l *model.List) error {
	if _, ok := f.lists[l.ID]; ok {
		return appErr.ErrConflict
	}
	cp := *l
	f.lists[l.ID] = &cp
	return nil
}

func (f *fakeListStore) GetOwned(ctx context.Context, userID, id string) (*model.List, error) {
	l, ok := f.lists[id]
	if !ok || l.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListStore) GetAny(ctx context.Context, id string) (*model.List, error) {
	l, ok := f.lists[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListStore) ListOwned(ctx context.Context, userID string) ([]model.List, error) {
	out := make([]model.List, 0)
	for _, l := range f.lists {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeListStore) ListByParent(ctx context.Context, userID, parentID string) ([]model.List, error) {
	out := make([]model.List, 0)
	for _, l := range f.lists {
		if l.UserID == userID && l.ParentID == parentID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeListStore) UpdateOwned(ctx context.Context, userID, id string, update map[string]interface{}) error {
	l, ok := f.lists[id]
	if !ok || l.UserID != userID {
		return appErr.ErrNotFound
	}
	for key, value := range update {
		switch key {
		case "name":
			l.Name = value.(string)
		case "query":
			l.Query = value.(string)
		case "parent_id":
			l.ParentID = value.(string)
		case "rss_token":
			l.RSSToken = value.(string)
		case "public":
			l.Public = value.(int) != 0
		}
	}
	return nil
}

func (f *fakeListStore) DeleteCascade(ctx context.Context, userID, id string) error {
	l, ok := f.lists[id]
	if !ok || l.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(f.lists, id)
	return nil
}

func (f *fakeListStore) MergeBookmarks(ctx context.Context, userID, srcID, dstID string, deleteSource bool) error {
	f.merged = append(f.merged, srcID+"->"+dstID)
	if deleteSource {
		delete(f.lists, srcID)
	}
	return nil
}

type fakeListBookmarkStore struct {
	members map[string]map[string]string // listID -> bookmarkID -> addedBy
}

func newFakeListBookmarkStore() *fakeListBookmarkStore {
	return &fakeListBookmarkStore{members: make(map[string]map[string]string)}
}

func (f *fakeListBookmarkStore) Add(ctx context.Context, listID, bookmarkID, addedBy string, now int64) error {
	if f.members[listID] == nil {
		f.members[listID] = make(map[string]string)
	}
	if _, ok := f.members[listID][bookmarkID]; ok {
		return nil
	}
	f.members[listID][bookmarkID] = addedBy
	return nil
}

func (f *fakeListBookmarkStore) Remove(ctx context.Context, listID, bookmarkID string) error {
	if _, ok := f.members[listID][bookmarkID]; !ok {
		return appErr.ErrNotFound
	}
	delete(f.members[listID], bookmarkID)
	return nil
}

func (f *fakeListBookmarkStore) BookmarkIDs(ctx context.Context, listID string) ([]string, error) {
	ids := make([]string, 0, len(f.members[listID]))
	for id := range f.members[listID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeListBookmarkStore) Contains(ctx context.Context, listID, bookmarkID string) (bool, error) {
	_, ok := f.members[listID][bookmarkID]
	return ok, nil
}

type fakeCollaboratorStore struct {
	rows          map[string]map[string]*model.ListCollaborator
	listBookmarks *fakeListBookmarkStore
	lists         *fakeListStore
}

func newFakeCollaboratorStore(lb *fakeListBookmarkStore) *fakeCollaboratorStore {
	return &fakeCollaboratorStore{
		rows:          make(map[string]map[string]*model.ListCollaborator),
		listBookmarks: lb,
	}
}

func (f *fakeCollaboratorStore) add(listID, userID, role string) {
	if f.rows[listID] == nil {
		f.rows[listID] = make(map[string]*model.ListCollaborator)
	}
	f.rows[listID][userID] = &model.ListCollaborator{ListID: listID, UserID: userID, Role: role}
}

func (f *fakeCollaboratorStore) Get(ctx context.Context, listID, userID string) (*model.ListCollaborator, error) {
	row, ok := f.rows[listID][userID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeCollaboratorStore) ListForList(ctx context.Context, listID string) ([]model.ListCollaborator, error) {
	out := make([]model.ListCollaborator, 0)
	for _, row := range f.rows[listID] {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeCollaboratorStore) HasAny(ctx context.Context, listID string) (bool, error) {
	return len(f.rows[listID]) > 0, nil
}

func (f *fakeCollaboratorStore) ListsSharedWithUser(ctx context.Context, userID string) ([]model.List, error) {
	out := make([]model.List, 0)
	for listID, byUser := range f.rows {
		if _, ok := byUser[userID]; !ok {
			continue
		}
		if f.lists == nil {
			continue
		}
		if l, ok := f.lists.lists[listID]; ok {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCollaboratorStore) UpdateRole(ctx context.Context, listID, userID, role string) error {
	row, ok := f.rows[listID][userID]
	if !ok {
		return appErr.ErrNotFound
	}
	row.Role = role
	return nil
}

func (f *fakeCollaboratorStore) Delete(ctx context.Context, listID, userID string) error {
	if _, ok := f.rows[listID][userID]; !ok {
		return appErr.ErrNotFound
	}
	delete(f.rows[listID], userID)
	return nil
}

func (f *fakeCollaboratorStore) DeleteWithContributions(ctx context.Context, listID, userID string) error {
	if _, ok := f.rows[listID][userID]; !ok {
		return appErr.ErrNotFound
	}
	delete(f.rows[listID], userID)
	if f.listBookmarks != nil {
		for bookmarkID, addedBy := range f.listBookmarks.members[listID] {
			if addedBy == userID {
				delete(f.listBookmarks.members[listID], bookmarkID)
			}
		}
	}
	return nil
}

type fakeBookmarkStore struct {
	bookmarks map[string]map[string]*model.Bookmark // userID -> id -> bookmark
}

func newFakeBookmarkStore() *fakeBookmarkStore {
	return &fakeBookmarkStore{bookmarks: make(map[string]map[string]*model.Bookmark)}
}

func (f *fakeBookmarkStore) add(userID, id string) {
	if f.bookmarks[userID] == nil {
		f.bookmarks[userID] = make(map[string]*model.Bookmark)
	}
	f.bookmarks[userID][id] = &model.Bookmark{ID: id, UserID: userID, Type: model.BookmarkTypeLink}
}

func (f *fakeBookmarkStore) Create(ctx context.Context, b *model.Bookmark) error {
	if f.bookmarks[b.UserID] == nil {
		f.bookmarks[b.UserID] = make(map[string]*model.Bookmark)
	}
	cp := *b
	f.bookmarks[b.UserID][b.ID] = &cp
	return nil
}

func (f *fakeBookmarkStore) Get(ctx context.Context, userID, id string) (*model.Bookmark, error) {
	b, ok := f.bookmarks[userID][id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookmarkStore) GetByIDs(ctx context.Context, userID string, ids []string) ([]model.Bookmark, error) {
	out := make([]model.Bookmark, 0)
	for _, id := range ids {
		if b, ok := f.bookmarks[userID][id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookmarkStore) List(ctx context.Context, userID string, limit, offset uint) ([]model.Bookmark, error) {
	out := make([]model.Bookmark, 0)
	for _, b := range f.bookmarks[userID] {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBookmarkStore) Update(ctx context.Context, userID, id string, update map[string]interface{}) error {
	if _, ok := f.bookmarks[userID][id]; !ok {
		return appErr.ErrNotFound
	}
	return nil
}

func (f *fakeBookmarkStore) Delete(ctx context.Context, userID, id string) error {
	if _, ok := f.bookmarks[userID][id]; !ok {
		return appErr.ErrNotFound
	}
	delete(f.bookmarks[userID], id)
	return nil
}

func (f *fakeBookmarkStore) CountByUser(ctx context.Context, userID string) (int, error) {
	return len(f.bookmarks[userID]), nil
}

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[string]*model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return appErr.ErrConflict
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (f *fakeUserStore) GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

type fakeInvitationStore struct {
	invs          map[string]map[string]*model.ListInvitation // listID -> userID
	collaborators *fakeCollaboratorStore
}

func newFakeInvitationStore(collabs *fakeCollaboratorStore) *fakeInvitationStore {
	return &fakeInvitationStore{
		invs:          make(map[string]map[string]*model.ListInvitation),
		collaborators: collabs,
	}
}

func (f *fakeInvitationStore) Create(ctx context.Context, inv *model.ListInvitation) error {
	if f.invs[inv.ListID] == nil {
		f.invs[inv.ListID] = make(map[string]*model.ListInvitation)
	}
	if _, ok := f.invs[inv.ListID][inv.UserID]; ok {
		return appErr.ErrConflict
	}
	cp := *inv
	f.invs[inv.ListID][inv.UserID] = &cp
	return nil
}

func (f *fakeInvitationStore) GetByListAndUser(ctx context.Context, listID, userID string) (*model.ListInvitation, error) {
	inv, ok := f.invs[listID][userID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationStore) ListForList(ctx context.Context, listID string) ([]model.ListInvitation, error) {
	out := make([]model.ListInvitation, 0)
	for _, inv := range f.invs[listID] {
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeInvitationStore) ListPendingForUser(ctx context.Context, userID string) ([]model.ListInvitation, error) {
	out := make([]model.ListInvitation, 0)
	for _, byUser := range f.invs {
		if inv, ok := byUser[userID]; ok && inv.Status == repo.InvitationStatusPending {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ListID < out[j].ListID })
	return out, nil
}

func (f *fakeInvitationStore) Reinvite(ctx context.Context, listID, userID, role string, now int64) error {
	inv, ok := f.invs[listID][userID]
	if !ok || inv.Status == repo.InvitationStatusPending {
		return appErr.ErrNotFound
	}
	inv.Status = repo.InvitationStatusPending
	inv.Role = role
	inv.InvitedAt = now
	return nil
}

func (f *fakeInvitationStore) Accept(ctx context.Context, listID, userID string, now int64) error {
	inv, ok := f.invs[listID][userID]
	if !ok {
		return appErr.ErrNotFound
	}
	switch inv.Status {
	case repo.InvitationStatusPending:
		inv.Status = repo.InvitationStatusAccepted
	case repo.InvitationStatusAccepted:
	default:
		return appErr.ErrInvalid
	}
	if f.collaborators != nil {
		if _, err := f.collaborators.Get(ctx, listID, userID); appErr.IsNotFound(err) {
			f.collaborators.add(listID, userID, inv.Role)
		}
	}
	return nil
}

func (f *fakeInvitationStore) Decline(ctx context.Context, listID, userID string) error {
	inv, ok := f.invs[listID][userID]
	if !ok {
		return appErr.ErrNotFound
	}
	switch inv.Status {
	case repo.InvitationStatusPending, repo.InvitationStatusDeclined:
		inv.Status = repo.InvitationStatusDeclined
		return nil
	}
	return appErr.ErrInvalid
}

func (f *fakeInvitationStore) Revoke(ctx context.Context, listID, userID string) error {
	inv, ok := f.invs[listID][userID]
	if !ok || inv.Status != repo.InvitationStatusPending {
		return appErr.ErrNotFound
	}
	delete(f.invs[listID], userID)
	return nil
}

type fakeTagStore struct {
	tags     map[string]map[string]*repo.Tag // userID -> tagID -> tag
	attached map[string]map[string][]string  // userID -> bookmarkID -> tagIDs
}

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{
		tags:     make(map[string]map[string]*repo.Tag),
		attached: make(map[string]map[string][]string),
	}
}

func (f *fakeTagStore) Ensure(ctx context.Context, userID, name, newID string, now int64) (string, error) {
	if f.tags[userID] == nil {
		f.tags[userID] = make(map[string]*repo.Tag)
	}
	for _, tag := range f.tags[userID] {
		if tag.Name == name {
			return tag.ID, nil
		}
	}
	f.tags[userID][newID] = &repo.Tag{ID: newID, UserID: userID, Name: name, Ctime: now}
	return newID, nil
}

func (f *fakeTagStore) ListByUser(ctx context.Context, userID string) ([]repo.Tag, error) {
	out := make([]repo.Tag, 0)
	for _, tag := range f.tags[userID] {
		out = append(out, *tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTagStore) Attach(ctx context.Context, userID, bookmarkID, tagID string) error {
	if f.attached[userID] == nil {
		f.attached[userID] = make(map[string][]string)
	}
	f.attached[userID][bookmarkID] = append(f.attached[userID][bookmarkID], tagID)
	return nil
}

func (f *fakeTagStore) Detach(ctx context.Context, userID, bookmarkID, tagID string) error {
	ids := f.attached[userID][bookmarkID]
	for i, id := range ids {
		if id == tagID {
			f.attached[userID][bookmarkID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return appErr.ErrNotFound
}

func (f *fakeTagStore) TagNamesForBookmarks(ctx context.Context, userID string, bookmarkIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, bookmarkID := range bookmarkIDs {
		for _, tagID := range f.attached[userID][bookmarkID] {
			if tag, ok := f.tags[userID][tagID]; ok {
				out[bookmarkID] = append(out[bookmarkID], tag.Name)
			}
		}
	}
	return out, nil
}

type fakeHighlightStore struct {
	rows map[string]map[string]*model.Highlight // userID -> id -> highlight
}

func newFakeHighlightStore() *fakeHighlightStore {
	return &fakeHighlightStore{rows: make(map[string]map[string]*model.Highlight)}
}

func (f *fakeHighlightStore) Create(ctx context.Context, h *model.Highlight) error {
	if f.rows[h.UserID] == nil {
		f.rows[h.UserID] = make(map[string]*model.Highlight)
	}
	cp := *h
	f.rows[h.UserID][h.ID] = &cp
	return nil
}

func (f *fakeHighlightStore) Get(ctx context.Context, userID, id string) (*model.Highlight, error) {
	h, ok := f.rows[userID][id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (f *fakeHighlightStore) ListForBookmark(ctx context.Context, userID, bookmarkID string) ([]model.Highlight, error) {
	out := make([]model.Highlight, 0)
	for _, h := range f.rows[userID] {
		if h.BookmarkID == bookmarkID {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeHighlightStore) ListForUser(ctx context.Context, userID string) ([]model.Highlight, error) {
	out := make([]model.Highlight, 0)
	for _, h := range f.rows[userID] {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeHighlightStore) Update(ctx context.Context, userID, id string, update map[string]interface{}) error {
	h, ok := f.rows[userID][id]
	if !ok {
		return appErr.ErrNotFound
	}
	for key, value := range update {
		switch key {
		case "color":
			h.Color = value.(string)
		case "note":
			h.Note = value.(string)
		}
	}
	return nil
}

func (f *fakeHighlightStore) Delete(ctx context.Context, userID, id string) error {
	if _, ok := f.rows[userID][id]; !ok {
		return appErr.ErrNotFound
	}
	delete(f.rows[userID], id)
	return nil
}

type fakeImportStore struct {
	sessions  map[string]*model.ImportSession
	bookmarks map[string]map[string]*model.ImportBookmark // sessionID -> bookmarkID
}

func newFakeImportStore() *fakeImportStore {
	return &fakeImportStore{
		sessions:  make(map[string]*model.ImportSession),
		bookmarks: make(map[string]map[string]*model.ImportBookmark),
	}
}

func (f *fakeImportStore) CreateSession(ctx context.Context, s *model.ImportSession) error {
	if _, ok := f.sessions[s.ID]; ok {
		return appErr.ErrConflict
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeImportStore) GetSession(ctx context.Context, userID, id string) (*model.ImportSession, error) {
	s, ok := f.sessions[id]
	if !ok || s.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeImportStore) ListSessions(ctx context.Context, userID string) ([]model.ImportSession, error) {
	out := make([]model.ImportSession, 0)
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeImportStore) AttachBookmark(ctx context.Context, sessionID, bookmarkID string, now int64) error {
	if f.bookmarks[sessionID] == nil {
		f.bookmarks[sessionID] = make(map[string]*model.ImportBookmark)
	}
	if _, ok := f.bookmarks[sessionID][bookmarkID]; ok {
		return nil
	}
	f.bookmarks[sessionID][bookmarkID] = &model.ImportBookmark{
		SessionID:      sessionID,
		BookmarkID:     bookmarkID,
		CrawlStatus:    model.ImportStatusPending,
		TaggingStatus:  model.ImportStatusPending,
		IndexingStatus: model.ImportStatusPending,
		Ctime:          now,
	}
	return nil
}

func (f *fakeImportStore) UpdateBookmarkStatus(ctx context.Context, sessionID, bookmarkID string, update map[string]interface{}) error {
	row, ok := f.bookmarks[sessionID][bookmarkID]
	if !ok {
		return appErr.ErrNotFound
	}
	for key, value := range update {
		switch key {
		case "crawl_status":
			row.CrawlStatus = value.(string)
		case "tagging_status":
			row.TaggingStatus = value.(string)
		case "indexing_status":
			row.IndexingStatus = value.(string)
		}
	}
	return nil
}

func (f *fakeImportStore) ListBookmarks(ctx context.Context, sessionID string) ([]model.ImportBookmark, error) {
	out := make([]model.ImportBookmark, 0)
	for _, row := range f.bookmarks[sessionID] {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookmarkID < out[j].BookmarkID })
	return out, nil
}

func (f *fakeImportStore) DeleteSessionsBefore(ctx context.Context, cutoff int64) (int64, error) {
	var deleted int64
	for id, s := range f.sessions {
		if s.Ctime < cutoff {
			delete(f.sessions, id)
			delete(f.bookmarks, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeBackupStore struct {
	rows map[string]map[string]*model.Backup // userID -> id -> backup
}

func newFakeBackupStore() *fakeBackupStore {
	return &fakeBackupStore{rows: make(map[string]map[string]*model.Backup)}
}

func (f *fakeBackupStore) Create(ctx context.Context, b *model.Backup) error {
	if f.rows[b.UserID] == nil {
		f.rows[b.UserID] = make(map[string]*model.Backup)
	}
	cp := *b
	f.rows[b.UserID][b.ID] = &cp
	return nil
}

func (f *fakeBackupStore) Get(ctx context.Context, userID, id string) (*model.Backup, error) {
	b, ok := f.rows[userID][id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBackupStore) ListByUser(ctx context.Context, userID string) ([]model.Backup, error) {
	out := make([]model.Backup, 0)
	for _, b := range f.rows[userID] {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBackupStore) Update(ctx context.Context, userID, id string, update map[string]interface{}) error {
	b, ok := f.rows[userID][id]
	if !ok {
		return appErr.ErrNotFound
	}
	for key, value := range update {
		switch key {
		case "asset_id":
			b.AssetID = value.(string)
		case "size":
			b.Size = value.(int64)
		case "bookmark_count":
			b.BookmarkCount = value.(int)
		case "status":
			b.Status = value.(string)
		case "error_message":
			b.ErrorMessage = value.(string)
		}
	}
	return nil
}

func (f *fakeBackupStore) Delete(ctx context.Context, userID, id string) error {
	if _, ok := f.rows[userID][id]; !ok {
		return appErr.ErrNotFound
	}
	delete(f.rows[userID], id)
	return nil
}

func (f *fakeBackupStore) ListOlderThan(ctx context.Context, cutoff int64) ([]model.Backup, error) {
	out := make([]model.Backup, 0)
	for _, byID := range f.rows {
		for _, b := range byID {
			if b.Ctime < cutoff {
				out = append(out, *b)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeBlobStore struct {
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Save(ctx context.Context, key string, r filestore.ReadSeekCloser, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.blobs[key] = data
	return nil
}

func (f *fakeBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(f.blobs, key)
	return nil
}

// fakeSearchStore records the identity every query ran under.
type fakeSearchStore struct {
	seenUserIDs []string
	ids         []string
}

func (f *fakeSearchStore) AllBookmarkIDs(ctx context.Context, userID string) ([]string, error) {
	f.seenUserIDs = append(f.seenUserIDs, userID)
	return f.ids, nil
}

func (f *fakeSearchStore) FilterBookmarkIDs(ctx context.Context, userID string, lf search.LeafFilter) ([]string, error) {
	f.seenUserIDs = append(f.seenUserIDs, userID)
	return f.ids, nil
}

func (f *fakeSearchStore) ListByName(ctx context.Context, userID, name string) (*search.ListRef, error) {
	return nil, appErr.ErrNotFound
}

func (f *fakeSearchStore) ManualListBookmarkIDs(ctx context.Context, userID, listID string) ([]string, error) {
	return nil, nil
}

func (f *fakeSearchStore) BookmarkIDsInAnyManualList(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

func (f *fakeSearchStore) SmartLists(ctx context.Context, userID string) ([]search.ListRef, error) {
	return nil, nil
}
