package service

import (
	"context"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/pkg/timeutil"
	"github.com/shelfmark/shelfmark/internal/search"
)

type ListStore interface {
	Create(ctx context.Context, l *model.List) error
	GetOwned(ctx context.Context, userID, id string) (*model.List, error)
	GetAny(ctx context.Context, id string) (*model.List, error)
	ListOwned(ctx context.Context, userID string) ([]model.List, error)
	ListByParent(ctx context.Context, userID, parentID string) ([]model.List, error)
	UpdateOwned(ctx context.Context, userID, id string, update map[string]interface{}) error
	DeleteCascade(ctx context.Context, userID, id string) error
	MergeBookmarks(ctx context.Context, userID, srcID, dstID string, deleteSource bool) error
}

type ListBookmarkStore interface {
	Add(ctx context.Context, listID, bookmarkID, addedBy string, now int64) error
	Remove(ctx context.Context, listID, bookmarkID string) error
	BookmarkIDs(ctx context.Context, listID string) ([]string, error)
	Contains(ctx context.Context, listID, bookmarkID string) (bool, error)
}

type CollaboratorStore interface {
	Get(ctx context.Context, listID, userID string) (*model.ListCollaborator, error)
	ListForList(ctx context.Context, listID string) ([]model.ListCollaborator, error)
	HasAny(ctx context.Context, listID string) (bool, error)
	ListsSharedWithUser(ctx context.Context, userID string) ([]model.List, error)
	UpdateRole(ctx context.Context, listID, userID, role string) error
	Delete(ctx context.Context, listID, userID string) error
	DeleteWithContributions(ctx context.Context, listID, userID string) error
}

type UserLookup interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

// List is the sealed payload behind a verified handle: the stored row plus the
// collaboration facts resolved alongside it.
type List struct {
	Row              model.List
	HasCollaborators bool
}

type ListService struct {
	lists         ListStore
	listBookmarks ListBookmarkStore
	collaborators CollaboratorStore
	bookmarks     BookmarkStore
	users         UserLookup
	evaluator     *search.Evaluator
}

func NewListService(lists ListStore, listBookmarks ListBookmarkStore, collaborators CollaboratorStore,
	bookmarks BookmarkStore, users UserLookup, evaluator *search.Evaluator) *ListService {
	return &ListService{
		lists:         lists,
		listBookmarks: listBookmarks,
		collaborators: collaborators,
		bookmarks:     bookmarks,
		users:         users,
		evaluator:     evaluator,
	}
}

// FromID is the only way to turn a raw list id into a usable handle. It proves
// the caller's relationship to the list before any data leaves this package:
// owner row first, collaborator row second, and everything else reads as not
// found rather than forbidden, so probing ids leaks nothing about what exists.
func (s *ListService) FromID(ctx context.Context, callerID, listID string) (access.Verified[List], error) {
	var zero access.Verified[List]
	row, err := s.lists.GetAny(ctx, listID)
	if err != nil {
		return zero, err
	}
	hasCollab, err := s.collaborators.HasAny(ctx, listID)
	if err != nil {
		return zero, err
	}
	payload := List{Row: *row, HasCollaborators: hasCollab}
	if row.UserID == callerID {
		return access.Seal(callerID, listID, payload, access.LevelOwner), nil
	}
	collab, err := s.collaborators.Get(ctx, listID, callerID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return zero, appErr.ErrNotFound
		}
		return zero, err
	}
	level, err := access.ParseRole(collab.Role)
	if err != nil {
		return zero, err
	}
	return access.Seal(callerID, listID, payload, level), nil
}

type CreateListArgs struct {
	Name        string
	Icon        string
	Description string
	Type        string
	Query       string
	ParentID    string
}

func (s *ListService) Create(ctx context.Context, userID string, args CreateListArgs) (*model.List, error) {
	if args.Name == "" {
		return nil, appErr.ErrInvalid
	}
	typ := args.Type
	if typ == "" {
		typ = model.ListTypeManual
	}
	switch typ {
	case model.ListTypeManual:
		if args.Query != "" {
			return nil, appErr.ErrInvalid
		}
	case model.ListTypeSmart:
		if args.Query == "" {
			return nil, appErr.ErrInvalid
		}
	default:
		return nil, appErr.ErrInvalid
	}
	if args.ParentID != "" {
		if _, err := s.lists.GetOwned(ctx, userID, args.ParentID); err != nil {
			return nil, err
		}
	}
	now := timeutil.NowUnix()
	l := &model.List{
		ID:          newID(),
		UserID:      userID,
		Name:        args.Name,
		Icon:        args.Icon,
		Description: args.Description,
		Type:        typ,
		Query:       args.Query,
		ParentID:    args.ParentID,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.lists.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListService) GetAll(ctx context.Context, userID string) ([]model.List, error) {
	return s.lists.ListOwned(ctx, userID)
}

// GetSharedWithUser lists every list shared with the user, projected at the
// collaborator's proven level so owner-only fields never leave the service.
func (s *ListService) GetSharedWithUser(ctx context.Context, userID string) ([]ListView, error) {
	rows, err := s.collaborators.ListsSharedWithUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]ListView, 0, len(rows))
	for _, row := range rows {
		level := access.LevelViewer
		if collab, err := s.collaborators.Get(ctx, row.ID, userID); err == nil {
			if parsed, perr := access.ParseRole(collab.Role); perr == nil {
				level = parsed
			}
		}
		views = append(views, listViewAt(row, level, false))
	}
	return views, nil
}

// rowFor reloads the list a grant points at. The id inside a grant was sealed
// at verification time, so the read needs no further scoping.
func (s *ListService) rowFor(ctx context.Context, listID string) (*model.List, error) {
	return s.lists.GetAny(ctx, listID)
}

type UpdateListArgs struct {
	Name        *string
	Icon        *string
	Description *string
	Query       *string
	ParentID    *string
	Public      *bool
}

func (s *ListService) Update(ctx context.Context, grant access.OwnerGrant, args UpdateListArgs) error {
	row, err := s.rowFor(ctx, grant.ResourceID())
	if err != nil {
		return err
	}
	update := map[string]interface{}{
		"mtime": timeutil.NowUnix(),
	}
	if args.Name != nil {
		if *args.Name == "" {
			return appErr.ErrInvalid
		}
		update["name"] = *args.Name
	}
	if args.Icon != nil {
		update["icon"] = *args.Icon
	}
	if args.Description != nil {
		update["description"] = *args.Description
	}
	if args.Query != nil {
		// A manual list rejects the field outright, even when it is empty.
		if row.Type == model.ListTypeManual {
			return appErr.ErrInvalid
		}
		if *args.Query == "" {
			return appErr.ErrInvalid
		}
		update["query"] = *args.Query
	}
	if args.ParentID != nil {
		if *args.ParentID != "" {
			if *args.ParentID == row.ID {
				return appErr.ErrInvalid
			}
			if _, err := s.lists.GetOwned(ctx, grant.CallerID(), *args.ParentID); err != nil {
				return err
			}
		}
		update["parent_id"] = *args.ParentID
	}
	if args.Public != nil {
		update["public"] = boolToDB(*args.Public)
	}
	return s.lists.UpdateOwned(ctx, grant.CallerID(), grant.ResourceID(), update)
}

func (s *ListService) Delete(ctx context.Context, grant access.OwnerGrant) error {
	return s.lists.DeleteCascade(ctx, grant.CallerID(), grant.ResourceID())
}

// AddBookmark attaches one of the owner's bookmarks to a manual list. The
// grant may belong to a collaborator, but the bookmark always has to exist in
// the owner's space; collaborators never attach their own bookmarks.
func (s *ListService) AddBookmark(ctx context.Context, grant access.EditorGrant, bookmarkID string) error {
	row, err := s.rowFor(ctx, grant.ResourceID())
	if err != nil {
		return err
	}
	if row.Type != model.ListTypeManual {
		return appErr.ErrInvalid
	}
	if _, err := s.bookmarks.Get(ctx, row.UserID, bookmarkID); err != nil {
		return err
	}
	return s.listBookmarks.Add(ctx, row.ID, bookmarkID, grant.CallerID(), timeutil.NowUnix())
}

func (s *ListService) RemoveBookmark(ctx context.Context, grant access.EditorGrant, bookmarkID string) error {
	row, err := s.rowFor(ctx, grant.ResourceID())
	if err != nil {
		return err
	}
	if row.Type != model.ListTypeManual {
		return appErr.ErrInvalid
	}
	return s.listBookmarks.Remove(ctx, row.ID, bookmarkID)
}

// BookmarkIDs resolves a list's contents as the owner sees them. For smart
// lists the stored query always runs under the owner's identity, even when a
// collaborator asks, so shared results are consistent for everyone.
func (s *ListService) BookmarkIDs(ctx context.Context, v access.Verified[List]) ([]string, error) {
	row := v.Data().Row
	if row.Type == model.ListTypeManual {
		return s.listBookmarks.BookmarkIDs(ctx, row.ID)
	}
	return s.evaluator.EvaluateNamedQuery(ctx, row.UserID, row.Name, row.Query)
}

func (s *ListService) Contents(ctx context.Context, v access.Verified[List]) ([]model.Bookmark, error) {
	ids, err := s.BookmarkIDs(ctx, v)
	if err != nil {
		return nil, err
	}
	return s.bookmarks.GetByIDs(ctx, v.Data().Row.UserID, ids)
}

// Children walks the owned sub-list tree below the handle. The visited set
// guards against parent cycles that predate cycle validation on update.
func (s *ListService) Children(ctx context.Context, v access.Verified[List]) ([]model.List, error) {
	row := v.Data().Row
	visited := map[string]struct{}{row.ID: {}}
	queue := []string{row.ID}
	out := make([]model.List, 0)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := s.lists.ListByParent(ctx, row.UserID, id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out, nil
}

func (s *ListService) RegenRSSToken(ctx context.Context, grant access.OwnerGrant) (string, error) {
	token := newToken()
	update := map[string]interface{}{
		"rss_token": token,
		"mtime":     timeutil.NowUnix(),
	}
	if err := s.lists.UpdateOwned(ctx, grant.CallerID(), grant.ResourceID(), update); err != nil {
		return "", err
	}
	return token, nil
}

func (s *ListService) ClearRSSToken(ctx context.Context, grant access.OwnerGrant) error {
	update := map[string]interface{}{
		"rss_token": "",
		"mtime":     timeutil.NowUnix(),
	}
	return s.lists.UpdateOwned(ctx, grant.CallerID(), grant.ResourceID(), update)
}

func (s *ListService) RSSToken(ctx context.Context, grant access.OwnerGrant) (string, error) {
	row, err := s.lists.GetOwned(ctx, grant.CallerID(), grant.ResourceID())
	if err != nil {
		return "", err
	}
	return row.RSSToken, nil
}

// MergeInto copies the source list's bookmarks into the destination and,
// when deleteSource is set, removes the source. Both grants must come from
// the same owner and both lists must be manual; smart lists have no stored
// membership to move.
func (s *ListService) MergeInto(ctx context.Context, src, dst access.OwnerGrant, deleteSource bool) error {
	if src.CallerID() != dst.CallerID() {
		return appErr.ErrForbidden
	}
	if src.ResourceID() == dst.ResourceID() {
		return appErr.ErrInvalid
	}
	srcRow, err := s.rowFor(ctx, src.ResourceID())
	if err != nil {
		return err
	}
	dstRow, err := s.rowFor(ctx, dst.ResourceID())
	if err != nil {
		return err
	}
	if srcRow.Type != model.ListTypeManual || dstRow.Type != model.ListTypeManual {
		return appErr.ErrInvalid
	}
	return s.lists.MergeBookmarks(ctx, src.CallerID(), src.ResourceID(), dst.ResourceID(), deleteSource)
}

// Leave removes the caller's collaborator row along with every bookmark they
// added to the list. An owner cannot leave their own list; they delete it.
func (s *ListService) Leave(ctx context.Context, v access.Verified[List]) error {
	if v.IsOwner() {
		return appErr.ErrInvalid
	}
	return s.collaborators.DeleteWithContributions(ctx, v.ResourceID(), v.CallerID())
}

func (s *ListService) UpdateCollaboratorRole(ctx context.Context, grant access.OwnerGrant, userID, role string) error {
	if _, err := access.ParseRole(role); err != nil {
		return err
	}
	return s.collaborators.UpdateRole(ctx, grant.ResourceID(), userID, role)
}

func (s *ListService) RemoveCollaborator(ctx context.Context, grant access.OwnerGrant, userID string) error {
	return s.collaborators.DeleteWithContributions(ctx, grant.ResourceID(), userID)
}

// CollaboratorView is the projection of one collaborator for a viewer at a
// known level. Email is owner-only.
type CollaboratorView struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	Ctime  int64  `json:"ctime"`
}

func (s *ListService) Collaborators(ctx context.Context, v access.Verified[List]) ([]CollaboratorView, error) {
	rows, err := s.collaborators.ListForList(ctx, v.ResourceID())
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
	views := make([]CollaboratorView, 0, len(rows))
	for _, row := range rows {
		view := CollaboratorView{UserID: row.UserID, Role: row.Role, Ctime: row.Ctime}
		if u, ok := users[row.UserID]; ok {
			view.Name = u.Name
			if v.IsOwner() {
				view.Email = u.Email
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// ListView is the projection of a list at a known level. The parent linkage
// and the owner's id are owner-only, like the RSS token; a collaborator
// receives the list without either.
type ListView struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id,omitempty"`
	Name             string `json:"name"`
	Icon             string `json:"icon"`
	Description      string `json:"description"`
	Type             string `json:"type"`
	Query            string `json:"query,omitempty"`
	ParentID         string `json:"parent_id,omitempty"`
	Public           bool   `json:"public"`
	Role             string `json:"role"`
	HasCollaborators bool   `json:"has_collaborators"`
	Ctime            int64  `json:"ctime"`
	Mtime            int64  `json:"mtime"`
}

func listViewAt(row model.List, level access.Level, hasCollaborators bool) ListView {
	view := ListView{
		ID:               row.ID,
		Name:             row.Name,
		Icon:             row.Icon,
		Description:      row.Description,
		Type:             row.Type,
		Query:            row.Query,
		Public:           row.Public,
		Role:             level.String(),
		HasCollaborators: hasCollaborators,
		Ctime:            row.Ctime,
		Mtime:            row.Mtime,
	}
	if level.AtLeast(access.LevelOwner) {
		view.UserID = row.UserID
		view.ParentID = row.ParentID
	}
	return view
}

// AsView projects the handle for the caller it was sealed for.
func (s *ListService) AsView(v access.Verified[List]) ListView {
	return listViewAt(v.Data().Row, v.Level(), v.Data().HasCollaborators)
}

// PublicList is the outward projection of a list reached without an account:
// no owner id, no parent linkage, no token, no collaborator identities.
type PublicList struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// PublicFromToken resolves a list for an unauthenticated reader. The list must
// either be flagged public or the presented token must match its RSS token;
// every other outcome is not found. The handle is sealed at the public level
// with no caller, so it can never be narrowed to a grant.
func (s *ListService) PublicFromToken(ctx context.Context, listID, token string) (access.Verified[List], error) {
	var zero access.Verified[List]
	row, err := s.lists.GetAny(ctx, listID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return zero, appErr.ErrNotFound
		}
		return zero, err
	}
	allowed := row.Public || (token != "" && row.RSSToken != "" && token == row.RSSToken)
	if !allowed {
		return zero, appErr.ErrNotFound
	}
	return access.Seal("", row.ID, List{Row: *row}, access.LevelPublic), nil
}

func (s *ListService) AsPublicList(v access.Verified[List]) PublicList {
	row := v.Data().Row
	return PublicList{
		ID:          row.ID,
		Name:        row.Name,
		Icon:        row.Icon,
		Description: row.Description,
		Type:        row.Type,
	}
}
