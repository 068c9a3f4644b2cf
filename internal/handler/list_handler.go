package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/pkg/errcode"
	"github.com/shelfmark/shelfmark/internal/pkg/response"
	"github.com/shelfmark/shelfmark/internal/service"
)

type ListHandler struct {
	lists *service.ListService
}

func NewListHandler(lists *service.ListService) *ListHandler {
	return &ListHandler{lists: lists}
}

// verified resolves the caller's handle for the list in the path. Everything
// below builds on this: no route touches a list without going through it.
func (h *ListHandler) verified(c *gin.Context) (access.Verified[service.List], bool) {
	v, err := h.lists.FromID(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return v, false
	}
	return v, true
}

type createListRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Query       string `json:"query"`
	ParentID    string `json:"parent_id"`
}

func (h *ListHandler) Create(c *gin.Context) {
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	list, err := h.lists.Create(c.Request.Context(), getUserID(c), service.CreateListArgs{
		Name:        req.Name,
		Icon:        req.Icon,
		Description: req.Description,
		Type:        req.Type,
		Query:       req.Query,
		ParentID:    req.ParentID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *ListHandler) List(c *gin.Context) {
	userID := getUserID(c)
	owned, err := h.lists.GetAll(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	shared, err := h.lists.GetSharedWithUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"owned": owned, "shared": shared})
}

func (h *ListHandler) Get(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	response.Success(c, h.lists.AsView(v))
}

type updateListRequest struct {
	Name        *string `json:"name"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
	Query       *string `json:"query"`
	ParentID    *string `json:"parent_id"`
	Public      *bool   `json:"public"`
}

func (h *ListHandler) Update(c *gin.Context) {
	var req updateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	err = h.lists.Update(c.Request.Context(), grant, service.UpdateListArgs{
		Name:        req.Name,
		Icon:        req.Icon,
		Description: req.Description,
		Query:       req.Query,
		ParentID:    req.ParentID,
		Public:      req.Public,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ListHandler) Delete(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.lists.Delete(c.Request.Context(), grant); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ListHandler) Contents(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	bookmarks, err := h.lists.Contents(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, bookmarks)
}

func (h *ListHandler) Children(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	children, err := h.lists.Children(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, children)
}

type listBookmarkRequest struct {
	BookmarkID string `json:"bookmark_id"`
}

func (h *ListHandler) AddBookmark(c *gin.Context) {
	var req listBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookmarkID == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireEditor()
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.lists.AddBookmark(c.Request.Context(), grant, req.BookmarkID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ListHandler) RemoveBookmark(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireEditor()
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.lists.RemoveBookmark(c.Request.Context(), grant, c.Param("bookmarkId")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

type mergeRequest struct {
	TargetID     string `json:"target_id"`
	DeleteSource *bool  `json:"delete_source"`
}

func (h *ListHandler) Merge(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TargetID == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	v, ok := h.verified(c)
	if !ok {
		return
	}
	src, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	target, err := h.lists.FromID(c.Request.Context(), getUserID(c), req.TargetID)
	if err != nil {
		handleError(c, err)
		return
	}
	dst, err := target.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	deleteSource := true
	if req.DeleteSource != nil {
		deleteSource = *req.DeleteSource
	}
	if err := h.lists.MergeInto(c.Request.Context(), src, dst, deleteSource); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ListHandler) Leave(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	if err := h.lists.Leave(c.Request.Context(), v); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ListHandler) Collaborators(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	views, err := h.lists.Collaborators(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, views)
}

type collaboratorRoleRequest struct {
	Role string `json:"role"`
}

func (h *ListHandler) UpdateCollaborator(c *gin.Context) {
	var req collaboratorRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.lists.UpdateCollaboratorRole(c.Request.Context(), grant, c.Param("userId"), req.Role); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ListHandler) RemoveCollaborator(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.lists.RemoveCollaborator(c.Request.Context(), grant, c.Param("userId")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ListHandler) RegenRSSToken(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	token, err := h.lists.RegenRSSToken(c.Request.Context(), grant)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"rss_token": token})
}

func (h *ListHandler) ClearRSSToken(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.lists.ClearRSSToken(c.Request.Context(), grant); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ListHandler) RSSToken(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	token, err := h.lists.RSSToken(c.Request.Context(), grant)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"rss_token": token})
}

// Public serves a list without authentication: reachable only when the list
// is public or the presented token matches.
func (h *ListHandler) Public(c *gin.Context) {
	v, err := h.lists.PublicFromToken(c.Request.Context(), c.Param("id"), c.Query("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	bookmarks, err := h.lists.Contents(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      h.lists.AsPublicList(v),
		"bookmarks": bookmarks,
	})
}
