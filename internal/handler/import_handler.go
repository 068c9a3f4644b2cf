package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/pkg/errcode"
	"github.com/shelfmark/shelfmark/internal/pkg/response"
	"github.com/shelfmark/shelfmark/internal/service"
)

type ImportHandler struct {
	imports *service.ImportService
}

func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

type createSessionRequest struct {
	Name       string `json:"name"`
	RootListID string `json:"root_list_id"`
}

func (h *ImportHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	session, err := h.imports.CreateSession(c.Request.Context(), getUserID(c), req.Name, req.RootListID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *ImportHandler) ListSessions(c *gin.Context) {
	views, err := h.imports.ListSessions(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, views)
}

// verified resolves the caller's handle for the session in the path.
func (h *ImportHandler) verified(c *gin.Context) (access.Verified[model.ImportSession], bool) {
	v, err := h.imports.FromID(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return v, false
	}
	return v, true
}

func (h *ImportHandler) GetSession(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	view, err := h.imports.GetSession(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

type attachBookmarkRequest struct {
	BookmarkID string `json:"bookmark_id"`
}

func (h *ImportHandler) AttachBookmark(c *gin.Context) {
	var req attachBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookmarkID == "" {
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
	if err := h.imports.AttachBookmark(c.Request.Context(), grant, req.BookmarkID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

type phaseStatusRequest struct {
	BookmarkID string `json:"bookmark_id"`
	Phase      string `json:"phase"`
	Status     string `json:"status"`
}

func (h *ImportHandler) SetPhaseStatus(c *gin.Context) {
	var req phaseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookmarkID == "" {
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
	if err := h.imports.SetPhaseStatus(c.Request.Context(), grant, req.BookmarkID, req.Phase, req.Status); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
