package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfmark/shelfmark/internal/pkg/errcode"
	"github.com/shelfmark/shelfmark/internal/pkg/response"
	"github.com/shelfmark/shelfmark/internal/service"
)

type HighlightHandler struct {
	highlights *service.HighlightService
}

func NewHighlightHandler(highlights *service.HighlightService) *HighlightHandler {
	return &HighlightHandler{highlights: highlights}
}

type createHighlightRequest struct {
	BookmarkID  string `json:"bookmark_id"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Color       string `json:"color"`
	Text        string `json:"text"`
	Note        string `json:"note"`
}

func (h *HighlightHandler) Create(c *gin.Context) {
	var req createHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	highlight, err := h.highlights.Create(c.Request.Context(), getUserID(c), service.CreateHighlightArgs{
		BookmarkID:  req.BookmarkID,
		StartOffset: req.StartOffset,
		EndOffset:   req.EndOffset,
		Color:       req.Color,
		Text:        req.Text,
		Note:        req.Note,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, highlight)
}

func (h *HighlightHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if bookmarkID := c.Query("bookmark_id"); bookmarkID != "" {
		highlights, err := h.highlights.ForBookmark(c.Request.Context(), userID, bookmarkID)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, highlights)
		return
	}
	highlights, err := h.highlights.ForUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, highlights)
}

type updateHighlightRequest struct {
	Color *string `json:"color"`
	Note  *string `json:"note"`
}

func (h *HighlightHandler) Update(c *gin.Context) {
	var req updateHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	v, err := h.highlights.FromID(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	err = h.highlights.Update(c.Request.Context(), grant, service.UpdateHighlightArgs{
		Color: req.Color,
		Note:  req.Note,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *HighlightHandler) Delete(c *gin.Context) {
	v, err := h.highlights.FromID(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.highlights.Delete(c.Request.Context(), grant); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
