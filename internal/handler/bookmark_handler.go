package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shelfmark/shelfmark/internal/pkg/errcode"
	"github.com/shelfmark/shelfmark/internal/pkg/response"
	"github.com/shelfmark/shelfmark/internal/service"
)

type BookmarkHandler struct {
	bookmarks *service.BookmarkService
}

func NewBookmarkHandler(bookmarks *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks}
}

type createBookmarkRequest struct {
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Type   string   `json:"type"`
	Note   string   `json:"note"`
	Source string   `json:"source"`
	FeedID string   `json:"feed_id"`
	Tags   []string `json:"tags"`
}

func (h *BookmarkHandler) Create(c *gin.Context) {
	var req createBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	item, err := h.bookmarks.Create(c.Request.Context(), getUserID(c), service.CreateBookmarkArgs{
		Title:  req.Title,
		URL:    req.URL,
		Type:   req.Type,
		Note:   req.Note,
		Source: req.Source,
		FeedID: req.FeedID,
		Tags:   req.Tags,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *BookmarkHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if query := c.Query("q"); query != "" {
		items, err := h.bookmarks.Search(c.Request.Context(), userID, query)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, items)
		return
	}
	limit, offset := uint(0), uint(0)
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = uint(parsed)
		}
	}
	if value := c.Query("offset"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			offset = uint(parsed)
		}
	}
	items, err := h.bookmarks.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *BookmarkHandler) Get(c *gin.Context) {
	item, err := h.bookmarks.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

type updateBookmarkRequest struct {
	Title      *string `json:"title"`
	URL        *string `json:"url"`
	Note       *string `json:"note"`
	Archived   *bool   `json:"archived"`
	Favourited *bool   `json:"favourited"`
	BrokenLink *bool   `json:"broken_link"`
}

func (h *BookmarkHandler) Update(c *gin.Context) {
	var req updateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	err := h.bookmarks.Update(c.Request.Context(), getUserID(c), c.Param("id"), service.UpdateBookmarkArgs{
		Title:      req.Title,
		URL:        req.URL,
		Note:       req.Note,
		Archived:   req.Archived,
		Favourited: req.Favourited,
		BrokenLink: req.BrokenLink,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *BookmarkHandler) Delete(c *gin.Context) {
	if err := h.bookmarks.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

type tagRequest struct {
	Name string `json:"name"`
}

func (h *BookmarkHandler) AddTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.bookmarks.AddTag(c.Request.Context(), getUserID(c), c.Param("id"), req.Name); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *BookmarkHandler) RemoveTag(c *gin.Context) {
	if err := h.bookmarks.RemoveTag(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("tagId")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *BookmarkHandler) Tags(c *gin.Context) {
	tags, err := h.bookmarks.Tags(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tags)
}
