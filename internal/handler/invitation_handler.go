package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfmark/shelfmark/internal/pkg/errcode"
	"github.com/shelfmark/shelfmark/internal/pkg/response"
	"github.com/shelfmark/shelfmark/internal/service"
)

type InvitationHandler struct {
	invitations *service.InvitationService
	lists       *service.ListService
}

func NewInvitationHandler(invitations *service.InvitationService, lists *service.ListService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations, lists: lists}
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *InvitationHandler) Invite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	v, err := h.lists.FromID(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	inv, err := h.invitations.InviteByEmail(c.Request.Context(), grant, req.Email, req.Role)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, inv)
}

func (h *InvitationHandler) ForList(c *gin.Context) {
	v, err := h.lists.FromID(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	views, err := h.invitations.ForList(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, views)
}

func (h *InvitationHandler) Pending(c *gin.Context) {
	items, err := h.invitations.PendingForUser(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *InvitationHandler) Accept(c *gin.Context) {
	if err := h.invitations.Accept(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *InvitationHandler) Decline(c *gin.Context) {
	if err := h.invitations.Decline(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *InvitationHandler) Revoke(c *gin.Context) {
	v, err := h.lists.FromID(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.invitations.Revoke(c.Request.Context(), grant, c.Param("userId")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
