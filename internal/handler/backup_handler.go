package handler

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/shelfmark/shelfmark/internal/access"
	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/pkg/response"
	"github.com/shelfmark/shelfmark/internal/service"
)

type BackupHandler struct {
	backups *service.BackupService
}

func NewBackupHandler(backups *service.BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

func (h *BackupHandler) Create(c *gin.Context) {
	record, err := h.backups.Create(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, record)
}

func (h *BackupHandler) List(c *gin.Context) {
	records, err := h.backups.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, records)
}

// verified resolves the caller's handle for the backup in the path.
func (h *BackupHandler) verified(c *gin.Context) (access.Verified[model.Backup], bool) {
	v, err := h.backups.FromID(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return v, false
	}
	return v, true
}

func (h *BackupHandler) Get(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	response.Success(c, v.Data())
}

func (h *BackupHandler) Download(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	rc, record, err := h.backups.Download(c.Request.Context(), v)
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.AssetID))
	c.Header("Content-Type", "application/json")
	_, _ = io.Copy(c.Writer, rc)
}

func (h *BackupHandler) Delete(c *gin.Context) {
	v, ok := h.verified(c)
	if !ok {
		return
	}
	grant, err := v.RequireOwner()
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.backups.Delete(c.Request.Context(), grant); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
