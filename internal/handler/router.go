package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shelfmark/shelfmark/internal/middleware"
)

type RouterDeps struct {
	Auth        *AuthHandler
	Bookmarks   *BookmarkHandler
	Lists       *ListHandler
	Invitations *InvitationHandler
	Highlights  *HighlightHandler
	Imports     *ImportHandler
	Backups     *BackupHandler
	Export      *ExportHandler
	JWTSecret   []byte
	RateLimit   middleware.RateLimitConfig
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	// Token and public reads stay outside authentication on purpose.
	api.GET("/public/lists/:id", deps.Lists.Public)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.GET("/auth/profile", deps.Auth.Profile)

	authGroup.POST("/bookmarks", deps.Bookmarks.Create)
	authGroup.GET("/bookmarks", deps.Bookmarks.List)
	authGroup.GET("/bookmarks/:id", deps.Bookmarks.Get)
	authGroup.PUT("/bookmarks/:id", deps.Bookmarks.Update)
	authGroup.DELETE("/bookmarks/:id", deps.Bookmarks.Delete)
	authGroup.POST("/bookmarks/:id/tags", deps.Bookmarks.AddTag)
	authGroup.DELETE("/bookmarks/:id/tags/:tagId", deps.Bookmarks.RemoveTag)
	authGroup.GET("/tags", deps.Bookmarks.Tags)

	authGroup.POST("/lists", deps.Lists.Create)
	authGroup.GET("/lists", deps.Lists.List)
	authGroup.GET("/lists/:id", deps.Lists.Get)
	authGroup.PUT("/lists/:id", deps.Lists.Update)
	authGroup.DELETE("/lists/:id", deps.Lists.Delete)
	authGroup.GET("/lists/:id/bookmarks", deps.Lists.Contents)
	authGroup.GET("/lists/:id/children", deps.Lists.Children)
	authGroup.POST("/lists/:id/bookmarks", deps.Lists.AddBookmark)
	authGroup.DELETE("/lists/:id/bookmarks/:bookmarkId", deps.Lists.RemoveBookmark)
	authGroup.POST("/lists/:id/merge", deps.Lists.Merge)
	authGroup.POST("/lists/:id/rss-token", deps.Lists.RegenRSSToken)
	authGroup.GET("/lists/:id/rss-token", deps.Lists.RSSToken)
	authGroup.DELETE("/lists/:id/rss-token", deps.Lists.ClearRSSToken)

	// Collaboration mutations carry a rate limit: they fan out email and give
	// an enumeration-shaped surface.
	limited := authGroup.Group("")
	limited.Use(middleware.RateLimit(deps.RateLimit))
	limited.POST("/lists/:id/invitations", deps.Invitations.Invite)
	limited.POST("/lists/:id/invitations/accept", deps.Invitations.Accept)
	limited.POST("/lists/:id/invitations/decline", deps.Invitations.Decline)
	limited.DELETE("/lists/:id/invitations/:userId", deps.Invitations.Revoke)
	limited.POST("/lists/:id/leave", deps.Lists.Leave)

	authGroup.GET("/lists/:id/invitations", deps.Invitations.ForList)
	authGroup.GET("/invitations/pending", deps.Invitations.Pending)
	authGroup.GET("/lists/:id/collaborators", deps.Lists.Collaborators)
	authGroup.PUT("/lists/:id/collaborators/:userId", deps.Lists.UpdateCollaborator)
	authGroup.DELETE("/lists/:id/collaborators/:userId", deps.Lists.RemoveCollaborator)

	authGroup.POST("/highlights", deps.Highlights.Create)
	authGroup.GET("/highlights", deps.Highlights.List)
	authGroup.PUT("/highlights/:id", deps.Highlights.Update)
	authGroup.DELETE("/highlights/:id", deps.Highlights.Delete)

	authGroup.POST("/imports", deps.Imports.CreateSession)
	authGroup.GET("/imports", deps.Imports.ListSessions)
	authGroup.GET("/imports/:id", deps.Imports.GetSession)
	authGroup.POST("/imports/:id/bookmarks", deps.Imports.AttachBookmark)
	authGroup.PUT("/imports/:id/status", deps.Imports.SetPhaseStatus)

	authGroup.POST("/backups", deps.Backups.Create)
	authGroup.GET("/backups", deps.Backups.List)
	authGroup.GET("/backups/:id", deps.Backups.Get)
	authGroup.GET("/backups/:id/download", deps.Backups.Download)
	authGroup.DELETE("/backups/:id", deps.Backups.Delete)

	authGroup.GET("/export", deps.Export.ExportHTML)
}
