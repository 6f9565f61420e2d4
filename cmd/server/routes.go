package main

import (
	"github.com/gin-gonic/gin"
	"github.com/litmer/backend/internal/handlers"
	"github.com/litmer/backend/internal/middleware"
	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(svc.cfg.Server.RatePerSecond, svc.cfg.Server.RateBurst))

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	db := models.GetDB()
	teamHandler := handlers.NewTeamHandler(db)
	projectHandler := handlers.NewProjectHandler(db)
	issueHandler := handlers.NewIssueHandler(db, svc.taskQueue)
	commentHandler := handlers.NewCommentHandler(db, svc.taskQueue)
	dashboardHandler := handlers.NewDashboardHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		// Teams
		api.POST("/teams", teamHandler.Create)
		api.GET("/teams", teamHandler.List)
		api.GET("/teams/:id", teamHandler.GetByID)
		api.PUT("/teams/:id", teamHandler.Update)
		api.DELETE("/teams/:id", teamHandler.Delete)
		api.GET("/teams/:id/members", teamHandler.Members)
		api.PUT("/teams/:id/members/:userId/role", teamHandler.ChangeRole)
		api.DELETE("/teams/:id/members/:userId", teamHandler.Kick)
		api.POST("/teams/:id/leave", teamHandler.Leave)
		api.POST("/teams/:id/invites", teamHandler.Invite)
		api.POST("/invites/:token/accept", teamHandler.AcceptInvite)
		api.GET("/teams/:id/activity", teamHandler.Activity)

		// Projects
		api.POST("/teams/:id/projects", projectHandler.Create)
		api.GET("/teams/:id/projects", projectHandler.ListForTeam)
		api.GET("/projects/:id", projectHandler.GetByID)
		api.PUT("/projects/:id", projectHandler.Update)
		api.POST("/projects/:id/archive", projectHandler.Archive)
		api.POST("/projects/:id/restore", projectHandler.Restore)
		api.DELETE("/projects/:id", projectHandler.Delete)
		api.POST("/projects/:id/favorite", projectHandler.Favorite)
		api.DELETE("/projects/:id/favorite", projectHandler.Unfavorite)
		api.POST("/projects/:id/labels", projectHandler.CreateLabel)
		api.GET("/projects/:id/labels", projectHandler.Labels)
		api.DELETE("/projects/:id/labels/:labelId", projectHandler.DeleteLabel)

		// Issues
		api.POST("/projects/:id/issues", issueHandler.Create)
		api.GET("/projects/:id/issues", issueHandler.List)
		api.GET("/issues/:id", issueHandler.GetByID)
		api.PATCH("/issues/:id", issueHandler.Update)
		api.POST("/issues/:id/move", issueHandler.Move)
		api.DELETE("/issues/:id", issueHandler.Delete)
		api.GET("/issues/:id/history", issueHandler.History)

		// Comments
		api.POST("/issues/:id/comments", commentHandler.Create)
		api.GET("/issues/:id/comments", commentHandler.List)
		api.PUT("/comments/:id", commentHandler.Update)
		api.DELETE("/comments/:id", commentHandler.Delete)

		// AI assist
		api.POST("/issues/:id/ai/summary", svc.aiHandler.Summarize)
		api.POST("/issues/:id/ai/suggestion", svc.aiHandler.Suggest)
		api.POST("/issues/:id/ai/thread-summary", svc.aiHandler.SummarizeThread)
		api.POST("/projects/:id/ai/labels", svc.aiHandler.RecommendLabels)
		api.POST("/projects/:id/ai/duplicates", svc.aiHandler.FindDuplicates)
		api.GET("/ai/quota", svc.aiHandler.Quota)

		// Dashboards
		api.GET("/dashboard", dashboardHandler.Personal)
		api.GET("/projects/:id/dashboard", dashboardHandler.Project)

		// Notifications
		api.GET("/notifications", notificationHandler.List)
		api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	}
}
