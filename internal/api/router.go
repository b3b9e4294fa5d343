package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/api/handlers"
)

func SetupRouter(h *handlers.Handler, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", h.HandleLogin)
	auth.POST("/register", h.HandleRegister)

	session := auth.Group("", h.HandleAuthMiddleware)
	session.POST("/logout", h.HandleLogout)
	session.GET("/me", h.HandleMe)
	session.PUT("/last-page", h.HandleSetLastPage)

	tasks := v1.Group("/tasks", h.HandleAuthMiddleware)
	tasks.GET("", h.HandleGetTasks)
	tasks.POST("", h.HandleCreateTask)
	tasks.GET("/board", h.HandleGetBoard)
	tasks.GET("/summary", h.HandleGetSummary)
	tasks.GET("/:id", h.HandleGetTask)
	tasks.PUT("/:id", h.HandleUpdateTask)
	tasks.DELETE("/:id", h.HandleDeleteTask)
	tasks.PATCH("/:id/status", h.HandleSetTaskStatus)
	tasks.PATCH("/:id/subtasks/:sid", h.HandleToggleSubtask)

	contacts := v1.Group("/contacts", h.HandleAuthMiddleware)
	contacts.GET("", h.HandleGetContacts)
	contacts.POST("", h.HandleCreateContact)
	contacts.PUT("/:id", h.HandleUpdateContact)
	contacts.DELETE("/:id", h.HandleDeleteContact)

	// public stakeholder form
	requests := v1.Group("/requests")
	requests.POST("", h.HandleSubmitRequest)
	requests.GET("/limit", h.HandleGetLimit)

	return router
}
