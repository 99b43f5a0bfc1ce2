package server

import (
	"genielearn-backend/internal/server/handlers"
	"genielearn-backend/internal/server/middleware"
	"genielearn-backend/internal/session"
	"genielearn-backend/internal/ws"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all the routes for the application.
func SetupRoutes(
	router *gin.Engine,
	sessions session.Validator,
	authHandler *handlers.AuthHandler,
	groupHandler *handlers.GroupHandler,
	messageHandler *handlers.MessageHandler,
	fileHandler *handlers.FileHandler,
	gateway *ws.Gateway,
) {
	router.Use(middleware.CORS())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := router.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}
	}

	// The gateway authenticates the query-string credential itself during the
	// connection handshake, so the ws route sits outside the auth middleware.
	public.GET("/groups/:groupId/ws", gateway.HandleConnection)

	protected := router.Group("/api/v1")
	protected.Use(middleware.RequireAuth(sessions))
	{
		protected.GET("/users/me", authHandler.Me)

		groups := protected.Group("/groups")
		{
			groups.POST("", groupHandler.CreateGroup)
			groups.GET("", groupHandler.ListGroups)
			groups.GET("/:groupId", groupHandler.GetGroup)
			groups.POST("/:groupId/join", groupHandler.JoinGroup)
			groups.POST("/:groupId/leave", groupHandler.LeaveGroup)
			groups.GET("/:groupId/presence", groupHandler.GetPresence)

			groups.GET("/:groupId/messages", messageHandler.GetMessages)
			groups.POST("/:groupId/messages", messageHandler.SendMessage)

			groups.POST("/:groupId/files", fileHandler.UploadFile)
			groups.GET("/:groupId/files", fileHandler.ListFiles)
		}

		protected.GET("/files/:fileId/download", fileHandler.DownloadFile)
	}
}
