package router

import (
	"github.com/gin-gonic/gin"

	"github.com/passfold/passfold-server/internal/api/http/handler"
	"github.com/passfold/passfold-server/internal/api/http/middleware"
	"github.com/passfold/passfold-server/internal/logger"
)

// Router wires the HTTP handlers and middleware into a gin engine.
type Router struct {
	directoryService handler.DirectoryService
	vaultService     handler.VaultService
	allowedOrigins   []string
	logger           *logger.Logger
}

// New creates a new HTTP Router instance.
func New(
	directoryService handler.DirectoryService,
	vaultService handler.VaultService,
	allowedOrigins []string,
	logger *logger.Logger,
) *Router {
	return &Router{
		directoryService: directoryService,
		vaultService:     vaultService,
		allowedOrigins:   allowedOrigins,
		logger:           logger,
	}
}

// Register builds the gin engine with all middleware and routes.
func (r *Router) Register() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.NewLogging(r.logger).Handle)
	engine.Use(middleware.NewCORS(r.allowedOrigins).Handle)

	authHandler := handler.NewAuth(r.directoryService, r.logger)
	accountHandler := handler.NewAccount(r.directoryService, r.logger)
	vaultHandler := handler.NewVault(r.vaultService, r.logger)

	api := engine.Group("/api")

	api.POST("/login", authHandler.Login)
	api.PUT("/user/credentials", authHandler.UpdateCredentials)

	api.GET("/users", accountHandler.List)
	api.POST("/users", accountHandler.Create)
	api.PUT("/users/:username/password", accountHandler.UpdateSecret)
	api.DELETE("/users/:username", accountHandler.Delete)

	api.GET("/passwords", vaultHandler.ListCredentials)
	api.POST("/passwords/save", vaultHandler.SaveCredentials)
	api.POST("/passwords/add", vaultHandler.AddCredential)
	api.PUT("/passwords/:id/move", vaultHandler.MoveCredential)

	api.GET("/folders", vaultHandler.ListFolders)
	api.POST("/folders", vaultHandler.CreateFolder)
	api.PUT("/folders/:id", vaultHandler.RenameFolder)
	api.PUT("/folders/:id/move", vaultHandler.MoveFolder)
	api.DELETE("/folders/:id", vaultHandler.DeleteFolder)

	api.GET("/folder-path", vaultHandler.FolderPath)
	api.GET("/listing", vaultHandler.Listing)
	api.GET("/move-targets", vaultHandler.MoveTargets)

	return engine
}
