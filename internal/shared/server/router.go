package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docvault/internal/accounts"
	googleauth "docvault/internal/auth"
	"docvault/internal/documents"
	"docvault/internal/objects"
	"docvault/internal/shared/config"
	"docvault/internal/shared/metrics"
	"docvault/internal/shared/server/middleware"
	"docvault/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config          config.Config
	AccountsHandler *accounts.Handler
	DocumentHandler *documents.Handler
	ObjectsHandler  *objects.Handler
	GoogleAuth      *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.AccountsHandler != nil {
		deps.AccountsHandler.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.ObjectsHandler != nil {
		deps.ObjectsHandler.RegisterRoutes(api)
		deps.ObjectsHandler.RegisterPublicRoutes(r)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
