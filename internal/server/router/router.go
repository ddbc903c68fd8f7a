package router

import (
	"net/http"

	"github.com/arod1104/uic-gradebook/internal/server/handlers"
	"github.com/arod1104/uic-gradebook/internal/server/middleware"
	"github.com/gin-gonic/gin"
)

// New wires handlers and middleware into an HTTP router.
func New(handler *handlers.Handler, mw *middleware.Manager) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.CORS())

	router.GET("/health", handler.Health)

	// Public search used by the web client.
	router.GET("/api/search", handler.SearchGrades)

	admin := router.Group("/admin")
	admin.Use(mw.Admin())
	{
		admin.POST("/apikeys", handler.CreateAPIKey)
		admin.GET("/apikeys/:key", handler.GetAPIKey)
		admin.DELETE("/apikeys/:key", handler.DeleteAPIKey)
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/register", handler.Register)

		// Account changes carry no API key. Callers prove they own userId
		// through Firebase Authentication on the client before calling these.
		users := v1.Group("/users")
		{
			users.PUT("", handler.UpdateUser)
			users.DELETE("", handler.DeleteUser)
		}

		grades := v1.Group("/grades")
		grades.Use(mw.Auth(), mw.RateLimit())
		{
			grades.GET("/search", handler.SearchGrades)
		}
	}

	return router
}
