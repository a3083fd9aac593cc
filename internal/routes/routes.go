package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"authgate/internal/handlers"
	"authgate/internal/middleware"
	"authgate/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	socialHandler *handlers.SocialHandler,
	sessions services.SessionService,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- public
	auth := r.Group("/auth")
	{
		auth.POST("/otp/request", authHandler.RequestOTP)
		auth.POST("/otp/verify", authHandler.VerifyOTP)
		auth.GET("/google", socialHandler.Start)
		auth.GET("/google/callback", socialHandler.Callback)
	}

	// ---- protected
	protected := r.Group("/auth", middleware.AuthMiddleware(sessions))
	{
		protected.GET("/session", authHandler.CurrentSession)
		protected.POST("/logout", authHandler.Logout)
	}

	return r
}
