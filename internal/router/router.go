package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Rech03/CES-sub001/internal/config"
	"github.com/Rech03/CES-sub001/internal/handler"
	"github.com/Rech03/CES-sub001/internal/middleware"
	"github.com/Rech03/CES-sub001/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Gate    *handler.GateHandler
	Session *handler.SessionHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Attempt Group (Student JWT) ────────────────────────────────
	attemptAPI := router.Group("/api/v1/attempt")
	attemptAPI.Use(middleware.RequireStudent(cfg.JWTSecret))
	{
		// Countdown gates (quiz entry)
		attemptAPI.POST("/gates", handlers.Gate.OpenGate)
		attemptAPI.GET("/gates/:gate_id", handlers.Gate.GetGate)
		attemptAPI.POST("/gates/:gate_id/password", handlers.Gate.VerifyPassword)
		attemptAPI.POST("/gates/:gate_id/admit", handlers.Gate.Admit)
		attemptAPI.DELETE("/gates/:gate_id", handlers.Gate.AbortGate)

		// Live session
		attemptAPI.GET("/session", handlers.Session.GetState)
		attemptAPI.DELETE("/session", handlers.Session.Leave)
		attemptAPI.POST("/session/answers", handlers.Session.RecordAnswer)
		attemptAPI.POST("/session/answers/:question_id/flush", handlers.Session.FlushAnswer)
		attemptAPI.POST("/session/navigate", handlers.Session.Navigate)
		attemptAPI.GET("/session/submit-preview", handlers.Session.SubmitPreview)
		attemptAPI.POST("/session/submit", handlers.Session.Submit)
	}

	// ─── 2. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWS(cfg.JWTSecret))
	{
		ws.GET("/attempt/session/stream", handlers.WS.SessionStream)
	}

	return router
}
