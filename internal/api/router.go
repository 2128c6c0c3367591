package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/resumine/resumine/internal/auth"
	"github.com/resumine/resumine/internal/handlers"
	"github.com/resumine/resumine/internal/middleware"
)

// Deps bundles everything the router mounts.
type Deps struct {
	JWT *auth.JWTService

	Auth      *handlers.AuthHandler
	Reset     *handlers.PasswordResetHandler
	Profile   *handlers.ProfileHandler
	Resumes   *handlers.ResumeHandler
	Assistant *handlers.AssistantHandler
	Health    *handlers.HealthHandler

	AllowedOrigins []string
	MetricsEnabled bool
}

// NewRouter builds the gin engine with all middleware and routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(deps.AllowedOrigins))
	if deps.MetricsEnabled {
		r.Use(middleware.Metrics())
	}

	r.GET("/healthz", deps.Health.Health)
	if deps.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Sign-in and the code-entry step are guess-prone, so they sit behind a
	// per-IP limiter on top of the flow's own per-identity window.
	authLimiter := middleware.NewRateLimiter(20, time.Minute)

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", deps.Auth.Register)
	authGroup.POST("/login", authLimiter.Middleware(), deps.Auth.Login)
	authGroup.POST("/refresh", deps.Auth.Refresh)
	authGroup.GET("/google", deps.Auth.GoogleURL)
	authGroup.POST("/google/callback", deps.Auth.GoogleCallback)

	reset := authGroup.Group("/password-reset", authLimiter.Middleware())
	reset.POST("/request", deps.Reset.RequestCode)
	reset.POST("/verify", deps.Reset.VerifyCode)
	reset.POST("/complete", deps.Reset.CompleteReset)

	authed := v1.Group("", middleware.RequireAuth(deps.JWT))
	authed.GET("/auth/me", deps.Auth.Me)
	authed.POST("/auth/logout", deps.Auth.Logout)
	authed.POST("/auth/change-password", deps.Auth.ChangePassword)

	authed.GET("/profile", deps.Profile.Get)
	authed.PUT("/profile", deps.Profile.Update)

	authed.POST("/resumes", deps.Resumes.Create)
	authed.GET("/resumes", deps.Resumes.List)
	authed.GET("/resumes/:id", deps.Resumes.Get)
	authed.PUT("/resumes/:id", deps.Resumes.Update)
	authed.DELETE("/resumes/:id", deps.Resumes.Delete)
	authed.POST("/resumes/:id/enhance", deps.Resumes.Enhance)

	authed.POST("/assistant/chat", deps.Assistant.Chat)
	authed.GET("/assistant/ws", deps.Assistant.ChatStream)

	return r
}
