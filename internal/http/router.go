package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/contactos-backend/internal/http/handlers"
	httpMW "github.com/yungbote/contactos-backend/internal/http/middleware"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	TracingEnabled bool
	AllowedOrigins []string
	// MaxBodyBytes caps every request body; zero disables the cap.
	MaxBodyBytes int64

	// UploadsDir is served at UploadsPath when set (local object storage only).
	UploadsDir  string
	UploadsPath string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	ContactHandler *httpH.ContactHandler
	RatingHandler  *httpH.RatingHandler
	EmailHandler   *httpH.EmailHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.LimitBody(cfg.MaxBodyBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	if cfg.UploadsDir != "" {
		path := cfg.UploadsPath
		if path == "" {
			path = "/uploads"
		}
		r.Static(path, cfg.UploadsDir)
	}

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/ping", cfg.HealthHandler.Ping)
		}
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/signup", cfg.AuthHandler.Signup)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
		}

		// Contacts
		if cfg.ContactHandler != nil {
			protected.GET("/contactos/taxonomy", cfg.ContactHandler.Taxonomy)
			protected.GET("/contactos/export", cfg.ContactHandler.Export)
			protected.POST("/contactos", cfg.ContactHandler.Create)
			protected.GET("/contactos", cfg.ContactHandler.List)
			protected.GET("/contactos/:id", cfg.ContactHandler.Get)
			protected.PUT("/contactos/:id", cfg.ContactHandler.Update)
			protected.PATCH("/contactos/:id", cfg.ContactHandler.Update)
			protected.DELETE("/contactos/:id", cfg.ContactHandler.Delete)
			protected.GET("/contactos/:id/avatar", cfg.ContactHandler.Avatar)
		}

		// Ratings
		if cfg.RatingHandler != nil {
			protected.POST("/contactos/:id/ratings", cfg.RatingHandler.Submit)
			protected.GET("/contactos/:id/ratings", cfg.RatingHandler.List)
		}

		// Email
		if cfg.EmailHandler != nil {
			protected.POST("/contactos/send-email", cfg.EmailHandler.Send)
		}
	}

	return r
}
