package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/gitrec/internal/http/handlers"
	httpMW "github.com/yungbote/gitrec/internal/http/middleware"
	"github.com/yungbote/gitrec/internal/observability"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler           *httpH.AuthHandler
	AuthMiddleware        *httpMW.AuthMiddleware
	RecommendationHandler *httpH.RecommendationHandler
	HealthHandler         *httpH.HealthHandler

	Metrics         *observability.Metrics
	CORSOrigins     []string
	MaxRequestBytes int64
	ServiceName     string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.MaxRequestBytes > 0 {
		r.Use(httpMW.LimitRequestBody(cfg.MaxRequestBytes))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/token", cfg.AuthHandler.Token)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.GET("/auth/profile", cfg.AuthHandler.Profile)
		}

		// Recommendations
		if h := cfg.RecommendationHandler; h != nil {
			protected.GET("/recommendations", h.List)
			protected.POST("/recommendations/generate-options", h.GenerateOptions)
			protected.POST("/recommendations/create-from-option", h.CreateFromOption)
			protected.GET("/recommendations/:id", h.Get)
			protected.PUT("/recommendations/:id/content", h.UpdateContent)
			protected.POST("/recommendations/:id/refine-keywords", h.RefineKeywords)

			// Versions
			protected.GET("/recommendations/:id/versions", h.ListVersions)
			protected.GET("/recommendations/:id/versions/compare", h.CompareVersions)
			protected.POST("/recommendations/:id/versions/revert", h.RevertVersion)
		}
	}

	return r
}
