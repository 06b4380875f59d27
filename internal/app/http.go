package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/gitrec/internal/config"
	httpserver "github.com/yungbote/gitrec/internal/http"
	httpH "github.com/yungbote/gitrec/internal/http/handlers"
	httpMW "github.com/yungbote/gitrec/internal/http/middleware"
	"github.com/yungbote/gitrec/internal/observability"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

func wireHTTP(db *gorm.DB, log *logger.Logger, cfg *config.Config, svc Services, metrics *observability.Metrics) *httpserver.Server {
	log.Info("Wiring handlers...")
	return httpserver.NewServer(log, cfg.HTTP, httpserver.RouterConfig{
		Log:                   log,
		HealthHandler:         httpH.NewHealthHandler(db),
		AuthHandler:           httpH.NewAuthHandler(svc.Auth, svc.Profile),
		AuthMiddleware:        httpMW.NewAuthMiddleware(log, svc.Auth),
		RecommendationHandler: httpH.NewRecommendationHandler(svc.Recommendation),
		Metrics:               metrics,
		CORSOrigins:           cfg.HTTP.CORSOrigins,
		MaxRequestBytes:       cfg.HTTP.MaxRequestBytes,
		ServiceName:           "gitrec-api",
	})
}
