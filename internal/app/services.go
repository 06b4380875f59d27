package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/gitrec/internal/config"
	"github.com/yungbote/gitrec/internal/data/repos"
	"github.com/yungbote/gitrec/internal/platform/logger"
	"github.com/yungbote/gitrec/internal/services"
)

type Services struct {
	Auth           services.AuthService
	Profile        services.ProfileService
	Recommendation services.RecommendationService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg *config.Config, reposet repos.Set, clients Clients) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:    services.NewAuthService(db, log, reposet.Users, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL.Duration),
		Profile: services.NewProfileService(db, log, reposet, clients.Quota, cfg.Quota.DailyLimit),
		Recommendation: services.NewRecommendationService(
			log, reposet,
			clients.Engine,
			clients.Quota,
			cfg.Quota.DailyLimit,
			cfg.Engine.OptionCount,
		),
	}
}
