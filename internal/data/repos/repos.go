package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/gitrec/internal/data/repos/recommendation"
	"github.com/yungbote/gitrec/internal/data/repos/user"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

type UserRepo = user.UserRepo
type RecommendationRepo = recommendation.RecommendationRepo
type VersionRepo = recommendation.VersionRepo
type Head = recommendation.Head

// Set bundles every repository the API needs.
type Set struct {
	Users           UserRepo
	Recommendations RecommendationRepo
	Versions        VersionRepo
	Tx              TxRunner
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Users:           user.NewUserRepo(db, log),
		Recommendations: recommendation.NewRecommendationRepo(db, log),
		Versions:        recommendation.NewVersionRepo(db, log),
		Tx:              NewGormTxRunner(db),
	}
}
