package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/gitrec/internal/data/repos"
	types "github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/dbctx"
	"github.com/yungbote/gitrec/internal/platform/logger"
	"github.com/yungbote/gitrec/internal/quota"
)

type ProfileService interface {
	Profile(ctx context.Context) (types.Profile, error)
}

type profileService struct {
	db           *gorm.DB
	log          *logger.Logger
	repos        repos.Set
	quota        quota.Store
	defaultLimit int
}

func NewProfileService(db *gorm.DB, log *logger.Logger, reposet repos.Set, quotaStore quota.Store, defaultLimit int) ProfileService {
	return &profileService{
		db:           db,
		log:          log.With("service", "ProfileService"),
		repos:        reposet,
		quota:        quotaStore,
		defaultLimit: defaultLimit,
	}
}

func (ps *profileService) Profile(ctx context.Context) (types.Profile, error) {
	userID, err := caller(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	u, err := ps.repos.Users.GetByID(dbc, userID)
	if err != nil {
		return types.Profile{}, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return types.Profile{}, errUnauthenticated
	}
	count, err := ps.repos.Recommendations.CountByUser(dbc, userID)
	if err != nil {
		return types.Profile{}, fmt.Errorf("count recommendations: %w", err)
	}
	used, err := ps.quota.Used(ctx, userID)
	if err != nil {
		return types.Profile{}, fmt.Errorf("quota usage: %w", err)
	}
	return types.Profile{
		UserID:              u.ID,
		Email:               u.Email,
		RecommendationCount: int(count),
		DailyLimit:          effectiveLimit(u, ps.defaultLimit),
		UsedToday:           used,
	}, nil
}
