package recommendation

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/dbctx"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

// VersionRepo is insert-only.
type VersionRepo interface {
	Insert(dbc dbctx.Context, v *types.Version) (*types.Version, error)
	ListByRecommendation(dbc dbctx.Context, recommendationID uuid.UUID) ([]types.Version, error)
	GetByID(dbc dbctx.Context, recommendationID, versionID uuid.UUID) (*types.Version, error)
	GetByNumber(dbc dbctx.Context, recommendationID uuid.UUID, number int) (*types.Version, error)
}

type versionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVersionRepo(db *gorm.DB, baseLog *logger.Logger) VersionRepo {
	repoLog := baseLog.With("repo", "VersionRepo")
	return &versionRepo{db: db, log: repoLog}
}

func (r *versionRepo) Insert(dbc dbctx.Context, v *types.Version) (*types.Version, error) {
	if v == nil {
		return nil, errors.New("nil version")
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if err := dbc.DB(r.db).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// ListByRecommendation returns versions ordered by version number ascending.
func (r *versionRepo) ListByRecommendation(dbc dbctx.Context, recommendationID uuid.UUID) ([]types.Version, error) {
	results := []types.Version{}
	if err := dbc.DB(r.db).
		Where("recommendation_id = ?", recommendationID).
		Order("version_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID scopes the lookup to one recommendation so a version id from another
// document never resolves.
func (r *versionRepo) GetByID(dbc dbctx.Context, recommendationID, versionID uuid.UUID) (*types.Version, error) {
	var v types.Version
	err := dbc.DB(r.db).
		Where("recommendation_id = ? AND id = ?", recommendationID, versionID).
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *versionRepo) GetByNumber(dbc dbctx.Context, recommendationID uuid.UUID, number int) (*types.Version, error) {
	var v types.Version
	err := dbc.DB(r.db).
		Where("recommendation_id = ? AND version_number = ?", recommendationID, number).
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
