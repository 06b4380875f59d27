package recommendation

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/dbctx"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

type RecommendationRepo interface {
	Create(dbc dbctx.Context, rec *types.Recommendation) (*types.Recommendation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error)
	GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Recommendation, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	UpdateHead(dbc dbctx.Context, id uuid.UUID, head Head) error
}

// Head is the denormalized copy of the current version kept on the recommendation row.
type Head struct {
	Title         string
	Content       string
	WordCount     int
	VersionNumber int
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	repoLog := baseLog.With("repo", "RecommendationRepo")
	return &recommendationRepo{db: db, log: repoLog}
}

func (r *recommendationRepo) Create(dbc dbctx.Context, rec *types.Recommendation) (*types.Recommendation, error) {
	if rec == nil {
		return nil, errors.New("nil recommendation")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if err := dbc.DB(r.db).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID returns nil without error when the row does not exist.
func (r *recommendationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error) {
	return r.take(dbc.DB(r.db), id)
}

// GetForUpdate locks the row for the rest of the transaction on drivers that
// support row locks.
func (r *recommendationRepo) GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error) {
	if dbc.Tx == nil {
		return nil, errors.New("GetForUpdate requires a transaction")
	}
	return r.take(dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *recommendationRepo) take(q *gorm.DB, id uuid.UUID) (*types.Recommendation, error) {
	var rec types.Recommendation
	err := q.Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recommendationRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Recommendation, error) {
	var results []*types.Recommendation
	q := dbc.DB(r.db).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recommendationRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.Recommendation{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *recommendationRepo) UpdateHead(dbc dbctx.Context, id uuid.UUID, head Head) error {
	res := dbc.DB(r.db).
		Model(&types.Recommendation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":                  head.Title,
			"content":                head.Content,
			"word_count":             head.WordCount,
			"current_version_number": head.VersionNumber,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
