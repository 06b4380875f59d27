package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gitrec/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "x",
		DailyLimit:   5,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedRecommendation inserts a recommendation with a matching version 1.
func SeedRecommendation(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, content string) (*types.Recommendation, *types.Version) {
	tb.Helper()
	now := time.Now().UTC()
	rec := &types.Recommendation{
		ID:                   uuid.New(),
		UserID:               userID,
		GithubUsername:       "octocat",
		Content:              content,
		WordCount:            2,
		Params:               types.Params{}.WithDefaults(),
		CurrentVersionNumber: 1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed recommendation: %v", err)
	}
	v := &types.Version{
		ID:               uuid.New(),
		RecommendationID: rec.ID,
		VersionNumber:    1,
		ChangeType:       types.ChangeCreated,
		Content:          content,
		WordCount:        2,
		ConfidenceScore:  0.8,
		CreatedBy:        &userID,
		CreatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed version: %v", err)
	}
	return rec, v
}
