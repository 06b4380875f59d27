package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gitrec/internal/data/repos"
	types "github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/dbctx"
	"github.com/yungbote/gitrec/internal/platform/markdown"
)

type versionDraft struct {
	Content     string
	Kind        types.ChangeKind
	Description string
	Actor       uuid.UUID
	Source      *int
	Confidence  float64
}

// appendVersion is the only way content changes. rec must be locked (or freshly
// created) inside dbc's transaction; it is updated in place to the new head.
func (s *recommendationService) appendVersion(dbc dbctx.Context, rec *types.Recommendation, d versionDraft) (*types.Version, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("appendVersion requires a transaction")
	}
	if !d.Kind.Valid() {
		return nil, fmt.Errorf("unknown change kind %q", d.Kind)
	}
	actor := d.Actor
	v := &types.Version{
		ID:                  uuid.New(),
		RecommendationID:    rec.ID,
		VersionNumber:       rec.CurrentVersionNumber + 1,
		ChangeType:          d.Kind,
		ChangeDescription:   d.Description,
		Content:             d.Content,
		WordCount:           markdown.WordCount(d.Content),
		ConfidenceScore:     d.Confidence,
		SourceVersionNumber: d.Source,
		CreatedBy:           &actor,
		CreatedAt:           time.Now().UTC(),
	}
	if _, err := s.repos.Versions.Insert(dbc, v); err != nil {
		return nil, fmt.Errorf("insert version %d: %w", v.VersionNumber, err)
	}

	head := repos.Head{
		Title:         titleFor(v.Content, rec),
		Content:       v.Content,
		WordCount:     v.WordCount,
		VersionNumber: v.VersionNumber,
	}
	if err := s.repos.Recommendations.UpdateHead(dbc, rec.ID, head); err != nil {
		return nil, fmt.Errorf("update head: %w", err)
	}
	rec.Title = head.Title
	rec.Content = head.Content
	rec.WordCount = head.WordCount
	rec.CurrentVersionNumber = head.VersionNumber

	s.log.Info("version appended",
		"recommendation_id", rec.ID,
		"version_number", v.VersionNumber,
		"change_type", v.ChangeType,
		"actor_id", actor,
	)
	return v, nil
}

func titleFor(content string, rec *types.Recommendation) string {
	if t := strings.TrimSpace(markdown.Title(content)); t != "" {
		return t
	}
	if rec != nil && rec.GithubUsername != "" {
		return "Recommendation for " + rec.GithubUsername
	}
	return "Recommendation"
}
