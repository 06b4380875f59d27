package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeKind tags why a version was appended.
type ChangeKind string

const (
	ChangeCreated           ChangeKind = "created"
	ChangeRefined           ChangeKind = "refined"
	ChangeKeywordRefinement ChangeKind = "keyword_refinement"
	ChangeReverted          ChangeKind = "reverted"
	ChangeManualEdit        ChangeKind = "manual_edit"
)

func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeCreated, ChangeRefined, ChangeKeywordRefinement, ChangeReverted, ChangeManualEdit:
		return true
	default:
		return false
	}
}

// Version is an immutable snapshot of a recommendation. Rows are only ever inserted.
type Version struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecommendationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recommendation_version_number" json:"recommendation_id"`
	VersionNumber    int       `gorm:"column:version_number;not null;uniqueIndex:idx_recommendation_version_number" json:"version_number"`

	ChangeType        ChangeKind `gorm:"column:change_type;type:text;not null;index" json:"change_type"`
	ChangeDescription string     `gorm:"column:change_description;type:text" json:"change_description,omitempty"`

	Content         string  `gorm:"column:content;type:text;not null" json:"content"`
	WordCount       int     `gorm:"column:word_count;not null" json:"word_count"`
	ConfidenceScore float64 `gorm:"column:confidence_score;not null" json:"confidence_score"`

	// SourceVersionNumber is set on reverts to the version whose content was copied.
	SourceVersionNumber *int `gorm:"column:source_version_number" json:"source_version_number,omitempty"`

	CreatedBy *uuid.UUID `gorm:"type:uuid;column:created_by" json:"created_by,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
}

func (Version) TableName() string { return "recommendation_version" }

// History is the ascending version list for one recommendation.
type History struct {
	RecommendationID uuid.UUID `json:"recommendation_id"`
	TotalVersions    int       `json:"total_versions"`
	CurrentVersion   int       `json:"current_version"`
	Versions         []Version `json:"versions"`
}

// ByNumber returns the version with the given number.
func (h History) ByNumber(n int) (Version, bool) {
	for _, v := range h.Versions {
		if v.VersionNumber == n {
			return v, true
		}
	}
	return Version{}, false
}

// ByID returns the version with the given id.
func (h History) ByID(id uuid.UUID) (Version, bool) {
	for _, v := range h.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return Version{}, false
}

// Current returns the version the recommendation currently reflects.
func (h History) Current() (Version, bool) {
	return h.ByNumber(h.CurrentVersion)
}
