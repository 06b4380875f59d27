package domain

import "github.com/google/uuid"

// RefinementRequest constrains a keyword refinement.
type RefinementRequest struct {
	RecommendationID uuid.UUID `json:"-"`
	IncludeKeywords  []string  `json:"include_keywords,omitempty"`
	ExcludeKeywords  []string  `json:"exclude_keywords,omitempty"`
	Instructions     string    `json:"refinement_instructions,omitempty"`
}

// RefinementResult reports the rewrite plus which constraints were honored.
type RefinementResult struct {
	RefinedContent         string   `json:"refined_content"`
	Title                  string   `json:"title"`
	WordCount              int      `json:"word_count"`
	IncludeKeywordsUsed    []string `json:"include_keywords_used"`
	ExcludeKeywordsAvoided []string `json:"exclude_keywords_avoided"`
	RefinementSummary      string   `json:"refinement_summary"`
	ValidationIssues       []string `json:"validation_issues"`
	VersionNumber          int      `json:"version_number,omitempty"`
}
