// Package refine requests keyword-constrained rewrites of a recommendation.
// The server appends the rewrite as a new version; this package never
// renumbers versions itself.
package refine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

const (
	MaxKeywords        = 10
	MaxKeywordLen      = 50
	MaxInstructionsLen = 500
)

const (
	FieldRecommendationID = "recommendation_id"
	FieldKeywords         = "keywords"
	FieldInclude          = "include_keywords"
	FieldExclude          = "exclude_keywords"
	FieldInstructions     = "refinement_instructions"
)

type Remote interface {
	RefineKeywords(ctx context.Context, req domain.RefinementRequest) (domain.RefinementResult, error)
}

type Engine struct {
	remote Remote
	log    *logger.Logger
}

func NewEngine(remote Remote, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{remote: remote, log: log.With("component", "RefinementEngine")}
}

// Refine normalizes and validates req, then asks for the rewrite. The caller
// treats the returned content as current and refreshes the history.
func (e *Engine) Refine(ctx context.Context, req domain.RefinementRequest) (domain.RefinementResult, error) {
	req = Normalize(req)
	if fields := Validate(req); fields != nil {
		return domain.RefinementResult{}, apierr.Validation(fields)
	}
	res, err := e.remote.RefineKeywords(ctx, req)
	if err != nil {
		return domain.RefinementResult{}, err
	}
	e.log.Info("recommendation refined",
		"recommendation_id", req.RecommendationID,
		"version_number", res.VersionNumber,
		"issues", len(res.ValidationIssues),
	)
	return res, nil
}

// Normalize trims keywords and drops blanks and case-insensitive duplicates,
// keeping the first spelling.
func Normalize(req domain.RefinementRequest) domain.RefinementRequest {
	req.IncludeKeywords = dedupe(req.IncludeKeywords)
	req.ExcludeKeywords = dedupe(req.ExcludeKeywords)
	req.Instructions = strings.TrimSpace(req.Instructions)
	return req
}

// Validate expects a normalized request.
func Validate(req domain.RefinementRequest) apierr.Fields {
	fields := apierr.Fields{}
	if req.RecommendationID == uuid.Nil {
		fields[FieldRecommendationID] = "recommendation id is required"
	}
	if len(req.IncludeKeywords) == 0 && len(req.ExcludeKeywords) == 0 && req.Instructions == "" {
		fields[FieldKeywords] = "add keywords to include or exclude, or refinement instructions"
	}
	if msg := checkList(req.IncludeKeywords); msg != "" {
		fields[FieldInclude] = msg
	}
	if msg := checkList(req.ExcludeKeywords); msg != "" {
		fields[FieldExclude] = msg
	}
	if _, ok := fields[FieldExclude]; !ok {
		if both := overlap(req.IncludeKeywords, req.ExcludeKeywords); len(both) > 0 {
			fields[FieldExclude] = fmt.Sprintf("cannot both include and exclude: %s", strings.Join(both, ", "))
		}
	}
	if utf8.RuneCountInString(req.Instructions) > MaxInstructionsLen {
		fields[FieldInstructions] = fmt.Sprintf("at most %d characters", MaxInstructionsLen)
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ParseKeywords splits a comma or newline separated list.
func ParseKeywords(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	return dedupe(parts)
}

func checkList(list []string) string {
	if len(list) > MaxKeywords {
		return fmt.Sprintf("at most %d keywords", MaxKeywords)
	}
	for _, k := range list {
		if utf8.RuneCountInString(k) > MaxKeywordLen {
			return fmt.Sprintf("keyword %q is longer than %d characters", k, MaxKeywordLen)
		}
	}
	return ""
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.Join(strings.Fields(k), " ")
		if k == "" {
			continue
		}
		key := strings.ToLower(k)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func overlap(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, k := range a {
		set[strings.ToLower(k)] = true
	}
	var out []string
	for _, k := range b {
		if set[strings.ToLower(k)] {
			out = append(out, k)
		}
	}
	return out
}
