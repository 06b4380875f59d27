// Package generator is the content-generation boundary used by the API. An
// Engine writes drafts; everything derived from a draft (word count, title,
// keyword audit) is computed here so every engine reports it the same way.
package generator

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/markdown"
)

// Focus labels, one per candidate option.
var Focuses = []string{"technical_expertise", "collaboration", "leadership", "impact"}

type OptionsRequest struct {
	GithubUsername string
	Params         domain.Params
	Count          int
	Instructions   string
}

type RefineRequest struct {
	GithubUsername string
	Params         domain.Params
	Content        string
	Include        []string
	Exclude        []string
	Instructions   string
}

// Draft is raw engine output. Confidence is in [0,1]; zero means the engine
// did not report one.
type Draft struct {
	Name        string  `json:"name"`
	Focus       string  `json:"focus"`
	Content     string  `json:"content"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

type Engine interface {
	Name() string
	Options(ctx context.Context, req OptionsRequest) ([]Draft, error)
	Refine(ctx context.Context, req RefineRequest) (Draft, error)
}

// ToOptions numbers drafts from 1 and fills derived fields.
func ToOptions(drafts []Draft) []domain.Option {
	out := make([]domain.Option, 0, len(drafts))
	for i, d := range drafts {
		content := strings.TrimSpace(d.Content)
		if content == "" {
			continue
		}
		name := strings.TrimSpace(d.Name)
		if name == "" {
			name = "Option " + strconv.Itoa(len(out)+1)
		}
		out = append(out, domain.Option{
			ID:          len(out) + 1,
			Name:        name,
			Focus:       focusOr(d.Focus, i),
			Content:     content,
			WordCount:   markdown.WordCount(content),
			Explanation: strings.TrimSpace(d.Explanation),
		})
	}
	return out
}

// Confidence returns the draft's own score when present, otherwise one
// derived from its length relative to the requested size.
func Confidence(d Draft, length domain.Length) float64 {
	if d.Confidence > 0 {
		return clamp(d.Confidence)
	}
	return LengthConfidence(markdown.WordCount(d.Content), length)
}

// LengthConfidence peaks when the word count sits inside the target range.
func LengthConfidence(words int, length domain.Length) float64 {
	lo, hi := TargetWords(length)
	switch {
	case words <= 0:
		return 0
	case words < lo:
		return round2(0.5 + 0.4*float64(words)/float64(lo))
	case words > hi:
		over := float64(words-hi) / float64(hi)
		return round2(clamp(0.9 - 0.4*over))
	default:
		return 0.9
	}
}

// TargetWords is the word range a length asks for.
func TargetWords(length domain.Length) (int, int) {
	switch length {
	case domain.LengthShort:
		return 80, 150
	case domain.LengthLong:
		return 300, 500
	default:
		return 150, 300
	}
}

// Audit reports which include keywords appear in content, which exclude
// keywords are absent, and a readable issue for every unmet constraint.
// Matching is case-insensitive on the rendered plain text.
func Audit(content string, include, exclude []string) (used, avoided, issues []string) {
	text := strings.ToLower(markdown.PlainText(content))
	used, avoided, issues = []string{}, []string{}, []string{}
	for _, k := range include {
		if strings.Contains(text, strings.ToLower(k)) {
			used = append(used, k)
		} else {
			issues = append(issues, "could not include keyword \""+k+"\"")
		}
	}
	for _, k := range exclude {
		if strings.Contains(text, strings.ToLower(k)) {
			issues = append(issues, "excluded keyword \""+k+"\" is still present")
		} else {
			avoided = append(avoided, k)
		}
	}
	return used, avoided, issues
}

// Summary describes a refinement outcome in one sentence.
func Summary(used, avoided []string, instructions string, issues []string) string {
	var parts []string
	if len(used) > 0 {
		parts = append(parts, "included "+strings.Join(used, ", "))
	}
	if len(avoided) > 0 {
		parts = append(parts, "avoided "+strings.Join(avoided, ", "))
	}
	if strings.TrimSpace(instructions) != "" {
		parts = append(parts, "applied instructions")
	}
	s := "Refined recommendation"
	if len(parts) > 0 {
		s += ": " + strings.Join(parts, "; ")
	}
	if len(issues) > 0 {
		s += " (" + strconv.Itoa(len(issues)) + " unresolved)"
	}
	return s + "."
}

func focusOr(f string, i int) string {
	if f = strings.TrimSpace(f); f != "" {
		return f
	}
	return Focuses[i%len(Focuses)]
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
