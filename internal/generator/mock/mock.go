// Package mock is a deterministic generator.Engine for development and tests.
package mock

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/generator"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "mock" }

var openers = map[domain.Tone]string{
	domain.ToneProfessional: "It is my pleasure to recommend",
	domain.ToneFriendly:     "I am really happy to recommend",
	domain.ToneFormal:       "I am writing to formally recommend",
	domain.ToneCasual:       "Honestly, I can't say enough good things about",
}

var angles = map[string]string{
	"technical_expertise": "Their code is careful, well tested and easy to build on.",
	"collaboration":       "They review generously, share context early and make every team around them better.",
	"leadership":          "They take ownership of hard problems and bring others along with them.",
	"impact":              "The work they ship moves real projects forward and keeps paying off long after it lands.",
}

func (e *Engine) Options(ctx context.Context, req generator.OptionsRequest) ([]generator.Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := req.Count
	if n <= 0 {
		n = 2
	}
	p := req.Params.WithDefaults()
	out := make([]generator.Draft, 0, n)
	for i := 0; i < n; i++ {
		focus := generator.Focuses[i%len(generator.Focuses)]
		content := compose(req.GithubUsername, p, focus, req.Instructions)
		out = append(out, generator.Draft{
			Name:        fmt.Sprintf("Option %d", i+1),
			Focus:       focus,
			Content:     content,
			Explanation: fmt.Sprintf("Emphasizes %s.", strings.ReplaceAll(focus, "_", " ")),
		})
	}
	return out, nil
}

// Refine drops sentences that mention an excluded keyword and appends one
// sentence per missing include keyword.
func (e *Engine) Refine(ctx context.Context, req generator.RefineRequest) (generator.Draft, error) {
	if err := ctx.Err(); err != nil {
		return generator.Draft{}, err
	}
	paras := strings.Split(strings.TrimSpace(req.Content), "\n\n")
	kept := make([]string, 0, len(paras))
	for _, para := range paras {
		if strings.HasPrefix(strings.TrimSpace(para), "#") {
			kept = append(kept, para)
			continue
		}
		var sentences []string
		for _, s := range splitSentences(para) {
			if !mentionsAny(s, req.Exclude) {
				sentences = append(sentences, s)
			}
		}
		if len(sentences) > 0 {
			kept = append(kept, strings.Join(sentences, " "))
		}
	}
	var extra []string
	body := strings.ToLower(strings.Join(kept, "\n\n"))
	for _, k := range req.Include {
		if !strings.Contains(body, strings.ToLower(k)) {
			extra = append(extra, fmt.Sprintf("They also bring real strength in %s.", k))
		}
	}
	if s := strings.TrimSpace(req.Instructions); s != "" {
		extra = append(extra, "I would gladly work with them again.")
	}
	if len(extra) > 0 {
		kept = append(kept, strings.Join(extra, " "))
	}
	return generator.Draft{
		Content:     strings.Join(kept, "\n\n"),
		Explanation: "Adjusted wording to the requested constraints.",
	}, nil
}

func compose(user string, p domain.Params, focus, instructions string) string {
	opener := openers[p.Tone]
	if opener == "" {
		opener = openers[domain.ToneProfessional]
	}
	var paras []string
	paras = append(paras, fmt.Sprintf("# Recommendation for %s", user))
	paras = append(paras, fmt.Sprintf("%s @%s for %s work. %s",
		opener, user, p.RecommendationType, strings.TrimSpace(p.WorkingRelationship)))
	paras = append(paras, angles[focus])
	if s := strings.TrimSpace(p.SpecificSkills); s != "" {
		paras = append(paras, fmt.Sprintf("They are especially strong in %s.", s))
	}
	if s := strings.TrimSpace(p.NotableProjects); s != "" {
		paras = append(paras, fmt.Sprintf("Notable work includes %s.", s))
	}
	if p.Length != domain.LengthShort {
		paras = append(paras, "They communicate clearly in issues and pull requests, and their documentation makes onboarding easy for new contributors.")
	}
	if p.Length == domain.LengthLong {
		paras = append(paras, "Over time they have become someone people seek out for design reviews, and they treat every question as a chance to teach.")
	}
	if s := strings.TrimSpace(instructions); s != "" {
		paras = append(paras, "This version was revised with extra care for the requested direction.")
	}
	paras = append(paras, fmt.Sprintf("I recommend %s without reservation.", user))
	return strings.Join(paras, "\n\n")
}

var sentenceEnd = regexp.MustCompile(`[^.!?]+[.!?]*`)

func splitSentences(s string) []string {
	var out []string
	for _, m := range sentenceEnd.FindAllString(s, -1) {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func mentionsAny(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
