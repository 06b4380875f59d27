package generator

import (
	"fmt"
	"strings"
)

type Prompt struct {
	System string
	User   string
}

const optionsSystem = `You write GitHub recommendations in Markdown.
Reply with a JSON object {"options":[{"name","focus","content","explanation","confidence"}]} and nothing else.
Each option must take a different angle. confidence is a number between 0 and 1.`

const refineSystem = `You edit an existing GitHub recommendation written in Markdown.
Keep its structure and make the smallest change that satisfies the constraints.
Reply with a JSON object {"content","explanation","confidence"} and nothing else.`

func BuildOptionsPrompt(req OptionsRequest) Prompt {
	p := req.Params.WithDefaults()
	lo, hi := TargetWords(p.Length)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write %d alternative %s recommendations for GitHub user %q.\n", max(req.Count, 1), p.RecommendationType, req.GithubUsername)
	fmt.Fprintf(&sb, "- Tone: %s.\n", p.Tone)
	fmt.Fprintf(&sb, "- Length: %d to %d words.\n", lo, hi)
	fmt.Fprintf(&sb, "- Working relationship: %s\n", strings.TrimSpace(p.WorkingRelationship))
	if s := strings.TrimSpace(p.SpecificSkills); s != "" {
		fmt.Fprintf(&sb, "- Skills to highlight: %s\n", s)
	}
	if s := strings.TrimSpace(p.NotableProjects); s != "" {
		fmt.Fprintf(&sb, "- Notable projects: %s\n", s)
	}
	if s := strings.TrimSpace(p.CustomPrompt); s != "" {
		fmt.Fprintf(&sb, "- Additional guidance: %s\n", s)
	}
	if s := strings.TrimSpace(req.Instructions); s != "" {
		fmt.Fprintf(&sb, "- The previous options were rejected. Adjust them as follows: %s\n", s)
	}
	fmt.Fprintf(&sb, "Use these focus labels in order: %s.", strings.Join(focusList(req.Count), ", "))
	return Prompt{System: optionsSystem, User: sb.String()}
}

func BuildRefinePrompt(req RefineRequest) Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Recommendation for %q:\n\n%s\n\n", req.GithubUsername, strings.TrimSpace(req.Content))
	sb.WriteString("Constraints:\n")
	if len(req.Include) > 0 {
		fmt.Fprintf(&sb, "- Must mention: %s\n", strings.Join(req.Include, ", "))
	}
	if len(req.Exclude) > 0 {
		fmt.Fprintf(&sb, "- Must not mention: %s\n", strings.Join(req.Exclude, ", "))
	}
	if s := strings.TrimSpace(req.Instructions); s != "" {
		fmt.Fprintf(&sb, "- %s\n", s)
	}
	return Prompt{System: refineSystem, User: sb.String()}
}

func focusList(n int) []string {
	if n <= 0 {
		n = 1
	}
	out := make([]string, n)
	for i := range out {
		out[i] = Focuses[i%len(Focuses)]
	}
	return out
}
