package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/workflow"
)

type generateFlags struct {
	subject      string
	relationship string
	recType      string
	tone         string
	length       string
	skills       string
	projects     string
	prompt       string
	regenerate   string
	pick         int
}

func newGenerateCmd(c *cli) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate recommendation options and optionally keep one",
		Long: `Generate recommendation options for a GitHub user.

Without --pick the options are printed and nothing is saved. With --pick N
option N becomes a persisted recommendation with its first version.

Examples:
  gitrec generate --subject octocat --relationship "We co-maintained a CLI"
  gitrec generate --subject https://github.com/octocat --relationship "..." --tone friendly --pick 2
  gitrec generate --subject octocat --relationship "..." --regenerate "shorter, more concrete" --pick 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cn.Close()

			wf := workflow.New(cn.client, cn.log)
			defer wf.Close()

			in := workflow.Input{
				Subject: f.subject,
				Params: domain.Params{
					RecommendationType:  domain.RecommendationType(f.recType),
					Tone:                domain.Tone(f.tone),
					Length:              domain.Length(f.length),
					WorkingRelationship: f.relationship,
					SpecificSkills:      f.skills,
					NotableProjects:     f.projects,
					CustomPrompt:        f.prompt,
				},
			}
			if err := wf.Submit(cmd.Context(), in); err != nil {
				return err
			}
			if f.regenerate != "" {
				if err := wf.Regenerate(cmd.Context(), f.regenerate); err != nil {
					return err
				}
			}
			st, ok := wf.State().(workflow.OptionsState)
			if !ok {
				return fmt.Errorf("unexpected workflow state %s", wf.State().Name())
			}

			if f.pick <= 0 {
				if c.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), st.Options)
				}
				printOptions(cmd.OutOrStdout(), st.Options)
				fmt.Fprintln(cmd.OutOrStdout(), "Re-run with --pick N to save one of these.")
				return nil
			}

			rec, err := wf.Select(cmd.Context(), f.pick)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			printRecommendation(cmd.OutOrStdout(), rec)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.subject, "subject", "", "GitHub username, owner/repo or github.com URL")
	fl.StringVar(&f.relationship, "relationship", "", "How you worked together")
	fl.StringVar(&f.recType, "type", "", "professional, technical, leadership, academic or personal")
	fl.StringVar(&f.tone, "tone", "", "professional, friendly, formal or casual")
	fl.StringVar(&f.length, "length", "", "short, medium or long")
	fl.StringVar(&f.skills, "skills", "", "Skills to highlight")
	fl.StringVar(&f.projects, "projects", "", "Notable projects to mention")
	fl.StringVar(&f.prompt, "prompt", "", "Extra instructions for the writer")
	fl.StringVar(&f.regenerate, "regenerate", "", "Ask for a second round of options with these instructions")
	fl.IntVar(&f.pick, "pick", 0, "Save option N as a recommendation")
	return cmd
}

func printOptions(w io.Writer, opts []domain.Option) {
	for _, o := range opts {
		fmt.Fprintf(w, "=== Option %d: %s (%s, %d words) ===\n", o.ID, o.Name, o.Focus, o.WordCount)
		fmt.Fprintln(w, o.Content)
		fmt.Fprintln(w)
	}
}

func printRecommendation(w io.Writer, rec *domain.Recommendation) {
	fmt.Fprintf(w, "%s\n", rec.Title)
	fmt.Fprintf(w, "id: %s  subject: %s  version: %d  words: %d\n\n", rec.ID, rec.GithubUsername, rec.CurrentVersionNumber, rec.WordCount)
	fmt.Fprintln(w, rec.Content)
}
