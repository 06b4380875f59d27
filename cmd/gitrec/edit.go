package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/refine"
)

func newRefineCmd(c *cli) *cobra.Command {
	var include, exclude, instructions string
	cmd := &cobra.Command{
		Use:   "refine <recommendation-id>",
		Short: "Rewrite a recommendation around keywords",
		Long: `Rewrite a recommendation so it uses the --include keywords and avoids the
--exclude ones. Keywords are comma or newline separated. The rewrite becomes a
new version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecommendationID(args[0])
			if err != nil {
				return err
			}
			cn, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cn.Close()

			res, err := refine.NewEngine(cn.client, cn.log).Refine(cmd.Context(), domain.RefinementRequest{
				RecommendationID: id,
				IncludeKeywords:  refine.ParseKeywords(include),
				ExcludeKeywords:  refine.ParseKeywords(exclude),
				Instructions:     instructions,
			})
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, res.RefinementSummary)
			for _, issue := range res.ValidationIssues {
				fmt.Fprintf(w, "  warning: %s\n", issue)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, res.RefinedContent)
			return nil
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "Keywords the rewrite must use")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Keywords the rewrite must avoid")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Free-form rewrite instructions")
	return cmd
}

func newEditCmd(c *cli) *cobra.Command {
	var file, description string
	cmd := &cobra.Command{
		Use:   "edit <recommendation-id>",
		Short: "Replace the content with a manual edit",
		Long: `Replace the content of a recommendation with the text in --file ("-" reads
stdin). The edit becomes a new version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecommendationID(args[0])
			if err != nil {
				return err
			}
			var raw []byte
			switch file {
			case "":
				return fmt.Errorf("--file is required")
			case "-":
				raw, err = io.ReadAll(cmd.InOrStdin())
			default:
				raw, err = os.ReadFile(file)
			}
			if err != nil {
				return err
			}

			cn, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cn.Close()

			rec, err := cn.client.UpdateContent(cmd.Context(), id, string(raw), description)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved version %d (%d words)\n", rec.CurrentVersionNumber, rec.WordCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "File with the new content, or - for stdin")
	cmd.Flags().StringVar(&description, "description", "", "Change description")
	return cmd
}
