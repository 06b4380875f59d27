package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/platform/markdown"
	"github.com/yungbote/gitrec/internal/versions"
)

func parseRecommendationID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apierr.Validation(apierr.Fields{versions.FieldRecommendationID: "not a valid recommendation id"})
	}
	return id, nil
}

// resolveVersion accepts a version id or a version number.
func resolveVersion(ctx context.Context, store *versions.Store, recID uuid.UUID, raw, field string) (domain.Version, error) {
	raw = strings.TrimSpace(raw)
	h, err := store.List(ctx, recID)
	if err != nil {
		return domain.Version{}, err
	}
	if id, err := uuid.Parse(raw); err == nil {
		for _, v := range h.Versions {
			if v.ID == id {
				return v, nil
			}
		}
	} else if n, err := strconv.Atoi(raw); err == nil {
		if v, ok := h.ByNumber(n); ok {
			return v, nil
		}
	}
	return domain.Version{}, apierr.Validation(apierr.Fields{field: fmt.Sprintf("no version %q", raw)})
}

func newShowCmd(c *cli) *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "show <recommendation-id>",
		Short: "Print the current content of a recommendation",
		Args:  cobra.ExactArgs(1),
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

			rec, err := cn.client.GetRecommendation(cmd.Context(), id)
			if err != nil {
				return err
			}
			switch {
			case c.jsonOutput:
				return writeJSON(cmd.OutOrStdout(), rec)
			case html:
				out, err := markdown.HTML(rec.Content)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			default:
				printRecommendation(cmd.OutOrStdout(), rec)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Render the content as HTML")
	return cmd
}

func newHistoryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "history <recommendation-id>",
		Short: "List every version, oldest first",
		Args:  cobra.ExactArgs(1),
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

			h, err := versions.NewStore(cn.client, cn.log).List(cmd.Context(), id)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), h)
			}
			printHistory(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func printHistory(w io.Writer, h domain.History) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tCHANGE\tWORDS\tCONFIDENCE\tCREATED\tDESCRIPTION")
	for _, v := range h.Versions {
		marker := ""
		if v.VersionNumber == h.CurrentVersion {
			marker = " *"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%d\t%.2f\t%s\t%s\n",
			v.VersionNumber, marker, v.ChangeType, v.WordCount, v.ConfidenceScore,
			v.CreatedAt.Local().Format("2006-01-02 15:04"), v.ChangeDescription)
	}
	_ = tw.Flush()
}

func newCompareCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <recommendation-id> <version-a> <version-b>",
		Short: "Show the differences between two versions",
		Long: `Show the differences between two versions. Versions are given by number
or id.`,
		Args: cobra.ExactArgs(3),
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

			store := versions.NewStore(cn.client, cn.log)
			a, err := resolveVersion(cmd.Context(), store, id, args[1], versions.FieldVersionA)
			if err != nil {
				return err
			}
			b, err := resolveVersion(cmd.Context(), store, id, args[2], versions.FieldVersionB)
			if err != nil {
				return err
			}
			cmp, err := store.Compare(cmd.Context(), id, a.ID, b.ID)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), cmp)
			}
			printComparison(cmd.OutOrStdout(), cmp)
			return nil
		},
	}
}

func printComparison(w io.Writer, cmp domain.Comparison) {
	fmt.Fprintf(w, "Version %d vs version %d\n", cmp.VersionA.VersionNumber, cmp.VersionB.VersionNumber)
	fields := make([]string, 0, len(cmp.Differences))
	for k, d := range cmp.Differences {
		if d.Changed && k != domain.FieldContent {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	for _, k := range fields {
		d := cmp.Differences[k]
		fmt.Fprintf(w, "  %s: %v -> %v\n", k, d.A, d.B)
	}
	if cmp.Differences[domain.FieldContent].Changed {
		fmt.Fprintln(w, "  content: changed")
	} else {
		fmt.Fprintln(w, "  content: identical")
	}
}

func newRevertCmd(c *cli) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "revert <recommendation-id> <version>",
		Short: "Append a new version copying an earlier one",
		Args:  cobra.ExactArgs(2),
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

			store := versions.NewStore(cn.client, cn.log)
			target, err := resolveVersion(cmd.Context(), store, id, args[1], versions.FieldVersionID)
			if err != nil {
				return err
			}
			if err := store.Revert(cmd.Context(), id, target.ID, reason); err != nil {
				return err
			}
			h, err := store.List(cmd.Context(), id)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), h)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted to version %d; current version is now %d\n", target.VersionNumber, h.CurrentVersion)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the earlier version is restored (required)")
	return cmd
}
