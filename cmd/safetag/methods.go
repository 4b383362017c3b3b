package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/procyborg2222/SAFETAG/internal/content"
)

func newMethodsCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "List the method cards shown on the homepage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cards, err := a.library().Methods(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeMethodsJSON(cmd.OutOrStdout(), cards)
			}
			return writeMethodsTable(cmd.OutOrStdout(), cards)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the cards as JSON")
	return cmd
}

type methodCard struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Icon    string `json:"icon"`
	Excerpt string `json:"excerpt"`
}

func writeMethodsJSON(w io.Writer, cards []content.MethodSummary) error {
	out := make([]methodCard, 0, len(cards))
	for _, c := range cards {
		out = append(out, methodCard{Slug: c.Slug, Title: c.Title, Icon: c.IconURL, Excerpt: c.Excerpt})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeMethodsTable(w io.Writer, cards []content.MethodSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tEXCERPT")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Slug, c.Title, c.Excerpt)
	}
	return tw.Flush()
}
