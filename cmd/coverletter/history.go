package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-coverletter/internal/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	var company string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List generated cover letters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(a.store.Dir(), 0o755); err != nil {
				return err
			}
			store, err := history.Open(history.DefaultPath(a.store.Dir()))
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []history.Entry
			if company != "" {
				entries, err = store.FindByCompany(cmd.Context(), company)
			} else {
				entries, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, subtitleStyle.Render("No cover letters generated yet."))
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s  %s  (%s)\n",
					subtitleStyle.Render(e.CreatedAt.Format("2006-01-02 15:04")),
					e.CompanyName, e.JobTitle, e.JobSource)
				fmt.Fprintln(out, "    "+e.OutputPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "only letters for this company")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries (0 for all)")
	return cmd
}
