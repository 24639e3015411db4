package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"securemate/backend/internal/domain/bodyguard"
)

func newBodyguardsCmd(get getter) *cobra.Command {
	guards := &cobra.Command{
		Use:   "bodyguards",
		Short: "Review bodyguard applications",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List bodyguards by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, ok := bodyguard.ParseStatus(status)
			if !ok {
				return fmt.Errorf("--status must be pending or approved, got %q", status)
			}
			a, ctx, cancel, err := get(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			rows, err := a.bodyguards.List(ctx, st)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLOCATION\tRATE\tEXPERIENCE\tCREATED")
			for _, b := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%s\n",
					b.ID, b.FullName, b.Location, b.HourlyRate, b.Experience, b.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", string(bodyguard.StatusPending), "pending or approved")

	var id string
	approve := &cobra.Command{
		Use:   "approve",
		Short: "Approve a pending bodyguard application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx, cancel, err := get(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			b, err := a.bodyguards.Approve(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%s) is %s\n", b.FullName, b.ID, b.Status)
			return nil
		},
	}
	approve.Flags().StringVar(&id, "id", "", "Bodyguard uid (required)")
	_ = approve.MarkFlagRequired("id")

	guards.AddCommand(list, approve)
	return guards
}
