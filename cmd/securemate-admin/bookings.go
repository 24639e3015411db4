package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/export"
)

func newBookingsCmd(get getter) *cobra.Command {
	bookings := &cobra.Command{
		Use:   "bookings",
		Short: "Inspect bookings",
	}

	var clientID, bodyguardID, out string
	exp := &cobra.Command{
		Use:   "export",
		Short: "Export a client's or a bodyguard's bookings to XLSX",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (clientID == "") == (bodyguardID == "") {
				return errors.New("exactly one of --client or --bodyguard is required")
			}
			a, ctx, cancel, err := get(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			var rows []booking.Booking
			if clientID != "" {
				rows, err = a.bookings.ListForClient(ctx, clientID)
			} else {
				rows, err = a.bookings.ListForBodyguard(ctx, bodyguardID)
			}
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("error creating %s: %w", out, err)
			}
			if err := export.Bookings(f, rows); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d bookings written to %s\n", len(rows), out)
			return nil
		},
	}
	exp.Flags().StringVar(&clientID, "client", "", "Client uid")
	exp.Flags().StringVar(&bodyguardID, "bodyguard", "", "Bodyguard uid")
	exp.Flags().StringVar(&out, "out", "bookings.xlsx", "Output file")

	bookings.AddCommand(exp)
	return bookings
}
