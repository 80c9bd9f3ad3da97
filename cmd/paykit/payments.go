package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newPaymentsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List locally recorded payments",
		Long: `Show the local payment history, newest first. The history records every
payment this CLI created or watched; it is not a view of the remote API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.history()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No payments recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "REFERENCE\tLABEL\tAMOUNT\tSTATUS\tPAID\tUPDATED")
			for _, entry := range entries {
				paid := ""
				if entry.Paid {
					paid = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					entry.ReferenceKey,
					entry.Label,
					entry.Amount.String(),
					entry.Status,
					paid,
					entry.UpdatedAt.Local().Format(time.DateTime),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of payments to show, 0 for all")
	return cmd
}
