package main

import (
	"fmt"

	"github.com/spf13/cobra"

	paykit "github.com/paykitio/paykit-go"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <reference-key>",
		Short: "Check a payment's widget status",
		Long: `Query the public widget status endpoint for one payment. This is the
same lightweight check browser widgets poll; it needs no API key beyond
the configured base URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.apiURL == "" {
				return fmt.Errorf("no API URL configured (set --api-url or PAYKIT_API_URL)")
			}
			client := paykit.NewClient(a.apiURL, a.apiKey, paykit.WithLogger(a.log))

			status, err := client.PaymentStatus(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("payment status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Status:", status.Status)
			fmt.Fprintln(out, "Paid:  ", status.Paid)
			return nil
		},
	}
}
