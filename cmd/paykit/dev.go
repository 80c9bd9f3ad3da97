package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paykitio/paykit-go/pkg/devserver"
)

func newDevCmd(a *app) *cobra.Command {
	var (
		addr        string
		settleAfter int
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run a mock payment API for offline development",
		Long: `Serve an in-memory imitation of the payment API. Payments settle after
--settle-after polls, or on demand via POST /admin/payments/<ref>/settle
(likewise /fail and /expire). Point the other commands at it with
--api-url and any API key.`,
		Example: `  paykit dev --addr :8402 --settle-after 3
  paykit --api-url http://localhost:8402 --api-key dev watch --asset "sku-1:Coffee:4.50"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := devserver.New(devserver.WithSettleAfter(settleAfter))

			a.log.Info("mock payment API listening", "addr", addr, "settle_after", settleAfter)
			if err := server.Run(addr); err != nil {
				return fmt.Errorf("mock payment API: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8402", "listen address")
	cmd.Flags().IntVar(&settleAfter, "settle-after", 0, "auto-settle payments after this many polls, 0 to disable")
	return cmd
}
