package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	paykit "github.com/paykitio/paykit-go"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		assets   []string
		label    string
		ref      string
		interval time.Duration
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Create a payment (or resume one) and wait for settlement",
		Long: `Poll the payment API until the payment settles, fails, expires, or the
timeout elapses. Without --reference a new payment is created from the
given assets; with --reference an existing payment is resumed. Transient
API failures are retried with exponential backoff. Ctrl-C stops the wait
without affecting the payment itself.`,
		Example: `  paykit watch --asset "sku-42:Coffee:4.50" --label "Order 1337"
  paykit watch --reference pay_9f2c04`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ref == "" && len(assets) == 0 {
				return fmt.Errorf("either --reference or at least one --asset is required")
			}

			req, err := buildRequest(assets, label, false)
			if err != nil {
				return err
			}
			req.PaymentReference = ref

			client, err := a.client(
				paykit.WithPollInterval(interval),
				paykit.WithPollTimeout(timeout),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Settled responses omit the reference key, so remember the last
			// one observed for the history record.
			lastRef := ref

			result := client.WaitForCompletion(ctx, req,
				paykit.WithOnUpdate(func(update paykit.PollUpdate) {
					if update.State == nil {
						return
					}
					if update.State.ReferenceKey != "" {
						lastRef = update.State.ReferenceKey
					}
					a.log.Info("payment state",
						"cycle", update.Cycle,
						"reference", update.State.ReferenceKey,
						"status", update.State.Status,
					)
				}),
				paykit.WithOnError(func(pollErr paykit.PollError) {
					a.log.Warn("poll failed",
						"cycle", pollErr.Cycle,
						"error", pollErr.Err,
						"retry_in", pollErr.NextInterval,
					)
				}),
			)

			if result.Last != nil {
				final := *result.Last
				if final.ReferenceKey == "" {
					final.ReferenceKey = lastRef
				}
				if result.Paid {
					final.Status = paykit.StatusPaid
				}
				a.recordState(cmd, label, &final, result.Paid)
			}

			out := cmd.OutOrStdout()
			if result.Paid {
				fmt.Fprintln(out, "Payment settled.")
				return nil
			}

			if result.Last != nil {
				fmt.Fprintf(out, "Payment not settled (last status: %s).\n", result.Last.Status)
			} else {
				fmt.Fprintln(out, "Payment not settled (no state observed).")
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("payment did not settle")
		},
	}

	cmd.Flags().StringArrayVar(&assets, "asset", nil, "asset as id:name:price[:quantity], repeatable")
	cmd.Flags().StringVar(&label, "label", "", "human-readable payment label")
	cmd.Flags().StringVar(&ref, "reference", "", "resume an existing payment by reference key")
	cmd.Flags().DurationVar(&interval, "interval", paykit.DefaultBaseInterval, "base poll interval")
	cmd.Flags().DurationVar(&timeout, "timeout", paykit.DefaultTimeout, "overall polling deadline")
	return cmd
}
