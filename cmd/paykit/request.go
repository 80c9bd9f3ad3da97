package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	paykit "github.com/paykitio/paykit-go"
)

func newRequestCmd(a *app) *cobra.Command {
	var (
		assets []string
		label  string
		qrCode bool
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Create a payment request",
		Long: `Create a payment request and print the reference key and payment URL.
Each --asset takes the form id:name:price[:quantity]; quantity defaults
to 1. The command returns immediately after the payment is created; use
"paykit watch" to wait for settlement.`,
		Example: `  paykit request --asset "sku-42:Coffee:4.50:2" --label "Order 1337" --qr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(assets, label, qrCode)
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}

			state, err := client.RequestPayment(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("request payment: %w", err)
			}
			if state.Settled() {
				fmt.Fprintln(cmd.OutOrStdout(), "Payment settled immediately.")
				return nil
			}

			a.recordState(cmd, label, state, false)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Reference key:", state.ReferenceKey)
			fmt.Fprintln(out, "Amount:       ", state.TotalAmount.String())
			fmt.Fprintln(out, "Payment URL:  ", state.PaymentURL)
			if !state.ExpiresAt.IsZero() {
				fmt.Fprintln(out, "Expires at:   ", state.ExpiresAt.Local())
			}
			if state.QRCode != "" {
				fmt.Fprintln(out, "QR code:      ", state.QRCode)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&assets, "asset", nil, "asset as id:name:price[:quantity], repeatable")
	cmd.Flags().StringVar(&label, "label", "", "human-readable payment label")
	cmd.Flags().BoolVar(&qrCode, "qr", false, "ask the API to generate a QR code")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func buildRequest(specs []string, label string, qrCode bool) (paykit.PaymentRequest, error) {
	req := paykit.PaymentRequest{
		PaymentLabel:   label,
		GenerateQRCode: qrCode,
	}

	for _, spec := range specs {
		asset, err := parseAsset(spec)
		if err != nil {
			return paykit.PaymentRequest{}, err
		}
		req.Assets = append(req.Assets, asset)
	}
	return req, nil
}

func parseAsset(spec string) (paykit.Asset, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return paykit.Asset{}, fmt.Errorf("asset %q: want id:name:price[:quantity]", spec)
	}

	price, err := decimal.NewFromString(parts[2])
	if err != nil {
		return paykit.Asset{}, fmt.Errorf("asset %q: bad price: %w", spec, err)
	}

	quantity := 1
	if len(parts) == 4 {
		quantity, err = strconv.Atoi(parts[3])
		if err != nil || quantity < 1 {
			return paykit.Asset{}, fmt.Errorf("asset %q: quantity must be a positive integer", spec)
		}
	}

	return paykit.Asset{
		ID:       parts[0],
		Name:     parts[1],
		Price:    price,
		Quantity: quantity,
	}, nil
}
