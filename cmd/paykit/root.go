package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	paykit "github.com/paykitio/paykit-go"
	"github.com/paykitio/paykit-go/internal/history"
	"github.com/paykitio/paykit-go/internal/observability"
)

// app carries the CLI's shared state, built once in PersistentPreRunE.
type app struct {
	apiURL  string
	apiKey  string
	dbPath  string
	verbose bool

	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "paykit",
		Short: "Developer CLI for the PayKit payment API",
		Long: `paykit creates payment requests against the PayKit API, waits for
settlement with resilient polling, and keeps a local history of every
payment it touches. Credentials come from flags or from PAYKIT_API_URL
and PAYKIT_API_KEY (a .env file in the working directory is honored).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Missing .env is fine; explicit env and flags win over it.
			_ = godotenv.Load()

			if a.apiURL == "" {
				a.apiURL = os.Getenv("PAYKIT_API_URL")
			}
			if a.apiKey == "" {
				a.apiKey = os.Getenv("PAYKIT_API_KEY")
			}

			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = observability.NewTerminalLogger(os.Stderr, level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "payment API base URL (env PAYKIT_API_URL)")
	cmd.PersistentFlags().StringVar(&a.apiKey, "api-key", "", "payment API key (env PAYKIT_API_KEY)")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", defaultDBPath(), "path to the local payment history database")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newRequestCmd(a),
		newWatchCmd(a),
		newStatusCmd(a),
		newPaymentsCmd(a),
		newDevCmd(a),
	)
	return cmd
}

// client builds an API client from the resolved configuration.
func (a *app) client(opts ...paykit.ClientOption) (*paykit.Client, error) {
	if a.apiURL == "" {
		return nil, fmt.Errorf("no API URL configured (set --api-url or PAYKIT_API_URL)")
	}
	if a.apiKey == "" {
		return nil, fmt.Errorf("no API key configured (set --api-key or PAYKIT_API_KEY)")
	}

	opts = append([]paykit.ClientOption{paykit.WithLogger(a.log)}, opts...)
	return paykit.NewClient(a.apiURL, a.apiKey, opts...), nil
}

func (a *app) history() (*history.Store, error) {
	if err := os.MkdirAll(filepath.Dir(a.dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return history.Open(a.dbPath)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "paykit.db"
	}
	return filepath.Join(home, ".paykit", "payments.db")
}

// recordState persists an observed payment state, logging rather than
// failing when the local database is unavailable.
func (a *app) recordState(cmd *cobra.Command, label string, state *paykit.PaymentState, paid bool) {
	if state == nil || state.ReferenceKey == "" {
		return
	}

	store, err := a.history()
	if err != nil {
		a.log.Warn("payment history unavailable", "error", err)
		return
	}
	defer store.Close()

	err = store.Record(cmd.Context(), history.Entry{
		ReferenceKey: state.ReferenceKey,
		Label:        label,
		Amount:       state.TotalAmount,
		Status:       string(state.Status),
		Paid:         paid,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		a.log.Warn("failed to record payment", "reference", state.ReferenceKey, "error", err)
	}
}
