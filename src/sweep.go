package main

import (
	"budget-bee-server/src/config"
	"budget-bee-server/src/db"
	"budget-bee-server/src/reports"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	var asOfFlag string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Fire every due income source once and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf := reports.DayStart(time.Now())
			if asOfFlag != "" {
				t, err := time.Parse("2006-01-02", asOfFlag)
				if err != nil {
					return fmt.Errorf("invalid --as-of %q: %w", asOfFlag, err)
				}
				asOf = t
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("DB connection failed: %w", err)
			}
			defer pool.Close()

			svc, closePublisher, err := newLedger(pool, cfg)
			if err != nil {
				return err
			}
			defer closePublisher()

			report, err := svc.SweepDueIncome(cmd.Context(), asOf)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(map[string]any{
				"as_of":        report.AsOf.Format("2006-01-02"),
				"users":        report.Users,
				"transactions": report.Transactions,
				"failed":       report.FailedUsers(),
			}); err != nil {
				return err
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d of %d users failed", len(report.Failed), report.Users)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "sweep as of this date (YYYY-MM-DD, default today UTC)")
	return cmd
}
