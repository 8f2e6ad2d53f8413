package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate and manage budget alerts",
}

var alertsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate today's spending and dispatch budget alerts",
	Long: `Pulls today's transactions, aggregates spend per user and category,
classifies each against the configured limits and sends any newly crossed
alerts over WhatsApp. Intended to be invoked from cron; runs are idempotent
per (user, category, band, day).`,
	RunE: runAlertsRun,
}

var alertsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop sent-alert records older than the retention window",
	RunE:  runAlertsPrune,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsRunCmd)
	alertsCmd.AddCommand(alertsPruneCmd)
}

func runAlertsRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := initStore(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	engine, err := initEngine(cmd.Context(), cfg, store, logger)
	if err != nil {
		return err
	}

	stats, err := engine.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("alert run: %w", err)
	}

	fmt.Printf("Evaluated %d users (%d category checks): %d alerts sent, %d send errors, %d user errors\n",
		stats.Users, stats.Evaluations, stats.AlertsSent, stats.SendErrors, stats.UserErrors)

	// Retention runs with every scheduled evaluation so the state store
	// never grows unbounded.
	if cfg.Alerts.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.Alerts.RetentionDays)
		removed, err := store.PruneSentAlertsBefore(cmd.Context(), cutoff)
		if err != nil {
			logger.Error("alert retention prune failed", "error", err)
		} else if removed > 0 {
			logger.Info("pruned old alert records", "removed", removed)
		}
	}

	return nil
}

func runAlertsPrune(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Alerts.RetentionDays <= 0 {
		return fmt.Errorf("alerts.retention_days must be positive")
	}

	store, err := initStore(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	cutoff := time.Now().AddDate(0, 0, -cfg.Alerts.RetentionDays)
	removed, err := store.PruneSentAlertsBefore(cmd.Context(), cutoff)
	if err != nil {
		return fmt.Errorf("prune sent alerts: %w", err)
	}

	fmt.Printf("Removed %d alert records older than %s\n", removed, cutoff.Format("2006-01-02"))
	return nil
}
