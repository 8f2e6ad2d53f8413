package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/finzap/finzap/internal/config"
	"github.com/finzap/finzap/pkg/alerting"
	"github.com/finzap/finzap/pkg/notify"
	"github.com/finzap/finzap/pkg/sheets"
	"github.com/finzap/finzap/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "finzap",
	Short: "FinZap - WhatsApp financial assistant with budget alerts",
	Long: `FinZap answers personal finance questions over WhatsApp and watches
daily spending against per-category limits kept in a spreadsheet, sending
budget alerts through the same channel.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.finzap/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStore creates the local storage backend.
func initStore(cfg *config.Config) (storage.Store, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initSender creates the WhatsApp sender.
func initSender(cfg *config.Config) (*notify.WhatsAppSender, error) {
	if cfg.WhatsApp.Token == "" || cfg.WhatsApp.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp token and phone_number_id are required")
	}
	return notify.NewWhatsAppSender(cfg.WhatsApp.APIBase, cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID), nil
}

// initSheetSources creates the spreadsheet-backed transaction and limit
// sources.
func initSheetSources(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sheets.TransactionSource, *sheets.LimitSource, error) {
	sheetCfg := sheets.Config{
		SpreadsheetID:     cfg.Sheets.SpreadsheetID,
		CredentialsFile:   cfg.Sheets.CredentialsFile,
		TransactionsRange: cfg.Sheets.TransactionsRange,
		LimitsRange:       cfg.Sheets.LimitsRange,
	}
	if err := sheetCfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("sheets config: %w", err)
	}

	svc, err := sheets.NewService(ctx, sheetCfg.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return sheets.NewTransactionSource(svc, sheetCfg, logger),
		sheets.NewLimitSource(svc, sheetCfg, logger), nil
}

// initEngine wires a fully configured budget alert engine.
func initEngine(ctx context.Context, cfg *config.Config, store storage.Store, logger *slog.Logger) (*alerting.Engine, error) {
	txSource, limitSource, err := initSheetSources(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sender, err := initSender(cfg)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Alerts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Alerts.Timezone, err)
	}

	templates := alerting.DefaultTemplates()
	if cfg.Alerts.TemplatesFile != "" {
		templates, err = alerting.LoadTemplates(cfg.Alerts.TemplatesFile)
		if err != nil {
			return nil, err
		}
	}

	return alerting.NewEngine(txSource, limitSource, store, sender, alerting.Options{
		Templates: templates,
		Location:  loc,
		Logger:    logger,
	}), nil
}
