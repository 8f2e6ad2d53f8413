package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finzap/finzap/pkg/alerting"
	"github.com/finzap/finzap/pkg/money"
)

var limitsCmd = &cobra.Command{
	Use:   "limits [user-id]",
	Short: "Show a user's resolved spending limits",
	Args:  cobra.ExactArgs(1),
	RunE:  runLimits,
}

func init() {
	rootCmd.AddCommand(limitsCmd)
}

func runLimits(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	_, limitSource, err := initSheetSources(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	userID := args[0]
	raw, err := limitSource.LimitsFor(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("fetch limits: %w", err)
	}

	limits := alerting.ResolveLimits(raw, logger)
	if len(limits) == 0 {
		fmt.Printf("No limits configured for %s.\n", userID)
		return nil
	}

	categories := make([]string, 0, len(limits))
	for category := range limits {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CATEGORY\tMONTHLY LIMIT\n")
	for _, category := range categories {
		fmt.Fprintf(w, "%s\t%s\n", category, money.FormatBRL(limits[category]))
	}
	w.Flush()

	return nil
}
