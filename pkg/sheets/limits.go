package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/sheets/v4"

	"github.com/finzap/finzap/internal/retry"
	"github.com/finzap/finzap/pkg/model"
)

// Limit sheet columns: user_id, category, period, amount.
const (
	limColUser = iota
	limColCategory
	limColPeriod
	limColAmount
)

// LimitSource reads per-user spending limits from a spreadsheet range.
type LimitSource struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
	logger        *slog.Logger
}

// NewLimitSource creates a limit source over the configured range.
func NewLimitSource(svc *sheets.Service, cfg Config, logger *slog.Logger) *LimitSource {
	return &LimitSource{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.LimitsRange,
		logger:        logger,
	}
}

// LimitsFor returns the user's monthly limits as raw category -> value pairs.
// An error here is a store error, distinct from a user with no limits (which
// yields an empty map and nil error).
func (s *LimitSource) LimitsFor(ctx context.Context, userID string) (map[string]string, error) {
	var resp *sheets.ValueRange
	err := retry.Do(ctx, func() error {
		var callErr error
		resp, callErr = s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
		return callErr
	}, retry.Options{})
	if err != nil {
		return nil, fmt.Errorf("read limits range: %w", err)
	}

	return rowsToLimits(resp.Values, userID), nil
}

// rowsToLimits filters limit rows for one user. Only monthly limits (the
// default when the period cell is blank) feed the daily alert evaluation.
// When duplicates exist, the first located row wins.
func rowsToLimits(rows [][]any, userID string) map[string]string {
	limits := make(map[string]string)
	for _, row := range rows {
		if cell(row, limColUser) != userID {
			continue
		}

		period := model.LimitPeriod(model.NormalizeCategory(cell(row, limColPeriod)))
		if period == "" {
			period = model.PeriodMonthly
		}
		if period != model.PeriodMonthly {
			continue
		}

		category := model.NormalizeCategory(cell(row, limColCategory))
		if category == "" {
			continue
		}
		if _, ok := limits[category]; ok {
			continue
		}
		limits[category] = cell(row, limColAmount)
	}
	return limits
}
