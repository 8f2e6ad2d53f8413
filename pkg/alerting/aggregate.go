package alerting

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finzap/finzap/pkg/model"
	"github.com/finzap/finzap/pkg/money"
)

// CategoryUncategorized buckets transactions recorded without a category.
const CategoryUncategorized = "sem categoria"

// dateLayout is how dates are recorded in the transactions sheet.
const dateLayout = "02/01/2006"

// DailySpend sums the given transactions per user and category for the given
// day. The fold is commutative, so row order never changes the totals.
//
// Row-level problems are tolerated: a row whose date does not parse is
// skipped with a warning, and a row whose amount does not parse contributes
// zero (the category still shows up, but bad data never inflates spend).
func DailySpend(txs []model.Transaction, day time.Time, logger *slog.Logger) map[string]map[string]decimal.Decimal {
	y, m, d := day.Date()

	totals := make(map[string]map[string]decimal.Decimal)
	for _, tx := range txs {
		txDay, err := time.Parse(dateLayout, tx.Date)
		if err != nil {
			logger.Warn("skipping transaction with malformed date",
				"user", tx.UserID,
				"date", tx.Date,
			)
			continue
		}
		ty, tm, td := txDay.Date()
		if ty != y || tm != m || td != d {
			continue
		}

		category := model.NormalizeCategory(tx.Category)
		if category == "" {
			category = CategoryUncategorized
		}

		amount, err := money.Parse(tx.Amount)
		if err != nil {
			logger.Warn("transaction amount unreadable, counting as zero",
				"user", tx.UserID,
				"category", category,
				"amount", tx.Amount,
			)
			amount = decimal.Zero
		}

		if totals[tx.UserID] == nil {
			totals[tx.UserID] = make(map[string]decimal.Decimal)
		}
		totals[tx.UserID][category] = totals[tx.UserID][category].Add(amount)
	}
	return totals
}
