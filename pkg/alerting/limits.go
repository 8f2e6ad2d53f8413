package alerting

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/finzap/finzap/pkg/model"
	"github.com/finzap/finzap/pkg/money"
)

// ResolveLimits normalizes raw limit values into per-category amounts.
//
// Raw values may be locale-formatted currency strings. An entry that does not
// parse is dropped with a warning rather than defaulting to zero: a malformed
// row must not masquerade as "no spending allowed". Empty category names are
// discarded. Keys in the result are trimmed and case-normalized.
func ResolveLimits(raw map[string]string, logger *slog.Logger) map[string]decimal.Decimal {
	// Sheet adapters dedup in row order before handing limits over, so
	// collisions here only happen with other sources. Iterating sorted raw
	// keys keeps the winner deterministic either way.
	keys := make([]string, 0, len(raw))
	for category := range raw {
		keys = append(keys, category)
	}
	sort.Strings(keys)

	limits := make(map[string]decimal.Decimal, len(raw))
	for _, category := range keys {
		value := raw[category]
		key := model.NormalizeCategory(category)
		if key == "" {
			continue
		}

		amount, err := money.Parse(value)
		if err != nil {
			logger.Warn("skipping unreadable limit",
				"category", key,
				"value", value,
			)
			continue
		}

		if _, ok := limits[key]; ok {
			// Duplicate after normalization; first located definition wins.
			continue
		}
		limits[key] = amount
	}
	return limits
}
