package alerting

import "github.com/shopspring/decimal"

// Band is a discrete alert severity tied to a percentage-of-limit range.
type Band string

const (
	BandNone Band = ""
	Band50   Band = "50"
	Band70   Band = "70"
	Band90   Band = "90"
	Band100  Band = "100"
	BandOver Band = "over100"
)

var hundred = decimal.NewFromInt(100)

// Bands are matched against (lo, hi] percentage ranges. The gaps between
// ranges are intentional: percentages strictly between bands fire nothing,
// which keeps users from being pinged at every point on the way up.
var bandRanges = []struct {
	band Band
	lo   decimal.Decimal
	hi   decimal.Decimal
}{
	{Band50, decimal.NewFromInt(45), decimal.NewFromInt(55)},
	{Band70, decimal.NewFromInt(65), decimal.NewFromInt(75)},
	{Band90, decimal.NewFromInt(85), decimal.NewFromInt(95)},
	{Band100, decimal.NewFromInt(95), decimal.NewFromInt(105)},
}

var overThreshold = decimal.NewFromInt(105)

// Classify returns the band for the given spend against a limit, or BandNone.
// No band is ever computed for a non-positive limit. Boundaries follow the
// half-open convention (lo, hi]: exactly 55% is Band50, exactly 45% is none.
func Classify(spend, limit decimal.Decimal) Band {
	if limit.Sign() <= 0 {
		return BandNone
	}

	pct := spend.Mul(hundred).Div(limit)

	for _, r := range bandRanges {
		if pct.GreaterThan(r.lo) && pct.LessThanOrEqual(r.hi) {
			return r.band
		}
	}
	if pct.GreaterThan(overThreshold) {
		return BandOver
	}
	return BandNone
}
