package alerting_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finzap/finzap/pkg/alerting"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestClassify(t *testing.T) {
	limit := dec(t, "1000")

	tests := []struct {
		name  string
		spend string
		want  alerting.Band
	}{
		{"well under", "100", alerting.BandNone},
		{"exactly 45pct is open lower bound", "450", alerting.BandNone},
		{"just above 45pct", "450.001", alerting.Band50},
		{"mid band 50", "500", alerting.Band50},
		{"exactly 55pct closes band 50", "550", alerting.Band50},
		{"gap between 50 and 70", "600", alerting.BandNone},
		{"just above 55pct is still the gap", "550.01", alerting.BandNone},
		{"exactly 65pct is open lower bound", "650", alerting.BandNone},
		{"just above 65pct", "650.01", alerting.Band70},
		{"exactly 75pct closes band 70", "750", alerting.Band70},
		{"gap between 70 and 90", "800", alerting.BandNone},
		{"just above 85pct", "850.01", alerting.Band90},
		{"exactly 95pct closes band 90", "950", alerting.Band90},
		{"just above 95pct", "950.01", alerting.Band100},
		{"exactly at the limit", "1000", alerting.Band100},
		{"exactly 105pct closes band 100", "1050", alerting.Band100},
		{"beyond 105pct", "1050.01", alerting.BandOver},
		{"far beyond the limit", "3000", alerting.BandOver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spend := dec(t, tt.spend)
			assert.Equal(t, tt.want, alerting.Classify(spend, limit))
			// Classification is pure: a second call answers the same.
			assert.Equal(t, tt.want, alerting.Classify(spend, limit))
		})
	}
}

func TestClassify_NoLimit(t *testing.T) {
	spend := dec(t, "500")
	assert.Equal(t, alerting.BandNone, alerting.Classify(spend, decimal.Zero))
	assert.Equal(t, alerting.BandNone, alerting.Classify(spend, dec(t, "-100")))
}
