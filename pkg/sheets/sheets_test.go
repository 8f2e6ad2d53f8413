package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowsToTransactions(t *testing.T) {
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := [][]any{
		{"u1", "15/03/2026", "Alimentação", "R$ 50,00", "pix"},
		{"u1", "14/03/2026", "Alimentação", "R$ 99,00", "pix"}, // other day
		{"u2", "15/03/2026", "Transporte", "12,00"},            // ragged row
		{"", "15/03/2026", "Lazer", "5,00", "pix"},             // no user
		{"u3", "soon", "Lazer", "5,00", "pix"},                 // bad date passes through
	}

	txs := rowsToTransactions(rows, day)
	require.Len(t, txs, 3)

	assert.Equal(t, "u1", txs[0].UserID)
	assert.Equal(t, "R$ 50,00", txs[0].Amount)
	assert.Equal(t, "pix", txs[0].PaymentMethod)

	assert.Equal(t, "u2", txs[1].UserID)
	assert.Empty(t, txs[1].PaymentMethod)

	assert.Equal(t, "u3", txs[2].UserID)
	assert.Equal(t, "soon", txs[2].Date)
}

func TestRowsToLimits(t *testing.T) {
	rows := [][]any{
		{"u1", "Alimentação", "monthly", "R$ 1.000,00"},
		{"u1", "Transporte", "", "300,00"},          // blank period defaults to monthly
		{"u1", "Lazer", "weekly", "100,00"},         // not monthly, ignored
		{"u1", "alimentação ", "monthly", "999,00"}, // duplicate, first wins
		{"u2", "Alimentação", "monthly", "500,00"},  // other user
		{"u1", "  ", "monthly", "50,00"},            // empty category
	}

	limits := rowsToLimits(rows, "u1")
	require.Len(t, limits, 2)
	assert.Equal(t, "R$ 1.000,00", limits["alimentação"])
	assert.Equal(t, "300,00", limits["transporte"])
}

func TestCell(t *testing.T) {
	row := []any{" a ", 42}
	assert.Equal(t, "a", cell(row, 0))
	assert.Equal(t, "42", cell(row, 1))
	assert.Empty(t, cell(row, 5))
}
