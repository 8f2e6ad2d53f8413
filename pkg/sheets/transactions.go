package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/finzap/finzap/internal/retry"
	"github.com/finzap/finzap/pkg/model"
)

// Transaction sheet columns: user_id, date, category, amount, payment_method.
const (
	txColUser = iota
	txColDate
	txColCategory
	txColAmount
	txColPayment
)

const sheetDateLayout = "02/01/2006"

// TransactionSource reads dated transactions from a spreadsheet range.
type TransactionSource struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
	logger        *slog.Logger
}

// NewTransactionSource creates a transaction source over the configured range.
func NewTransactionSource(svc *sheets.Service, cfg Config, logger *slog.Logger) *TransactionSource {
	return &TransactionSource{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.TransactionsRange,
		logger:        logger,
	}
}

// TransactionsFor returns the rows recorded for the given day. Rows whose
// date cell does not parse are returned as-is so the aggregation layer can
// log and skip them.
func (s *TransactionSource) TransactionsFor(ctx context.Context, day time.Time) ([]model.Transaction, error) {
	var resp *sheets.ValueRange
	err := retry.Do(ctx, func() error {
		var callErr error
		resp, callErr = s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
		return callErr
	}, retry.Options{})
	if err != nil {
		return nil, fmt.Errorf("read transactions range: %w", err)
	}

	return rowsToTransactions(resp.Values, day), nil
}

// rowsToTransactions converts sheet rows into transactions for one day.
func rowsToTransactions(rows [][]any, day time.Time) []model.Transaction {
	y, m, d := day.Date()

	var txs []model.Transaction
	for _, row := range rows {
		tx := model.Transaction{
			UserID:        cell(row, txColUser),
			Date:          cell(row, txColDate),
			Category:      cell(row, txColCategory),
			Amount:        cell(row, txColAmount),
			PaymentMethod: cell(row, txColPayment),
		}
		if tx.UserID == "" {
			continue
		}

		// Rows for other days are dropped here; unparseable dates pass
		// through so the aggregation warning fires where the policy lives.
		if txDay, err := time.Parse(sheetDateLayout, tx.Date); err == nil {
			ty, tm, td := txDay.Date()
			if ty != y || tm != m || td != d {
				continue
			}
		}

		txs = append(txs, tx)
	}
	return txs
}
