// Package sheets adapts Google Sheets ranges into the engine's transaction
// and limit sources. The spreadsheet is the system of record for both;
// this package only reads it.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Config locates the spreadsheet and the ranges to read.
type Config struct {
	SpreadsheetID     string
	CredentialsFile   string
	TransactionsRange string // e.g. "Transacoes!A2:E"
	LimitsRange       string // e.g. "Limites!A2:D"
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is required")
	}
	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials file is required")
	}
	return nil
}

// NewService creates a read-only Google Sheets API client from a service
// account credentials file.
func NewService(ctx context.Context, credentialsFile string) (*sheets.Service, error) {
	jsonKey, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, jwtConfig.TokenSource(ctx))
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// cell returns the row's column i as a trimmed string, or "" when the row is
// short. Sheets returns ragged rows when trailing cells are empty.
func cell(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	s, ok := row[i].(string)
	if !ok {
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}
	return strings.TrimSpace(s)
}
