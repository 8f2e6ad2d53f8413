package model

import (
	"strings"
	"time"
)

// Transaction is a single dated expense as recorded in the transactions sheet.
// Amount and Date carry the raw cell values; normalization happens during
// aggregation so a malformed row can be tolerated instead of rejected at read
// time.
type Transaction struct {
	UserID        string
	Category      string
	Amount        string // e.g. "R$ 35,90"
	Date          string // DD/MM/YYYY
	PaymentMethod string
}

// LimitPeriod defines the recurrence granularity of a spending limit.
type LimitPeriod string

const (
	PeriodDaily   LimitPeriod = "daily"
	PeriodWeekly  LimitPeriod = "weekly"
	PeriodMonthly LimitPeriod = "monthly"
)

// Limit is a per-user, per-category spending cap. A non-positive amount means
// "no limit". Amount is the raw cell value, possibly locale-formatted.
type Limit struct {
	UserID   string
	Category string
	Period   LimitPeriod
	Amount   string
}

// Plan identifies a user's subscription tier.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPaid Plan = "paid"
)

// User holds the chat assistant's quota bookkeeping for one WhatsApp number.
type User struct {
	ID           string    `json:"id" db:"id"`
	Phone        string    `json:"phone" db:"phone"`
	Name         string    `json:"name" db:"name"`
	Plan         Plan      `json:"plan" db:"plan"`
	MessagesUsed int       `json:"messages_used" db:"messages_used"`
	PeriodStart  time.Time `json:"period_start" db:"period_start"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeCategory produces the canonical key form of a category name, so
// limits and spend aggregation join on the same key.
func NormalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
