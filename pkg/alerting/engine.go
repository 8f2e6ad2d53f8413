// Package alerting evaluates daily spending against per-category limits and
// dispatches budget alerts over the messaging channel.
package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finzap/finzap/pkg/model"
)

// TransactionSource exposes the day's transactions across all users.
type TransactionSource interface {
	TransactionsFor(ctx context.Context, day time.Time) ([]model.Transaction, error)
}

// LimitSource exposes a user's configured limits as raw category -> value
// pairs; values may be locale-formatted currency strings.
type LimitSource interface {
	LimitsFor(ctx context.Context, userID string) (map[string]string, error)
}

// AlertState persists which alert keys have already been dispatched.
type AlertState interface {
	WasAlertSent(ctx context.Context, userID, key string) (bool, error)
	MarkAlertSent(ctx context.Context, userID, key string) error
}

// Sender delivers a text message to a user's messaging address.
type Sender interface {
	Send(ctx context.Context, userID, text string) error
}

// Options tune engine behavior; zero values get sensible defaults.
type Options struct {
	Templates Templates
	Location  *time.Location
	Rand      *rand.Rand
	Now       func() time.Time
	Logger    *slog.Logger
}

// Engine is the budget-alert evaluator. One Run processes all users who
// transacted today, sequentially; per-user evaluation is self-contained, so
// aborting between users never corrupts state.
type Engine struct {
	txs       TransactionSource
	limits    LimitSource
	state     AlertState
	sender    Sender
	templates Templates
	loc       *time.Location
	rng       *rand.Rand
	now       func() time.Time
	logger    *slog.Logger
}

// NewEngine wires an engine from its collaborators.
func NewEngine(txs TransactionSource, limits LimitSource, state AlertState, sender Sender, opts Options) *Engine {
	e := &Engine{
		txs:       txs,
		limits:    limits,
		state:     state,
		sender:    sender,
		templates: opts.Templates,
		loc:       opts.Location,
		rng:       opts.Rand,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if e.templates == nil {
		e.templates = DefaultTemplates()
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// RunStats summarizes one evaluation run.
type RunStats struct {
	Users       int
	Evaluations int
	AlertsSent  int
	SendErrors  int
	UserErrors  int
}

// AlertKey builds the composite dedup key for one alert.
func AlertKey(category string, band Band, day time.Time) string {
	return fmt.Sprintf("%s_%s_%s", category, band, day.Format("2006-01-02"))
}

// Run evaluates today's spend for every user who transacted and dispatches
// any newly crossed alerts. A failure for one user never aborts the others.
func (e *Engine) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats

	today := e.now().In(e.loc)
	txs, err := e.txs.TransactionsFor(ctx, today)
	if err != nil {
		return stats, fmt.Errorf("fetch transactions: %w", err)
	}

	spend := DailySpend(txs, today, e.logger)

	userIDs := make([]string, 0, len(spend))
	for userID := range spend {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)
	stats.Users = len(userIDs)

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := e.evaluateUser(ctx, userID, spend[userID], today, &stats); err != nil {
			stats.UserErrors++
			e.logger.Error("user evaluation failed", "user", userID, "error", err)
		}
	}

	e.logger.Info("alert run finished",
		"users", stats.Users,
		"evaluations", stats.Evaluations,
		"alerts_sent", stats.AlertsSent,
		"send_errors", stats.SendErrors,
		"user_errors", stats.UserErrors,
	)
	return stats, nil
}

// evaluateUser classifies each of one user's categories and dispatches alerts
// for newly crossed bands. A panic inside the evaluation is recovered so one
// user's bad data cannot take down the batch.
func (e *Engine) evaluateUser(ctx context.Context, userID string, categories map[string]decimal.Decimal, today time.Time, stats *RunStats) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	raw, err := e.limits.LimitsFor(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch limits: %w", err)
	}
	limits := ResolveLimits(raw, e.logger)

	names := make([]string, 0, len(categories))
	for category := range categories {
		names = append(names, category)
	}
	sort.Strings(names)

	for _, category := range names {
		limit, ok := limits[category]
		if !ok {
			continue
		}

		stats.Evaluations++
		band := Classify(categories[category], limit)
		if band == BandNone {
			continue
		}

		key := AlertKey(category, band, today)
		sent, err := e.state.WasAlertSent(ctx, userID, key)
		if err != nil {
			e.logger.Error("alert state lookup failed", "user", userID, "key", key, "error", err)
			continue
		}
		if sent {
			continue
		}

		text := e.templates.Render(e.rng, band, category, categories[category], limit)
		if err := e.sender.Send(ctx, userID, text); err != nil {
			// State stays unsent so the next scheduled run retries.
			stats.SendErrors++
			e.logger.Error("alert send failed", "user", userID, "key", key, "error", err)
			continue
		}

		// Persist immediately after each successful send, never batched, to
		// keep the duplicate window as small as possible.
		if err := e.state.MarkAlertSent(ctx, userID, key); err != nil {
			e.logger.Error("mark alert sent failed", "user", userID, "key", key, "error", err)
			continue
		}
		stats.AlertsSent++
		e.logger.Info("budget alert sent", "user", userID, "category", category, "band", band)
	}
	return nil
}
