package storage

import (
	"context"
	"errors"
	"time"

	"github.com/finzap/finzap/pkg/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence layer for alert state and user quotas.
type Store interface {
	// WasAlertSent reports whether an alert key has already been dispatched
	// for the user.
	WasAlertSent(ctx context.Context, userID, key string) (bool, error)

	// MarkAlertSent records an alert key as dispatched. Marking the same key
	// twice is a no-op, so a concurrent double run cannot double-mark.
	MarkAlertSent(ctx context.Context, userID, key string) error

	// PruneSentAlertsBefore drops alert records older than the cutoff and
	// returns how many were removed.
	PruneSentAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// GetUserByPhone retrieves a user by WhatsApp number.
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)

	// CreateUser persists a new user.
	CreateUser(ctx context.Context, user *model.User) error

	// IncrementMessageCount adds one to the user's quota usage.
	IncrementMessageCount(ctx context.Context, userID string) error

	// StartNewPeriod resets the user's quota usage at a period rollover.
	StartNewPeriod(ctx context.Context, userID string, start time.Time) error

	// SetPlan switches the user's subscription tier.
	SetPlan(ctx context.Context, userID string, plan model.Plan) error

	// Close releases resources.
	Close() error
}
