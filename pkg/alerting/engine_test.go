package alerting_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finzap/finzap/pkg/alerting"
	"github.com/finzap/finzap/pkg/model"
)

type fakeTxSource struct {
	txs []model.Transaction
	err error
}

func (f *fakeTxSource) TransactionsFor(_ context.Context, _ time.Time) ([]model.Transaction, error) {
	return f.txs, f.err
}

type fakeLimitSource struct {
	limits   map[string]map[string]string
	errFor   map[string]error
	panicFor map[string]bool
}

func (f *fakeLimitSource) LimitsFor(_ context.Context, userID string) (map[string]string, error) {
	if f.panicFor[userID] {
		panic("corrupt limit row for " + userID)
	}
	if err := f.errFor[userID]; err != nil {
		return nil, err
	}
	return f.limits[userID], nil
}

type memState struct {
	sent map[string]bool
}

func newMemState() *memState { return &memState{sent: make(map[string]bool)} }

func (m *memState) WasAlertSent(_ context.Context, userID, key string) (bool, error) {
	return m.sent[userID+"|"+key], nil
}

func (m *memState) MarkAlertSent(_ context.Context, userID, key string) error {
	m.sent[userID+"|"+key] = true
	return nil
}

type sentMessage struct {
	userID string
	text   string
}

type fakeSender struct {
	failNext int
	sent     []sentMessage
}

func (f *fakeSender) Send(_ context.Context, userID, text string) error {
	if f.failNext > 0 {
		f.failNext--
		return errors.New("delivery refused")
	}
	f.sent = append(f.sent, sentMessage{userID: userID, text: text})
	return nil
}

func testClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	}
}

func newTestEngine(txs *fakeTxSource, limits alerting.LimitSource, state *memState, sender *fakeSender) *alerting.Engine {
	return alerting.NewEngine(txs, limits, state, sender, alerting.Options{
		Rand:   rand.New(rand.NewSource(7)),
		Now:    testClock(),
		Logger: discardLogger(),
	})
}

func TestEngine_EndToEnd(t *testing.T) {
	// Limit Food=1000; 500+150 -> 65% fires nothing; +100 -> 75% fires band 70
	// exactly once.
	txs := &fakeTxSource{txs: []model.Transaction{
		{UserID: "u1", Category: "Food", Amount: "500,00", Date: "15/03/2026"},
		{UserID: "u1", Category: "Food", Amount: "150,00", Date: "15/03/2026"},
	}}
	limits := &fakeLimitSource{limits: map[string]map[string]string{
		"u1": {"Food": "R$ 1.000,00"},
	}}
	state := newMemState()
	sender := &fakeSender{}
	engine := newTestEngine(txs, limits, state, sender)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.AlertsSent)
	assert.Empty(t, sender.sent)

	// One more transaction pushes the total to 750 (75%).
	txs.txs = append(txs.txs, model.Transaction{
		UserID: "u1", Category: "Food", Amount: "100,00", Date: "15/03/2026",
	})

	stats, err = engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AlertsSent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "u1", sender.sent[0].userID)
	assert.NotEmpty(t, sender.sent[0].text)

	// Re-running with identical data does not re-fire.
	stats, err = engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.AlertsSent)
	assert.Len(t, sender.sent, 1)
}

func TestEngine_SendFailureRetriesNextRun(t *testing.T) {
	txs := &fakeTxSource{txs: []model.Transaction{
		{UserID: "u1", Category: "Food", Amount: "750,00", Date: "15/03/2026"},
	}}
	limits := &fakeLimitSource{limits: map[string]map[string]string{
		"u1": {"Food": "1000"},
	}}
	state := newMemState()
	sender := &fakeSender{failNext: 1}
	engine := newTestEngine(txs, limits, state, sender)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SendErrors)
	assert.Zero(t, stats.AlertsSent)

	// Unchanged spend, same day: the alert must be attempted again.
	stats, err = engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AlertsSent)
	require.Len(t, sender.sent, 1)
}

func TestEngine_LimitStoreErrorSkipsOnlyThatUser(t *testing.T) {
	txs := &fakeTxSource{txs: []model.Transaction{
		{UserID: "u1", Category: "Food", Amount: "750,00", Date: "15/03/2026"},
		{UserID: "u2", Category: "Food", Amount: "750,00", Date: "15/03/2026"},
	}}
	limits := &fakeLimitSource{
		limits: map[string]map[string]string{
			"u2": {"Food": "1000"},
		},
		errFor: map[string]error{"u1": errors.New("sheet unreachable")},
	}
	state := newMemState()
	sender := &fakeSender{}
	engine := newTestEngine(txs, limits, state, sender)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UserErrors)
	assert.Equal(t, 1, stats.AlertsSent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "u2", sender.sent[0].userID)
}

func TestEngine_PanicInOneUserDoesNotStopBatch(t *testing.T) {
	txs := &fakeTxSource{txs: []model.Transaction{
		{UserID: "u1", Category: "Food", Amount: "750,00", Date: "15/03/2026"},
		{UserID: "u2", Category: "Food", Amount: "750,00", Date: "15/03/2026"},
	}}
	limits := &fakeLimitSource{
		limits: map[string]map[string]string{
			"u2": {"Food": "1000"},
		},
		panicFor: map[string]bool{"u1": true},
	}
	state := newMemState()
	sender := &fakeSender{}
	engine := newTestEngine(txs, limits, state, sender)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UserErrors)
	assert.Equal(t, 1, stats.AlertsSent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "u2", sender.sent[0].userID)
}

// cancelingLimitSource cancels the run's context on its first call, as if the
// process were told to stop mid-batch.
type cancelingLimitSource struct {
	inner  *fakeLimitSource
	cancel context.CancelFunc
}

func (c *cancelingLimitSource) LimitsFor(ctx context.Context, userID string) (map[string]string, error) {
	c.cancel()
	return c.inner.LimitsFor(ctx, userID)
}

func TestEngine_CancellationStopsBetweenUsers(t *testing.T) {
	txs := &fakeTxSource{txs: []model.Transaction{
		{UserID: "u1", Category: "Food", Amount: "750,00", Date: "15/03/2026"},
		{UserID: "u2", Category: "Food", Amount: "750,00", Date: "15/03/2026"},
	}}
	inner := &fakeLimitSource{limits: map[string]map[string]string{
		"u1": {"Food": "1000"},
		"u2": {"Food": "1000"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	state := newMemState()
	sender := &fakeSender{}
	engine := newTestEngine(txs, &cancelingLimitSource{inner: inner, cancel: cancel}, state, sender)

	stats, err := engine.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// u1 finishes in full; u2 is never started.
	assert.Equal(t, 1, stats.AlertsSent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "u1", sender.sent[0].userID)
}

func TestEngine_TransactionFetchErrorAbortsRun(t *testing.T) {
	txs := &fakeTxSource{err: errors.New("sheet unreachable")}
	engine := newTestEngine(txs, &fakeLimitSource{}, newMemState(), &fakeSender{})

	_, err := engine.Run(context.Background())
	assert.Error(t, err)
}

func TestEngine_NoLimitNoAlert(t *testing.T) {
	txs := &fakeTxSource{txs: []model.Transaction{
		{UserID: "u1", Category: "Food", Amount: "9.999,00", Date: "15/03/2026"},
	}}
	limits := &fakeLimitSource{limits: map[string]map[string]string{
		"u1": {"Food": "0"},
	}}
	sender := &fakeSender{}
	engine := newTestEngine(txs, limits, newMemState(), sender)

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.AlertsSent)
	assert.Empty(t, sender.sent)
}

func TestEngine_DistinctBandsFireIndependently(t *testing.T) {
	// Crossing a higher band on the same day is a new alert key and fires
	// even though a lower band already fired.
	txs := &fakeTxSource{txs: []model.Transaction{
		{UserID: "u1", Category: "Food", Amount: "500,00", Date: "15/03/2026"},
	}}
	limits := &fakeLimitSource{limits: map[string]map[string]string{
		"u1": {"Food": "1000"},
	}}
	state := newMemState()
	sender := &fakeSender{}
	engine := newTestEngine(txs, limits, state, sender)

	_, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sender.sent, 1) // band 50

	txs.txs = append(txs.txs, model.Transaction{
		UserID: "u1", Category: "Food", Amount: "500,00", Date: "15/03/2026",
	})

	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AlertsSent) // band 100 at exactly the limit
	assert.Len(t, sender.sent, 2)
}

func TestAlertKey(t *testing.T) {
	day := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "alimentação_90_2026-03-15", alerting.AlertKey("alimentação", alerting.Band90, day))
}
