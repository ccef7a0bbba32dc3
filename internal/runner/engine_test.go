package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"fibo_bot/internal/broker"
	"fibo_bot/internal/helper"
	"fibo_bot/internal/ledger"
	"fibo_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const market = "CS.D.EURUSD.CFD.IP"

var clock = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

type fakeBroker struct {
	snap      models.MarketSnapshot
	account   models.AccountState
	positions []models.OpenPosition

	snapErr     error
	accountErr  error
	posErr      error
	createErr   error
	closeErr    map[string]error
	closeAllErr error
	editErr     error

	created []broker.OrderRequest
	closed  []string
	edits   []broker.EditRequest
	seq     int
}

var _ broker.Broker = (*fakeBroker)(nil)

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		snap: models.MarketSnapshot{
			MarketID:        market,
			Currency:        "GBP",
			MarginFactor:    5,
			MinStopDistance: 1,
			MarketStatus:    "TRADEABLE",
			Bid:             helper.Ptr(103.9),
			Offer:           helper.Ptr(104.1),
		},
		account:  models.AccountState{AccountID: "ACC", Balance: 10000, Available: 10000},
		closeErr: map[string]error{},
	}
}

func (f *fakeBroker) MarketSnapshot(context.Context, string) (models.MarketSnapshot, error) {
	return f.snap, f.snapErr
}

func (f *fakeBroker) Account(context.Context) (models.AccountState, error) {
	return f.account, f.accountErr
}

func (f *fakeBroker) OpenPositions(_ context.Context, marketID string) ([]models.OpenPosition, error) {
	if f.posErr != nil {
		return nil, f.posErr
	}
	var out []models.OpenPosition
	for _, p := range f.positions {
		if p.MarketID == marketID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBroker) CreatePosition(_ context.Context, req broker.OrderRequest) (broker.Deal, error) {
	if f.createErr != nil {
		return broker.Deal{}, f.createErr
	}
	f.seq++
	ref, _ := f.snap.ReferencePrice(req.Direction)
	d := broker.Deal{
		DealID:    fmt.Sprintf("NEW%d", f.seq),
		MarketID:  req.MarketID,
		Status:    "OPEN",
		Direction: req.Direction,
		Level:     ref,
		Size:      req.Size,
	}
	f.created = append(f.created, req)
	f.positions = append(f.positions, models.OpenPosition{
		DealID: d.DealID, MarketID: req.MarketID, Direction: req.Direction, Size: req.Size, Level: ref,
		StopLevel: helper.Ptr(req.StopLevel), LimitLevel: helper.Ptr(req.LimitLevel),
	})
	return d, nil
}

func (f *fakeBroker) remove(dealID string) {
	out := f.positions[:0]
	for _, p := range f.positions {
		if p.DealID != dealID {
			out = append(out, p)
		}
	}
	f.positions = out
}

func (f *fakeBroker) ClosePosition(_ context.Context, p models.OpenPosition) (broker.Deal, error) {
	if err := f.closeErr[p.DealID]; err != nil {
		return broker.Deal{}, err
	}
	f.closed = append(f.closed, p.DealID)
	f.remove(p.DealID)
	return broker.Deal{DealID: p.DealID, Status: "CLOSED"}, nil
}

func (f *fakeBroker) CloseAll(ctx context.Context, marketID string) ([]broker.Deal, error) {
	if f.closeAllErr != nil {
		return nil, f.closeAllErr
	}
	positions, _ := f.OpenPositions(ctx, marketID)
	var deals []broker.Deal
	for _, p := range positions {
		d, err := f.ClosePosition(ctx, p)
		if err != nil {
			return deals, err
		}
		deals = append(deals, d)
	}
	return deals, nil
}

func (f *fakeBroker) EditPosition(_ context.Context, req broker.EditRequest) (broker.Deal, error) {
	if f.editErr != nil {
		return broker.Deal{}, f.editErr
	}
	f.edits = append(f.edits, req)
	return broker.Deal{DealID: req.DealID, Status: "AMENDED"}, nil
}

// brokenLedger журнал, который не может писать.
type brokenLedger struct {
	*ledger.MemoryStore
}

func (brokenLedger) Put(context.Context, models.LedgerRecord) (models.LedgerRecord, error) {
	return models.LedgerRecord{}, errors.New("disk full")
}

func newTestEngine(b broker.Broker, l ledger.Store) *Engine {
	e := NewEngine(b, l)
	e.now = func() time.Time { return clock }
	return e
}

func longSignal(points ...float64) models.Signal {
	if len(points) == 0 {
		points = []float64{100, 110, 90}
	}
	return models.Signal{
		MarketID:       market,
		Strategy:       "retracement",
		Direction:      models.DirectionBuy,
		Close:          104,
		StopLoss:       86,
		TakeProfit:     140,
		RiskMultiplier: 0.02,
		PricePoints:    points,
	}
}

func hasMessage(r models.CycleReport, t models.MessageType, source, substr string) bool {
	for _, m := range r.Messages {
		if m.Type == t && m.Source == source && strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}

func scan(t *testing.T, l ledger.Store) []models.LedgerRecord {
	t.Helper()
	recs, err := l.Scan(context.Background(), market)
	require.NoError(t, err)
	return recs
}

func TestReconcile_OpensWhenFlat(t *testing.T) {
	t.Parallel()
	b, l := newFakeBroker(), ledger.NewMemory()

	rep := newTestEngine(b, l).Reconcile(context.Background(), market, longSignal())

	require.Len(t, b.created, 1)
	req := b.created[0]
	assert.Equal(t, models.DirectionBuy, req.Direction)
	assert.Equal(t, 11.0, req.Size) // 200 / (104.1 - 86)
	assert.Equal(t, 86.0, req.StopLevel)
	assert.Equal(t, 140.0, req.LimitLevel)
	assert.Equal(t, "GBP", req.Currency)

	recs := scan(t, l)
	require.Len(t, recs, 1)
	assert.Equal(t, "NEW1", recs[0].DealID)
	assert.Equal(t, models.StatusOpened, recs[0].Status)
	assert.Equal(t, 0, recs[0].TrailingStopRating)
	assert.Equal(t, []float64{100, 110, 90}, recs[0].PricePoints)
	assert.Equal(t, 104.1, recs[0].OpeningPrice)

	assert.True(t, hasMessage(rep, models.MessageSuccess, SourceCreatePosition, "deal=NEW1"))
	assert.False(t, rep.ErrorsExist())
}

func TestReconcile_DuplicateSignalIsNoop(t *testing.T) {
	t.Parallel()
	b, l := newFakeBroker(), ledger.NewMemory()
	e := newTestEngine(b, l)
	ctx := context.Background()

	e.Reconcile(ctx, market, longSignal())
	rep := e.Reconcile(ctx, market, longSignal(100.001, 109.999, 90.004))

	assert.Len(t, b.created, 1, "same rounded price points must not open twice")
	assert.Len(t, scan(t, l), 1)
	assert.True(t, hasMessage(rep, models.MessageInfo, SourceReconcile, "duplicate signal"))
}

func TestReconcile_NewPointsSameDirectionOpensAdditional(t *testing.T) {
	t.Parallel()
	b, l := newFakeBroker(), ledger.NewMemory()
	e := newTestEngine(b, l)
	ctx := context.Background()

	e.Reconcile(ctx, market, longSignal())
	e.Reconcile(ctx, market, longSignal(101, 112, 95))

	assert.Len(t, b.created, 2)
	assert.Len(t, scan(t, l), 2)
}

func TestReconcile_SameDirectionWithoutLedgerOpens(t *testing.T) {
	t.Parallel()
	b, l := newFakeBroker(), ledger.NewMemory()
	b.positions = []models.OpenPosition{{DealID: "MANUAL", MarketID: market, Direction: models.DirectionBuy, Size: 1}}

	rep := newTestEngine(b, l).Reconcile(context.Background(), market, longSignal())

	assert.Len(t, b.created, 1)
	assert.True(t, hasMessage(rep, models.MessageInfo, SourceReconcile, "no ledger records"))
}

func TestReconcile_FlipClosesAllThenOpens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, l := newFakeBroker(), ledger.NewMemory()
	b.positions = []models.OpenPosition{
		{DealID: "S1", MarketID: market, Direction: models.DirectionSell, Size: 2},
		{DealID: "S2", MarketID: market, Direction: models.DirectionSell, Size: 1},
	}
	old, err := l.Put(ctx, models.LedgerRecord{MarketID: market, DealID: "S1", Direction: models.DirectionSell, PricePoints: []float64{1, 2, 3}})
	require.NoError(t, err)

	rep := newTestEngine(b, l).Reconcile(ctx, market, longSignal())

	assert.ElementsMatch(t, []string{"S1", "S2"}, b.closed)
	require.Len(t, b.created, 1)
	assert.Equal(t, models.DirectionBuy, b.created[0].Direction)

	recs := scan(t, l)
	require.Len(t, recs, 2)
	assert.Equal(t, old.ID, recs[0].ID)
	assert.Equal(t, models.StatusClosed, recs[0].Status)
	assert.Equal(t, models.StatusOpened, recs[1].Status)
	assert.True(t, hasMessage(rep, models.MessageSuccess, SourceCloseAllPositions, "closed 2 of 2"))
	assert.True(t, hasMessage(rep, models.MessageInfo, SourceCloseAllPositions, "deal S2 has no open ledger record"))
}

func TestReconcile_FlipCloseFailureDoesNotOpen(t *testing.T) {
	t.Parallel()
	b, l := newFakeBroker(), ledger.NewMemory()
	b.positions = []models.OpenPosition{{DealID: "S1", MarketID: market, Direction: models.DirectionSell, Size: 2}}
	b.closeAllErr = broker.Transport("close_all_positions", errors.New("timeout"))

	rep := newTestEngine(b, l).Reconcile(context.Background(), market, longSignal())

	assert.Empty(t, b.created)
	assert.Empty(t, scan(t, l))
	assert.True(t, hasMessage(rep, models.MessageError, SourceCloseAllPositions, "transport failure"))
	assert.True(t, rep.ErrorsExist())
}

func TestReconcile_MixedDirections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, l := newFakeBroker(), ledger.NewMemory()
	b.positions = []models.OpenPosition{
		{DealID: "B1", MarketID: market, Direction: models.DirectionBuy, Size: 1},
		{DealID: "S1", MarketID: market, Direction: models.DirectionSell, Size: 1},
	}
	_, err := l.Put(ctx, models.LedgerRecord{MarketID: market, DealID: "B1", Direction: models.DirectionBuy, PricePoints: []float64{100, 110, 90}})
	require.NoError(t, err)
	s1, err := l.Put(ctx, models.LedgerRecord{MarketID: market, DealID: "S1", Direction: models.DirectionSell, PricePoints: []float64{5, 4, 6}})
	require.NoError(t, err)

	rep := newTestEngine(b, l).Reconcile(ctx, market, longSignal())

	assert.True(t, hasMessage(rep, models.MessageWarning, SourceReconcile, "mixed directions"))
	assert.Equal(t, []string{"S1"}, b.closed)
	assert.Empty(t, b.created, "remaining BUY already trades these price points")

	for _, r := range scan(t, l) {
		if r.ID == s1.ID {
			assert.Equal(t, models.StatusClosed, r.Status)
		} else {
			assert.Equal(t, models.StatusOpened, r.Status)
		}
	}
}

func TestReconcile_RejectedCreateLeavesLedgerUntouched(t *testing.T) {
	t.Parallel()
	b, l := newFakeBroker(), ledger.NewMemory()
	b.createErr = broker.Rejected("create_position", "MARKET_CLOSED_WITH_EDITS")

	rep := newTestEngine(b, l).Reconcile(context.Background(), market, longSignal())

	assert.Empty(t, scan(t, l))
	assert.True(t, hasMessage(rep, models.MessageError, SourceCreatePosition, "rejected: MARKET_CLOSED_WITH_EDITS"))
}

func TestReconcile_LedgerWriteFailureReportsDivergence(t *testing.T) {
	t.Parallel()
	b := newFakeBroker()
	l := brokenLedger{ledger.NewMemory()}

	rep := newTestEngine(b, l).Reconcile(context.Background(), market, longSignal())

	assert.Len(t, b.created, 1)
	assert.True(t, hasMessage(rep, models.MessageError, SourceCreatePosition, "deal NEW1 is open at the broker but the ledger write failed"))
}

func TestReconcile_FatalReads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		setup  func(b *fakeBroker)
		source string
	}{
		{"snapshot", func(b *fakeBroker) { b.snapErr = broker.Transport("get_market_details", errors.New("eof")) }, SourceMarketDetails},
		{"account", func(b *fakeBroker) { b.accountErr = broker.Rejected("get_account", "error.security.client-token-invalid") }, SourceAccount},
		{"positions", func(b *fakeBroker) { b.posErr = broker.Transport("get_open_positions", errors.New("eof")) }, SourceOpenPositions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, l := newFakeBroker(), ledger.NewMemory()
			tt.setup(b)

			rep := newTestEngine(b, l).Reconcile(context.Background(), market, longSignal())

			assert.True(t, rep.ErrorsExist())
			require.Len(t, rep.Messages, 1)
			assert.Equal(t, tt.source, rep.Messages[0].Source)
			assert.Empty(t, b.created)
		})
	}
}

func TestReconcile_SizingWithoutReferencePrice(t *testing.T) {
	t.Parallel()
	b, l := newFakeBroker(), ledger.NewMemory()
	b.snap.Offer = nil

	rep := newTestEngine(b, l).Reconcile(context.Background(), market, longSignal())

	assert.Empty(t, b.created)
	assert.True(t, hasMessage(rep, models.MessageError, SourceCreatePosition, "sizing failed"))
}

func TestReconcile_NothingToDo(t *testing.T) {
	t.Parallel()
	b, l := newFakeBroker(), ledger.NewMemory()

	rep := newTestEngine(b, l).Reconcile(context.Background(), market, models.NoSignal(market, "retracement", "no pattern"))

	require.Len(t, rep.Messages, 1)
	assert.Equal(t, models.MessageInfo, rep.Messages[0].Type)
	assert.Equal(t, clock, rep.Messages[0].Time)
}

func TestReconcile_TrailingStopLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, l := newFakeBroker(), ledger.NewMemory()
	e := newTestEngine(b, l)

	e.Reconcile(ctx, market, longSignal())
	require.Len(t, b.positions, 1)
	none := models.NoSignal(market, "retracement", "")

	// цена не дошла до pp1
	b.snap.Bid, b.snap.Offer = helper.Ptr(105.0), helper.Ptr(106.0)
	e.Reconcile(ctx, market, none)
	assert.Empty(t, b.edits)

	// mid 111: стоп к началу волны
	b.snap.Bid, b.snap.Offer = helper.Ptr(110.5), helper.Ptr(111.5)
	rep := e.Reconcile(ctx, market, none)
	require.Len(t, b.edits, 1)
	assert.Equal(t, 100.0, b.edits[0].StopLevel)
	assert.Equal(t, 12.0, b.edits[0].TrailingDistance)
	assert.True(t, b.edits[0].TrailingStop)
	require.NotNil(t, b.edits[0].LimitLevel)
	assert.Equal(t, 140.0, *b.edits[0].LimitLevel)
	assert.Equal(t, 1, scan(t, l)[0].TrailingStopRating)
	assert.True(t, hasMessage(rep, models.MessageSuccess, SourceEditPosition, "rating 0 -> 1"))

	// mid 113: расширение 0.3, трейлинг от цены
	b.snap.Bid, b.snap.Offer = helper.Ptr(112.5), helper.Ptr(113.5)
	e.Reconcile(ctx, market, none)
	require.Len(t, b.edits, 2)
	assert.Equal(t, 109.0, b.edits[1].StopLevel)
	assert.Equal(t, 5.0, b.edits[1].TrailingDistance)
	assert.Equal(t, 2, scan(t, l)[0].TrailingStopRating)

	// рейтинг 2 терминальный
	b.snap.Bid, b.snap.Offer = helper.Ptr(130.0), helper.Ptr(131.0)
	e.Reconcile(ctx, market, none)
	assert.Len(t, b.edits, 2)
}

func TestReconcile_TrailingEditFailureKeepsRating(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, l := newFakeBroker(), ledger.NewMemory()
	e := newTestEngine(b, l)
	e.Reconcile(ctx, market, longSignal())

	b.snap.Bid, b.snap.Offer = helper.Ptr(110.5), helper.Ptr(111.5)
	b.editErr = broker.Rejected("edit_position", "INVALID_STOP_DISTANCE")
	rep := e.Reconcile(ctx, market, models.NoSignal(market, "retracement", ""))

	assert.Equal(t, 0, scan(t, l)[0].TrailingStopRating)
	assert.True(t, hasMessage(rep, models.MessageError, SourceEditPosition, "INVALID_STOP_DISTANCE"))
}

func TestReconcile_TrailingSkipsBadLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, l := newFakeBroker(), ledger.NewMemory()
	b.snap.Bid, b.snap.Offer = helper.Ptr(110.5), helper.Ptr(111.5)
	b.positions = []models.OpenPosition{
		{DealID: "ORPHAN", MarketID: market, Direction: models.DirectionBuy, Size: 1},
		{DealID: "TWICE", MarketID: market, Direction: models.DirectionSell, Size: 1},
	}
	for i := 0; i < 2; i++ {
		_, err := l.Put(ctx, models.LedgerRecord{MarketID: market, DealID: "TWICE", Direction: models.DirectionSell, PricePoints: []float64{120, 110, 130}})
		require.NoError(t, err)
	}

	rep := newTestEngine(b, l).Reconcile(ctx, market, models.NoSignal(market, "retracement", ""))

	assert.Empty(t, b.edits)
	assert.True(t, hasMessage(rep, models.MessageWarning, SourceTrailingStop, "mixed directions"))
	assert.True(t, hasMessage(rep, models.MessageWarning, SourceTrailingStop, "deal ORPHAN: expected 1 ledger record, found 0"))
	assert.True(t, hasMessage(rep, models.MessageWarning, SourceTrailingStop, "deal TWICE: expected 1 ledger record, found 2"))
}
