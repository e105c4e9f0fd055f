package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/google/uuid"

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/metrics"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
)

// Ledger custodies asset A and asset B on behalf of accounts and settles swaps of an
// account's full asset A balance through a single exchange venue.
//
// Every mutating operation runs under the reentrancy guard. The balance table is
// guarded separately by mu so that concurrent readers never observe a torn record.
type Ledger struct {
	self   uuid.UUID
	assetA interfaces.Asset
	assetB interfaces.Asset
	grant  *exchangeGrant
	guard  Guard

	mu       sync.RWMutex
	balances map[uuid.UUID]models.Balance

	store       interfaces.LedgerStore
	publisher   interfaces.EventPublisher
	topicPrefix string
	logger      log.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

type Option func(*Ledger)

// WithStore journals every completed operation to store.
func WithStore(store interfaces.LedgerStore) Option {
	return func(l *Ledger) { l.store = store }
}

// WithPublisher publishes operation events on "<topicPrefix>.<kind>" topics.
func WithPublisher(publisher interfaces.EventPublisher, topicPrefix string) Option {
	return func(l *Ledger) {
		l.publisher = publisher
		l.topicPrefix = topicPrefix
	}
}

func WithLogger(logger log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger holding funds as self and grants exchange an unlimited
// allowance over self's asset A holdings.
func NewLedger(ctx context.Context, self uuid.UUID, exchange interfaces.Exchange, assetA, assetB interfaces.Asset, opts ...Option) (*Ledger, error) {
	switch {
	case self == uuid.Nil:
		return nil, ErrInvalidConfiguration.Wrap("ledger identity is nil")
	case exchange == nil:
		return nil, ErrInvalidConfiguration.Wrap("exchange handle is not set")
	case assetA == nil:
		return nil, ErrInvalidConfiguration.Wrap("asset A handle is not set")
	case assetB == nil:
		return nil, ErrInvalidConfiguration.Wrap("asset B handle is not set")
	case assetA == assetB:
		return nil, ErrInvalidConfiguration.Wrap("asset A and asset B must be distinct handles")
	}

	l := &Ledger{
		self:        self,
		assetA:      assetA,
		assetB:      assetB,
		balances:    make(map[uuid.UUID]models.Balance),
		topicPrefix: "escrow",
		logger:      log.NewNopLogger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(log.ModuleKey, "ledger")

	grant, err := newExchangeGrant(ctx, self, assetA, exchange)
	if err != nil {
		return nil, err
	}
	l.grant = grant

	if !reversible(assetA) && !reversible(assetB) {
		l.logger.Warn("neither asset supports clawback; a failed withdrawal leg can leave an earlier leg paid")
	}

	l.logger.Info("ledger ready", "self", self, "asset_a", assetA.Symbol(), "asset_b", assetB.Symbol())
	return l, nil
}

// Self is the identity under which the ledger holds custodied funds.
func (l *Ledger) Self() uuid.UUID {
	return l.self
}

// AssetA returns the handle of the deposited asset.
func (l *Ledger) AssetA() interfaces.Asset {
	return l.assetA
}

// AssetB returns the handle of the asset received from swaps.
func (l *Ledger) AssetB() interfaces.Asset {
	return l.assetB
}

// BalanceOf returns the custodial record of account. Unknown accounts hold zero.
func (l *Ledger) BalanceOf(account uuid.UUID) models.Balance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if b, ok := l.balances[account]; ok {
		return b
	}
	return models.ZeroBalance()
}

// Balances returns every non-zero record ordered by account.
func (l *Ledger) Balances() []models.AccountBalance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.AccountBalance, 0, len(l.balances))
	for id, b := range l.balances {
		if b.IsZero() {
			continue
		}
		out = append(out, models.AccountBalance{AccountID: id, Balance: b})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AccountID.String() < out[j].AccountID.String()
	})
	return out
}

func (l *Ledger) setBalance(account uuid.UUID, b models.Balance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = b
}

// enter acquires the reentrancy guard.
func (l *Ledger) enter(operation models.OperationKind) (func(), error) {
	release, err := l.guard.Enter()
	if err != nil {
		l.metrics.ReentrancyRejected()
		l.logger.Warn("rejected reentrant call", "operation", operation)
		return nil, err
	}
	return release, nil
}

// observe starts timing an operation; the returned function records its outcome.
func (l *Ledger) observe(operation models.OperationKind) func(error) {
	start := time.Now()
	return func(err error) {
		status := "ok"
		if err != nil {
			status = Kind(err)
		}
		l.metrics.ObserveOperation(string(operation), status, time.Since(start))
	}
}

func (l *Ledger) holdings(ctx context.Context, asset interfaces.Asset) (math.Int, error) {
	held, err := asset.BalanceOf(ctx, l.self)
	if err != nil {
		return math.Int{}, wrapQuery(err, "%s holdings of ledger", asset.Symbol())
	}
	return held, nil
}

func validAmount(amount math.Int) bool {
	return !amount.IsNil() && !amount.IsNegative()
}
