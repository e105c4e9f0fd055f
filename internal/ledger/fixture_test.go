package ledger_test

import (
	"context"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/adapters/token"
	eventsmemory "github.com/sheikh-saqib/escrow-swap-ledger/internal/events/memory"
	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/ledger"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/storage/memory"
)

// fixedExchange pays a configurable amount of asset B for any asset A input.
type fixedExchange struct {
	id          uuid.UUID
	tokenA      interfaces.Asset
	tokenB      interfaces.Asset
	yield       math.Int
	ignoreFloor bool
	onExchange  func() error
	calls       int
}

func (e *fixedExchange) Spender() uuid.UUID { return e.id }

func (e *fixedExchange) ExchangeExactIn(ctx context.Context, trader uuid.UUID, amountIn, minAmountOut math.Int) error {
	e.calls++
	if e.onExchange != nil {
		if err := e.onExchange(); err != nil {
			return err
		}
	}
	if !e.ignoreFloor && e.yield.LT(minAmountOut) {
		return interfaces.ErrOutputBelowMinimum.Wrapf("yield %s below %s", e.yield, minAmountOut)
	}
	if err := e.tokenA.TransferFrom(ctx, e.id, trader, e.id, amountIn); err != nil {
		return err
	}
	if e.yield.IsPositive() {
		return e.tokenB.Transfer(ctx, e.id, trader, e.yield)
	}
	return nil
}

// hookedAsset runs a hook before delegating transfers and balance queries. A hook
// error fails the call.
type hookedAsset struct {
	*token.Token
	onTransfer     func(to uuid.UUID, amount math.Int) error
	onTransferFrom func(from uuid.UUID, amount math.Int) error
	onBalanceOf    func(account uuid.UUID) error
}

func (h *hookedAsset) BalanceOf(ctx context.Context, account uuid.UUID) (math.Int, error) {
	if h.onBalanceOf != nil {
		if err := h.onBalanceOf(account); err != nil {
			return math.Int{}, err
		}
	}
	return h.Token.BalanceOf(ctx, account)
}

func (h *hookedAsset) Transfer(ctx context.Context, from, to uuid.UUID, amount math.Int) error {
	if h.onTransfer != nil {
		if err := h.onTransfer(to, amount); err != nil {
			return err
		}
	}
	return h.Token.Transfer(ctx, from, to, amount)
}

func (h *hookedAsset) TransferFrom(ctx context.Context, spender, from, to uuid.UUID, amount math.Int) error {
	if h.onTransferFrom != nil {
		if err := h.onTransferFrom(from, amount); err != nil {
			return err
		}
	}
	return h.Token.TransferFrom(ctx, spender, from, to, amount)
}

// plainAsset hides the Clawback method of the wrapped asset.
type plainAsset struct {
	interfaces.Asset
}

type fixture struct {
	ctx      context.Context
	handleA  interfaces.Asset
	handleB  interfaces.Asset
	self     uuid.UUID
	tokenA   *token.Token
	tokenB   *token.Token
	assetA   *hookedAsset
	assetB   *hookedAsset
	exchange *fixedExchange
	store    *memory.MemoryLedgerStore
	recorder *eventsmemory.Recorder
	ledger   *ledger.Ledger
}

func newFixture(t require.TestingT, opts ...ledger.Option) *fixture {
	return newFixtureWithAssets(t, nil, nil, opts...)
}

func withoutClawback(h *hookedAsset) interfaces.Asset {
	return plainAsset{h}
}

// newFixtureWithAssets builds a ledger over fresh tokens. wrapA and wrapB, when set,
// replace the asset handles given to the ledger.
func newFixtureWithAssets(t require.TestingT, wrapA, wrapB func(*hookedAsset) interfaces.Asset, opts ...ledger.Option) *fixture {
	ctx := context.Background()
	tokenA := token.New("TKA")
	tokenB := token.New("TKB")
	f := &fixture{
		ctx:      ctx,
		self:     uuid.New(),
		tokenA:   tokenA,
		tokenB:   tokenB,
		assetA:   &hookedAsset{Token: tokenA},
		assetB:   &hookedAsset{Token: tokenB},
		store:    memory.NewMemoryLedgerStore(),
		recorder: eventsmemory.NewRecorder(),
	}
	f.exchange = &fixedExchange{id: uuid.New(), tokenA: tokenA, tokenB: tokenB, yield: math.NewInt(50)}
	require.NoError(t, tokenB.Mint(ctx, f.exchange.id, math.NewInt(1_000_000)))

	var assetA, assetB interfaces.Asset = f.assetA, f.assetB
	if wrapA != nil {
		assetA = wrapA(f.assetA)
	}
	if wrapB != nil {
		assetB = wrapB(f.assetB)
	}

	all := append([]ledger.Option{
		ledger.WithStore(f.store),
		ledger.WithPublisher(f.recorder, "escrow"),
	}, opts...)
	l, err := ledger.NewLedger(ctx, f.self, f.exchange, assetA, assetB, all...)
	require.NoError(t, err)
	f.ledger = l
	f.handleA, f.handleB = assetA, assetB
	return f
}

// fund mints amount of asset A to account and approves the ledger for it.
func (f *fixture) fund(t require.TestingT, account uuid.UUID, amount int64) {
	require.NoError(t, f.tokenA.Mint(f.ctx, account, math.NewInt(amount)))
	require.NoError(t, f.tokenA.Approve(f.ctx, account, f.self, math.NewInt(amount)))
}

// deposit funds account and deposits amount into the ledger.
func (f *fixture) deposit(t require.TestingT, account uuid.UUID, amount int64) {
	f.fund(t, account, amount)
	require.NoError(t, f.ledger.Deposit(f.ctx, account, math.NewInt(amount)))
}

func (f *fixture) external(t require.TestingT, tok *token.Token, account uuid.UUID) math.Int {
	b, err := tok.BalanceOf(f.ctx, account)
	require.NoError(t, err)
	return b
}

func balance(a, b int64) models.Balance {
	return models.Balance{A: math.NewInt(a), B: math.NewInt(b)}
}

func requireBalance(t require.TestingT, l *ledger.Ledger, account uuid.UUID, want models.Balance) {
	got := l.BalanceOf(account)
	require.Truef(t, want.A.Equal(got.A), "table A: want %s, got %s", want.A, got.A)
	require.Truef(t, want.B.Equal(got.B), "table B: want %s, got %s", want.B, got.B)
}
