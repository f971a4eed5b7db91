// Package service runs pool operations against the bank and publishes their results.
//
// Each operation builds the program instructions, executes them as one atomic batch and,
// once committed, caches the pool snapshot, journals the trade and broadcasts it. Failures
// after the commit are logged and never reported to the caller.
//
// The service speaks for every party of the in-memory bank: the instructions it builds
// mark the pool authority and the customer as signers, so callers are trusted with the
// accounts they name. The program still enforces signatures on every instruction the
// bank executes.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/balance"
	"github.com/iqbalbaharum/constant-product-pool/internal/bank"
	"github.com/iqbalbaharum/constant-product-pool/internal/coder"
	"github.com/iqbalbaharum/constant-product-pool/internal/instructions"
	"github.com/iqbalbaharum/constant-product-pool/internal/liquidity"
	"github.com/iqbalbaharum/constant-product-pool/internal/processor"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

var ErrUnknownAction = errors.New("unknown action")

type PoolCache interface {
	Set(ctx context.Context, snapshot *types.PoolSnapshot) error
	List(ctx context.Context) ([]types.PoolSnapshot, error)
}

type TradeJournal interface {
	Set(ctx context.Context, trade *types.Trade) error
}

type Broadcaster interface {
	Broadcast(event any) error
}

type Service struct {
	// serializes read-execute-read so trade amounts belong to a single batch
	mu          sync.Mutex
	bank        *bank.Bank
	programID   solana.PublicKey
	beneficiary solana.PublicKey
	stateCoder  *coder.PoolStateCoder
	cache       PoolCache
	journal     TradeJournal
	feed        Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithCache(cache PoolCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithJournal(journal TradeJournal) Option {
	return func(s *Service) { s.journal = journal }
}

func WithFeed(feed Broadcaster) Option {
	return func(s *Service) { s.feed = feed }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New registers the pool program with b and returns a service using it.
func New(b *bank.Bank, programID, beneficiary solana.PublicKey, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	b.Register(programID, processor.New(programID, beneficiary, logger.Named("processor")))

	s := &Service{
		bank:        b,
		programID:   programID,
		beneficiary: beneficiary,
		stateCoder:  coder.NewPoolStateCoder(),
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ProgramID() solana.PublicKey {
	return s.programID
}

func (s *Service) Beneficiary() solana.PublicKey {
	return s.beneficiary
}

func (s *Service) CreatePool(ctx context.Context, authority solana.PublicKey, totalSupply *uint256.Int, decimals uint8, initialQuote *uint256.Int) (*types.PoolSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := liquidity.DerivePoolKeys(s.programID, authority)
	if err != nil {
		return nil, err
	}

	ix := instructions.MakeInitializePoolInstruction(&instructions.InitializePoolInstructionParams{
		PoolKeys:           keys,
		TotalSupply:        *totalSupply,
		Decimals:           decimals,
		InitialQuoteAmount: *initialQuote,
	})
	if err := s.bank.Execute(ix); err != nil {
		return nil, err
	}

	snapshot, err := s.snapshot(keys)
	if err != nil {
		return nil, err
	}
	s.cacheSnapshot(ctx, snapshot)

	s.logger.Info("pool created",
		zap.Stringer("authority", authority),
		zap.Stringer("state", keys.State),
		zap.Stringer("mint", keys.Mint),
	)
	return snapshot, nil
}

// Buy pays quoteAmount lamports from customer for base.
func (s *Service) Buy(ctx context.Context, authority, customer solana.PublicKey, quoteAmount *uint256.Int) (*types.Trade, error) {
	return s.trade(ctx, types.ActionBuy, authority, customer, quoteAmount)
}

// Sell returns baseAmount, in base units of 10^-18 token, from customer to the pool.
func (s *Service) Sell(ctx context.Context, authority, customer solana.PublicKey, baseAmount *uint256.Int) (*types.Trade, error) {
	return s.trade(ctx, types.ActionSell, authority, customer, baseAmount)
}

func (s *Service) trade(ctx context.Context, action string, authority, customer solana.PublicKey, amount *uint256.Int) (*types.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	params, err := instructions.NewTradeParams(s.programID, authority, s.beneficiary, customer, amount)
	if err != nil {
		return nil, err
	}

	var ix *instructions.PoolInstruction
	switch action {
	case types.ActionBuy:
		ix = instructions.MakeBuyInstruction(params)
	case types.ActionSell:
		ix = instructions.MakeSellInstruction(params)
	default:
		return nil, fmt.Errorf("%s: %w", action, ErrUnknownAction)
	}

	before, err := s.state(params.PoolKeys.State)
	if err != nil {
		return nil, err
	}
	if err := s.bank.Execute(ix); err != nil {
		return nil, err
	}
	after, err := s.state(params.PoolKeys.State)
	if err != nil {
		return nil, err
	}

	trade := &types.Trade{
		Pool:      &params.PoolKeys.State,
		Mint:      &params.PoolKeys.Mint,
		Customer:  &customer,
		Action:    action,
		Timestamp: s.now().Unix(),
	}

	var quote, base *uint256.Int
	if action == types.ActionBuy {
		quote = amount
		base = new(uint256.Int).Sub(&before.Balance.Base, &after.Balance.Base)
	} else {
		quote = new(uint256.Int).Sub(&before.Balance.Quote, &after.Balance.Quote)
		base = amount
	}
	fee, err := balance.FeeOf(quote)
	if err != nil {
		return nil, types.FromBalanceError(err)
	}
	trade.QuoteAmount = quote.Dec()
	trade.BaseAmount = base.Dec()
	trade.Fee = fee.Dec()

	s.publish(ctx, params.PoolKeys, after, trade)
	return trade, nil
}

// Airdrop credits lamports to account outside of any pool instruction.
func (s *Service) Airdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (uint64, error) {
	if err := s.bank.Airdrop(account, lamports); err != nil {
		return 0, err
	}
	return s.bank.Lamports(account), nil
}

// OpenTokenAccount creates the customer's token account for the pool of authority.
func (s *Service) OpenTokenAccount(ctx context.Context, authority, customer solana.PublicKey) (solana.PublicKey, error) {
	keys, err := liquidity.DerivePoolKeys(s.programID, authority)
	if err != nil {
		return solana.PublicKey{}, err
	}
	account, err := liquidity.CustomerTokenAccount(customer, keys.Mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := s.bank.CreateTokenAccount(customer, keys.Mint, account); err != nil {
		return solana.PublicKey{}, err
	}
	return account, nil
}

// Pool reads the committed pool of authority.
func (s *Service) Pool(ctx context.Context, authority solana.PublicKey) (*types.PoolSnapshot, error) {
	keys, err := liquidity.DerivePoolKeys(s.programID, authority)
	if err != nil {
		return nil, err
	}
	return s.snapshot(keys)
}

// Pools lists the cached pool snapshots.
func (s *Service) Pools(ctx context.Context) ([]types.PoolSnapshot, error) {
	if s.cache == nil {
		return []types.PoolSnapshot{}, nil
	}
	return s.cache.List(ctx)
}

// Quote prices a trade of amount against the current reserves without executing it.
func (s *Service) Quote(ctx context.Context, authority solana.PublicKey, action string, amount *uint256.Int) (*types.Quote, error) {
	keys, err := liquidity.DerivePoolKeys(s.programID, authority)
	if err != nil {
		return nil, err
	}
	state, err := s.state(keys.State)
	if err != nil {
		return nil, err
	}

	var out, fee *uint256.Int
	switch action {
	case types.ActionBuy:
		if out, err = state.Balance.BaseForQuote(amount); err != nil {
			return nil, types.FromBalanceError(err)
		}
		fee, err = balance.FeeOf(amount)
	case types.ActionSell:
		if out, err = state.Balance.QuoteForBase(amount); err != nil {
			return nil, types.FromBalanceError(err)
		}
		fee, err = balance.FeeOf(out)
	default:
		return nil, fmt.Errorf("%s: %w", action, ErrUnknownAction)
	}
	if err != nil {
		return nil, types.FromBalanceError(err)
	}

	return &types.Quote{
		Action:  action,
		Amount:  amount.Dec(),
		Return:  out.Dec(),
		Fee:     fee.Dec(),
		Product: state.Balance.Product().Dec(),
	}, nil
}

func (s *Service) state(address solana.PublicKey) (*types.PoolState, error) {
	data, err := s.bank.AccountData(address)
	if err != nil {
		if errors.Is(err, bank.ErrAccountNotFound) {
			return nil, fmt.Errorf("state %s: %w", address, types.ErrUninitialized)
		}
		return nil, err
	}
	return s.stateCoder.Decode(data)
}

func (s *Service) snapshot(keys *types.PoolKeys) (*types.PoolSnapshot, error) {
	state, err := s.state(keys.State)
	if err != nil {
		return nil, err
	}
	return newSnapshot(keys, state, s.now()), nil
}

func newSnapshot(keys *types.PoolKeys, state *types.PoolState, at time.Time) *types.PoolSnapshot {
	return &types.PoolSnapshot{
		Authority:    keys.Authority,
		State:        keys.State,
		Mint:         keys.Mint,
		TokenPool:    keys.TokenPool,
		NativePool:   keys.NativePool,
		BaseReserve:  state.Balance.Base.Dec(),
		QuoteReserve: state.Balance.Quote.Dec(),
		LastUpdated:  at.Unix(),
	}
}

func (s *Service) publish(ctx context.Context, keys *types.PoolKeys, state *types.PoolState, trade *types.Trade) {
	s.cacheSnapshot(ctx, newSnapshot(keys, state, s.now()))

	if s.journal != nil {
		if err := s.journal.Set(ctx, trade); err != nil {
			s.logger.Error("failed to journal trade", zap.Stringer("pool", trade.Pool), zap.Error(err))
		}
	}

	if s.feed != nil {
		if err := s.feed.Broadcast(trade); err != nil {
			s.logger.Error("failed to broadcast trade", zap.Error(err))
		}
	}

	s.logger.Info("trade committed",
		zap.String("action", trade.Action),
		zap.Stringer("pool", trade.Pool),
		zap.Stringer("customer", trade.Customer),
		zap.String("quote", trade.QuoteAmount),
		zap.String("base", trade.BaseAmount),
	)
}

func (s *Service) cacheSnapshot(ctx context.Context, snapshot *types.PoolSnapshot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, snapshot); err != nil {
		s.logger.Error("failed to cache pool snapshot", zap.Stringer("authority", snapshot.Authority), zap.Error(err))
	}
}
