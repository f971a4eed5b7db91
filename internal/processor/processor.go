// Package processor executes pool instructions against a host ledger.
//
// Every handler follows the same order: decode, validate derived addresses and signers,
// read the pool record, run the balance engine and sufficiency checks, emit the external
// transfers, and finally write the pool record once. Nothing is emitted before the last
// check passes, so a failing instruction leaves the host untouched as long as the host
// commits batches atomically.
package processor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/balance"
	"github.com/iqbalbaharum/constant-product-pool/internal/coder"
	"github.com/iqbalbaharum/constant-product-pool/internal/host"
	"github.com/iqbalbaharum/constant-product-pool/internal/liquidity"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

type Processor struct {
	programID   solana.PublicKey
	beneficiary solana.PublicKey
	deriver     host.Deriver
	coder       *coder.PoolInstructionCoder
	stateCoder  *coder.PoolStateCoder
	logger      *zap.Logger
}

type Option func(*Processor)

// WithDeriver replaces the default program address deriver.
func WithDeriver(deriver host.Deriver) Option {
	return func(p *Processor) {
		p.deriver = deriver
	}
}

func New(programID, beneficiary solana.PublicKey, logger *zap.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor{
		programID:   programID,
		beneficiary: beneficiary,
		deriver:     liquidity.NewProgramDeriver(programID),
		coder:       coder.NewPoolInstructionCoder(),
		stateCoder:  coder.NewPoolStateCoder(),
		logger:      logger.With(zap.Stringer("program", programID)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) ProgramID() solana.PublicKey {
	return p.programID
}

func (p *Processor) Beneficiary() solana.PublicKey {
	return p.beneficiary
}

// Process runs a single encoded instruction.
func (p *Processor) Process(h host.Host, accounts []*solana.AccountMeta, data []byte) error {
	instruction, err := p.coder.Decode(data)
	if err != nil {
		return err
	}

	it := &accountIterator{accounts: accounts}

	switch ix := instruction.(type) {
	case coder.Initialize:
		return p.processInitialize(h, it, ix)
	case coder.Buy:
		return p.processBuy(h, it, ix)
	case coder.Sell:
		return p.processSell(h, it, ix)
	default:
		return fmt.Errorf("unsupported instruction %T: %w", instruction, types.ErrMalformedInstruction)
	}
}

func (p *Processor) processInitialize(h host.Host, it *accountIterator, ix coder.Initialize) error {
	accounts, err := nextPoolAccounts(it)
	if err != nil {
		return err
	}
	// system program, token program, rent sysvar
	if _, err := it.take(3); err != nil {
		return err
	}

	if err := p.validate(accounts); err != nil {
		return err
	}
	payer := accounts.authority
	if err := requireSigner(payer, "payer"); err != nil {
		return err
	}
	for _, account := range []*solana.AccountMeta{accounts.state, accounts.mint, accounts.tokenPool, accounts.nativePool} {
		if h.Lamports(account.PublicKey) != 0 || h.DataLen(account.PublicKey) != 0 {
			return fmt.Errorf("account %s: %w", account.PublicKey, types.ErrAlreadyInitialized)
		}
	}

	if ix.TotalSupply.IsZero() || ix.InitialQuoteAmount.IsZero() {
		return fmt.Errorf("supply and initial quote must be positive: %w", types.ErrInvalidAmount)
	}
	baseReserve, overflow := new(uint256.Int).MulOverflow(&ix.TotalSupply, balance.BaseUnit)
	if overflow {
		return fmt.Errorf("base reserve: %w", types.ErrArithmeticOverflow)
	}
	reserves, err := balance.New(baseReserve, &ix.InitialQuoteAmount)
	if err != nil {
		return types.FromBalanceError(err)
	}
	supply, err := toU64(&ix.TotalSupply)
	if err != nil {
		return err
	}
	initialQuote, err := toU64(&ix.InitialQuoteAmount)
	if err != nil {
		return err
	}

	state := &types.PoolState{
		Authority:          payer.PublicKey,
		MintAuthority:      accounts.mint.PublicKey,
		BasePoolAuthority:  accounts.tokenPool.PublicKey,
		QuotePoolAuthority: accounts.nativePool.PublicKey,
		Balance:            reserves,
	}
	data, err := p.stateCoder.Encode(state)
	if err != nil {
		return types.FromBalanceError(err)
	}

	required, err := sumU64(
		h.MinimumBalance(coder.PoolStateSize),
		h.MinimumBalance(host.MintSize),
		h.MinimumBalance(host.TokenAccountSize),
		h.MinimumBalance(0),
		initialQuote,
	)
	if err != nil {
		return err
	}
	if h.Lamports(payer.PublicKey) < required {
		return fmt.Errorf("payer needs %d lamports, has %d: %w", required, h.Lamports(payer.PublicKey), types.ErrInsufficientFunds)
	}

	logger := p.logger.With(zap.Stringer("authority", payer.PublicKey))
	tokens := h.Tokens()

	logger.Debug("creating state account", zap.Stringer("state", accounts.state.PublicKey))
	if err := h.CreateAccount(payer.PublicKey, accounts.state.PublicKey, p.programID, coder.PoolStateSize); err != nil {
		return fmt.Errorf("create state account: %w", err)
	}

	logger.Debug("creating mint", zap.Stringer("mint", accounts.mint.PublicKey))
	if err := h.CreateAccount(payer.PublicKey, accounts.mint.PublicKey, solana.TokenProgramID, host.MintSize); err != nil {
		return fmt.Errorf("create mint: %w", err)
	}
	if err := tokens.InitializeMint(accounts.mint.PublicKey, accounts.tokenPool.PublicKey, ix.Decimals); err != nil {
		return fmt.Errorf("initialize mint: %w", err)
	}

	logger.Debug("creating token pool account", zap.Stringer("tokenPool", accounts.tokenPool.PublicKey))
	if err := h.CreateAccount(payer.PublicKey, accounts.tokenPool.PublicKey, solana.TokenProgramID, host.TokenAccountSize); err != nil {
		return fmt.Errorf("create token pool: %w", err)
	}
	if err := tokens.InitializeAccount(accounts.tokenPool.PublicKey, accounts.mint.PublicKey, accounts.tokenPool.PublicKey); err != nil {
		return fmt.Errorf("initialize token pool: %w", err)
	}

	logger.Debug("minting tokens", zap.Uint64("supply", supply))
	if err := tokens.MintTo(accounts.mint.PublicKey, accounts.tokenPool.PublicKey, supply, accounts.tokenPool.PublicKey); err != nil {
		return fmt.Errorf("mint supply: %w", err)
	}

	logger.Debug("creating native pool account", zap.Stringer("nativePool", accounts.nativePool.PublicKey))
	if err := h.CreateAccount(payer.PublicKey, accounts.nativePool.PublicKey, p.programID, 0); err != nil {
		return fmt.Errorf("create native pool: %w", err)
	}

	logger.Debug("funding native pool account", zap.Uint64("lamports", initialQuote))
	if err := h.Transfer(payer.PublicKey, accounts.nativePool.PublicKey, initialQuote); err != nil {
		return fmt.Errorf("fund native pool: %w", err)
	}

	if err := h.WriteData(accounts.state.PublicKey, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	logger.Info("pool initialized",
		zap.String("base", reserves.Base.Dec()),
		zap.String("quote", reserves.Quote.Dec()),
		zap.Uint8("decimals", ix.Decimals),
	)
	return nil
}

// tradeAccounts are the accounts of a Buy or Sell, in instruction order.
type tradeAccounts struct {
	*poolAccounts
	beneficiary   *solana.AccountMeta
	customer      *solana.AccountMeta
	customerToken *solana.AccountMeta
}

func (p *Processor) tradeAccounts(it *accountIterator) (*tradeAccounts, error) {
	pool, err := nextPoolAccounts(it)
	if err != nil {
		return nil, err
	}
	// beneficiary, customer, customer token account, system program, token program
	rest, err := it.take(5)
	if err != nil {
		return nil, err
	}
	accounts := &tradeAccounts{
		poolAccounts:  pool,
		beneficiary:   rest[0],
		customer:      rest[1],
		customerToken: rest[2],
	}

	if err := p.validate(pool); err != nil {
		return nil, err
	}
	if err := p.validateBeneficiary(accounts.beneficiary); err != nil {
		return nil, err
	}
	if err := requireSigner(accounts.customer, "customer"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *Processor) readState(h host.Host, state solana.PublicKey) (*types.PoolState, error) {
	data, err := h.ReadData(state)
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", state, types.ErrUninitialized)
	}
	return p.stateCoder.Decode(data)
}

func (p *Processor) processBuy(h host.Host, it *accountIterator, ix coder.Buy) error {
	accounts, err := p.tradeAccounts(it)
	if err != nil {
		return err
	}
	state, err := p.readState(h, accounts.state.PublicKey)
	if err != nil {
		return err
	}

	fee, err := balance.FeeOf(&ix.QuoteAmount)
	if err != nil {
		return types.FromBalanceError(err)
	}
	next, baseReturn, err := state.Balance.ApplyBuyForQuote(&ix.QuoteAmount)
	if err != nil {
		return types.FromBalanceError(err)
	}
	baseUnits, err := toU64(new(uint256.Int).Div(baseReturn, balance.BaseUnit))
	if err != nil {
		return err
	}
	quoteAmount, err := toU64(&ix.QuoteAmount)
	if err != nil {
		return err
	}
	feeAmount, err := toU64(fee)
	if err != nil {
		return err
	}

	customer := accounts.customer.PublicKey
	required, err := sumU64(quoteAmount, feeAmount, h.MinimumBalance(h.DataLen(customer)))
	if err != nil {
		return err
	}
	if h.Lamports(customer) < required {
		p.logger.Debug("not enough lamports", zap.Stringer("customer", customer), zap.Uint64("required", required))
		return fmt.Errorf("customer needs %d lamports, has %d: %w", required, h.Lamports(customer), types.ErrInsufficientFunds)
	}

	tokens := h.Tokens()
	mint := accounts.mint.PublicKey
	if err := requireTokens(tokens, accounts.tokenPool.PublicKey, mint, accounts.tokenPool.PublicKey, baseUnits); err != nil {
		return err
	}
	if _, err := tokenAccount(tokens, accounts.customerToken.PublicKey, mint); err != nil {
		return err
	}

	logger := p.logger.With(zap.Stringer("authority", accounts.authority.PublicKey), zap.Stringer("customer", customer))
	logger.Debug("exchanging lamports for base",
		zap.Uint64("quote", quoteAmount),
		zap.Uint64("fee", feeAmount),
		zap.String("base", baseReturn.Dec()),
	)

	if err := h.Transfer(customer, accounts.nativePool.PublicKey, quoteAmount); err != nil {
		return fmt.Errorf("debit quote: %w", err)
	}
	if err := h.Transfer(customer, accounts.beneficiary.PublicKey, feeAmount); err != nil {
		return fmt.Errorf("debit fee: %w", err)
	}
	if err := tokens.Transfer(accounts.tokenPool.PublicKey, accounts.customerToken.PublicKey, baseUnits, accounts.tokenPool.PublicKey); err != nil {
		return fmt.Errorf("credit tokens: %w", err)
	}

	state.Balance = next
	if err := p.writeState(h, accounts.state.PublicKey, state); err != nil {
		return err
	}

	logger.Info("buy executed",
		zap.Uint64("quote", quoteAmount),
		zap.Uint64("tokens", baseUnits),
		zap.String("reserveBase", next.Base.Dec()),
		zap.String("reserveQuote", next.Quote.Dec()),
	)
	return nil
}

func (p *Processor) processSell(h host.Host, it *accountIterator, ix coder.Sell) error {
	accounts, err := p.tradeAccounts(it)
	if err != nil {
		return err
	}
	state, err := p.readState(h, accounts.state.PublicKey)
	if err != nil {
		return err
	}

	units, remainder := new(uint256.Int).DivMod(&ix.BaseAmount, balance.BaseUnit, new(uint256.Int))
	if !remainder.IsZero() {
		return fmt.Errorf("base amount %s is not a whole number of tokens: %w", ix.BaseAmount.Dec(), types.ErrInvalidAmount)
	}

	next, quoteReturn, err := state.Balance.ApplySellBase(&ix.BaseAmount)
	if err != nil {
		return types.FromBalanceError(err)
	}
	fee, err := balance.FeeOf(quoteReturn)
	if err != nil {
		return types.FromBalanceError(err)
	}
	netQuoteReturn := new(uint256.Int).Sub(quoteReturn, fee)

	baseUnits, err := toU64(units)
	if err != nil {
		return err
	}
	quoteAmount, err := toU64(quoteReturn)
	if err != nil {
		return err
	}
	netAmount, err := toU64(netQuoteReturn)
	if err != nil {
		return err
	}
	feeAmount, err := toU64(fee)
	if err != nil {
		return err
	}

	customer := accounts.customer.PublicKey
	tokens := h.Tokens()
	mint := accounts.mint.PublicKey
	if err := requireTokens(tokens, accounts.customerToken.PublicKey, mint, customer, baseUnits); err != nil {
		return err
	}
	if _, err := tokenAccount(tokens, accounts.tokenPool.PublicKey, mint); err != nil {
		return err
	}
	if custody := h.Lamports(accounts.nativePool.PublicKey); custody < quoteAmount {
		p.logger.Debug("native pool cannot cover sell", zap.Uint64("custody", custody), zap.Uint64("required", quoteAmount))
		return fmt.Errorf("native pool holds %d lamports, sell needs %d: %w", custody, quoteAmount, types.ErrInsufficientFunds)
	}

	logger := p.logger.With(zap.Stringer("authority", accounts.authority.PublicKey), zap.Stringer("customer", customer))
	logger.Debug("exchanging base for lamports",
		zap.String("base", ix.BaseAmount.Dec()),
		zap.Uint64("quote", quoteAmount),
		zap.Uint64("fee", feeAmount),
	)

	if err := tokens.Transfer(accounts.customerToken.PublicKey, accounts.tokenPool.PublicKey, baseUnits, customer); err != nil {
		return fmt.Errorf("debit tokens: %w", err)
	}
	if err := h.Transfer(accounts.nativePool.PublicKey, customer, netAmount); err != nil {
		return fmt.Errorf("credit quote: %w", err)
	}
	if err := h.Transfer(accounts.nativePool.PublicKey, accounts.beneficiary.PublicKey, feeAmount); err != nil {
		return fmt.Errorf("credit fee: %w", err)
	}

	state.Balance = next
	if err := p.writeState(h, accounts.state.PublicKey, state); err != nil {
		return err
	}

	logger.Info("sell executed",
		zap.Uint64("tokens", baseUnits),
		zap.Uint64("net", netAmount),
		zap.String("reserveBase", next.Base.Dec()),
		zap.String("reserveQuote", next.Quote.Dec()),
	)
	return nil
}

func (p *Processor) writeState(h host.Host, address solana.PublicKey, state *types.PoolState) error {
	data, err := p.stateCoder.Encode(state)
	if err != nil {
		return types.FromBalanceError(err)
	}
	if err := h.WriteData(address, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// tokenAccount reads account and checks that it holds mint.
func tokenAccount(tokens host.TokenProgram, account, mint solana.PublicKey) (host.TokenAccount, error) {
	state, err := tokens.Account(account)
	if err != nil {
		return host.TokenAccount{}, fmt.Errorf("token account %s: %v: %w", account, err, types.ErrAddressMismatch)
	}
	if !state.Mint.Equals(mint) {
		return host.TokenAccount{}, fmt.Errorf("token account %s holds mint %s, want %s: %w", account, state.Mint, mint, types.ErrAddressMismatch)
	}
	return state, nil
}

// requireTokens checks that account holds at least amount of mint and that owner may debit it.
func requireTokens(tokens host.TokenProgram, account, mint, owner solana.PublicKey, amount uint64) error {
	state, err := tokenAccount(tokens, account, mint)
	if err != nil {
		return err
	}
	if !state.Owner.Equals(owner) {
		return fmt.Errorf("token account %s is owned by %s, not %s: %w", account, state.Owner, owner, types.ErrAddressMismatch)
	}
	if state.Amount < amount {
		return fmt.Errorf("token account %s holds %d, needs %d: %w", account, state.Amount, amount, types.ErrInsufficientFunds)
	}
	return nil
}

func toU64(x *uint256.Int) (uint64, error) {
	if !x.IsUint64() {
		return 0, fmt.Errorf("%s exceeds a ledger amount: %w", x.Dec(), types.ErrArithmeticOverflow)
	}
	return x.Uint64(), nil
}

func sumU64(values ...uint64) (uint64, error) {
	var total uint64
	for _, v := range values {
		if total+v < total {
			return 0, fmt.Errorf("lamport sum: %w", types.ErrArithmeticOverflow)
		}
		total += v
	}
	return total, nil
}
