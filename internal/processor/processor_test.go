package processor_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/balance"
	"github.com/iqbalbaharum/constant-product-pool/internal/bank"
	"github.com/iqbalbaharum/constant-product-pool/internal/coder"
	"github.com/iqbalbaharum/constant-product-pool/internal/host"
	"github.com/iqbalbaharum/constant-product-pool/internal/instructions"
	"github.com/iqbalbaharum/constant-product-pool/internal/liquidity"
	"github.com/iqbalbaharum/constant-product-pool/internal/processor"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

var (
	programID = solana.MustPublicKeyFromBase58("EjhMW84ENMdycHT2vtY8GdvvkcJrbZW6ohmvB72fLGqo")
	drainerID = solana.MustPublicKeyFromBase58("11111111111111111111111111111112")
)

const (
	totalSupply  = 1_000_000
	initialQuote = 1_000_000_000
	customerFund = 5_000_000_000
)

// drainer moves lamports between two accounts without any checks.
type drainer struct{}

func (drainer) Process(h host.Host, accounts []*solana.AccountMeta, data []byte) error {
	return h.Transfer(accounts[0].PublicKey, accounts[1].PublicKey, uint64(data[0])*1_000_000_000)
}

type fixture struct {
	bank          *bank.Bank
	authority     solana.PublicKey
	beneficiary   solana.PublicKey
	customer      solana.PublicKey
	customerToken solana.PublicKey
	keys          *types.PoolKeys
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		bank:        bank.New(zap.NewNop()),
		authority:   solana.NewWallet().PublicKey(),
		beneficiary: solana.NewWallet().PublicKey(),
		customer:    solana.NewWallet().PublicKey(),
	}
	f.bank.Register(programID, processor.New(programID, f.beneficiary, zap.NewNop()))
	f.bank.Register(drainerID, drainer{})

	keys, err := liquidity.DerivePoolKeys(programID, f.authority)
	require.NoError(t, err)
	f.keys = keys

	f.customerToken, err = liquidity.CustomerTokenAccount(f.customer, keys.Mint)
	require.NoError(t, err)

	require.NoError(t, f.bank.Airdrop(f.authority, 10_000_000_000))
	require.NoError(t, f.bank.Airdrop(f.customer, customerFund))
	require.NoError(t, f.bank.Airdrop(f.beneficiary, 1))
	return f
}

func (f *fixture) initialize(t *testing.T) {
	t.Helper()
	require.NoError(t, f.bank.Execute(f.initializeInstruction()))
	require.NoError(t, f.bank.CreateTokenAccount(f.customer, f.keys.Mint, f.customerToken))
}

func (f *fixture) initializeInstruction() *instructions.PoolInstruction {
	return instructions.MakeInitializePoolInstruction(&instructions.InitializePoolInstructionParams{
		PoolKeys:           f.keys,
		TotalSupply:        *uint256.NewInt(totalSupply),
		Decimals:           18,
		InitialQuoteAmount: *uint256.NewInt(initialQuote),
	})
}

func (f *fixture) tradeParams(amount *uint256.Int) *instructions.TradeInstructionParams {
	return &instructions.TradeInstructionParams{
		PoolKeys:             f.keys,
		Beneficiary:          f.beneficiary,
		Customer:             f.customer,
		CustomerTokenAccount: f.customerToken,
		Amount:               *amount,
	}
}

func (f *fixture) buy(quote uint64) *instructions.PoolInstruction {
	return instructions.MakeBuyInstruction(f.tradeParams(uint256.NewInt(quote)))
}

func (f *fixture) sell(tokens uint64) *instructions.PoolInstruction {
	amount := new(uint256.Int).Mul(uint256.NewInt(tokens), balance.BaseUnit)
	return instructions.MakeSellInstruction(f.tradeParams(amount))
}

func (f *fixture) state(t *testing.T) *types.PoolState {
	t.Helper()
	data, err := f.bank.AccountData(f.keys.State)
	require.NoError(t, err)
	state, err := coder.NewPoolStateCoder().Decode(data)
	require.NoError(t, err)
	return state
}

type snapshot struct {
	state         []byte
	customer      uint64
	nativePool    uint64
	beneficiary   uint64
	customerToken uint64
	tokenPool     uint64
}

func (f *fixture) snapshot(t *testing.T) snapshot {
	t.Helper()
	data, err := f.bank.AccountData(f.keys.State)
	require.NoError(t, err)
	customerToken, err := f.bank.TokenBalance(f.customerToken)
	require.NoError(t, err)
	tokenPool, err := f.bank.TokenBalance(f.keys.TokenPool)
	require.NoError(t, err)
	return snapshot{
		state:         data,
		customer:      f.bank.Lamports(f.customer),
		nativePool:    f.bank.Lamports(f.keys.NativePool),
		beneficiary:   f.bank.Lamports(f.beneficiary),
		customerToken: customerToken,
		tokenPool:     tokenPool,
	}
}

func TestInitialize(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	state := f.state(t)
	require.Equal(t, f.authority, state.Authority)
	require.Equal(t, f.keys.Mint, state.MintAuthority)
	require.Equal(t, f.keys.TokenPool, state.BasePoolAuthority)
	require.Equal(t, f.keys.NativePool, state.QuotePoolAuthority)
	require.Equal(t, "1000000000000000000000000", state.Balance.Base.Dec())
	require.Equal(t, uint64(initialQuote), state.Balance.Quote.Uint64())

	supply, err := f.bank.Supply(f.keys.Mint)
	require.NoError(t, err)
	require.Equal(t, uint64(totalSupply), supply)

	pooled, err := f.bank.TokenBalance(f.keys.TokenPool)
	require.NoError(t, err)
	require.Equal(t, uint64(totalSupply), pooled)

	require.Equal(t, bank.MinimumBalance(0)+initialQuote, f.bank.Lamports(f.keys.NativePool))

	spent := bank.MinimumBalance(coder.PoolStateSize) + bank.MinimumBalance(host.MintSize) +
		bank.MinimumBalance(host.TokenAccountSize) + bank.MinimumBalance(0) + initialQuote
	require.Equal(t, 10_000_000_000-spent, f.bank.Lamports(f.authority))
}

func TestInitializeTwice(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	err := f.bank.Execute(f.initializeInstruction())
	require.ErrorIs(t, err, types.ErrAlreadyInitialized)
}

func TestInitializeRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, ix *instructions.PoolInstruction)
		want   *types.ProgramError
	}{
		{
			name: "wrong mint address",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.AccountMetaSlice[2] = solana.Meta(solana.NewWallet().PublicKey()).WRITE()
			},
			want: types.ErrAddressMismatch,
		},
		{
			name: "unsigned payer",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.AccountMetaSlice[0].IsSigner = false
			},
			want: types.ErrMissingSignature,
		},
		{
			name: "missing rent sysvar",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.AccountMetaSlice = ix.AccountMetaSlice[:7]
			},
			want: types.ErrNotEnoughAccounts,
		},
		{
			name: "zero supply",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.Args = coder.Initialize{Decimals: 18, InitialQuoteAmount: *uint256.NewInt(initialQuote)}
			},
			want: types.ErrInvalidAmount,
		},
		{
			name: "payer cannot fund",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.Args = coder.Initialize{
					TotalSupply:        *uint256.NewInt(totalSupply),
					Decimals:           18,
					InitialQuoteAmount: *uint256.NewInt(10_000_000_000),
				}
			},
			want: types.ErrInsufficientFunds,
		},
		{
			name: "supply beyond host amounts",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.Args = coder.Initialize{
					TotalSupply:        *new(uint256.Int).Lsh(uint256.NewInt(1), 100),
					Decimals:           18,
					InitialQuoteAmount: *uint256.NewInt(initialQuote),
				}
			},
			want: types.ErrArithmeticOverflow,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			ix := f.initializeInstruction()
			test.mutate(f, ix)

			err := f.bank.Execute(ix)
			require.ErrorIs(t, err, test.want)
			require.Equal(t, uint64(10_000_000_000), f.bank.Lamports(f.authority))
			_, err = f.bank.AccountData(f.keys.State)
			require.ErrorIs(t, err, bank.ErrAccountNotFound)
		})
	}
}

func TestFullCycle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.bank.Execute(f.initializeInstruction()))
	require.NoError(t, f.bank.CreateTokenAccount(f.customer, f.keys.Mint, f.customerToken))

	require.NoError(t, f.bank.Execute(f.buy(1_000_000_000), f.sell(500_000)))

	state := f.state(t)
	require.Equal(t, "1000000000000000000000000", state.Balance.Base.Dec())
	require.Equal(t, uint64(1_000_000_000), state.Balance.Quote.Uint64())

	after := f.snapshot(t)
	require.Equal(t, uint64(0), after.customerToken)
	require.Equal(t, uint64(totalSupply), after.tokenPool)
	// two fees of 3,000,000 on top of the initial lamport
	require.Equal(t, uint64(6_000_001), after.beneficiary)
	require.Equal(t, bank.MinimumBalance(0)+1_000_000_000, after.nativePool)
	require.Equal(t, customerFund-bank.MinimumBalance(host.TokenAccountSize)-1_003_000_000+997_000_000, after.customer)
}

func TestBuy(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	before := f.snapshot(t)

	require.NoError(t, f.bank.Execute(f.buy(1_000_000_000)))

	after := f.snapshot(t)
	require.Equal(t, uint64(500_000), after.customerToken)
	require.Equal(t, before.tokenPool-500_000, after.tokenPool)
	require.Equal(t, before.customer-1_003_000_000, after.customer)
	require.Equal(t, before.nativePool+1_000_000_000, after.nativePool)
	require.Equal(t, before.beneficiary+3_000_000, after.beneficiary)

	state := f.state(t)
	require.Equal(t, "500000000000000000000000", state.Balance.Base.Dec())
	require.Equal(t, uint64(2_000_000_000), state.Balance.Quote.Uint64())
}

func TestSequentialBuysKeepProduct(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	k := f.state(t).Balance.Product()
	for i := 0; i < 4; i++ {
		require.NoError(t, f.bank.Execute(f.buy(100_000_000)))
		next := f.state(t).Balance.Product()
		require.False(t, next.Lt(k), "product decreased after buy %d", i)
		k = next
	}
}

func TestBuyRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, ix *instructions.PoolInstruction)
		want   *types.ProgramError
	}{
		{
			name: "wrong state address",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.AccountMetaSlice[1] = solana.Meta(solana.NewWallet().PublicKey()).WRITE()
			},
			want: types.ErrAddressMismatch,
		},
		{
			name: "native pool of another authority",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				other, err := liquidity.DerivePoolKeys(programID, solana.NewWallet().PublicKey())
				if err != nil {
					panic(err)
				}
				ix.AccountMetaSlice[4] = solana.Meta(other.NativePool).WRITE()
			},
			want: types.ErrAddressMismatch,
		},
		{
			name: "wrong beneficiary",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.AccountMetaSlice[5] = solana.Meta(solana.NewWallet().PublicKey()).WRITE()
			},
			want: types.ErrAddressMismatch,
		},
		{
			name: "unsigned customer",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.AccountMetaSlice[6].IsSigner = false
			},
			want: types.ErrMissingSignature,
		},
		{
			name: "customer cannot pay",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.Args = coder.Buy{QuoteAmount: *uint256.NewInt(customerFund)}
			},
			want: types.ErrInsufficientFunds,
		},
		{
			name: "amount beyond host amounts",
			mutate: func(f *fixture, ix *instructions.PoolInstruction) {
				ix.Args = coder.Buy{QuoteAmount: *new(uint256.Int).Lsh(uint256.NewInt(1), 70)}
			},
			want: types.ErrArithmeticOverflow,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			f.initialize(t)
			before := f.snapshot(t)

			ix := f.buy(1_000_000_000)
			test.mutate(f, ix)
			err := f.bank.Execute(ix)
			require.ErrorIs(t, err, test.want)
			require.Equal(t, before, f.snapshot(t))
		})
	}
}

func TestBuyIntoForeignTokenAccount(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	other := newFixture(t)
	other.bank = f.bank
	require.NoError(t, f.bank.Airdrop(other.authority, 10_000_000_000))
	require.NoError(t, f.bank.Execute(other.initializeInstruction()))
	foreign := solana.NewWallet().PublicKey()
	require.NoError(t, f.bank.CreateTokenAccount(f.customer, other.keys.Mint, foreign))
	before := f.snapshot(t)

	params := f.tradeParams(uint256.NewInt(1_000_000_000))
	params.CustomerTokenAccount = foreign
	err := f.bank.Execute(instructions.MakeBuyInstruction(params))
	require.ErrorIs(t, err, types.ErrAddressMismatch)
	require.Equal(t, types.CodeAddressMismatch, types.CodeOf(err))

	require.Equal(t, before, f.snapshot(t))
}

func TestBuyUninitialized(t *testing.T) {
	f := newFixture(t)

	err := f.bank.Execute(f.buy(1_000_000_000))
	require.ErrorIs(t, err, types.ErrUninitialized)
	require.Equal(t, types.CodeUninitialized, types.CodeOf(err))
}

func TestSell(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	require.NoError(t, f.bank.Execute(f.buy(1_000_000_000)))
	before := f.snapshot(t)

	require.NoError(t, f.bank.Execute(f.sell(250_000)))

	// 2e9 * 2.5e23 / (5e23 + 2.5e23)
	quoteReturn := uint64(666_666_666)
	fee := quoteReturn * 30 / 10000
	after := f.snapshot(t)
	require.Equal(t, before.customerToken-250_000, after.customerToken)
	require.Equal(t, before.tokenPool+250_000, after.tokenPool)
	require.Equal(t, before.customer+quoteReturn-fee, after.customer)
	require.Equal(t, before.beneficiary+fee, after.beneficiary)
	require.Equal(t, before.nativePool-quoteReturn, after.nativePool)
}

func TestSellRejects(t *testing.T) {
	tests := []struct {
		name string
		ix   func(f *fixture) *instructions.PoolInstruction
		want *types.ProgramError
	}{
		{
			name: "fractional token amount",
			ix: func(f *fixture) *instructions.PoolInstruction {
				amount := new(uint256.Int).Add(new(uint256.Int).Mul(uint256.NewInt(1000), balance.BaseUnit), uint256.NewInt(1))
				return instructions.MakeSellInstruction(f.tradeParams(amount))
			},
			want: types.ErrInvalidAmount,
		},
		{
			name: "more tokens than held",
			ix: func(f *fixture) *instructions.PoolInstruction {
				return f.sell(500_001)
			},
			want: types.ErrInsufficientFunds,
		},
		{
			name: "wrong token pool address",
			ix: func(f *fixture) *instructions.PoolInstruction {
				ix := f.sell(1)
				ix.AccountMetaSlice[3] = solana.Meta(f.customerToken).WRITE()
				return ix
			},
			want: types.ErrAddressMismatch,
		},
		{
			name: "token account not owned by the customer",
			ix: func(f *fixture) *instructions.PoolInstruction {
				ix := f.sell(1)
				ix.AccountMetaSlice[7] = solana.Meta(f.keys.TokenPool).WRITE()
				return ix
			},
			want: types.ErrAddressMismatch,
		},
		{
			name: "missing token program",
			ix: func(f *fixture) *instructions.PoolInstruction {
				ix := f.sell(1)
				ix.AccountMetaSlice = ix.AccountMetaSlice[:9]
				return ix
			},
			want: types.ErrNotEnoughAccounts,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			f.initialize(t)
			require.NoError(t, f.bank.Execute(f.buy(1_000_000_000)))
			before := f.snapshot(t)

			err := f.bank.Execute(test.ix(f))
			require.ErrorIs(t, err, test.want)
			require.Equal(t, before, f.snapshot(t))
		})
	}
}

func TestSellBeyondCustody(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	require.NoError(t, f.bank.Execute(f.buy(1_000_000_000)))

	// the native pool holds 2 SOL plus rent after the buy, leave only the rent
	drain := solana.NewInstruction(drainerID, []*solana.AccountMeta{
		solana.Meta(f.keys.NativePool).WRITE(),
		solana.Meta(solana.NewWallet().PublicKey()).WRITE(),
	}, []byte{2})
	require.NoError(t, f.bank.Execute(drain))
	before := f.snapshot(t)

	err := f.bank.Execute(f.sell(500_000))
	require.ErrorIs(t, err, types.ErrInsufficientFunds)
	require.Equal(t, types.CodeInsufficientFunds, types.CodeOf(err))
	require.Equal(t, before, f.snapshot(t))
}

func TestFailedInstructionRollsBackBatch(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	before := f.snapshot(t)

	err := f.bank.Execute(f.buy(1_000_000_000), f.sell(500_001))
	require.ErrorIs(t, err, types.ErrInsufficientFunds)
	require.Equal(t, before, f.snapshot(t))
}

func TestMalformedInstruction(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	ix := solana.NewInstruction(programID, f.buy(1).Accounts(), []byte{7, 1, 2})
	err := f.bank.Execute(ix)
	require.ErrorIs(t, err, types.ErrMalformedInstruction)
}
