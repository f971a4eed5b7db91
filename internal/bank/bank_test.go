package bank

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/host"
)

var testProgramID = solana.MustPublicKeyFromBase58("EjhMW84ENMdycHT2vtY8GdvvkcJrbZW6ohmvB72fLGqo")

// scripted runs fn as the program body.
type scripted func(h host.Host, accounts []*solana.AccountMeta) error

func (s scripted) Process(h host.Host, accounts []*solana.AccountMeta, data []byte) error {
	return s(h, accounts)
}

func TestMinimumBalance(t *testing.T) {
	require.Equal(t, uint64(890_880), MinimumBalance(0))
	require.Equal(t, uint64(2_039_280), MinimumBalance(host.TokenAccountSize))
	require.Equal(t, uint64(1_461_600), MinimumBalance(host.MintSize))
}

func TestExecuteCommitsBatch(t *testing.T) {
	b := New(zap.NewNop())
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	require.NoError(t, b.Airdrop(from, 100))

	b.Register(testProgramID, scripted(func(h host.Host, accounts []*solana.AccountMeta) error {
		return h.Transfer(accounts[0].PublicKey, accounts[1].PublicKey, 40)
	}))

	ix := solana.NewInstruction(testProgramID, []*solana.AccountMeta{solana.Meta(from), solana.Meta(to)}, nil)
	require.NoError(t, b.Execute(ix, ix))
	require.Equal(t, uint64(20), b.Lamports(from))
	require.Equal(t, uint64(80), b.Lamports(to))
}

func TestExecuteRollsBackOnFailure(t *testing.T) {
	b := New(zap.NewNop())
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	require.NoError(t, b.Airdrop(from, 100))

	b.Register(testProgramID, scripted(func(h host.Host, accounts []*solana.AccountMeta) error {
		return h.Transfer(accounts[0].PublicKey, accounts[1].PublicKey, 60)
	}))

	ix := solana.NewInstruction(testProgramID, []*solana.AccountMeta{solana.Meta(from), solana.Meta(to)}, nil)
	err := b.Execute(ix, ix)
	require.ErrorIs(t, err, ErrInsufficientLamports)
	require.Equal(t, uint64(100), b.Lamports(from))
	require.Equal(t, uint64(0), b.Lamports(to))
}

func TestExecuteUnknownProgram(t *testing.T) {
	b := New(nil)
	ix := solana.NewInstruction(testProgramID, nil, nil)
	require.ErrorIs(t, b.Execute(ix), ErrUnknownProgram)
}

func TestCreateAccount(t *testing.T) {
	l := newLedger()
	funder := solana.NewWallet().PublicKey()
	key := solana.NewWallet().PublicKey()
	l.account(funder).lamports = MinimumBalance(32)

	require.NoError(t, l.CreateAccount(funder, key, testProgramID, 32))
	require.Equal(t, uint64(0), l.Lamports(funder))
	require.Equal(t, MinimumBalance(32), l.Lamports(key))
	require.Equal(t, uint64(32), l.DataLen(key))

	require.ErrorIs(t, l.CreateAccount(funder, key, testProgramID, 32), ErrAccountInUse)
	require.ErrorIs(t, l.WriteData(key, make([]byte, 31)), ErrInvalidAccountData)
	require.NoError(t, l.WriteData(key, make([]byte, 32)))
}

func TestTokenProgram(t *testing.T) {
	l := newLedger()
	funder := solana.NewWallet().PublicKey()
	mintKey := solana.NewWallet().PublicKey()
	pool := solana.NewWallet().PublicKey()
	customer := solana.NewWallet().PublicKey()
	customerToken := solana.NewWallet().PublicKey()
	l.account(funder).lamports = 1_000_000_000

	tokens := l.Tokens()
	require.NoError(t, l.CreateAccount(funder, mintKey, solana.TokenProgramID, host.MintSize))
	require.NoError(t, tokens.InitializeMint(mintKey, pool, 9))
	for _, account := range []solana.PublicKey{pool, customerToken} {
		require.NoError(t, l.CreateAccount(funder, account, solana.TokenProgramID, host.TokenAccountSize))
	}
	require.NoError(t, tokens.InitializeAccount(pool, mintKey, pool))
	require.NoError(t, tokens.InitializeAccount(customerToken, mintKey, customer))

	require.ErrorIs(t, tokens.MintTo(mintKey, pool, 10, customer), ErrOwnerMismatch)
	require.NoError(t, tokens.MintTo(mintKey, pool, 10, pool))

	require.ErrorIs(t, tokens.Transfer(pool, customerToken, 4, customer), ErrOwnerMismatch)
	require.NoError(t, tokens.Transfer(pool, customerToken, 4, pool))
	require.ErrorIs(t, tokens.Transfer(customerToken, pool, 5, customer), ErrInsufficientTokens)

	held, err := tokens.Balance(customerToken)
	require.NoError(t, err)
	require.Equal(t, uint64(4), held)

	account, err := tokens.Account(customerToken)
	require.NoError(t, err)
	require.Equal(t, host.TokenAccount{Mint: mintKey, Owner: customer, Amount: 4}, account)

	_, err = tokens.Balance(solana.NewWallet().PublicKey())
	require.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestCreateTokenAccountRequiresMint(t *testing.T) {
	b := New(zap.NewNop())
	owner := solana.NewWallet().PublicKey()
	require.NoError(t, b.Airdrop(owner, 1_000_000_000))

	err := b.CreateTokenAccount(owner, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.Equal(t, uint64(1_000_000_000), b.Lamports(owner))
}
