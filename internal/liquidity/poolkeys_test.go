package liquidity

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

var testProgramID = solana.MustPublicKeyFromBase58("EjhMW84ENMdycHT2vtY8GdvvkcJrbZW6ohmvB72fLGqo")

func TestDerivePoolKeysIsDeterministic(t *testing.T) {
	authority := solana.NewWallet().PublicKey()

	first, err := DerivePoolKeys(testProgramID, authority)
	require.NoError(t, err)
	second, err := DerivePoolKeys(testProgramID, authority)
	require.NoError(t, err)
	require.Equal(t, first, second)

	addresses := map[solana.PublicKey]bool{
		first.State:      true,
		first.Mint:       true,
		first.TokenPool:  true,
		first.NativePool: true,
	}
	require.Len(t, addresses, 4)
}

func TestDeriveMatchesProgramDeriver(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	keys, err := DerivePoolKeys(testProgramID, authority)
	require.NoError(t, err)

	address, bump, err := NewProgramDeriver(testProgramID).Derive(authority, SeedNativePool)
	require.NoError(t, err)
	require.Equal(t, keys.NativePool, address)
	require.Equal(t, keys.NativePoolBump, bump)

	other, err := DerivePoolKeys(testProgramID, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.NotEqual(t, keys.State, other.State)
}

func TestCustomerTokenAccount(t *testing.T) {
	customer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	first, err := CustomerTokenAccount(customer, mint)
	require.NoError(t, err)
	second, err := CustomerTokenAccount(customer, mint)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.NotEqual(t, customer, first)
}
