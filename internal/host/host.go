// Package host declares the ledger services a pool program runs against.
//
// Implementations own account storage, rent and the fungible token program; atomic
// commit of a whole instruction batch is also their responsibility.
package host

import "github.com/gagliardetto/solana-go"

// Deriver computes program derived addresses.
type Deriver interface {
	Derive(owner solana.PublicKey, tag string) (solana.PublicKey, uint8, error)
}

// Ledger is the native account layer. Amounts are lamports.
type Ledger interface {
	// CreateAccount allocates space bytes for account, owned by owner, funded with the
	// rent exempt minimum taken from funder.
	CreateAccount(funder, account, owner solana.PublicKey, space uint64) error
	Transfer(from, to solana.PublicKey, amount uint64) error
	Lamports(account solana.PublicKey) uint64
	MinimumBalance(space uint64) uint64
	DataLen(account solana.PublicKey) uint64
	ReadData(account solana.PublicKey) ([]byte, error)
	WriteData(account solana.PublicKey, data []byte) error
}

// TokenAccount is the state of one token account.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// TokenProgram is the fungible asset service used for the issued asset.
type TokenProgram interface {
	InitializeMint(mint, authority solana.PublicKey, decimals uint8) error
	InitializeAccount(account, mint, owner solana.PublicKey) error
	MintTo(mint, to solana.PublicKey, amount uint64, authority solana.PublicKey) error
	Transfer(from, to solana.PublicKey, amount uint64, authority solana.PublicKey) error
	Balance(account solana.PublicKey) (uint64, error)
	Account(account solana.PublicKey) (TokenAccount, error)
}

// Host is everything a program invocation can reach.
type Host interface {
	Ledger
	Tokens() TokenProgram
}

const (
	// MintSize and TokenAccountSize are the packed sizes of the token program's accounts.
	MintSize         = 82
	TokenAccountSize = 165
)
