package types

import (
	"github.com/gagliardetto/solana-go"

	"github.com/iqbalbaharum/constant-product-pool/internal/balance"
)

// PoolState is the persisted record of a pool, one per authority.
type PoolState struct {
	Authority          solana.PublicKey
	MintAuthority      solana.PublicKey
	BasePoolAuthority  solana.PublicKey
	QuotePoolAuthority solana.PublicKey
	Balance            balance.Balance
}
