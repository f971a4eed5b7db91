package types

import "github.com/gagliardetto/solana-go"

// PoolKeys holds the program derived addresses of one pool together with their bump seeds.
type PoolKeys struct {
	ProgramID      solana.PublicKey
	Authority      solana.PublicKey
	State          solana.PublicKey
	Mint           solana.PublicKey
	TokenPool      solana.PublicKey
	NativePool     solana.PublicKey
	StateBump      uint8
	MintBump       uint8
	TokenPoolBump  uint8
	NativePoolBump uint8
}
