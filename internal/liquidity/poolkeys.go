package liquidity

import (
	"github.com/gagliardetto/solana-go"

	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

// Seed tags of the pool's program derived addresses.
const (
	SeedState      = "state"
	SeedMint       = "mint"
	SeedTokenPool  = "token-pool"
	SeedNativePool = "native-pool"
)

// Derive returns the program address of owner for tag and its bump seed.
func Derive(programID, owner solana.PublicKey, tag string) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{owner.Bytes(), []byte(tag)}, programID)
}

// ProgramDeriver derives pool addresses for a fixed program id.
type ProgramDeriver struct {
	ProgramID solana.PublicKey
}

func NewProgramDeriver(programID solana.PublicKey) *ProgramDeriver {
	return &ProgramDeriver{ProgramID: programID}
}

func (d *ProgramDeriver) Derive(owner solana.PublicKey, tag string) (solana.PublicKey, uint8, error) {
	return Derive(d.ProgramID, owner, tag)
}

// DerivePoolKeys computes the four addresses belonging to authority's pool.
func DerivePoolKeys(programID, authority solana.PublicKey) (*types.PoolKeys, error) {
	keys := &types.PoolKeys{
		ProgramID: programID,
		Authority: authority,
	}

	var err error
	if keys.State, keys.StateBump, err = Derive(programID, authority, SeedState); err != nil {
		return nil, err
	}
	if keys.Mint, keys.MintBump, err = Derive(programID, authority, SeedMint); err != nil {
		return nil, err
	}
	if keys.TokenPool, keys.TokenPoolBump, err = Derive(programID, authority, SeedTokenPool); err != nil {
		return nil, err
	}
	if keys.NativePool, keys.NativePoolBump, err = Derive(programID, authority, SeedNativePool); err != nil {
		return nil, err
	}

	return keys, nil
}

// CustomerTokenAccount returns the associated token account of customer for the pool mint.
func CustomerTokenAccount(customer, mint solana.PublicKey) (solana.PublicKey, error) {
	tokenAccount, _, err := solana.FindAssociatedTokenAddress(customer, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return tokenAccount, nil
}
