package instructions

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/iqbalbaharum/constant-product-pool/internal/coder"
	"github.com/iqbalbaharum/constant-product-pool/internal/liquidity"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

// PoolInstruction is a pool program call ready to be placed in a transaction.
type PoolInstruction struct {
	Args                    coder.PoolInstruction
	programID               solana.PublicKey
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

var _ solana.Instruction = (*PoolInstruction)(nil)

type InitializePoolInstructionParams struct {
	PoolKeys           *types.PoolKeys
	TotalSupply        uint256.Int
	Decimals           uint8
	InitialQuoteAmount uint256.Int
}

type TradeInstructionParams struct {
	PoolKeys             *types.PoolKeys
	Beneficiary          solana.PublicKey
	Customer             solana.PublicKey
	CustomerTokenAccount solana.PublicKey
	Amount               uint256.Int
}

func (instruction *PoolInstruction) ProgramID() solana.PublicKey {
	return instruction.programID
}

func (instruction *PoolInstruction) Accounts() (out []*solana.AccountMeta) {
	return instruction.GetAccounts()
}

func (instruction *PoolInstruction) GetAccounts() []*solana.AccountMeta {
	return instruction.AccountMetaSlice
}

func (instruction *PoolInstruction) Data() ([]byte, error) {
	data, err := coder.NewPoolInstructionCoder().Encode(instruction.Args)
	if err != nil {
		return nil, fmt.Errorf("unable to encode instruction: %w", err)
	}
	return data, nil
}

func poolAccountMetas(keys *types.PoolKeys, authority *solana.AccountMeta) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		authority,
		solana.Meta(keys.State).WRITE(),      // Pool state
		solana.Meta(keys.Mint).WRITE(),       // Base mint
		solana.Meta(keys.TokenPool).WRITE(),  // Base custody
		solana.Meta(keys.NativePool).WRITE(), // Quote custody
	}
}

func MakeInitializePoolInstruction(params *InitializePoolInstructionParams) *PoolInstruction {
	keys := params.PoolKeys

	accountMetas := poolAccountMetas(keys, solana.Meta(keys.Authority).WRITE().SIGNER())
	accountMetas = append(accountMetas,
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SysVarRentPubkey),
	)

	return &PoolInstruction{
		Args: coder.Initialize{
			TotalSupply:        params.TotalSupply,
			Decimals:           params.Decimals,
			InitialQuoteAmount: params.InitialQuoteAmount,
		},
		programID:        keys.ProgramID,
		AccountMetaSlice: accountMetas,
	}
}

func tradeAccountMetas(params *TradeInstructionParams) []*solana.AccountMeta {
	keys := params.PoolKeys

	accountMetas := poolAccountMetas(keys, solana.Meta(keys.Authority))
	return append(accountMetas,
		solana.Meta(params.Beneficiary).WRITE(),          // Fee receiver
		solana.Meta(params.Customer).WRITE().SIGNER(),    // Customer
		solana.Meta(params.CustomerTokenAccount).WRITE(), // Customer base token account
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
	)
}

// MakeBuyInstruction pays Amount lamports for base.
func MakeBuyInstruction(params *TradeInstructionParams) *PoolInstruction {
	return &PoolInstruction{
		Args:             coder.Buy{QuoteAmount: params.Amount},
		programID:        params.PoolKeys.ProgramID,
		AccountMetaSlice: tradeAccountMetas(params),
	}
}

// MakeSellInstruction returns Amount base (in 10^-18 units) to the pool.
func MakeSellInstruction(params *TradeInstructionParams) *PoolInstruction {
	return &PoolInstruction{
		Args:             coder.Sell{BaseAmount: params.Amount},
		programID:        params.PoolKeys.ProgramID,
		AccountMetaSlice: tradeAccountMetas(params),
	}
}

// NewTradeParams derives the pool keys of authority and the customer's token account.
func NewTradeParams(programID, authority, beneficiary, customer solana.PublicKey, amount *uint256.Int) (*TradeInstructionParams, error) {
	keys, err := liquidity.DerivePoolKeys(programID, authority)
	if err != nil {
		return nil, err
	}
	tokenAccount, err := liquidity.CustomerTokenAccount(customer, keys.Mint)
	if err != nil {
		return nil, err
	}
	return &TradeInstructionParams{
		PoolKeys:             keys,
		Beneficiary:          beneficiary,
		Customer:             customer,
		CustomerTokenAccount: tokenAccount,
		Amount:               *amount,
	}, nil
}
