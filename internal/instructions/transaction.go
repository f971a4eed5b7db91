package instructions

import (
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
)

type ComputeUnit struct {
	MicroLamports uint64
	Units         uint32
}

type TxOption struct {
	Blockhash solana.Hash
}

// MakeTransaction wraps instructions in a transaction paid and signed by payer, preceded
// by compute budget instructions when requested.
func MakeTransaction(
	payer solana.PrivateKey,
	compute ComputeUnit,
	options TxOption,
	instructions ...solana.Instruction) ([]solana.Signature, *solana.Transaction, error) {

	computeInstructions := []solana.Instruction{}

	if compute.Units > 0 {
		computeInstructions = append(
			computeInstructions,
			computebudget.NewSetComputeUnitLimitInstruction(compute.Units).Build())
	}

	if compute.MicroLamports > 0 {
		computeInstructions = append(
			computeInstructions,
			computebudget.NewSetComputeUnitPriceInstruction(compute.MicroLamports).Build())
	}

	ins := []solana.Instruction{}
	ins = append(ins, computeInstructions...)
	ins = append(ins, instructions...)

	tx, err := solana.NewTransaction(
		ins,
		options.Blockhash,
		solana.TransactionPayer(payer.PublicKey()),
	)

	if err != nil {
		return nil, nil, err
	}

	signature, err := tx.Sign(
		func(key solana.PublicKey) *solana.PrivateKey {
			if payer.PublicKey().Equals(key) {
				return &payer
			}
			return nil
		},
	)

	if err != nil {
		return nil, nil, err
	}

	return signature, tx, nil
}
