package coder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"

	"github.com/iqbalbaharum/constant-product-pool/internal/balance"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

// Instruction discriminators, the first byte of every payload.
const (
	InstructionInitialize uint8 = iota
	InstructionBuy
	InstructionSell
)

const (
	InitializeDataSize = 1 + 16 + 1 + 16
	TradeDataSize      = 1 + 16
)

// PoolInstruction is one of Initialize, Buy or Sell.
type PoolInstruction interface {
	Discriminator() uint8
	MarshalWithEncoder(encoder *bin.Encoder) error
}

type Initialize struct {
	TotalSupply        uint256.Int
	Decimals           uint8
	InitialQuoteAmount uint256.Int
}

type Buy struct {
	QuoteAmount uint256.Int
}

type Sell struct {
	BaseAmount uint256.Int
}

func (Initialize) Discriminator() uint8 { return InstructionInitialize }
func (Buy) Discriminator() uint8        { return InstructionBuy }
func (Sell) Discriminator() uint8       { return InstructionSell }

func (ix Initialize) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	if err = encoder.WriteUint8(InstructionInitialize); err != nil {
		return err
	}
	if err = writeU128(encoder, &ix.TotalSupply); err != nil {
		return err
	}
	if err = encoder.WriteUint8(ix.Decimals); err != nil {
		return err
	}
	return writeU128(encoder, &ix.InitialQuoteAmount)
}

func (ix Buy) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	if err = encoder.WriteUint8(InstructionBuy); err != nil {
		return err
	}
	return writeU128(encoder, &ix.QuoteAmount)
}

func (ix Sell) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	if err = encoder.WriteUint8(InstructionSell); err != nil {
		return err
	}
	return writeU128(encoder, &ix.BaseAmount)
}

// PoolInstructionCoder encodes and decodes pool program payloads.
type PoolInstructionCoder struct{}

func NewPoolInstructionCoder() *PoolInstructionCoder {
	return &PoolInstructionCoder{}
}

// Encode serializes ix into its borsh payload.
func (coder *PoolInstructionCoder) Encode(ix PoolInstruction) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := ix.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("unable to encode instruction: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a payload. Unknown tags, short payloads and trailing bytes are rejected.
func (coder *PoolInstructionCoder) Decode(data []byte) (PoolInstruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload: %w", types.ErrMalformedInstruction)
	}

	decoder := bin.NewBorshDecoder(data)
	tag, err := decoder.ReadUint8()
	if err != nil {
		return nil, malformed(err)
	}

	var ix PoolInstruction
	switch tag {
	case InstructionInitialize:
		ix, err = decodeInitialize(decoder)
	case InstructionBuy:
		var amount *uint256.Int
		amount, err = readU128(decoder)
		if err == nil {
			ix = Buy{QuoteAmount: *amount}
		}
	case InstructionSell:
		var amount *uint256.Int
		amount, err = readU128(decoder)
		if err == nil {
			ix = Sell{BaseAmount: *amount}
		}
	default:
		return nil, fmt.Errorf("invalid instruction tag %d: %w", tag, types.ErrMalformedInstruction)
	}
	if err != nil {
		return nil, malformed(err)
	}

	if decoder.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes: %w", decoder.Remaining(), types.ErrMalformedInstruction)
	}

	return ix, nil
}

func decodeInitialize(decoder *bin.Decoder) (PoolInstruction, error) {
	supply, err := readU128(decoder)
	if err != nil {
		return nil, err
	}
	decimals, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	quote, err := readU128(decoder)
	if err != nil {
		return nil, err
	}
	return Initialize{TotalSupply: *supply, Decimals: decimals, InitialQuoteAmount: *quote}, nil
}

func malformed(err error) error {
	return fmt.Errorf("%v: %w", err, types.ErrMalformedInstruction)
}

func writeU128(encoder *bin.Encoder, x *uint256.Int) error {
	if !balance.FitsU128(x) {
		return balance.ErrOverflow
	}
	return encoder.WriteUint128(bin.Uint128{Lo: x[0], Hi: x[1]}, binary.LittleEndian)
}

func readU128(decoder *bin.Decoder) (*uint256.Int, error) {
	v, err := decoder.ReadUint128(binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	return &uint256.Int{v.Lo, v.Hi, 0, 0}, nil
}
