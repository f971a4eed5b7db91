package coder

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/iqbalbaharum/constant-product-pool/internal/balance"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

// PoolStateSize is the fixed width of a pool record: four keys followed by two u128 reserves.
const PoolStateSize = 4*solana.PublicKeyLength + 2*16

// Field offsets within a pool record.
const (
	OffsetAuthority          = 0
	OffsetMintAuthority      = OffsetAuthority + solana.PublicKeyLength
	OffsetBasePoolAuthority  = OffsetMintAuthority + solana.PublicKeyLength
	OffsetQuotePoolAuthority = OffsetBasePoolAuthority + solana.PublicKeyLength
	OffsetBaseReserve        = OffsetQuotePoolAuthority + solana.PublicKeyLength
	OffsetQuoteReserve       = OffsetBaseReserve + 16
)

type PoolStateCoder struct{}

func NewPoolStateCoder() *PoolStateCoder {
	return &PoolStateCoder{}
}

func (coder *PoolStateCoder) Encode(state *types.PoolState) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, PoolStateSize))
	encoder := bin.NewBorshEncoder(buf)

	for _, key := range []solana.PublicKey{
		state.Authority,
		state.MintAuthority,
		state.BasePoolAuthority,
		state.QuotePoolAuthority,
	} {
		if err := encoder.WriteBytes(key[:], false); err != nil {
			return nil, err
		}
	}
	if err := writeU128(encoder, &state.Balance.Base); err != nil {
		return nil, err
	}
	if err := writeU128(encoder, &state.Balance.Quote); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode reads a pool record. A record of all zero bytes has never been written and
// is reported as types.ErrUninitialized.
func (coder *PoolStateCoder) Decode(data []byte) (*types.PoolState, error) {
	if len(data) != PoolStateSize {
		return nil, fmt.Errorf("pool state is %d bytes, want %d: %w", len(data), PoolStateSize, types.ErrUninitialized)
	}
	if isZeroed(data) {
		return nil, types.ErrUninitialized
	}

	decoder := bin.NewBorshDecoder(data)
	var keys [4]solana.PublicKey
	for i := range keys {
		raw, err := decoder.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return nil, err
		}
		keys[i] = solana.PublicKeyFromBytes(raw)
	}

	base, err := readU128(decoder)
	if err != nil {
		return nil, err
	}
	quote, err := readU128(decoder)
	if err != nil {
		return nil, err
	}

	return &types.PoolState{
		Authority:          keys[0],
		MintAuthority:      keys[1],
		BasePoolAuthority:  keys[2],
		QuotePoolAuthority: keys[3],
		Balance:            balance.Balance{Base: *base, Quote: *quote},
	}, nil
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
