// Package rpc reads and submits pool program data on a live cluster.
package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/iqbalbaharum/constant-product-pool/internal/coder"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
	stateCoder *coder.PoolStateCoder
}

func New(url string) *Client {
	return &Client{
		rpc:        rpc.New(url),
		commitment: rpc.CommitmentConfirmed,
		stateCoder: coder.NewPoolStateCoder(),
	}
}

func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return result.Value.Blockhash, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
}

// PoolState fetches and decodes the pool record stored at state.
func (c *Client) PoolState(ctx context.Context, state solana.PublicKey) (*types.PoolState, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, state, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("state %s: %w", state, types.ErrUninitialized)
		}
		return nil, fmt.Errorf("get account %s: %w", state, err)
	}
	if result.Value == nil {
		return nil, fmt.Errorf("state %s: %w", state, types.ErrUninitialized)
	}

	return c.stateCoder.Decode(result.Value.Data.GetBinary())
}
