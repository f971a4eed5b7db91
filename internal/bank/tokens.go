package bank

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/iqbalbaharum/constant-product-pool/internal/host"
)

// tokenProgram is the fungible token service over a ledger version.
type tokenProgram struct {
	*ledger
}

var _ host.TokenProgram = (*tokenProgram)(nil)

func (t *tokenProgram) InitializeMint(key, authority solana.PublicKey, decimals uint8) error {
	if err := t.requireTokenOwned(key, host.MintSize); err != nil {
		return err
	}
	if _, ok := t.mints[key]; ok {
		return fmt.Errorf("mint %s: %w", key, ErrAccountInUse)
	}
	t.mints[key] = &mint{authority: authority, decimals: decimals}
	return nil
}

func (t *tokenProgram) InitializeAccount(key, mintKey, owner solana.PublicKey) error {
	if err := t.requireTokenOwned(key, host.TokenAccountSize); err != nil {
		return err
	}
	if _, ok := t.mints[mintKey]; !ok {
		return fmt.Errorf("mint %s: %w", mintKey, ErrAccountNotFound)
	}
	if _, ok := t.tokens[key]; ok {
		return fmt.Errorf("token account %s: %w", key, ErrAccountInUse)
	}
	t.tokens[key] = &tokenAccount{mint: mintKey, owner: owner}
	return nil
}

func (t *tokenProgram) MintTo(mintKey, to solana.PublicKey, amount uint64, authority solana.PublicKey) error {
	m, ok := t.mints[mintKey]
	if !ok {
		return fmt.Errorf("mint %s: %w", mintKey, ErrAccountNotFound)
	}
	if !m.authority.Equals(authority) {
		return fmt.Errorf("mint authority %s: %w", authority, ErrOwnerMismatch)
	}
	dst, ok := t.tokens[to]
	if !ok {
		return fmt.Errorf("token account %s: %w", to, ErrAccountNotFound)
	}
	if !dst.mint.Equals(mintKey) {
		return fmt.Errorf("token account %s: %w", to, ErrMintMismatch)
	}
	if m.supply+amount < m.supply {
		return ErrLamportOverflow
	}
	m.supply += amount
	dst.amount += amount
	return nil
}

func (t *tokenProgram) Transfer(from, to solana.PublicKey, amount uint64, authority solana.PublicKey) error {
	src, ok := t.tokens[from]
	if !ok {
		return fmt.Errorf("token account %s: %w", from, ErrAccountNotFound)
	}
	dst, ok := t.tokens[to]
	if !ok {
		return fmt.Errorf("token account %s: %w", to, ErrAccountNotFound)
	}
	if !src.mint.Equals(dst.mint) {
		return fmt.Errorf("%s and %s: %w", from, to, ErrMintMismatch)
	}
	if !src.owner.Equals(authority) {
		return fmt.Errorf("token account %s authority %s: %w", from, authority, ErrOwnerMismatch)
	}
	if src.amount < amount {
		return fmt.Errorf("token account %s: %w", from, ErrInsufficientTokens)
	}
	src.amount -= amount
	dst.amount += amount
	return nil
}

func (t *tokenProgram) Balance(key solana.PublicKey) (uint64, error) {
	acc, ok := t.tokens[key]
	if !ok {
		return 0, fmt.Errorf("token account %s: %w", key, ErrAccountNotFound)
	}
	return acc.amount, nil
}

func (t *tokenProgram) Account(key solana.PublicKey) (host.TokenAccount, error) {
	acc, ok := t.tokens[key]
	if !ok {
		return host.TokenAccount{}, fmt.Errorf("token account %s: %w", key, ErrAccountNotFound)
	}
	return host.TokenAccount{Mint: acc.mint, Owner: acc.owner, Amount: acc.amount}, nil
}

func (t *tokenProgram) requireTokenOwned(key solana.PublicKey, size int) error {
	acc, ok := t.accounts[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrAccountNotFound)
	}
	if !acc.owner.Equals(solana.TokenProgramID) {
		return fmt.Errorf("%s: %w", key, ErrOwnerMismatch)
	}
	if len(acc.data) != size {
		return fmt.Errorf("%s: %w", key, ErrInvalidAccountData)
	}
	return nil
}
