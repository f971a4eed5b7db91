package processor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/liquidity"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

type accountIterator struct {
	accounts []*solana.AccountMeta
	pos      int
}

func (it *accountIterator) next() (*solana.AccountMeta, error) {
	if it.pos >= len(it.accounts) {
		return nil, fmt.Errorf("expected at least %d accounts: %w", it.pos+1, types.ErrNotEnoughAccounts)
	}
	account := it.accounts[it.pos]
	it.pos++
	return account, nil
}

func (it *accountIterator) take(n int) ([]*solana.AccountMeta, error) {
	out := make([]*solana.AccountMeta, n)
	for i := range out {
		account, err := it.next()
		if err != nil {
			return nil, err
		}
		out[i] = account
	}
	return out, nil
}

// poolAccounts are the leading accounts shared by every pool instruction.
type poolAccounts struct {
	authority  *solana.AccountMeta
	state      *solana.AccountMeta
	mint       *solana.AccountMeta
	tokenPool  *solana.AccountMeta
	nativePool *solana.AccountMeta
}

func nextPoolAccounts(it *accountIterator) (*poolAccounts, error) {
	accounts, err := it.take(5)
	if err != nil {
		return nil, err
	}
	return &poolAccounts{
		authority:  accounts[0],
		state:      accounts[1],
		mint:       accounts[2],
		tokenPool:  accounts[3],
		nativePool: accounts[4],
	}, nil
}

// validate recomputes every derived address from the authority and compares it with the
// supplied account.
func (p *Processor) validate(accounts *poolAccounts) error {
	expected := []struct {
		tag     string
		account *solana.AccountMeta
	}{
		{liquidity.SeedState, accounts.state},
		{liquidity.SeedMint, accounts.mint},
		{liquidity.SeedTokenPool, accounts.tokenPool},
		{liquidity.SeedNativePool, accounts.nativePool},
	}

	for _, e := range expected {
		address, _, err := p.deriver.Derive(accounts.authority.PublicKey, e.tag)
		if err != nil {
			return fmt.Errorf("derive %s address: %w", e.tag, err)
		}
		if !address.Equals(e.account.PublicKey) {
			p.logger.Warn("address derivation mismatch",
				zap.String("tag", e.tag),
				zap.Stringer("expected", address),
				zap.Stringer("supplied", e.account.PublicKey),
			)
			return fmt.Errorf("%s address %s: %w", e.tag, e.account.PublicKey, types.ErrAddressMismatch)
		}
	}

	return nil
}

func (p *Processor) validateBeneficiary(account *solana.AccountMeta) error {
	if !account.PublicKey.Equals(p.beneficiary) {
		p.logger.Warn("beneficiary mismatch",
			zap.Stringer("expected", p.beneficiary),
			zap.Stringer("supplied", account.PublicKey),
		)
		return fmt.Errorf("beneficiary %s: %w", account.PublicKey, types.ErrAddressMismatch)
	}
	return nil
}

func requireSigner(account *solana.AccountMeta, role string) error {
	if !account.IsSigner {
		return fmt.Errorf("%s %s: %w", role, account.PublicKey, types.ErrMissingSignature)
	}
	return nil
}
