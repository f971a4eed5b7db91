package bank

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/iqbalbaharum/constant-product-pool/internal/host"
)

type account struct {
	lamports uint64
	owner    solana.PublicKey
	data     []byte
}

type mint struct {
	authority solana.PublicKey
	decimals  uint8
	supply    uint64
}

type tokenAccount struct {
	mint   solana.PublicKey
	owner  solana.PublicKey
	amount uint64
}

// ledger is one version of the bank state.
type ledger struct {
	accounts map[solana.PublicKey]*account
	mints    map[solana.PublicKey]*mint
	tokens   map[solana.PublicKey]*tokenAccount
}

var _ host.Host = (*ledger)(nil)

func newLedger() *ledger {
	return &ledger{
		accounts: make(map[solana.PublicKey]*account),
		mints:    make(map[solana.PublicKey]*mint),
		tokens:   make(map[solana.PublicKey]*tokenAccount),
	}
}

func (l *ledger) clone() *ledger {
	out := newLedger()
	for k, v := range l.accounts {
		acc := *v
		acc.data = append([]byte(nil), v.data...)
		out.accounts[k] = &acc
	}
	for k, v := range l.mints {
		m := *v
		out.mints[k] = &m
	}
	for k, v := range l.tokens {
		t := *v
		out.tokens[k] = &t
	}
	return out
}

// account returns the entry for key, creating an empty system owned one.
func (l *ledger) account(key solana.PublicKey) *account {
	acc, ok := l.accounts[key]
	if !ok {
		acc = &account{owner: solana.SystemProgramID}
		l.accounts[key] = acc
	}
	return acc
}

func (l *ledger) inUse(key solana.PublicKey) bool {
	acc, ok := l.accounts[key]
	return ok && (acc.lamports > 0 || len(acc.data) > 0)
}

func (l *ledger) Tokens() host.TokenProgram {
	return &tokenProgram{ledger: l}
}

func (l *ledger) CreateAccount(funder, key, owner solana.PublicKey, space uint64) error {
	if l.inUse(key) {
		return fmt.Errorf("%s: %w", key, ErrAccountInUse)
	}
	rent := MinimumBalance(space)
	if err := l.Transfer(funder, key, rent); err != nil {
		return fmt.Errorf("fund %s: %w", key, err)
	}
	acc := l.account(key)
	acc.owner = owner
	acc.data = make([]byte, space)
	return nil
}

func (l *ledger) Transfer(from, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	src, ok := l.accounts[from]
	if !ok || src.lamports < amount {
		return fmt.Errorf("%s: %w", from, ErrInsufficientLamports)
	}
	dst := l.account(to)
	if dst.lamports+amount < dst.lamports {
		return ErrLamportOverflow
	}
	src.lamports -= amount
	dst.lamports += amount
	return nil
}

func (l *ledger) Lamports(key solana.PublicKey) uint64 {
	if acc, ok := l.accounts[key]; ok {
		return acc.lamports
	}
	return 0
}

func (l *ledger) MinimumBalance(space uint64) uint64 {
	return MinimumBalance(space)
}

func (l *ledger) DataLen(key solana.PublicKey) uint64 {
	if acc, ok := l.accounts[key]; ok {
		return uint64(len(acc.data))
	}
	return 0
}

func (l *ledger) ReadData(key solana.PublicKey) ([]byte, error) {
	acc, ok := l.accounts[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrAccountNotFound)
	}
	return append([]byte(nil), acc.data...), nil
}

// WriteData replaces the account data. The length is fixed at creation.
func (l *ledger) WriteData(key solana.PublicKey, data []byte) error {
	acc, ok := l.accounts[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrAccountNotFound)
	}
	if len(data) != len(acc.data) {
		return fmt.Errorf("%s holds %d bytes, got %d: %w", key, len(acc.data), len(data), ErrInvalidAccountData)
	}
	copy(acc.data, data)
	return nil
}
