// Package bank is an in-memory ledger that hosts pool programs.
//
// It keeps native accounts, token mints and token accounts, and executes instruction
// batches atomically: a batch runs against a working copy that replaces the committed
// state only when every instruction in it succeeds.
package bank

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/host"
)

const (
	// rent exemption as charged by the cluster: two years of 3480 lamports per byte-year,
	// with 128 bytes of account overhead
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionYears         = 2
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountInUse         = errors.New("account already in use")
	ErrInsufficientLamports = errors.New("insufficient lamports")
	ErrInsufficientTokens   = errors.New("insufficient token balance")
	ErrOwnerMismatch        = errors.New("owner does not match")
	ErrMintMismatch         = errors.New("mint does not match")
	ErrInvalidAccountData   = errors.New("invalid account data")
	ErrUnknownProgram       = errors.New("unknown program")
	ErrLamportOverflow      = errors.New("lamport overflow")
)

// Program is an executable registered with the bank.
type Program interface {
	Process(h host.Host, accounts []*solana.AccountMeta, data []byte) error
}

type Bank struct {
	mu       sync.RWMutex
	state    *ledger
	programs map[solana.PublicKey]Program
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Bank {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bank{
		state:    newLedger(),
		programs: make(map[solana.PublicKey]Program),
		logger:   logger,
	}
}

func (b *Bank) Register(programID solana.PublicKey, program Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.programs[programID] = program
}

// Execute runs instructions in order. Later instructions observe the effects of earlier
// ones; a failure discards the whole batch.
func (b *Bank) Execute(instructions ...solana.Instruction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	working := b.state.clone()
	for i, ix := range instructions {
		program, ok := b.programs[ix.ProgramID()]
		if !ok {
			return fmt.Errorf("instruction %d: %s: %w", i, ix.ProgramID(), ErrUnknownProgram)
		}
		data, err := ix.Data()
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		if err := program.Process(working, ix.Accounts(), data); err != nil {
			b.logger.Debug("batch rolled back", zap.Int("instruction", i), zap.Error(err))
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	b.state = working
	return nil
}

// Airdrop credits lamports to account, creating it if needed.
func (b *Bank) Airdrop(account solana.PublicKey, lamports uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc := b.state.account(account)
	if acc.lamports+lamports < acc.lamports {
		return ErrLamportOverflow
	}
	acc.lamports += lamports
	return nil
}

// CreateTokenAccount opens the associated token account of owner for mint. The owner pays
// the rent.
func (b *Bank) CreateTokenAccount(owner, mint, address solana.PublicKey) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	working := b.state.clone()
	if _, ok := working.mints[mint]; !ok {
		return fmt.Errorf("mint %s: %w", mint, ErrAccountNotFound)
	}
	if err := working.CreateAccount(owner, address, solana.TokenProgramID, host.TokenAccountSize); err != nil {
		return err
	}
	if err := working.Tokens().InitializeAccount(address, mint, owner); err != nil {
		return err
	}
	b.state = working
	return nil
}

func (b *Bank) Lamports(account solana.PublicKey) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Lamports(account)
}

func (b *Bank) AccountData(account solana.PublicKey) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.ReadData(account)
}

func (b *Bank) TokenBalance(account solana.PublicKey) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Tokens().Balance(account)
}

// Supply returns the issued supply of mint.
func (b *Bank) Supply(mint solana.PublicKey) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.state.mints[mint]
	if !ok {
		return 0, fmt.Errorf("mint %s: %w", mint, ErrAccountNotFound)
	}
	return m.supply, nil
}

func MinimumBalance(space uint64) uint64 {
	return (accountStorageOverhead + space) * lamportsPerByteYear * exemptionYears
}
