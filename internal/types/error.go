package types

import (
	"errors"
	"fmt"

	"github.com/iqbalbaharum/constant-product-pool/internal/balance"
)

type ErrorCode uint32

// Codes are part of the program's external contract, do not renumber.
const (
	CodeAddressMismatch ErrorCode = iota + 1
	CodeInsufficientFunds
	CodeArithmeticOverflow
	CodeMalformedInstruction
	CodeMissingSignature
	CodeNotEnoughAccounts
	CodeUninitialized
	CodeAlreadyInitialized
	CodeInvalidAmount
)

// ProgramError is the caller visible failure of a pool instruction.
type ProgramError struct {
	Code    ErrorCode
	Message string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

var (
	ErrAddressMismatch      = &ProgramError{CodeAddressMismatch, "address derivation mismatch"}
	ErrInsufficientFunds    = &ProgramError{CodeInsufficientFunds, "insufficient funds"}
	ErrArithmeticOverflow   = &ProgramError{CodeArithmeticOverflow, "arithmetic overflow"}
	ErrMalformedInstruction = &ProgramError{CodeMalformedInstruction, "malformed instruction"}
	ErrMissingSignature     = &ProgramError{CodeMissingSignature, "missing required signature"}
	ErrNotEnoughAccounts    = &ProgramError{CodeNotEnoughAccounts, "not enough account keys"}
	ErrUninitialized        = &ProgramError{CodeUninitialized, "pool state is not initialized"}
	ErrAlreadyInitialized   = &ProgramError{CodeAlreadyInitialized, "pool state is already initialized"}
	ErrInvalidAmount        = &ProgramError{CodeInvalidAmount, "invalid amount"}
)

// CodeOf returns the program error code carried by err, or 0 when err is not a program error.
func CodeOf(err error) ErrorCode {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return 0
}

// FromBalanceError maps balance engine failures onto program errors. Other errors are
// returned unchanged.
func FromBalanceError(err error) error {
	switch {
	case errors.Is(err, balance.ErrInsufficientReserve):
		return fmt.Errorf("%w: %w", err, ErrInsufficientFunds)
	case errors.Is(err, balance.ErrOverflow), errors.Is(err, balance.ErrDivideByZero):
		return fmt.Errorf("%w: %w", err, ErrArithmeticOverflow)
	}
	return err
}
