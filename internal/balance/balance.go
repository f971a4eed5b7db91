// Package balance implements the constant-product reserve arithmetic of a pool.
//
// Reserves are unsigned 128-bit integers. They are held in uint256.Int so that every
// multiplication has a full-width intermediate; any result that does not fit back into
// 128 bits is reported as ErrOverflow instead of wrapping.
package balance

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	FeeNumerator   = 30
	FeeDenominator = 10000
)

var (
	BaseUnit  = uint256.NewInt(1_000_000_000_000_000_000)
	QuoteUnit = uint256.NewInt(1_000_000_000)

	feeNumerator   = uint256.NewInt(FeeNumerator)
	feeDenominator = uint256.NewInt(FeeDenominator)
)

var (
	ErrOverflow            = errors.New("calculation overflow")
	ErrDivideByZero        = errors.New("division by zero")
	ErrInsufficientReserve = errors.New("insufficient reserve")
)

// Balance is the reserve pair of a pool.
type Balance struct {
	Base  uint256.Int
	Quote uint256.Int
}

// New builds a Balance, rejecting values wider than 128 bits.
func New(base, quote *uint256.Int) (Balance, error) {
	if !FitsU128(base) || !FitsU128(quote) {
		return Balance{}, ErrOverflow
	}
	return Balance{Base: *base, Quote: *quote}, nil
}

// FitsU128 reports whether x is representable as an unsigned 128-bit integer.
func FitsU128(x *uint256.Int) bool {
	return x.BitLen() <= 128
}

// FeeOf returns floor(amount * 30 / 10000).
func FeeOf(amount *uint256.Int) (*uint256.Int, error) {
	if !FitsU128(amount) {
		return nil, ErrOverflow
	}
	fee := new(uint256.Int).Mul(amount, feeNumerator)
	return fee.Div(fee, feeDenominator), nil
}

// BaseForQuote returns the amount of base that quoteIn buys at the current reserves.
func (b Balance) BaseForQuote(quoteIn *uint256.Int) (*uint256.Int, error) {
	return amountOut(&b.Base, &b.Quote, quoteIn)
}

// QuoteForBase returns the amount of quote that baseIn sells for at the current reserves.
func (b Balance) QuoteForBase(baseIn *uint256.Int) (*uint256.Int, error) {
	return amountOut(&b.Quote, &b.Base, baseIn)
}

// amountOut computes floor(reserveOut * in / (reserveIn + in)).
func amountOut(reserveOut, reserveIn, in *uint256.Int) (*uint256.Int, error) {
	if !FitsU128(in) {
		return nil, ErrOverflow
	}
	if in.IsZero() {
		return new(uint256.Int), nil
	}
	denominator := new(uint256.Int).Add(reserveIn, in)
	if !FitsU128(denominator) {
		return nil, ErrOverflow
	}
	if denominator.IsZero() {
		return nil, ErrDivideByZero
	}
	// both factors are at most 128 bits wide, the product cannot leave 256 bits
	numerator := new(uint256.Int).Mul(reserveOut, in)
	return numerator.Div(numerator, denominator), nil
}

// ApplyBuyForQuote returns the balance after quoteIn is paid into the pool and the
// purchased base leaves it, together with the purchased base amount.
func (b Balance) ApplyBuyForQuote(quoteIn *uint256.Int) (Balance, *uint256.Int, error) {
	baseOut, err := b.BaseForQuote(quoteIn)
	if err != nil {
		return b, nil, err
	}
	if !baseOut.Lt(&b.Base) {
		return b, nil, ErrInsufficientReserve
	}

	next := b
	if err := addU128(&next.Quote, quoteIn); err != nil {
		return b, nil, err
	}
	next.Base.Sub(&b.Base, baseOut)

	return next, baseOut, nil
}

// ApplySellBase returns the balance after baseIn is paid into the pool and the
// resulting quote leaves it, together with the quote amount paid out.
func (b Balance) ApplySellBase(baseIn *uint256.Int) (Balance, *uint256.Int, error) {
	quoteOut, err := b.QuoteForBase(baseIn)
	if err != nil {
		return b, nil, err
	}
	if !quoteOut.Lt(&b.Quote) {
		return b, nil, ErrInsufficientReserve
	}

	next := b
	if err := addU128(&next.Base, baseIn); err != nil {
		return b, nil, err
	}
	next.Quote.Sub(&b.Quote, quoteOut)

	return next, quoteOut, nil
}

// ApplyBuyBase buys approximately baseAmount by paying its current quote value.
func (b Balance) ApplyBuyBase(baseAmount *uint256.Int) (Balance, *uint256.Int, error) {
	quoteIn, err := b.QuoteForBase(baseAmount)
	if err != nil {
		return b, nil, err
	}
	return b.ApplyBuyForQuote(quoteIn)
}

// ApplySellBaseForQuote sells the base amount currently worth quoteAmount.
func (b Balance) ApplySellBaseForQuote(quoteAmount *uint256.Int) (Balance, *uint256.Int, error) {
	baseIn, err := b.BaseForQuote(quoteAmount)
	if err != nil {
		return b, nil, err
	}
	return b.ApplySellBase(baseIn)
}

func (b Balance) HasEnoughQuote(quote *uint256.Int) bool {
	return !b.Quote.Lt(quote)
}

func (b Balance) HasEnoughBase(base *uint256.Int) bool {
	return !b.Base.Lt(base)
}

// Product returns base * quote.
func (b Balance) Product() *uint256.Int {
	return new(uint256.Int).Mul(&b.Base, &b.Quote)
}

func addU128(dst, x *uint256.Int) error {
	sum := new(uint256.Int).Add(dst, x)
	if !FitsU128(sum) {
		return ErrOverflow
	}
	dst.Set(sum)
	return nil
}
