package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iqbalbaharum/constant-product-pool/internal/balance"
)

func TestFromBalanceError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{balance.ErrOverflow, CodeArithmeticOverflow},
		{balance.ErrDivideByZero, CodeArithmeticOverflow},
		{fmt.Errorf("buy: %w", balance.ErrInsufficientReserve), CodeInsufficientFunds},
		{errors.New("unrelated"), 0},
	}
	for _, test := range tests {
		err := FromBalanceError(test.err)
		require.Equal(t, test.want, CodeOf(err), test.err.Error())
		require.ErrorIs(t, err, test.err)
	}
}
