package handler

import (
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
)

func parseKey(name, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s %q: %v: %w", name, value, err, errBadRequest)
	}
	return key, nil
}

func parseAmount(name, value string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %v: %w", name, value, err, errBadRequest)
	}
	return amount, nil
}

func authorityParam(r *http.Request) (solana.PublicKey, error) {
	return parseKey("authority", chi.URLParam(r, "authority"))
}
