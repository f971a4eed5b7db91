package handler

import (
	"errors"
	"net/http"

	"github.com/iqbalbaharum/constant-product-pool/internal/bank"
	"github.com/iqbalbaharum/constant-product-pool/internal/service"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
	"github.com/iqbalbaharum/constant-product-pool/internal/utils"
)

const (
	ErrTimeout = "request timed out"
)

type errorResponse struct {
	Error string          `json:"error"`
	Code  types.ErrorCode `json:"code,omitempty"`
}

func statusOf(err error) int {
	switch types.CodeOf(err) {
	case types.CodeAddressMismatch, types.CodeMalformedInstruction, types.CodeInvalidAmount, types.CodeNotEnoughAccounts:
		return http.StatusBadRequest
	case types.CodeMissingSignature:
		return http.StatusUnauthorized
	case types.CodeUninitialized:
		return http.StatusNotFound
	case types.CodeAlreadyInitialized, types.CodeInsufficientFunds:
		return http.StatusConflict
	case types.CodeArithmeticOverflow:
		return http.StatusUnprocessableEntity
	}

	switch {
	case errors.Is(err, bank.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, bank.ErrAccountInUse):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnknownAction), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	select {
	case <-r.Context().Done():
		http.Error(w, ErrTimeout, http.StatusGatewayTimeout)
		return
	default:
	}

	utils.Encode(w, r, statusOf(err), errorResponse{Error: err.Error(), Code: types.CodeOf(err)})
}
