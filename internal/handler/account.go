package handler

import (
	"fmt"
	"net/http"

	"github.com/iqbalbaharum/constant-product-pool/internal/service"
	"github.com/iqbalbaharum/constant-product-pool/internal/utils"
)

type airdropRequest struct {
	Account  string `json:"account"`
	Lamports uint64 `json:"lamports"`
}

type airdropResponse struct {
	Account  string `json:"account"`
	Lamports uint64 `json:"lamports"`
}

type tokenAccountRequest struct {
	Authority string `json:"authority"`
	Customer  string `json:"customer"`
}

type tokenAccountResponse struct {
	TokenAccount string `json:"tokenAccount"`
}

type accountHandler struct {
	svc *service.Service
}

func NewAccountHandler(svc *service.Service) *accountHandler {
	return &accountHandler{svc: svc}
}

func (h *accountHandler) Airdrop(w http.ResponseWriter, r *http.Request) {
	req, err := utils.Decode[airdropRequest](r)
	if err != nil {
		writeError(w, r, fmt.Errorf("%v: %w", err, errBadRequest))
		return
	}
	account, err := parseKey("account", req.Account)
	if err != nil {
		writeError(w, r, err)
		return
	}

	lamports, err := h.svc.Airdrop(r.Context(), account, req.Lamports)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, airdropResponse{Account: account.String(), Lamports: lamports})
}

func (h *accountHandler) OpenTokenAccount(w http.ResponseWriter, r *http.Request) {
	req, err := utils.Decode[tokenAccountRequest](r)
	if err != nil {
		writeError(w, r, fmt.Errorf("%v: %w", err, errBadRequest))
		return
	}
	authority, err := parseKey("authority", req.Authority)
	if err != nil {
		writeError(w, r, err)
		return
	}
	customer, err := parseKey("customer", req.Customer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.svc.OpenTokenAccount(r.Context(), authority, customer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusCreated, tokenAccountResponse{TokenAccount: account.String()})
}
