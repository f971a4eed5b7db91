package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/iqbalbaharum/constant-product-pool/internal/service"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
	"github.com/iqbalbaharum/constant-product-pool/internal/utils"
)

type createPoolRequest struct {
	Authority          string `json:"authority"`
	TotalSupply        string `json:"totalSupply"`
	Decimals           uint8  `json:"decimals"`
	InitialQuoteAmount string `json:"initialQuoteAmount"`
}

type tradeRequest struct {
	Customer string `json:"customer"`
	Amount   string `json:"amount"`
}

type poolHandler struct {
	svc *service.Service
}

func NewPoolHandler(svc *service.Service) *poolHandler {
	return &poolHandler{svc: svc}
}

func (h *poolHandler) List(w http.ResponseWriter, r *http.Request) {
	pools, err := h.svc.Pools(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, pools)
}

func (h *poolHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := utils.Decode[createPoolRequest](r)
	if err != nil {
		writeError(w, r, fmt.Errorf("%v: %w", err, errBadRequest))
		return
	}

	authority, err := parseKey("authority", req.Authority)
	if err != nil {
		writeError(w, r, err)
		return
	}
	supply, err := parseAmount("totalSupply", req.TotalSupply)
	if err != nil {
		writeError(w, r, err)
		return
	}
	quote, err := parseAmount("initialQuoteAmount", req.InitialQuoteAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snapshot, err := h.svc.CreatePool(r.Context(), authority, supply, req.Decimals, quote)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusCreated, snapshot)
}

func (h *poolHandler) Get(w http.ResponseWriter, r *http.Request) {
	authority, err := authorityParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snapshot, err := h.svc.Pool(r.Context(), authority)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, snapshot)
}

func (h *poolHandler) Quote(w http.ResponseWriter, r *http.Request) {
	authority, err := authorityParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	quote, err := h.svc.Quote(r.Context(), authority, strings.ToUpper(r.URL.Query().Get("action")), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, quote)
}

func (h *poolHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, types.ActionBuy)
}

func (h *poolHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, types.ActionSell)
}

func (h *poolHandler) trade(w http.ResponseWriter, r *http.Request, action string) {
	authority, err := authorityParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := utils.Decode[tradeRequest](r)
	if err != nil {
		writeError(w, r, fmt.Errorf("%v: %w", err, errBadRequest))
		return
	}
	customer, err := parseKey("customer", req.Customer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var trade *types.Trade
	if action == types.ActionBuy {
		trade, err = h.svc.Buy(r.Context(), authority, customer, amount)
	} else {
		trade, err = h.svc.Sell(r.Context(), authority, customer, amount)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, trade)
}
