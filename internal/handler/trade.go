package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iqbalbaharum/constant-product-pool/internal/types"
	"github.com/iqbalbaharum/constant-product-pool/internal/utils"
)

type TradeStore interface {
	Search(ctx context.Context, filter types.MySQLFilter) ([]types.Trade, error)
	DeleteAll(ctx context.Context) error
}

type tradeHandler struct {
	store TradeStore
}

func NewTradeHandler(store TradeStore) *tradeHandler {
	return &tradeHandler{store: store}
}

func (h *tradeHandler) Get(w http.ResponseWriter, r *http.Request) {
	decoded, err := utils.Decode[types.MySQLFilter](r)

	if err != nil {
		writeError(w, r, fmt.Errorf("%v: %w", err, errBadRequest))
		return
	}

	trades, err := h.store.Search(r.Context(), decoded)

	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, trades)
}

func (h *tradeHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteAll(r.Context())

	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
