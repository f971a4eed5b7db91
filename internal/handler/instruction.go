package handler

import (
	"fmt"
	"net/http"

	"github.com/mr-tron/base58"

	"github.com/iqbalbaharum/constant-product-pool/internal/coder"
	"github.com/iqbalbaharum/constant-product-pool/internal/utils"
)

type decodeRequest struct {
	Data string `json:"data"`
}

type decodedInstruction struct {
	Instruction string `json:"instruction"`
	TotalSupply string `json:"totalSupply,omitempty"`
	Decimals    *uint8 `json:"decimals,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

type instructionHandler struct {
	coder *coder.PoolInstructionCoder
}

func NewInstructionHandler() *instructionHandler {
	return &instructionHandler{coder: coder.NewPoolInstructionCoder()}
}

// Decode parses base58 instruction data.
func (h *instructionHandler) Decode(w http.ResponseWriter, r *http.Request) {
	req, err := utils.Decode[decodeRequest](r)
	if err != nil {
		writeError(w, r, fmt.Errorf("%v: %w", err, errBadRequest))
		return
	}

	data, err := base58.Decode(req.Data)
	if err != nil {
		writeError(w, r, fmt.Errorf("data: %v: %w", err, errBadRequest))
		return
	}

	ix, err := h.coder.Decode(data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, describe(ix))
}

func describe(ix coder.PoolInstruction) decodedInstruction {
	switch ix := ix.(type) {
	case coder.Initialize:
		decimals := ix.Decimals
		return decodedInstruction{
			Instruction: "INITIALIZE",
			TotalSupply: ix.TotalSupply.Dec(),
			Decimals:    &decimals,
			Amount:      ix.InitialQuoteAmount.Dec(),
		}
	case coder.Buy:
		return decodedInstruction{Instruction: "BUY", Amount: ix.QuoteAmount.Dec()}
	case coder.Sell:
		return decodedInstruction{Instruction: "SELL", Amount: ix.BaseAmount.Dec()}
	}
	return decodedInstruction{}
}
