package types

import "github.com/gagliardetto/solana-go"

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

type Trade struct {
	Pool        *solana.PublicKey `json:"pool"`
	Mint        *solana.PublicKey `json:"mint"`
	Customer    *solana.PublicKey `json:"customer"`
	Action      string            `json:"action"`
	QuoteAmount string            `json:"quoteAmount"`
	BaseAmount  string            `json:"baseAmount"`
	Fee         string            `json:"fee"`
	Timestamp   int64             `json:"timestamp"`
}
