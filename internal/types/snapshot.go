package types

import "github.com/gagliardetto/solana-go"

// PoolSnapshot is the cached, JSON friendly view of a pool. Reserves are decimal strings.
type PoolSnapshot struct {
	Authority    solana.PublicKey `json:"authority"`
	State        solana.PublicKey `json:"state"`
	Mint         solana.PublicKey `json:"mint"`
	TokenPool    solana.PublicKey `json:"tokenPool"`
	NativePool   solana.PublicKey `json:"nativePool"`
	BaseReserve  string           `json:"baseReserve"`
	QuoteReserve string           `json:"quoteReserve"`
	LastUpdated  int64            `json:"lastUpdated"`
}

// Quote is the price of a trade against the current reserves.
type Quote struct {
	Action  string `json:"action"`
	Amount  string `json:"amount"`
	Return  string `json:"return"`
	Fee     string `json:"fee"`
	Product string `json:"product"`
}
