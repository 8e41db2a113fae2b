package dto

type ConsumeRequest struct {
	Amount int64 `json:"amount"`
}

// AdjustRequest is the administrative grant/correction payload. Delta may
// be negative.
type AdjustRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

type BalanceResponse struct {
	CreditBalance int64 `json:"credit_balance"`
}
