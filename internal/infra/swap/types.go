package swap

// swapResponse is the SolanaTracker /swap response body.
type swapResponse struct {
	Txn   string    `json:"txn"`  // base64 serialized transaction
	Type  string    `json:"type"` // "v0" or "legacy"
	Rate  *swapRate `json:"rate,omitempty"`
	Error string    `json:"error,omitempty"`
}

type swapRate struct {
	AmountIn       float64 `json:"amountIn"`
	AmountOut      float64 `json:"amountOut"`
	MinAmountOut   float64 `json:"minAmountOut"`
	PriceImpact    float64 `json:"priceImpact"`
	PlatformFeeUI  float64 `json:"platformFeeUI"`
	ExecutionPrice float64 `json:"executionPrice"`
}

type errorResponse struct {
	Error string `json:"error"`
}
