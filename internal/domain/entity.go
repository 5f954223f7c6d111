package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapRecord is one journaled swap action
type SwapRecord struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	RunID     string          `gorm:"index" json:"run_id"`
	Cycle     int             `json:"cycle"`
	Side      Side            `json:"side"`
	FromAsset string          `json:"from_asset"`
	ToAsset   string          `json:"to_asset"`
	Amount    decimal.Decimal `gorm:"type:text" json:"amount"`
	TxID      string          `json:"tx_id"`
	Status    SwapStatus      `gorm:"index" json:"status"`
	Error     string          `json:"error,omitempty"`
	LatencyMS int64           `json:"latency_ms"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}
