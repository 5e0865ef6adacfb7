package types

import (
	"time"
)

// Order sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order types.
const (
	OrderTypeMarket = "MARKET"
	OrderTypeLimit  = "LIMIT"
)

// Position statuses.
const (
	PositionOpen   = "OPEN"
	PositionClosed = "CLOSED"
)

// Order statuses. PLACED is the broker-side acknowledgement for orders the
// venue has accepted but not yet confirmed filled; such orders persist as
// PENDING.
const (
	OrderFilled    = "FILLED"
	OrderCancelled = "CANCELLED"
	OrderRejected  = "REJECTED"
	OrderPending   = "PENDING"
	OrderPlaced    = "PLACED"
)

// Position is the durable record of aggregated holdings for one symbol.
// Qty and AvgPrice are the running net lot size and volume-weighted entry
// price across all fills recorded against the position. At most one OPEN
// position exists per symbol; the trading service reuses it for subsequent
// fills until it is explicitly closed.
//
// All timestamps are persisted in UTC.
type Position struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Symbol     string     `gorm:"index" json:"symbol"`
	Side       string     `json:"side"` // side of the opening action, BUY or SELL
	Qty        int        `json:"qty"`
	AvgPrice   float64    `json:"avg_price"`
	Status     string     `gorm:"index" json:"status"` // OPEN or CLOSED
	OpenedAt   time.Time  `json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	ClosePrice *float64   `json:"close_price,omitempty"`
	Realized   *float64   `json:"realized,omitempty"` // fixed at close

	Orders []Order `gorm:"foreignKey:PositionID;constraint:OnDelete:CASCADE" json:"-"`
}

// Order is a single fill recorded against a position. Orders are immutable
// once FILLED; CANCELLED and REJECTED orders are retained for audit but
// excluded from P&L aggregation.
type Order struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PositionID uint      `gorm:"index" json:"position_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Qty        int       `json:"qty"`
	Price      float64   `json:"price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
