package types

import "time"

// PlaceOrderResponse is returned by the order placement endpoint. The broker
// confirmation is surfaced untouched alongside the ids of the durable
// records written for it.
type PlaceOrderResponse struct {
	BrokerResponse interface{} `json:"broker_response"`
	PositionID     uint        `json:"position_id"`
	OrderID        uint        `json:"order_id"`
}

// ClosePositionResponse summarizes a position after it has been closed out.
type ClosePositionResponse struct {
	ID          uint      `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Qty         int       `json:"qty"`
	AvgPrice    float64   `json:"avg_price"`
	ClosePrice  float64   `json:"close_price"`
	Realized    float64   `json:"realized"`
	Status      string    `json:"status"`
	ClosedAt    time.Time `json:"closed_at"`
	ExitOrderID uint      `json:"exit_order_id"`
}

// LTPResponse carries a last-traded-price quote.
type LTPResponse struct {
	Symbol string  `json:"symbol"`
	LTP    float64 `json:"ltp"`
}

// BrokerModeResponse reports the active broker backend.
type BrokerModeResponse struct {
	Broker string `json:"broker"`
}

// PricerSwapResponse acknowledges a price source swap.
type PricerSwapResponse struct {
	OK     bool   `json:"ok"`
	Source string `json:"source"`
}
