// Package broker defines the Broker interface and provides interchangeable
// backends for order routing: an in-memory mock, a paper-trading backend
// with a swappable price source, and a live Zerodha Kite client.
package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

var (
	// ErrInvalidOrder rejects a malformed order request before it reaches
	// any backend or the store.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrPriceUnavailable indicates the backend could not produce a quote
	// for the requested symbol.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrPricerUnsupported indicates the active backend does not carry a
	// swappable price source.
	ErrPricerUnsupported = errors.New("broker does not support pricer swap")

	// ErrBroker marks an opaque failure from the execution backend. It is
	// propagated to the caller without retry.
	ErrBroker = errors.New("broker error")
)

// Broker abstracts order routing and pricing so the same orchestration and
// P&L bookkeeping run against a zero-risk simulator or a real venue.
type Broker interface {
	// Name returns the backend identifier (e.g. "mock", "paper", "kite").
	Name() string

	// LTP returns the last traded price for an exchange-qualified symbol
	// such as "NSE:INFY".
	LTP(ctx context.Context, symbol string) (float64, error)

	// PlaceOrder submits an order for execution. Simulated backends return
	// an immediately FILLED confirmation; the live backend returns the
	// venue's order id with status PLACED.
	PlaceOrder(ctx context.Context, req OrderRequest) (*Confirmation, error)

	// CancelOrder requests cancellation of a broker-side order. Simulated
	// backends report a descriptive result even for unknown or already
	// terminal orders; the live backend propagates the venue's error.
	CancelOrder(ctx context.Context, orderID string) (*CancelResult, error)
}

// Pricer is the quote-only capability used by the paper backend.
type Pricer interface {
	LTP(ctx context.Context, symbol string) (float64, error)
}

// PricerCarrier is implemented by backends whose price source can be
// replaced at runtime. Call sites dispatch on this capability rather than
// inspecting the concrete backend type.
type PricerCarrier interface {
	SetPricer(p Pricer)
	PricerName() string
}

// OrderRequest carries the parameters of a single order placement.
type OrderRequest struct {
	Symbol    string   `json:"symbol" binding:"required"`
	Side      string   `json:"side" binding:"required"`
	Qty       int      `json:"qty" binding:"required"`
	OrderType string   `json:"order_type"`
	Price     *float64 `json:"price,omitempty"`
	Product   string   `json:"product"`
	Variety   string   `json:"variety"`
}

// Normalize fills in the defaults used across all backends.
func (r *OrderRequest) Normalize() {
	if r.OrderType == "" {
		r.OrderType = types.OrderTypeMarket
	}
	if r.Product == "" {
		r.Product = "MIS"
	}
	if r.Variety == "" {
		r.Variety = "regular"
	}
}

// Validate rejects malformed requests before any broker or store call.
func (r *OrderRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	}
	if r.Side != types.SideBuy && r.Side != types.SideSell {
		return fmt.Errorf("%w: side must be BUY or SELL, got %q", ErrInvalidOrder, r.Side)
	}
	if r.Qty <= 0 {
		return fmt.Errorf("%w: qty must be positive, got %d", ErrInvalidOrder, r.Qty)
	}
	if r.OrderType != types.OrderTypeMarket && r.OrderType != types.OrderTypeLimit {
		return fmt.Errorf("%w: order_type must be MARKET or LIMIT, got %q", ErrInvalidOrder, r.OrderType)
	}
	if r.OrderType == types.OrderTypeLimit && r.Price == nil {
		return fmt.Errorf("%w: LIMIT order requires price", ErrInvalidOrder)
	}
	return nil
}

// Confirmation is the ephemeral broker-side acknowledgement of a placed
// order. The durable Position/Order records remain the system of record.
type Confirmation struct {
	OrderID   string   `json:"order_id"`
	Symbol    string   `json:"symbol"`
	Side      string   `json:"side"`
	Qty       int      `json:"qty"`
	OrderType string   `json:"order_type"`
	Price     *float64 `json:"price,omitempty"`
	Product   string   `json:"product"`
	Variety   string   `json:"variety"`
	Status    string   `json:"status"` // FILLED (simulated) or PLACED (live)
	CreatedAt string   `json:"created_at"`
}

// CancelResult describes the outcome of a cancel request.
type CancelResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
