package broker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

// mockPrice is the placeholder quote returned when no price source is set.
const mockPrice = 100.0

// Compile-time interface check.
var _ Broker = (*MockBroker)(nil)

// brokerPosition mirrors the venue-side view of an open position. Simulated
// backends track these for their own bookkeeping only; the durable
// Position/Order rows written by the trading service are the system of
// record.
type brokerPosition struct {
	ID       int     `json:"id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Qty      int     `json:"qty"`
	AvgPrice float64 `json:"avg_price"`
	Status   string  `json:"status"`
	OpenedAt string  `json:"opened_at"`
}

// simBook holds the in-memory order and position books shared by the
// simulated backends.
type simBook struct {
	mu        sync.Mutex
	orders    map[string]*Confirmation
	positions []*brokerPosition
}

func newSimBook() *simBook {
	return &simBook{orders: make(map[string]*Confirmation)}
}

// fill records an immediately FILLED confirmation plus a venue-side
// position entry at the given average price.
func (bk *simBook) fill(req OrderRequest, avg float64) *Confirmation {
	bk.mu.Lock()
	defer bk.mu.Unlock()

	conf := &Confirmation{
		OrderID:   uuid.New().String(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Qty:       req.Qty,
		OrderType: req.OrderType,
		Price:     req.Price,
		Product:   req.Product,
		Variety:   req.Variety,
		Status:    types.OrderFilled,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	bk.orders[conf.OrderID] = conf

	bk.positions = append(bk.positions, &brokerPosition{
		ID:       len(bk.positions) + 1,
		Symbol:   req.Symbol,
		Side:     req.Side,
		Qty:      req.Qty,
		AvgPrice: avg,
		Status:   types.PositionOpen,
		OpenedAt: conf.CreatedAt,
	})
	return conf
}

// cancel marks a known order CANCELLED. Unknown or already terminal orders
// yield a descriptive result rather than an error.
func (bk *simBook) cancel(orderID string) *CancelResult {
	bk.mu.Lock()
	defer bk.mu.Unlock()

	o, ok := bk.orders[orderID]
	if !ok {
		return &CancelResult{
			OrderID: orderID,
			Status:  "NOT_FOUND",
			Message: "order not found",
		}
	}
	if o.Status == types.OrderCancelled {
		return &CancelResult{
			OrderID: orderID,
			Status:  types.OrderCancelled,
			Message: "order already cancelled",
		}
	}
	o.Status = types.OrderCancelled
	return &CancelResult{OrderID: orderID, Status: types.OrderCancelled}
}

// MockBroker simulates a brokerage entirely in memory. Every quote is a
// fixed placeholder and every order fills immediately.
type MockBroker struct {
	book *simBook
}

// NewMockBroker creates a MockBroker with empty order and position books.
func NewMockBroker() *MockBroker {
	return &MockBroker{book: newSimBook()}
}

// Name returns "mock".
func (b *MockBroker) Name() string {
	return "mock"
}

// LTP always returns the placeholder price.
func (b *MockBroker) LTP(_ context.Context, _ string) (float64, error) {
	return mockPrice, nil
}

// PlaceOrder synthesizes an immediately FILLED confirmation.
func (b *MockBroker) PlaceOrder(_ context.Context, req OrderRequest) (*Confirmation, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	avg := mockPrice
	if req.Price != nil {
		avg = *req.Price
	}
	conf := b.book.fill(req, avg)

	log.Debug().
		Str("broker", b.Name()).
		Str("order_id", conf.OrderID).
		Str("symbol", req.Symbol).
		Str("side", req.Side).
		Int("qty", req.Qty).
		Msg("simulated fill")

	return conf, nil
}

// CancelOrder is idempotent from the caller's perspective.
func (b *MockBroker) CancelOrder(_ context.Context, orderID string) (*CancelResult, error) {
	return b.book.cancel(orderID), nil
}
