package trading

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/nakulchoubisa/option-sell-bot/internal/broker"
	"github.com/nakulchoubisa/option-sell-bot/internal/pnl"
	"github.com/nakulchoubisa/option-sell-bot/internal/types"
	"github.com/nakulchoubisa/option-sell-bot/pkg/response"
)

// Service coordinates order placement and position lifecycle: it routes
// orders through the active broker backend and keeps the durable
// position/order records consistent with each fill.
type Service struct {
	db     *Database
	broker *broker.Handle

	// symLocks serializes the read-modify-write of a position's quantity
	// and average price per symbol. The broker call stays inside the
	// critical section because simulated backends mutate local bookkeeping
	// alongside the fill.
	mu       sync.Mutex
	symLocks map[string]*sync.Mutex
}

// NewService creates a trading service over the given database connection
// and broker handle.
func NewService(gormDB *gorm.DB, h *broker.Handle) *Service {
	return &Service{
		db:       NewDatabase(gormDB),
		broker:   h,
		symLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.symLocks[symbol]
	if !ok {
		l = &sync.Mutex{}
		s.symLocks[symbol] = l
	}
	return l
}

// PlaceOrder executes an order through the broker and records the fill
// against the symbol's open position, creating one if none exists. The
// position upsert and the order insert are a single atomic write.
func (s *Service) PlaceOrder(ctx context.Context, req broker.OrderRequest) (*types.PlaceOrderResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lock := s.symbolLock(req.Symbol)
	lock.Lock()
	defer lock.Unlock()

	conf, err := s.broker.PlaceOrder(ctx, req)
	if err != nil {
		if errors.Is(err, broker.ErrInvalidOrder) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", broker.ErrBroker, err)
	}

	price := 0.0
	if req.Price != nil {
		price = *req.Price
	}
	now := time.Now().UTC()

	pos, err := s.db.GetOpenPositionBySymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &types.Position{
			Symbol:   req.Symbol,
			Side:     req.Side,
			Qty:      req.Qty,
			AvgPrice: price,
			Status:   types.PositionOpen,
			OpenedAt: now,
		}
	} else {
		// Volume-weighted average over the running lot size. A zero total
		// would divide by zero, so the average is left unchanged; crossing
		// zero does not reset the cost basis.
		total := pos.Qty + req.Qty
		if total != 0 {
			pos.AvgPrice = (pos.AvgPrice*float64(pos.Qty) + price*float64(req.Qty)) / float64(total)
		}
		pos.Qty = total
	}

	// Simulated backends confirm FILLED immediately; the live backend
	// reports PLACED, which persists as PENDING until the venue fills.
	status := types.OrderFilled
	if conf.Status == types.OrderPlaced {
		status = types.OrderPending
	}
	order := &types.Order{
		Symbol:    req.Symbol,
		Side:      req.Side,
		Qty:       req.Qty,
		Price:     price,
		Status:    status,
		CreatedAt: now,
	}

	if err := s.db.ApplyFill(pos, order); err != nil {
		return nil, err
	}

	log.Info().
		Str("symbol", req.Symbol).
		Str("side", req.Side).
		Int("qty", req.Qty).
		Uint("position_id", pos.ID).
		Uint("order_id", order.ID).
		Msg("order recorded")

	return &types.PlaceOrderResponse{
		BrokerResponse: conf,
		PositionID:     pos.ID,
		OrderID:        order.ID,
	}, nil
}

// ClosePosition closes an open position at the current quote: it records a
// reversing FILLED order for the full open quantity, fixes the realized
// P&L, and marks the position CLOSED, all in one atomic write. A pricing
// failure falls back to the position's own average price rather than
// failing the close.
func (s *Service) ClosePosition(ctx context.Context, positionID uint) (*types.ClosePositionResponse, error) {
	pos, err := s.db.GetPosition(positionID)
	if err != nil {
		return nil, err
	}
	if pos == nil || pos.Status == types.PositionClosed {
		return nil, types.ErrPositionNotFound
	}

	lock := s.symbolLock(pos.Symbol)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; a concurrent close may have won.
	pos, err = s.db.GetPosition(positionID)
	if err != nil {
		return nil, err
	}
	if pos == nil || pos.Status == types.PositionClosed {
		return nil, types.ErrPositionNotFound
	}

	ltp, err := s.broker.LTP(ctx, pos.Symbol)
	if err != nil {
		log.Warn().
			Err(err).
			Str("symbol", pos.Symbol).
			Float64("fallback", pos.AvgPrice).
			Msg("ltp unavailable, closing at average price")
		ltp = pos.AvgPrice
	}

	reverse := types.SideSell
	if pos.Side == types.SideSell {
		reverse = types.SideBuy
	}

	var realized float64
	if pos.Side == types.SideBuy {
		realized = (ltp - pos.AvgPrice) * float64(pos.Qty)
	} else {
		realized = (pos.AvgPrice - ltp) * float64(pos.Qty)
	}

	now := time.Now().UTC()
	exit := &types.Order{
		Symbol:    pos.Symbol,
		Side:      reverse,
		Qty:       pos.Qty,
		Price:     ltp,
		Status:    types.OrderFilled,
		CreatedAt: now,
	}

	pos.Status = types.PositionClosed
	pos.ClosePrice = &ltp
	pos.ClosedAt = &now
	pos.Realized = &realized

	if err := s.db.CloseWithExit(pos, exit); err != nil {
		return nil, err
	}

	log.Info().
		Uint("position_id", pos.ID).
		Str("symbol", pos.Symbol).
		Float64("close_price", ltp).
		Float64("realized", realized).
		Msg("position closed")

	return &types.ClosePositionResponse{
		ID:          pos.ID,
		Symbol:      pos.Symbol,
		Side:        pos.Side,
		Qty:         pos.Qty,
		AvgPrice:    pos.AvgPrice,
		ClosePrice:  ltp,
		Realized:    realized,
		Status:      pos.Status,
		ClosedAt:    now,
		ExitOrderID: exit.ID,
	}, nil
}

// LTP returns the active backend's quote for a symbol.
func (s *Service) LTP(ctx context.Context, symbol string) (float64, error) {
	return s.broker.LTP(ctx, symbol)
}

// CancelOrder forwards a cancel request to the active backend.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*broker.CancelResult, error) {
	return s.broker.CancelOrder(ctx, orderID)
}

// Mode reports the active backend's name.
func (s *Service) Mode() string {
	return s.broker.Name()
}

// SwapPricer replaces the active price source by name.
func (s *Service) SwapPricer(source string) error {
	return s.broker.SwapPricer(source)
}

// ListPositions returns all durable position records.
func (s *Service) ListPositions() ([]types.Position, error) {
	return s.db.ListPositions()
}

// ListOrders returns all durable order records.
func (s *Service) ListOrders() ([]types.Order, error) {
	return s.db.ListOrders()
}

// DailyPnL computes the aggregate P&L summary for positions opened today
// (IST calendar day), marking open exposure against live quotes.
func (s *Service) DailyPnL(ctx context.Context) (*pnl.DailySummary, error) {
	positions, err := s.db.ListPositions()
	if err != nil {
		return nil, err
	}
	ltpFn := func(symbol string) (float64, error) {
		return s.broker.LTP(ctx, symbol)
	}
	return pnl.ComputeDaily(time.Now().UTC(), positions, s.db.GetOrdersForPosition, ltpFn)
}

// GinHandlers contains HTTP handlers for the broker and trading endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for trading endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// PlaceOrderHandler handles POST requests to place orders
// Request body should contain the order details
func (h *GinHandlers) PlaceOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req broker.OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.service.PlaceOrder(c.Request.Context(), req)
		response.Handle(c, result, err)
	}
}

// ClosePositionHandler handles POST requests to close an open position
// URL parameter: id
func (h *GinHandlers) ClosePositionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var uri struct {
			ID uint `uri:"id" binding:"required"`
		}
		if err := c.ShouldBindUri(&uri); err != nil {
			response.BadRequest(c, "Invalid position id")
			return
		}

		result, err := h.service.ClosePosition(c.Request.Context(), uri.ID)
		response.Handle(c, result, err)
	}
}

// LTPHandler handles GET requests for a symbol's last traded price
// Query parameter: symbol
func (h *GinHandlers) LTPHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Query("symbol")
		if symbol == "" {
			response.BadRequest(c, "symbol query parameter is required")
			return
		}

		ltp, err := h.service.LTP(c.Request.Context(), symbol)
		response.Handle(c, types.LTPResponse{Symbol: symbol, LTP: ltp}, err)
	}
}

// ModeHandler handles GET requests for the active broker backend name
func (h *GinHandlers) ModeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, types.BrokerModeResponse{Broker: h.service.Mode()})
	}
}

// ListPositionsHandler handles GET requests for all position records
func (h *GinHandlers) ListPositionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		positions, err := h.service.ListPositions()
		response.Handle(c, positions, err)
	}
}

// ListOrdersHandler handles GET requests for all order records
func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := h.service.ListOrders()
		response.Handle(c, orders, err)
	}
}

// DailyPnLHandler handles GET requests for today's P&L summary
func (h *GinHandlers) DailyPnLHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := h.service.DailyPnL(c.Request.Context())
		response.Handle(c, summary, err)
	}
}

// CancelOrderHandler handles POST requests to cancel a broker-side order
// URL parameter: order_id
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		if orderID == "" {
			response.BadRequest(c, "Order ID is required")
			return
		}

		result, err := h.service.CancelOrder(c.Request.Context(), orderID)
		response.Handle(c, result, err)
	}
}

// SwapPricerHandler handles POST requests to replace the active price source
// Request body: {"source": "simulated" | "external"}
func (h *GinHandlers) SwapPricerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Source string `json:"source" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.SwapPricer(body.Source); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, types.PricerSwapResponse{OK: true, Source: body.Source})
	}
}
