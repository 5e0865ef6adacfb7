package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Compile-time interface checks.
var (
	_ Broker        = (*PaperBroker)(nil)
	_ PricerCarrier = (*PaperBroker)(nil)
)

// staticPricer quotes the fixed placeholder price for every symbol. It is
// the paper backend's default price source.
type staticPricer struct{}

func (staticPricer) LTP(_ context.Context, _ string) (float64, error) {
	return mockPrice, nil
}

// PaperBroker simulates fills like MockBroker but prices against a
// configurable source, so paper trades can be marked against real quotes.
// The price source may be swapped at runtime.
type PaperBroker struct {
	book *simBook

	mu         sync.RWMutex
	pricer     Pricer
	pricerName string
}

// NewPaperBroker creates a PaperBroker. A nil pricer falls back to the
// fixed placeholder quote.
func NewPaperBroker(pricer Pricer) *PaperBroker {
	b := &PaperBroker{book: newSimBook()}
	b.SetPricer(pricer)
	return b
}

// Name returns "paper".
func (b *PaperBroker) Name() string {
	return "paper"
}

// SetPricer replaces the active price source. Passing nil restores the
// placeholder quote. Safe to call concurrently with in-flight LTP calls.
func (b *PaperBroker) SetPricer(p Pricer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p == nil {
		b.pricer = staticPricer{}
		b.pricerName = "simulated"
		return
	}
	b.pricer = p
	b.pricerName = "external"
	if named, ok := p.(interface{ Name() string }); ok {
		b.pricerName = named.Name()
	}
}

// PricerName reports the active price source.
func (b *PaperBroker) PricerName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pricerName
}

// LTP delegates to the active price source.
func (b *PaperBroker) LTP(ctx context.Context, symbol string) (float64, error) {
	b.mu.RLock()
	pricer := b.pricer
	b.mu.RUnlock()

	px, err := pricer.LTP(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("paper pricer: %w", err)
	}
	return px, nil
}

// PlaceOrder synthesizes an immediately FILLED confirmation. Orders without
// an explicit price are booked at the current quote.
func (b *PaperBroker) PlaceOrder(ctx context.Context, req OrderRequest) (*Confirmation, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	avg := mockPrice
	if req.Price != nil {
		avg = *req.Price
	} else if px, err := b.LTP(ctx, req.Symbol); err == nil {
		avg = px
	}
	conf := b.book.fill(req, avg)

	log.Debug().
		Str("broker", b.Name()).
		Str("pricer", b.PricerName()).
		Str("order_id", conf.OrderID).
		Str("symbol", req.Symbol).
		Str("side", req.Side).
		Int("qty", req.Qty).
		Msg("paper fill")

	return conf, nil
}

// CancelOrder is idempotent from the caller's perspective.
func (b *PaperBroker) CancelOrder(_ context.Context, orderID string) (*CancelResult, error) {
	return b.book.cancel(orderID), nil
}
