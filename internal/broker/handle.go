package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownPriceSource rejects a pricer swap to a source that is
	// neither "simulated" nor "external".
	ErrUnknownPriceSource = errors.New("unknown price source")

	// ErrExternalPricerUnavailable rejects a swap to the external price
	// source when none is configured or it cannot be built.
	ErrExternalPricerUnavailable = errors.New("external price source unavailable")
)

// Handle is the process-wide, swappable reference to the active broker
// backend. All request handling goes through a Handle so an operator can
// replace the backend or its price source at runtime without racing
// in-flight calls.
type Handle struct {
	mu     sync.RWMutex
	active Broker

	// external builds the external price source on demand. Nil when no
	// external pricing is configured.
	external func() (Pricer, error)
}

// NewHandle wraps the given backend. external may be nil.
func NewHandle(active Broker, external func() (Pricer, error)) *Handle {
	return &Handle{active: active, external: external}
}

// Broker returns the current backend.
func (h *Handle) Broker() Broker {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active
}

// Swap replaces the active backend. In-flight calls complete against the
// backend they started with.
func (h *Handle) Swap(b Broker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = b
}

// Name reports the active backend's identifier.
func (h *Handle) Name() string {
	return h.Broker().Name()
}

// LTP delegates to the active backend.
func (h *Handle) LTP(ctx context.Context, symbol string) (float64, error) {
	return h.Broker().LTP(ctx, symbol)
}

// PlaceOrder delegates to the active backend.
func (h *Handle) PlaceOrder(ctx context.Context, req OrderRequest) (*Confirmation, error) {
	return h.Broker().PlaceOrder(ctx, req)
}

// CancelOrder delegates to the active backend.
func (h *Handle) CancelOrder(ctx context.Context, orderID string) (*CancelResult, error) {
	return h.Broker().CancelOrder(ctx, orderID)
}

// SwapPricer replaces the active backend's price source by name. It fails
// with ErrPricerUnsupported when the backend does not carry a swappable
// pricer, and with ErrUnknownPriceSource for unrecognized names. The swap
// affects subsequent LTP calls only.
func (h *Handle) SwapPricer(source string) error {
	carrier, ok := h.Broker().(PricerCarrier)
	if !ok {
		return ErrPricerUnsupported
	}

	switch source {
	case "simulated":
		carrier.SetPricer(nil)
	case "external":
		if h.external == nil {
			return fmt.Errorf("%w: not configured", ErrExternalPricerUnavailable)
		}
		pricer, err := h.external()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExternalPricerUnavailable, err)
		}
		carrier.SetPricer(pricer)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPriceSource, source)
	}
	return nil
}
