package broker

import (
	"context"
	"errors"
	"testing"
)

func TestHandleSwapBroker(t *testing.T) {
	h := NewHandle(NewMockBroker(), nil)
	if got := h.Name(); got != "mock" {
		t.Fatalf("Name() = %q, want %q", got, "mock")
	}

	h.Swap(NewPaperBroker(nil))
	if got := h.Name(); got != "paper" {
		t.Errorf("Name() after swap = %q, want %q", got, "paper")
	}
}

func TestHandleSwapPricerUnsupportedBackend(t *testing.T) {
	h := NewHandle(NewMockBroker(), nil)
	if err := h.SwapPricer("simulated"); !errors.Is(err, ErrPricerUnsupported) {
		t.Errorf("SwapPricer on mock = %v, want ErrPricerUnsupported", err)
	}
}

func TestHandleSwapPricerUnknownSource(t *testing.T) {
	h := NewHandle(NewPaperBroker(nil), nil)
	if err := h.SwapPricer("astrology"); !errors.Is(err, ErrUnknownPriceSource) {
		t.Errorf("SwapPricer = %v, want ErrUnknownPriceSource", err)
	}
}

func TestHandleSwapPricerExternal(t *testing.T) {
	paper := NewPaperBroker(nil)
	h := NewHandle(paper, func() (Pricer, error) {
		return stubPricer{price: 777}, nil
	})

	if err := h.SwapPricer("external"); err != nil {
		t.Fatalf("SwapPricer(external): %v", err)
	}
	px, err := h.LTP(context.Background(), "NSE:INFY")
	if err != nil {
		t.Fatalf("LTP: %v", err)
	}
	if px != 777 {
		t.Errorf("LTP = %v, want 777 from swapped pricer", px)
	}

	if err := h.SwapPricer("simulated"); err != nil {
		t.Fatalf("SwapPricer(simulated): %v", err)
	}
	px, _ = h.LTP(context.Background(), "NSE:INFY")
	if px != mockPrice {
		t.Errorf("LTP = %v, want placeholder %v after reverting", px, mockPrice)
	}
}

func TestHandleSwapPricerExternalNotConfigured(t *testing.T) {
	h := NewHandle(NewPaperBroker(nil), nil)
	if err := h.SwapPricer("external"); !errors.Is(err, ErrExternalPricerUnavailable) {
		t.Errorf("SwapPricer(external) = %v, want ErrExternalPricerUnavailable", err)
	}
}

func TestHandleSwapPricerExternalBuildFailure(t *testing.T) {
	h := NewHandle(NewPaperBroker(nil), func() (Pricer, error) {
		return nil, errors.New("credentials missing")
	})
	if err := h.SwapPricer("external"); !errors.Is(err, ErrExternalPricerUnavailable) {
		t.Errorf("SwapPricer(external) = %v, want ErrExternalPricerUnavailable", err)
	}
}
