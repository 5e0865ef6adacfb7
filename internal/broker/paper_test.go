package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

type stubPricer struct {
	price float64
	err   error
}

func (p stubPricer) LTP(_ context.Context, _ string) (float64, error) {
	return p.price, p.err
}

func TestPaperBrokerDefaultPricer(t *testing.T) {
	b := NewPaperBroker(nil)

	if got := b.PricerName(); got != "simulated" {
		t.Errorf("PricerName() = %q, want %q", got, "simulated")
	}
	px, err := b.LTP(context.Background(), "NSE:INFY")
	if err != nil {
		t.Fatalf("LTP: %v", err)
	}
	if px != mockPrice {
		t.Errorf("LTP = %v, want fallback %v", px, mockPrice)
	}
}

func TestPaperBrokerDelegatesToPricer(t *testing.T) {
	b := NewPaperBroker(stubPricer{price: 245.75})

	px, err := b.LTP(context.Background(), "NSE:INFY")
	if err != nil {
		t.Fatalf("LTP: %v", err)
	}
	if px != 245.75 {
		t.Errorf("LTP = %v, want 245.75", px)
	}
	if got := b.PricerName(); got != "external" {
		t.Errorf("PricerName() = %q, want %q", got, "external")
	}
}

func TestPaperBrokerPricerErrorPropagates(t *testing.T) {
	wantErr := errors.New("quote feed down")
	b := NewPaperBroker(stubPricer{err: wantErr})

	if _, err := b.LTP(context.Background(), "NSE:INFY"); !errors.Is(err, wantErr) {
		t.Errorf("LTP error = %v, want wrapped %v", err, wantErr)
	}
}

func TestPaperBrokerSwapAffectsSubsequentCalls(t *testing.T) {
	b := NewPaperBroker(nil)
	ctx := context.Background()

	before, _ := b.LTP(ctx, "NSE:INFY")
	if before != mockPrice {
		t.Fatalf("pre-swap LTP = %v, want %v", before, mockPrice)
	}

	b.SetPricer(stubPricer{price: 512})
	after, err := b.LTP(ctx, "NSE:INFY")
	if err != nil {
		t.Fatalf("LTP: %v", err)
	}
	if after != 512 {
		t.Errorf("post-swap LTP = %v, want 512", after)
	}

	b.SetPricer(nil)
	restored, _ := b.LTP(ctx, "NSE:INFY")
	if restored != mockPrice {
		t.Errorf("restored LTP = %v, want %v", restored, mockPrice)
	}
}

func TestPaperBrokerBooksMarketOrderAtQuote(t *testing.T) {
	b := NewPaperBroker(stubPricer{price: 321})

	conf, err := b.PlaceOrder(context.Background(), OrderRequest{
		Symbol: "NSE:INFY",
		Side:   types.SideSell,
		Qty:    25,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if conf.Status != types.OrderFilled {
		t.Errorf("Status = %q, want FILLED", conf.Status)
	}

	b.book.mu.Lock()
	defer b.book.mu.Unlock()
	if len(b.book.positions) != 1 {
		t.Fatalf("expected 1 venue-side position, got %d", len(b.book.positions))
	}
	if got := b.book.positions[0].AvgPrice; got != 321 {
		t.Errorf("venue-side avg price = %v, want quote 321", got)
	}
}
