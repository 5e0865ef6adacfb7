package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

func TestMockBrokerName(t *testing.T) {
	b := NewMockBroker()
	if got := b.Name(); got != "mock" {
		t.Errorf("MockBroker.Name() = %q, want %q", got, "mock")
	}
}

func TestMockBrokerLTP(t *testing.T) {
	b := NewMockBroker()
	px, err := b.LTP(context.Background(), "NSE:INFY")
	if err != nil {
		t.Fatalf("LTP: %v", err)
	}
	if px != mockPrice {
		t.Errorf("LTP = %v, want %v", px, mockPrice)
	}
}

func TestMockBrokerPlaceOrderFillsImmediately(t *testing.T) {
	b := NewMockBroker()
	price := 105.5
	conf, err := b.PlaceOrder(context.Background(), OrderRequest{
		Symbol:    "NSE:INFY",
		Side:      types.SideBuy,
		Qty:       10,
		OrderType: types.OrderTypeLimit,
		Price:     &price,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if conf.Status != types.OrderFilled {
		t.Errorf("Status = %q, want FILLED", conf.Status)
	}
	if conf.OrderID == "" {
		t.Error("expected a non-empty order id")
	}
	if conf.Product != "MIS" || conf.Variety != "regular" {
		t.Errorf("defaults not applied: product=%q variety=%q", conf.Product, conf.Variety)
	}
}

func TestMockBrokerRejectsInvalidOrders(t *testing.T) {
	b := NewMockBroker()
	ctx := context.Background()

	tests := []struct {
		name string
		req  OrderRequest
	}{
		{"limit without price", OrderRequest{Symbol: "NSE:INFY", Side: types.SideSell, Qty: 10, OrderType: types.OrderTypeLimit}},
		{"zero quantity", OrderRequest{Symbol: "NSE:INFY", Side: types.SideBuy, Qty: 0}},
		{"negative quantity", OrderRequest{Symbol: "NSE:INFY", Side: types.SideBuy, Qty: -5}},
		{"bad side", OrderRequest{Symbol: "NSE:INFY", Side: "HOLD", Qty: 10}},
		{"missing symbol", OrderRequest{Side: types.SideBuy, Qty: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.PlaceOrder(ctx, tt.req); !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("PlaceOrder error = %v, want ErrInvalidOrder", err)
			}
		})
	}
}

func TestMockBrokerCancelIsIdempotent(t *testing.T) {
	b := NewMockBroker()
	ctx := context.Background()

	conf, err := b.PlaceOrder(ctx, OrderRequest{
		Symbol: "NSE:INFY",
		Side:   types.SideBuy,
		Qty:    5,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	first, err := b.CancelOrder(ctx, conf.OrderID)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if first.Status != types.OrderCancelled {
		t.Errorf("first cancel status = %q, want CANCELLED", first.Status)
	}

	second, err := b.CancelOrder(ctx, conf.OrderID)
	if err != nil {
		t.Fatalf("second CancelOrder should not error, got %v", err)
	}
	if second.Status != types.OrderCancelled {
		t.Errorf("second cancel status = %q, want CANCELLED", second.Status)
	}
	if second.Message == "" {
		t.Error("second cancel should carry a descriptive message")
	}
}

func TestMockBrokerCancelUnknownOrder(t *testing.T) {
	b := NewMockBroker()
	result, err := b.CancelOrder(context.Background(), "no-such-order")
	if err != nil {
		t.Fatalf("CancelOrder on unknown id should not error, got %v", err)
	}
	if result.Status != "NOT_FOUND" {
		t.Errorf("Status = %q, want NOT_FOUND", result.Status)
	}
}
