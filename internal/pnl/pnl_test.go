package pnl

import (
	"errors"
	"testing"
	"time"

	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

func fixedPrice(px float64) PriceFunc {
	return func(string) (float64, error) { return px, nil }
}

func TestComputePositionWeightedAverages(t *testing.T) {
	pos := &types.Position{ID: 1, Symbol: "NSE:INFY", Status: types.PositionOpen}
	orders := []types.Order{
		{Side: types.SideBuy, Qty: 10, Price: 100, Status: types.OrderFilled},
		{Side: types.SideBuy, Qty: 10, Price: 200, Status: types.OrderFilled},
	}

	snap, err := ComputePosition(pos, orders, fixedPrice(180))
	if err != nil {
		t.Fatalf("ComputePosition: %v", err)
	}

	if snap.AvgBuy != 150 {
		t.Errorf("AvgBuy = %v, want 150", snap.AvgBuy)
	}
	if snap.AvgSell != 0 {
		t.Errorf("AvgSell = %v, want 0", snap.AvgSell)
	}
	if snap.Realized != 0 {
		t.Errorf("Realized = %v, want 0 with no sells", snap.Realized)
	}
	if snap.NetQty != -20 {
		t.Errorf("NetQty = %v, want -20 (net long)", snap.NetQty)
	}
	// long exposure marked at 180 against avg 150
	if snap.MTM != 600 {
		t.Errorf("MTM = %v, want 600", snap.MTM)
	}
	if snap.Total != 600 {
		t.Errorf("Total = %v, want 600", snap.Total)
	}
}

func TestComputePositionExcludesCancelledAndRejected(t *testing.T) {
	pos := &types.Position{ID: 1, Symbol: "NSE:INFY", Status: types.PositionOpen}
	orders := []types.Order{
		{Side: types.SideBuy, Qty: 10, Price: 100, Status: types.OrderFilled},
		{Side: types.SideBuy, Qty: 99, Price: 500, Status: types.OrderCancelled},
		{Side: types.SideSell, Qty: 40, Price: 300, Status: types.OrderRejected},
	}

	snap, err := ComputePosition(pos, orders, fixedPrice(100))
	if err != nil {
		t.Fatalf("ComputePosition: %v", err)
	}

	if snap.AvgBuy != 100 {
		t.Errorf("AvgBuy = %v, want 100", snap.AvgBuy)
	}
	if snap.AvgSell != 0 {
		t.Errorf("AvgSell = %v, want 0", snap.AvgSell)
	}
	if snap.NetQty != -10 {
		t.Errorf("NetQty = %v, want -10", snap.NetQty)
	}
}

func TestComputePositionShortMTM(t *testing.T) {
	pos := &types.Position{ID: 2, Symbol: "NFO:NIFTY24SEP25000CE", Status: types.PositionOpen}
	orders := []types.Order{
		{Side: types.SideSell, Qty: 50, Price: 100, Status: types.OrderFilled},
	}

	snap, err := ComputePosition(pos, orders, fixedPrice(80))
	if err != nil {
		t.Fatalf("ComputePosition: %v", err)
	}

	if snap.NetQty != 50 {
		t.Errorf("NetQty = %v, want 50 (net short)", snap.NetQty)
	}
	// short 50 @ 100 marked at 80: gain of 20 per unit
	if snap.MTM != 1000 {
		t.Errorf("MTM = %v, want 1000", snap.MTM)
	}
	if snap.Realized != 0 {
		t.Errorf("Realized = %v, want 0", snap.Realized)
	}
}

func TestComputePositionLongLoss(t *testing.T) {
	pos := &types.Position{ID: 3, Symbol: "NSE:SBIN", Status: types.PositionOpen}
	orders := []types.Order{
		{Side: types.SideBuy, Qty: 10, Price: 100, Status: types.OrderFilled},
	}

	snap, err := ComputePosition(pos, orders, fixedPrice(80))
	if err != nil {
		t.Fatalf("ComputePosition: %v", err)
	}

	if snap.MTM != -200 {
		t.Errorf("MTM = %v, want -200", snap.MTM)
	}
}

func TestComputePositionRoundTrip(t *testing.T) {
	pos := &types.Position{ID: 4, Symbol: "NSE:TCS", Status: types.PositionClosed}
	orders := []types.Order{
		{Side: types.SideBuy, Qty: 50, Price: 100, Status: types.OrderFilled},
		{Side: types.SideSell, Qty: 50, Price: 120, Status: types.OrderFilled},
	}

	snap, err := ComputePosition(pos, orders, fixedPrice(120))
	if err != nil {
		t.Fatalf("ComputePosition: %v", err)
	}

	if snap.Realized != 1000 {
		t.Errorf("Realized = %v, want 1000", snap.Realized)
	}
	if snap.NetQty != 0 {
		t.Errorf("NetQty = %v, want 0", snap.NetQty)
	}
	if snap.MTM != 0 {
		t.Errorf("MTM = %v, want 0 after close", snap.MTM)
	}
	if snap.Total != 1000 {
		t.Errorf("Total = %v, want 1000", snap.Total)
	}
}

func TestComputePositionPriceLookupError(t *testing.T) {
	pos := &types.Position{ID: 5, Symbol: "NSE:INFY", Status: types.PositionOpen}
	orders := []types.Order{
		{Side: types.SideBuy, Qty: 1, Price: 100, Status: types.OrderFilled},
	}

	wantErr := errors.New("venue down")
	_, err := ComputePosition(pos, orders, func(string) (float64, error) { return 0, wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("ComputePosition error = %v, want wrapped %v", err, wantErr)
	}
}

func TestComputeDailyEmpty(t *testing.T) {
	summary, err := ComputeDaily(time.Now().UTC(), nil, nil, fixedPrice(100))
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}

	if summary.Count != 0 {
		t.Errorf("Count = %d, want 0", summary.Count)
	}
	if summary.Realized != 0 || summary.MTM != 0 || summary.Total != 0 {
		t.Errorf("empty summary totals = %v/%v/%v, want zeros",
			summary.Realized, summary.MTM, summary.Total)
	}
	if summary.Positions == nil {
		t.Error("Positions should be an empty slice, not nil")
	}
}

func TestComputeDailyISTDayBoundary(t *testing.T) {
	// Reference instant: 2025-03-10 12:00 UTC, which is 17:30 IST.
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	positions := []types.Position{
		// 20:30 UTC the previous evening is already 02:00 IST on the 10th.
		{ID: 1, Symbol: "NSE:INFY", Status: types.PositionOpen,
			OpenedAt: time.Date(2025, 3, 9, 20, 30, 0, 0, time.UTC)},
		// 10:00 UTC same day, plainly the 10th in IST.
		{ID: 2, Symbol: "NSE:TCS", Status: types.PositionOpen,
			OpenedAt: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
		// 19:30 UTC on the 10th is past midnight IST, so the 11th.
		{ID: 3, Symbol: "NSE:SBIN", Status: types.PositionOpen,
			OpenedAt: time.Date(2025, 3, 10, 19, 30, 0, 0, time.UTC)},
	}

	ordersFor := func(positionID uint) ([]types.Order, error) {
		return []types.Order{
			{Side: types.SideBuy, Qty: 10, Price: 100, Status: types.OrderFilled},
		}, nil
	}

	summary, err := ComputeDaily(now, positions, ordersFor, fixedPrice(110))
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}

	if summary.Day != "2025-03-10" {
		t.Errorf("Day = %s, want 2025-03-10", summary.Day)
	}
	if summary.Count != 2 {
		t.Fatalf("Count = %d, want 2 (position 3 belongs to the next IST day)", summary.Count)
	}
	for _, snap := range summary.Positions {
		if snap.PositionID == 3 {
			t.Error("position 3 should be excluded from the 10th's summary")
		}
	}
	// each included position: long 10 @ 100 marked at 110
	if summary.MTM != 200 {
		t.Errorf("MTM = %v, want 200", summary.MTM)
	}
	if summary.Total != 200 {
		t.Errorf("Total = %v, want 200", summary.Total)
	}
}

func TestMatchedQuantityPartialClose(t *testing.T) {
	pos := &types.Position{ID: 6, Symbol: "NSE:INFY", Status: types.PositionOpen}
	orders := []types.Order{
		{Side: types.SideBuy, Qty: 30, Price: 100, Status: types.OrderFilled},
		{Side: types.SideSell, Qty: 10, Price: 130, Status: types.OrderFilled},
	}

	snap, err := ComputePosition(pos, orders, fixedPrice(120))
	if err != nil {
		t.Fatalf("ComputePosition: %v", err)
	}

	// matched 10 units at (130 - 100)
	if snap.Realized != 300 {
		t.Errorf("Realized = %v, want 300", snap.Realized)
	}
	if snap.NetQty != -20 {
		t.Errorf("NetQty = %v, want -20", snap.NetQty)
	}
	// remaining long 20 marked at 120 against avg buy 100
	if snap.MTM != 400 {
		t.Errorf("MTM = %v, want 400", snap.MTM)
	}
}
