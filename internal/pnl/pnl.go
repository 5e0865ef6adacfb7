// Package pnl computes realized and mark-to-market profit-and-loss over
// recorded fills using an average-cost model: a single volume-weighted
// average price per side, with realized P&L on the matched quantity and MTM
// on the unmatched net exposure. The model deliberately trades the
// precision of lot-based FIFO tracking for simpler invariants, which is
// sufficient for short-horizon intraday strategies.
package pnl

import (
	"fmt"
	"math"
	"time"

	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

// Day-bucketing reference zone. Persisted timestamps are UTC; calendar-day
// comparisons convert to IST first.
var ist = loadIST()

func loadIST() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// PriceFunc looks up the last traded price for a symbol.
type PriceFunc func(symbol string) (float64, error)

// Snapshot is the P&L view of a single position.
type Snapshot struct {
	PositionID uint       `json:"position_id"`
	Symbol     string     `json:"symbol"`
	Status     string     `json:"status"`
	NetQty     int        `json:"net_qty"` // sells minus buys; positive means net short
	AvgBuy     float64    `json:"avg_buy"`
	AvgSell    float64    `json:"avg_sell"`
	LTP        float64    `json:"ltp"`
	Realized   float64    `json:"realized"`
	MTM        float64    `json:"mtm"`
	Total      float64    `json:"total_pnl"`
	OpenedAt   time.Time  `json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// DailySummary aggregates the snapshots of all positions opened on one IST
// calendar day.
type DailySummary struct {
	Day       string     `json:"day"`
	Count     int        `json:"count_positions"`
	Realized  float64    `json:"realized"`
	MTM       float64    `json:"mtm"`
	Total     float64    `json:"total_pnl"`
	Positions []Snapshot `json:"positions"`
}

// ComputePosition produces the P&L snapshot for one position from its
// recorded fills and a live price lookup.
//
// Convention:
//   - net_qty = sells - buys (positive means net short, negative net long)
//   - realized = matched_qty * (avg_sell - avg_buy), matched_qty = min(buys, sells)
//   - MTM on the unmatched exposure: short (avg_sell - ltp) * net_qty,
//     long (ltp - avg_buy) * |net_qty|
//
// Realized applies to quantity that has been both bought and sold,
// independent of chronological FIFO/LIFO matching.
func ComputePosition(pos *types.Position, orders []types.Order, ltpFn PriceFunc) (*Snapshot, error) {
	var (
		buyQty, sellQty int
		buyAmt, sellAmt float64
	)
	for _, o := range orders {
		if o.Status == types.OrderCancelled || o.Status == types.OrderRejected {
			continue
		}
		switch o.Side {
		case types.SideBuy:
			buyQty += o.Qty
			buyAmt += o.Price * float64(o.Qty)
		case types.SideSell:
			sellQty += o.Qty
			sellAmt += o.Price * float64(o.Qty)
		}
	}

	avgBuy := avg(buyAmt, buyQty)
	avgSell := avg(sellAmt, sellQty)

	matchedQty := buyQty
	if sellQty < matchedQty {
		matchedQty = sellQty
	}
	realized := float64(matchedQty) * (avgSell - avgBuy)

	netQty := sellQty - buyQty

	ltp, err := ltpFn(pos.Symbol)
	if err != nil {
		return nil, fmt.Errorf("ltp for %s: %w", pos.Symbol, err)
	}

	var mtm float64
	switch {
	case netQty > 0: // net short
		mtm = (avgSell - ltp) * float64(netQty)
	case netQty < 0: // net long
		mtm = (ltp - avgBuy) * float64(-netQty)
	}

	return &Snapshot{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Status:     pos.Status,
		NetQty:     netQty,
		AvgBuy:     round4(avgBuy),
		AvgSell:    round4(avgSell),
		LTP:        round4(ltp),
		Realized:   round2(realized),
		MTM:        round2(mtm),
		Total:      round2(realized + mtm),
		OpenedAt:   pos.OpenedAt,
		ClosedAt:   pos.ClosedAt,
	}, nil
}

// OrderLookup fetches the recorded fills for a position.
type OrderLookup func(positionID uint) ([]types.Order, error)

// ComputeDaily aggregates P&L for the positions opened on the IST calendar
// day containing now. Positions opened on a different IST day are excluded
// even when their UTC date matches.
func ComputeDaily(now time.Time, positions []types.Position, ordersFor OrderLookup, ltpFn PriceFunc) (*DailySummary, error) {
	day := now.In(ist)
	y, m, d := day.Date()

	summary := &DailySummary{
		Day:       day.Format("2006-01-02"),
		Positions: []Snapshot{},
	}

	for i := range positions {
		pos := &positions[i]
		py, pm, pd := toIST(pos.OpenedAt).Date()
		if py != y || pm != m || pd != d {
			continue
		}

		orders, err := ordersFor(pos.ID)
		if err != nil {
			return nil, fmt.Errorf("orders for position %d: %w", pos.ID, err)
		}
		snap, err := ComputePosition(pos, orders, ltpFn)
		if err != nil {
			return nil, err
		}
		summary.Positions = append(summary.Positions, *snap)
		summary.Realized += snap.Realized
		summary.MTM += snap.MTM
	}

	summary.Count = len(summary.Positions)
	summary.Realized = round2(summary.Realized)
	summary.MTM = round2(summary.MTM)
	summary.Total = round2(summary.Realized + summary.MTM)
	return summary, nil
}

// toIST converts a stored timestamp to IST. The store persists UTC.
func toIST(t time.Time) time.Time {
	return t.In(ist)
}

func avg(amount float64, qty int) float64 {
	if qty == 0 {
		return 0
	}
	return amount / float64(qty)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
