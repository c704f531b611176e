package matcher

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/types"
)

// Options tunes matching behaviour.
type Options struct {
	// SameTimestampMatchAllowed lets a close share the open's timestamp.
	SameTimestampMatchAllowed bool
}

// Result is the realized ledger plus per-symbol open interest.
type Result struct {
	Positions    []types.ClosedPosition
	OpenInterest map[string]float64
}

// lot is one execution's unmatched remainder.
type lot struct {
	exec      types.Execution
	remaining decimal.Decimal
	total     decimal.Decimal
	fee       decimal.Decimal
}

func newLot(e types.Execution) *lot {
	return &lot{
		exec:      e,
		remaining: decimal.NewFromFloat(e.Quantity),
		total:     decimal.NewFromFloat(e.Quantity),
		fee:       decimal.NewFromFloat(e.Fee),
	}
}

// allocatedFee is the fee share for qty out of the execution's quantity.
func (l *lot) allocatedFee(qty decimal.Decimal) decimal.Decimal {
	if l.total.IsZero() {
		return decimal.Zero
	}
	return l.fee.Mul(qty).Div(l.total)
}

// Match pairs executions per symbol using strict FIFO. The earlier of the
// two queue heads opens; the oldest eligible execution on the other side
// closes. An open with no eligible close is retired as open interest.
// Match never fails.
func Match(ctx context.Context, execs []types.Execution, opts Options) Result {
	bySymbol := map[string][]types.Execution{}
	var symbols []string
	for _, e := range execs {
		if _, ok := bySymbol[e.Symbol]; !ok {
			symbols = append(symbols, e.Symbol)
		}
		bySymbol[e.Symbol] = append(bySymbol[e.Symbol], e)
	}

	res := Result{OpenInterest: map[string]float64{}}
	for _, sym := range symbols {
		positions, leftover := matchSymbol(bySymbol[sym], opts)
		res.Positions = append(res.Positions, positions...)
		if leftover.IsPositive() {
			res.OpenInterest[sym], _ = leftover.Float64()
		}
		for _, p := range positions {
			logger.Position(ctx, p.Symbol, p.Quantity, p.RealizedPnL, p.HoldingMinutes, "open_side", string(p.OpenSide))
		}
	}

	SortByClose(res.Positions)
	return res
}

func matchSymbol(execs []types.Execution, opts Options) ([]types.ClosedPosition, decimal.Decimal) {
	sort.SliceStable(execs, func(i, j int) bool { return before(execs[i], execs[j]) })

	var buys, sells []*lot
	for _, e := range execs {
		if e.Side == types.Buy {
			buys = append(buys, newLot(e))
		} else {
			sells = append(sells, newLot(e))
		}
	}

	var (
		out      []types.ClosedPosition
		leftover = decimal.Zero
	)
	for len(buys) > 0 && len(sells) > 0 {
		openQ, closeQ := &buys, &sells
		if before((*closeQ)[0].exec, (*openQ)[0].exec) {
			openQ, closeQ = closeQ, openQ
		}
		open := (*openQ)[0]

		ci := eligibleClose(open, *closeQ, opts)
		if ci < 0 {
			leftover = leftover.Add(open.remaining)
			*openQ = (*openQ)[1:]
			continue
		}
		cl := (*closeQ)[ci]

		qty := decimal.Min(open.remaining, cl.remaining)
		out = append(out, buildPosition(open, cl, qty))

		open.remaining = open.remaining.Sub(qty)
		cl.remaining = cl.remaining.Sub(qty)
		if !open.remaining.IsPositive() {
			*openQ = (*openQ)[1:]
		}
		if !cl.remaining.IsPositive() {
			*closeQ = append((*closeQ)[:ci:ci], (*closeQ)[ci+1:]...)
		}
	}

	for _, l := range buys {
		leftover = leftover.Add(l.remaining)
	}
	for _, l := range sells {
		leftover = leftover.Add(l.remaining)
	}
	return out, leftover
}

// eligibleClose returns the index of the oldest lot that may close open,
// or -1 when none can.
func eligibleClose(open *lot, closes []*lot, opts Options) int {
	for i, c := range closes {
		if c.exec.Timestamp.After(open.exec.Timestamp) {
			return i
		}
		if opts.SameTimestampMatchAllowed && c.exec.Timestamp.Equal(open.exec.Timestamp) {
			return i
		}
	}
	return -1
}

func buildPosition(open, cl *lot, qty decimal.Decimal) types.ClosedPosition {
	openPx := decimal.NewFromFloat(open.exec.Price)
	closePx := decimal.NewFromFloat(cl.exec.Price)
	fees := open.allocatedFee(qty).Add(cl.allocatedFee(qty))

	gross := closePx.Sub(openPx).Mul(qty)
	if open.exec.Side == types.Sell {
		gross = gross.Neg()
	}

	q, _ := qty.Float64()
	pnl, _ := gross.Sub(fees).Float64()
	f, _ := fees.Float64()
	notional, _ := openPx.Add(closePx).Div(decimal.NewFromInt(2)).Mul(qty).Float64()

	return types.ClosedPosition{
		Symbol:         open.exec.Symbol,
		OpenSide:       open.exec.Side,
		OpenTime:       open.exec.Timestamp,
		CloseTime:      cl.exec.Timestamp,
		Quantity:       q,
		OpenPrice:      open.exec.Price,
		ClosePrice:     cl.exec.Price,
		RealizedPnL:    pnl,
		HoldingMinutes: cl.exec.Timestamp.Sub(open.exec.Timestamp).Minutes(),
		Fees:           f,
		Notional:       notional,
		OpenIndex:      open.exec.Row,
		CloseIndex:     cl.exec.Row,
	}
}

func before(a, b types.Execution) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.Row < b.Row
}

// SortByClose orders positions by close time, then closing row, then
// opening row.
func SortByClose(ps []types.ClosedPosition) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if !a.CloseTime.Equal(b.CloseTime) {
			return a.CloseTime.Before(b.CloseTime)
		}
		if a.CloseIndex != b.CloseIndex {
			return a.CloseIndex < b.CloseIndex
		}
		return a.OpenIndex < b.OpenIndex
	})
}
