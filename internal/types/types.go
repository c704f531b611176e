package types

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Execution is one atomic fill. Derived fields are filled by the normalizer.
type Execution struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Fee       float64   `json:"fee,omitempty"`
	Row       int       `json:"row"`

	Hour     int          `json:"hour"`
	Weekday  time.Weekday `json:"weekday"`
	Month    time.Month   `json:"month"`
	Notional float64      `json:"notional"`
}

// ClosedPosition is a realized match between an opening and a closing fill.
type ClosedPosition struct {
	Symbol         string    `json:"symbol"`
	OpenSide       Side      `json:"open_side"`
	OpenTime       time.Time `json:"open_time"`
	CloseTime      time.Time `json:"close_time"`
	Quantity       float64   `json:"matched_quantity"`
	OpenPrice      float64   `json:"open_price"`
	ClosePrice     float64   `json:"close_price"`
	RealizedPnL    float64   `json:"realized_pnl"`
	HoldingMinutes float64   `json:"holding_duration_minutes"`
	Fees           float64   `json:"fees_allocated"`
	Notional       float64   `json:"notional"`
	OpenIndex      int       `json:"open_index"`
	CloseIndex     int       `json:"close_index"`
}

// Return is pnl over notional; ok is false when the notional is zero.
func (p ClosedPosition) Return() (float64, bool) {
	if p.Notional == 0 {
		return 0, false
	}
	return p.RealizedPnL / p.Notional, true
}

type LedgerKind string

const (
	LedgerRaw    LedgerKind = "RAW"
	LedgerPaired LedgerKind = "PAIRED"
)

// Ledger is the normalizer output. Exactly one of Executions or Positions
// is populated, depending on Kind.
type Ledger struct {
	Kind       LedgerKind       `json:"kind"`
	Executions []Execution      `json:"executions,omitempty"`
	Positions  []ClosedPosition `json:"positions,omitempty"`
	Dropped    int              `json:"dropped"`
}

// HasExecutions reports whether raw fills are available to detectors.
func (l *Ledger) HasExecutions() bool {
	return l != nil && l.Kind == LedgerRaw
}

// Ratio is a float that survives JSON encoding when infinite.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	switch {
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(f):
		return []byte(`null`), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"Infinity"`:
		*r = Ratio(math.Inf(1))
		return nil
	case `"-Infinity"`:
		*r = Ratio(math.Inf(-1))
		return nil
	case `null`:
		*r = Ratio(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

func (r Ratio) String() string {
	f := float64(r)
	if math.IsInf(f, 1) {
		return "∞"
	}
	if math.IsInf(f, -1) {
		return "-∞"
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// NoData marks an empty date range.
const NoData = "no data"

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (d DateRange) Empty() bool { return d.Start == "" && d.End == "" }

func (d DateRange) String() string {
	if d.Empty() {
		return NoData
	}
	return d.Start + " to " + d.End
}

func (d DateRange) MarshalJSON() ([]byte, error) {
	if d.Empty() {
		return json.Marshal(NoData)
	}
	return json.Marshal([2]string{d.Start, d.End})
}

type Metrics struct {
	TotalTrades        int       `json:"total_trades"`
	WinningTrades      int       `json:"winning_trades"`
	LosingTrades       int       `json:"losing_trades"`
	BreakevenTrades    int       `json:"breakeven_trades"`
	WinRate            float64   `json:"win_rate"`
	TotalPnL           float64   `json:"total_pnl"`
	GrossProfit        float64   `json:"gross_profit"`
	GrossLoss          float64   `json:"gross_loss"`
	AvgWin             float64   `json:"avg_win"`
	AvgLoss            float64   `json:"avg_loss"`
	LargestWin         float64   `json:"largest_win"`
	LargestLoss        float64   `json:"largest_loss"`
	ProfitFactor       Ratio     `json:"profit_factor"`
	SharpeRatio        Ratio     `json:"sharpe_ratio"`
	SortinoRatio       Ratio     `json:"sortino_ratio"`
	MaxDrawdown        float64   `json:"max_drawdown"`
	MaxDrawdownPct     float64   `json:"max_drawdown_pct"`
	MaxWinStreak       int       `json:"max_win_streak"`
	MaxLossStreak      int       `json:"max_loss_streak"`
	AvgHoldingMinutes  float64   `json:"avg_holding_period_minutes"`
	AvgPositionsPerDay float64   `json:"avg_positions_per_day"`
	TradingDays        int       `json:"trading_days"`
	AvgTradeValue      float64   `json:"avg_trade_value"`
	DateRange          DateRange `json:"date_range"`
}

// DailyStat aggregates closed positions by close date.
type DailyStat struct {
	Date      string  `json:"date"`
	Positions int     `json:"positions"`
	PnL       float64 `json:"pnl"`
	Wins      int     `json:"wins"`
	Volume    float64 `json:"volume"`
}
