package ledger

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

var headerAliases = map[string]string{
	// raw executions
	"trade_date":           "timestamp",
	"date":                 "timestamp",
	"time":                 "timestamp",
	"datetime":             "timestamp",
	"trade_time":           "timestamp",
	"tradedate":            "timestamp",
	"order_execution_time": "timestamp",
	"fill_timestamp":       "timestamp",
	"exchange_timestamp":   "timestamp",
	"transaction_type":     "side",
	"transactiontype":      "side",
	"type":                 "side",
	"buy/sell":             "side",
	"qty":                  "quantity",
	"tradedquantity":       "quantity",
	"traded_quantity":      "quantity",
	"rate":                 "price",
	"tradedprice":          "price",
	"traded_price":         "price",
	"trade_price":          "price",
	"average_price":        "price",
	"charges":              "fee",
	"fees":                 "fee",
	"brokerage":            "fee",
	"commission":           "fee",
	"trade_value":          "notional",
	"value":                "notional",
	"tradingsymbol":        "symbol",
	"trading_symbol":       "symbol",
	"scrip":                "symbol",
	"instrument":           "symbol",

	// paired P&L statements
	"scrip_name":          "symbol",
	"buy_rate":            "buy_price",
	"sell_rate":           "sell_price",
	"profit(+)_/_loss(-)": "pnl",
	"profit/loss":         "pnl",
	"realized_pnl":        "pnl",
}

var pairedRequired = []string{"symbol", "quantity", "buy_date", "sell_date", "buy_price", "sell_price"}

// CanonicalHeader lower-cases a header, joins words with underscores and
// resolves known broker aliases.
func CanonicalHeader(h string) string {
	key := strings.ToLower(strings.TrimSpace(h))
	key = strings.Join(strings.Fields(key), "_")
	key = strings.ReplaceAll(key, "-", "_")
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

// Normalizer validates and canonicalises tabular trade records.
type Normalizer struct {
	cfg *store.Config
	loc *time.Location
}

func NewNormalizer(cfg *store.Config) *Normalizer {
	loc, err := time.LoadLocation(cfg.Data.Timezone)
	if err != nil {
		loc = time.FixedZone("IST", 19800)
	}
	return &Normalizer{cfg: cfg, loc: loc}
}

// Location is the zone used for timestamps without an explicit offset.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Normalize turns a table into a ledger. Missing required columns yield a
// *ValidationError. Dropped rows are summarised in the returned warning,
// which is nil when every row was kept.
func (n *Normalizer) Normalize(ctx context.Context, t *Table) (*types.Ledger, *DataQualityWarning, error) {
	cols := n.columnIndex(t.Headers)
	kind := n.detectKind(cols)

	var (
		l    *types.Ledger
		warn *DataQualityWarning
		err  error
	)
	switch kind {
	case types.LedgerPaired:
		l, warn, err = n.normalizePaired(t, cols)
	default:
		l, warn, err = n.normalizeRaw(t, cols)
	}
	if err != nil {
		return nil, nil, err
	}

	if warn.Dropped > 0 {
		logger.Warn(ctx, "Dropped malformed trade rows",
			"kind", string(kind),
			"dropped", warn.Dropped,
			"total", warn.Total,
			"reasons", warn.Reasons,
		)
		return l, warn, nil
	}
	return l, nil, nil
}

func (n *Normalizer) columnIndex(headers []string) map[string]int {
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		c := CanonicalHeader(h)
		if _, dup := cols[c]; !dup {
			cols[c] = i
		}
	}
	// Some broker exports call the side column "trade type".
	if _, ok := cols["side"]; !ok {
		if i, ok := cols["trade_type"]; ok {
			if _, paired := cols["buy_date"]; !paired {
				cols["side"] = i
			}
		}
	}
	return cols
}

func (n *Normalizer) detectKind(cols map[string]int) types.LedgerKind {
	switch n.cfg.Data.InputMode {
	case "RAW":
		return types.LedgerRaw
	case "PAIRED":
		return types.LedgerPaired
	}
	_, hasBuy := cols["buy_date"]
	_, hasSell := cols["sell_date"]
	if hasBuy && hasSell {
		return types.LedgerPaired
	}
	return types.LedgerRaw
}

func missingColumns(cols map[string]int, required []string) []string {
	var missing []string
	for _, r := range required {
		if _, ok := cols[CanonicalHeader(r)]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

func (n *Normalizer) normalizeRaw(t *Table, cols map[string]int) (*types.Ledger, *DataQualityWarning, error) {
	if missing := missingColumns(cols, n.cfg.Data.RequiredColumns); len(missing) > 0 {
		return nil, nil, &ValidationError{Kind: types.LedgerRaw, Missing: missing}
	}

	warn := &DataQualityWarning{Total: len(t.Rows)}
	execs := make([]types.Execution, 0, len(t.Rows))

	for i, row := range t.Rows {
		get := func(col string) string { return cell(row, cols, col) }

		symbol := normalizeSymbol(get("symbol"))
		if symbol == "" {
			warn.add("symbol")
			continue
		}
		ts, ok := n.parseTime(get("timestamp"))
		if !ok {
			warn.add("timestamp")
			continue
		}
		side, ok := parseSide(get("side"))
		if !ok {
			warn.add("side")
			continue
		}
		qty, ok := parseNumber(get("quantity"))
		if !ok || qty <= 0 {
			warn.add("quantity")
			continue
		}
		price, ok := parseNumber(get("price"))
		if !ok || price <= 0 {
			warn.add("price")
			continue
		}
		fee, _ := parseNumber(get("fee"))
		notional, ok := parseNumber(get("notional"))
		if !ok || notional <= 0 {
			notional = price * qty
		}

		execs = append(execs, types.Execution{
			Timestamp: ts,
			Symbol:    symbol,
			Side:      side,
			Quantity:  qty,
			Price:     price,
			Fee:       math.Abs(fee),
			Row:       i,
			Hour:      ts.Hour(),
			Weekday:   ts.Weekday(),
			Month:     ts.Month(),
			Notional:  notional,
		})
	}

	sort.SliceStable(execs, func(a, b int) bool {
		return execs[a].Timestamp.Before(execs[b].Timestamp)
	})

	return &types.Ledger{Kind: types.LedgerRaw, Executions: execs, Dropped: warn.Dropped}, warn, nil
}

func (n *Normalizer) normalizePaired(t *Table, cols map[string]int) (*types.Ledger, *DataQualityWarning, error) {
	if missing := missingColumns(cols, pairedRequired); len(missing) > 0 {
		return nil, nil, &ValidationError{Kind: types.LedgerPaired, Missing: missing}
	}

	warn := &DataQualityWarning{Total: len(t.Rows)}
	positions := make([]types.ClosedPosition, 0, len(t.Rows))

	for i, row := range t.Rows {
		get := func(col string) string { return cell(row, cols, col) }

		symbol := normalizeSymbol(get("symbol"))
		if symbol == "" {
			warn.add("symbol")
			continue
		}
		qty, ok := parseNumber(get("quantity"))
		if !ok || qty <= 0 {
			warn.add("quantity")
			continue
		}
		buyAt, ok1 := n.parseTime(get("buy_date"))
		sellAt, ok2 := n.parseTime(get("sell_date"))
		if !ok1 || !ok2 {
			warn.add("timestamp")
			continue
		}
		buyPrice, ok1 := parseNumber(get("buy_price"))
		sellPrice, ok2 := parseNumber(get("sell_price"))
		if !ok1 || !ok2 || buyPrice <= 0 || sellPrice <= 0 {
			warn.add("price")
			continue
		}

		p := types.ClosedPosition{
			Symbol:     symbol,
			OpenSide:   types.Buy,
			OpenTime:   buyAt,
			CloseTime:  sellAt,
			Quantity:   qty,
			OpenPrice:  buyPrice,
			ClosePrice: sellPrice,
			OpenIndex:  i,
			CloseIndex: i,
		}
		if sellAt.Before(buyAt) {
			p.OpenSide = types.Sell
			p.OpenTime, p.CloseTime = sellAt, buyAt
			p.OpenPrice, p.ClosePrice = sellPrice, buyPrice
		}

		if days, ok := parseNumber(get("holding_days")); ok && days >= 0 {
			p.HoldingMinutes = days * 1440
		} else {
			p.HoldingMinutes = p.CloseTime.Sub(p.OpenTime).Minutes()
		}

		if pnl, ok := parseNumber(get("pnl")); ok {
			p.RealizedPnL = pnl
		} else {
			p.RealizedPnL = (sellPrice - buyPrice) * qty
		}

		buyValue, ok1 := parseNumber(get("buy_value"))
		sellValue, ok2 := parseNumber(get("sell_value"))
		if ok1 && ok2 && buyValue > 0 && sellValue > 0 {
			p.Notional = (buyValue + sellValue) / 2
		} else {
			p.Notional = (buyPrice + sellPrice) / 2 * qty
		}

		positions = append(positions, p)
	}

	sort.SliceStable(positions, func(a, b int) bool {
		return positions[a].CloseTime.Before(positions[b].CloseTime)
	})

	return &types.Ledger{Kind: types.LedgerPaired, Positions: positions, Dropped: warn.Dropped}, warn, nil
}

func cell(row []string, cols map[string]int, col string) string {
	i, ok := cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (n *Normalizer) parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range n.cfg.Data.TimestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseSide(s string) (types.Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B":
		return types.Buy, true
	case "SELL", "S":
		return types.Sell, true
	}
	return "", false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(",", "", "₹", "", "Rs.", "", " ", "").Replace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.Trim(s, "()")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
