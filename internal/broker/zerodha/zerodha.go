package zerodha

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/types"
)

const (
	dayInterval     = "day"
	timestampLayout = "2006-01-02 15:04:05"
)

type Params struct {
	APIKey        string
	AccessToken   string
	Exchange      string
	RatePerSecond float64
}

// Client reads the trade book and daily history from Kite Connect.
type Client struct {
	kc      kiteClient
	p       Params
	mapper  *instrumentMapper
	candles *candleCache
	limiter *rateLimiter
	loadMu  sync.Mutex
}

var (
	_ interfaces.PriceSource = (*Client)(nil)
	_ interfaces.TradeSource = (*Client)(nil)
)

func NewClient(p Params) (*Client, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("missing API key/access token")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return newClient(kc, p), nil
}

func newClient(kc kiteClient, p Params) *Client {
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	return &Client{
		kc:      kc,
		p:       p,
		mapper:  newInstrumentMapper(),
		candles: newCandleCache(),
		limiter: newRateLimiter(p.RatePerSecond),
	}
}

// TradeBook returns the day's fills in the raw CSV layout, oldest first.
func (c *Client) TradeBook(ctx context.Context) ([]types.TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trades, err := c.kc.GetTrades()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trade book: %w", err)
	}

	out := make([]types.TradeRecord, 0, len(trades))
	for _, t := range trades {
		ts := t.FillTimestamp.Time
		if ts.IsZero() {
			ts = t.ExchangeTimestamp.Time
		}
		out = append(out, types.TradeRecord{
			Timestamp: ts.Format(timestampLayout),
			Symbol:    t.TradingSymbol,
			Side:      t.TransactionType,
			Quantity:  t.Quantity,
			Price:     t.AveragePrice,
			Exchange:  t.Exchange,
			OrderID:   t.OrderID,
			TradeID:   t.TradeID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })

	logger.Info(ctx, "Fetched trade book", "trades", len(out))
	return out, nil
}

// DailyCandles returns up to n daily bars dated before the as-of day.
// History is fetched once per instrument over the union of requested
// ranges and served from memory afterwards.
func (c *Client) DailyCandles(ctx context.Context, symbol, exchange string, before time.Time, n int) ([]types.Candle, error) {
	if exchange == "" {
		exchange = c.p.Exchange
	}
	token, err := c.resolve(ctx, exchange, symbol)
	if err != nil {
		return nil, err
	}

	day := time.Date(before.Year(), before.Month(), before.Day(), 0, 0, 0, 0, before.Location())
	to := day.AddDate(0, 0, -1)
	from := day.AddDate(0, 0, -calendarDays(n))
	key := instrumentKey(exchange, symbol)

	if cached, ok := c.candles.getRange(key, from, to); ok {
		return lastN(cached, n), nil
	}

	fetchFrom, fetchTo := from, to
	if cf, ct, ok := c.candles.span(key); ok {
		if cf.Before(fetchFrom) {
			fetchFrom = cf
		}
		if ct.After(fetchTo) {
			fetchTo = ct
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	data, err := c.kc.GetHistoricalData(token, dayInterval, fetchFrom, fetchTo, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", key, err)
	}

	candles := make([]types.Candle, 0, len(data))
	for _, d := range data {
		candles = append(candles, types.Candle{
			Date:   d.Date.Time,
			Open:   d.Open,
			High:   d.High,
			Low:    d.Low,
			Close:  d.Close,
			Volume: float64(d.Volume),
		})
	}
	c.candles.put(key, fetchFrom, fetchTo, candles)

	logger.Debug(ctx, "Fetched daily history",
		"instrument", c.mapper.getSymbol(token),
		"bars", len(candles),
		"from", fetchFrom.Format("2006-01-02"),
		"to", fetchTo.Format("2006-01-02"),
	)

	var window []types.Candle
	for _, cd := range candles {
		if cd.Date.Before(day) && !cd.Date.Before(from) {
			window = append(window, cd)
		}
	}
	return lastN(window, n), nil
}

func (c *Client) resolve(ctx context.Context, exchange, symbol string) (int, error) {
	if !c.mapper.isLoaded(exchange) {
		c.loadMu.Lock()
		if !c.mapper.isLoaded(exchange) {
			instruments, err := c.kc.GetInstrumentsByExchange(exchange)
			if err != nil {
				c.loadMu.Unlock()
				return 0, fmt.Errorf("failed to load %s instruments: %w", exchange, err)
			}
			c.mapper.load(exchange, instruments)
			logger.Info(ctx, "Loaded instrument dump", "exchange", exchange, "instruments", len(instruments))
		}
		c.loadMu.Unlock()
	}

	token, ok := c.mapper.getToken(exchange, symbol)
	if !ok {
		return 0, fmt.Errorf("unknown instrument %s", instrumentKey(exchange, symbol))
	}
	return token, nil
}

// calendarDays converts a bar count into a calendar window that covers it
// across weekends and holidays.
func calendarDays(bars int) int {
	return bars*7/5 + 15
}

func lastN(cs []types.Candle, n int) []types.Candle {
	if n > 0 && len(cs) > n {
		return cs[len(cs)-n:]
	}
	return cs
}
