package zerodha

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"
)

var ist = time.FixedZone("IST", 19800)

type fakeKite struct {
	trades       kiteconnect.Trades
	instruments  kiteconnect.Instruments
	bars         []kiteconnect.HistoricalData
	historyCalls int
	dumpCalls    int
	err          error
}

func (f *fakeKite) GetTrades() (kiteconnect.Trades, error) {
	return f.trades, f.err
}

func (f *fakeKite) GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error) {
	f.dumpCalls++
	return f.instruments, f.err
}

func (f *fakeKite) GetHistoricalData(token int, interval string, from, to time.Time, continuous, oi bool) ([]kiteconnect.HistoricalData, error) {
	f.historyCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []kiteconnect.HistoricalData
	for _, b := range f.bars {
		if !b.Date.Time.Before(from) && !b.Date.Time.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func dailyBars(start time.Time, n int) []kiteconnect.HistoricalData {
	bars := make([]kiteconnect.HistoricalData, n)
	for i := range bars {
		bars[i] = kiteconnect.HistoricalData{
			Date:  models.Time{Time: start.AddDate(0, 0, i)},
			Close: 100 + float64(i),
		}
	}
	return bars
}

func newFake() *fakeKite {
	return &fakeKite{
		instruments: kiteconnect.Instruments{
			{InstrumentToken: 738561, Tradingsymbol: "RELIANCE", Exchange: "NSE"},
			{InstrumentToken: 256265, Tradingsymbol: "NIFTY 50", Exchange: "NSE"},
		},
		bars: dailyBars(time.Date(2023, 1, 1, 0, 0, 0, 0, ist), 500),
	}
}

func TestDailyCandlesOnlyBeforeAsOfDay(t *testing.T) {
	fk := newFake()
	c := newClient(fk, Params{})

	asOf := time.Date(2024, 3, 15, 10, 30, 0, 0, ist)
	bars, err := c.DailyCandles(context.Background(), "RELIANCE", "NSE", asOf, 100)
	if err != nil {
		t.Fatalf("DailyCandles failed: %v", err)
	}
	if len(bars) != 100 {
		t.Fatalf("Expected 100 bars, got %d", len(bars))
	}
	last := bars[len(bars)-1].Date
	if !last.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, ist)) {
		t.Errorf("Expected last bar on the previous day, got %s", last)
	}
}

func TestDailyCandlesServedFromCache(t *testing.T) {
	fk := newFake()
	c := newClient(fk, Params{})
	ctx := context.Background()

	if _, err := c.DailyCandles(ctx, "RELIANCE", "", time.Date(2024, 3, 15, 0, 0, 0, 0, ist), 100); err != nil {
		t.Fatalf("DailyCandles failed: %v", err)
	}
	// A later day widens the cached range once; an earlier one inside it is free.
	if _, err := c.DailyCandles(ctx, "RELIANCE", "", time.Date(2024, 3, 20, 0, 0, 0, 0, ist), 100); err != nil {
		t.Fatalf("DailyCandles failed: %v", err)
	}
	if _, err := c.DailyCandles(ctx, "RELIANCE", "", time.Date(2024, 3, 18, 0, 0, 0, 0, ist), 100); err != nil {
		t.Fatalf("DailyCandles failed: %v", err)
	}

	if fk.historyCalls != 2 {
		t.Errorf("Expected 2 history calls, got %d", fk.historyCalls)
	}
	if fk.dumpCalls != 1 {
		t.Errorf("Expected the instrument dump to load once, got %d", fk.dumpCalls)
	}
}

func TestDailyCandlesUnknownInstrument(t *testing.T) {
	c := newClient(newFake(), Params{})
	_, err := c.DailyCandles(context.Background(), "NOPE", "NSE", time.Now(), 100)
	if err == nil || !strings.Contains(err.Error(), "unknown instrument NSE:NOPE") {
		t.Errorf("Expected unknown instrument error, got %v", err)
	}
}

func TestDailyCandlesPropagatesErrors(t *testing.T) {
	fk := newFake()
	fk.err = errors.New("token expired")
	c := newClient(fk, Params{})
	if _, err := c.DailyCandles(context.Background(), "RELIANCE", "NSE", time.Now(), 100); err == nil {
		t.Error("Expected an error when the instrument dump fails")
	}
}

func TestTradeBookAndCSV(t *testing.T) {
	fk := newFake()
	fk.trades = kiteconnect.Trades{
		{
			TradingSymbol:   "INFY",
			TransactionType: "SELL",
			Quantity:        5,
			AveragePrice:    1510.5,
			Exchange:        "NSE",
			OrderID:         "o2",
			TradeID:         "t2",
			FillTimestamp:   models.Time{Time: time.Date(2024, 3, 15, 11, 0, 0, 0, ist)},
		},
		{
			TradingSymbol:     "INFY",
			TransactionType:   "BUY",
			Quantity:          5,
			AveragePrice:      1500,
			Exchange:          "NSE",
			OrderID:           "o1",
			TradeID:           "t1",
			ExchangeTimestamp: models.Time{Time: time.Date(2024, 3, 15, 9, 20, 0, 0, ist)},
		},
	}
	c := newClient(fk, Params{})

	records, err := c.TradeBook(context.Background())
	if err != nil {
		t.Fatalf("TradeBook failed: %v", err)
	}
	if len(records) != 2 || records[0].Side != "BUY" || records[0].Timestamp != "2024-03-15 09:20:00" {
		t.Fatalf("Unexpected records %+v", records)
	}

	path := filepath.Join(t.TempDir(), "trade_AB1234.csv")
	if err := WriteTradeBook(path, records); err != nil {
		t.Fatalf("WriteTradeBook failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	header := strings.SplitN(string(b), "\n", 2)[0]
	if header != "timestamp,symbol,side,quantity,price,exchange,order_id,trade_id" {
		t.Errorf("Unexpected header %q", header)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	rl := newRateLimiter(1)
	ctx, cancel := context.WithCancel(context.Background())
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Expected first token immediately, got %v", err)
	}
	cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	var none *rateLimiter
	if err := none.Wait(context.Background()); err != nil {
		t.Errorf("Expected nil limiter to pass, got %v", err)
	}
}
