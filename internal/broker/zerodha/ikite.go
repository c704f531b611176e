package zerodha

import (
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// kiteClient is the subset of the Kite Connect REST client in use.
type kiteClient interface {
	GetTrades() (kiteconnect.Trades, error)
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

var _ kiteClient = (*kiteconnect.Client)(nil)
