package zerodha

import (
	"os"

	"github.com/gocarina/gocsv"

	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

// NewFromEnv builds a client from KITE_API_KEY and KITE_ACCESS_TOKEN.
func NewFromEnv(cfg *store.Config) (*Client, error) {
	return NewClient(Params{
		APIKey:        os.Getenv("KITE_API_KEY"),
		AccessToken:   os.Getenv("KITE_ACCESS_TOKEN"),
		Exchange:      cfg.EMA.Exchange,
		RatePerSecond: float64(cfg.EMA.RatePerSecond),
	})
}

// WriteTradeBook writes trade records as a raw execution CSV.
func WriteTradeBook(path string, records []types.TradeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(&records, f)
}
