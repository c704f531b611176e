package zerodha

import (
	"strings"
	"sync"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// instrumentMapper maps exchange-qualified trading symbols to instrument
// tokens and back.
type instrumentMapper struct {
	symbolToToken map[string]int
	tokenToSymbol map[int]string
	loaded        map[string]bool
	mu            sync.RWMutex
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{
		symbolToToken: make(map[string]int),
		tokenToSymbol: make(map[int]string),
		loaded:        make(map[string]bool),
	}
}

func instrumentKey(exchange, symbol string) string {
	return strings.ToUpper(exchange) + ":" + strings.ToUpper(symbol)
}

// load registers every instrument of one exchange dump.
func (im *instrumentMapper) load(exchange string, instruments kiteconnect.Instruments) {
	im.mu.Lock()
	defer im.mu.Unlock()

	for _, in := range instruments {
		key := instrumentKey(exchange, in.Tradingsymbol)
		im.symbolToToken[key] = in.InstrumentToken
		im.tokenToSymbol[in.InstrumentToken] = key
	}
	im.loaded[strings.ToUpper(exchange)] = true
}

func (im *instrumentMapper) isLoaded(exchange string) bool {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.loaded[strings.ToUpper(exchange)]
}

func (im *instrumentMapper) getToken(exchange, symbol string) (int, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, exists := im.symbolToToken[instrumentKey(exchange, symbol)]
	return token, exists
}

func (im *instrumentMapper) getSymbol(token int) string {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.tokenToSymbol[token]
}
