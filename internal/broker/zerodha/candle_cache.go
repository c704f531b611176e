package zerodha

import (
	"sync"
	"time"

	"github.com/nileshindira/trading-persona/internal/types"
)

// candleCache keeps the widest daily series fetched per instrument so that
// many as-of dates for the same symbol cost one historical call.
type candleCache struct {
	buffers map[string]*candleBuffer
	mu      sync.RWMutex
}

// candleBuffer holds bars covering [from, to].
type candleBuffer struct {
	candles []types.Candle
	from    time.Time
	to      time.Time
}

func newCandleCache() *candleCache {
	return &candleCache{
		buffers: make(map[string]*candleBuffer),
	}
}

// put replaces the buffer when the new range is at least as wide.
func (cc *candleCache) put(key string, from, to time.Time, candles []types.Candle) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if old, ok := cc.buffers[key]; ok && !from.Before(old.from) && !to.After(old.to) {
		return
	}
	cc.buffers[key] = &candleBuffer{candles: candles, from: from, to: to}
}

// span reports the range currently cached for key.
func (cc *candleCache) span(key string) (from, to time.Time, ok bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	buf, ok := cc.buffers[key]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return buf.from, buf.to, true
}

// getRange returns the cached bars within [from, to] when the buffer
// covers that whole range.
func (cc *candleCache) getRange(key string, from, to time.Time) ([]types.Candle, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	buf, ok := cc.buffers[key]
	if !ok || from.Before(buf.from) || to.After(buf.to) {
		return nil, false
	}

	out := make([]types.Candle, 0, len(buf.candles))
	for _, c := range buf.candles {
		if c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		out = append(out, c)
	}
	return out, true
}
