package patterns

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

var (
	leadingAlpha = regexp.MustCompile(`^[A-Z]+`)
	callSuffix   = regexp.MustCompile(`\dCE$`)
	putSuffix    = regexp.MustCompile(`\dPE$`)
)

// BaseInstrument is the leading alphabetic token of an upper-cased symbol.
// A symbol that does not start with a letter is its own base.
func BaseInstrument(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if base := leadingAlpha.FindString(s); base != "" {
		return base
	}
	return s
}

func IsCall(symbol string) bool {
	s := strings.ToUpper(symbol)
	return strings.Contains(s, "CALL") || callSuffix.MatchString(s)
}

func IsPut(symbol string) bool {
	s := strings.ToUpper(symbol)
	return strings.Contains(s, "PUT") || putSuffix.MatchString(s)
}

type trade struct {
	at     time.Time
	symbol string
}

// trades prefers raw fills and falls back to closed positions.
func (in input) trades() []trade {
	if in.raw {
		out := make([]trade, len(in.executions))
		for i, e := range in.executions {
			out[i] = trade{at: e.Timestamp, symbol: e.Symbol}
		}
		return out
	}
	out := make([]trade, len(in.positions))
	for i, p := range in.positions {
		out[i] = trade{at: p.CloseTime, symbol: p.Symbol}
	}
	return out
}

// detectHedging counts (day, base instrument) groups holding both calls
// and puts.
func detectHedging(cfg *store.Config, in input) types.Verdict {
	type flags struct{ call, put bool }
	groups := map[string]*flags{}
	for _, t := range in.trades() {
		base := BaseInstrument(t.symbol)
		if base == "" {
			continue
		}
		key := t.at.Format("2006-01-02") + " " + base
		f, ok := groups[key]
		if !ok {
			f = &flags{}
			groups[key] = f
		}
		f.call = f.call || IsCall(t.symbol)
		f.put = f.put || IsPut(t.symbol)
	}

	v := types.HedgingVerdict{}
	for key, f := range groups {
		if f.call && f.put {
			v.HedgedGroups++
			v.Instruments = append(v.Instruments, key)
		}
	}
	sort.Strings(v.Instruments)
	v.Detected = v.HedgedGroups > cfg.Analysis.HedgeDayThreshold
	return v
}

// detectFocus measures how much of the activity the most traded symbols
// account for.
func detectFocus(cfg *store.Config, in input) types.Verdict {
	v := types.FocusVerdict{TopSymbols: []string{}}
	if len(in.positions) == 0 {
		return v
	}

	counts := map[string]int{}
	for _, p := range in.positions {
		counts[p.Symbol]++
	}
	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool {
		if counts[symbols[i]] != counts[symbols[j]] {
			return counts[symbols[i]] > counts[symbols[j]]
		}
		return symbols[i] < symbols[j]
	})

	top := 0
	for i, s := range symbols {
		if i >= cfg.Analysis.FocusTopN {
			break
		}
		top += counts[s]
		v.TopSymbols = append(v.TopSymbols, s)
	}
	v.Symbols = len(symbols)
	v.FocusRatio = float64(top) / float64(len(in.positions))
	v.Detected = v.FocusRatio > cfg.Analysis.FocusRatioThreshold
	return v
}
