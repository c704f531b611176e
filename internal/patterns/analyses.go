package patterns

import (
	"sort"
	"strings"
	"time"

	"github.com/nileshindira/trading-persona/internal/types"
)

var holdingBuckets = []struct {
	label string
	upTo  float64 // days, exclusive
}{
	{"Intraday", 1},
	{"Short-term", 7},
	{"Weekly", 30},
	{"Monthly", 90},
	{"Quarterly", 365},
	{"Long-term", 0},
}

func holdingBehavior(in input) types.HoldingBehavior {
	hb := types.HoldingBehavior{Buckets: make([]types.HoldingBucket, len(holdingBuckets))}
	for i, b := range holdingBuckets {
		hb.Buckets[i].Label = b.label
	}
	if len(in.positions) == 0 {
		return hb
	}

	totalDays := 0.0
	for _, p := range in.positions {
		days := p.HoldingMinutes / 1440
		totalDays += days
		idx := len(holdingBuckets) - 1
		for i, b := range holdingBuckets[:idx] {
			if days < b.upTo {
				idx = i
				break
			}
		}
		hb.Buckets[idx].Count++
	}

	best := -1
	for i := range hb.Buckets {
		hb.Buckets[i].Percentage = pct(hb.Buckets[i].Count, len(in.positions))
		if best < 0 || hb.Buckets[i].Count > hb.Buckets[best].Count {
			best = i
		}
	}
	hb.Dominant = hb.Buckets[best].Label
	hb.AvgDays = totalDays / float64(len(in.positions))
	return hb
}

func timePatterns(in input) types.TimePatterns {
	tp := types.TimePatterns{MostActiveHours: []types.HourCount{}}
	trades := in.trades()
	if len(trades) == 0 {
		return tp
	}

	hours := map[int]int{}
	weekdays := map[time.Weekday]int{}
	morning := 0
	for _, t := range trades {
		hours[t.at.Hour()]++
		weekdays[t.at.Weekday()]++
		if t.at.Hour() < 12 {
			morning++
		}
	}

	for h, n := range hours {
		tp.MostActiveHours = append(tp.MostActiveHours, types.HourCount{Hour: h, Count: n})
	}
	sort.Slice(tp.MostActiveHours, func(i, j int) bool {
		a, b := tp.MostActiveHours[i], tp.MostActiveHours[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Hour < b.Hour
	})
	if len(tp.MostActiveHours) > 3 {
		tp.MostActiveHours = tp.MostActiveHours[:3]
	}

	tp.MorningPct = pct(morning, len(trades))
	tp.AfternoonPct = pct(len(trades)-morning, len(trades))

	best := time.Sunday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if weekdays[d] > weekdays[best] {
			best = d
		}
	}
	tp.MostActiveWeekday = best.String()
	return tp
}

func instrumentClustering(in input) types.InstrumentClustering {
	ic := types.InstrumentClustering{}
	n := len(in.positions)
	if n == 0 {
		return ic
	}

	var nifty, bank, calls, puts int
	symbols := map[string]bool{}
	for _, p := range in.positions {
		s := strings.ToUpper(p.Symbol)
		symbols[s] = true
		if strings.Contains(s, "NIFTY") {
			nifty++
		}
		if strings.Contains(s, "BANKNIFTY") {
			bank++
		}
		if IsCall(s) {
			calls++
		}
		if IsPut(s) {
			puts++
		}
	}
	ic.NiftyPct = pct(nifty, n)
	ic.BankNiftyPct = pct(bank, n)
	ic.CallPct = pct(calls, n)
	ic.PutPct = pct(puts, n)
	ic.Symbols = len(symbols)
	return ic
}
