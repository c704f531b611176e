package ta

import "math"

// EMA spans used by the trend score.
const (
	FastSpan   = 21
	MediumSpan = 50
	SlowSpan   = 100
)

func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// SampleStdDev uses n-1 in the denominator; NaN below two values.
func SampleStdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	m := Mean(vals)
	s := 0.0
	for _, v := range vals {
		d := v - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(vals)-1))
}

// EMASeries is the recursive EMA with alpha = 2/(span+1), seeded with the
// first close.
func EMASeries(closes []float64, span int) []float64 {
	if len(closes) == 0 || span <= 0 {
		return nil
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(closes))
	out[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		out[i] = alpha*closes[i] + (1-alpha)*out[i-1]
	}
	return out
}

// EMA returns the last value of EMASeries, or NaN without data.
func EMA(closes []float64, span int) float64 {
	s := EMASeries(closes, span)
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

type Trend struct {
	Close  float64
	EMA21  float64
	EMA50  float64
	EMA100 float64
	Score  int
}

// TrendScore scores the last close against EMA21/50/100 and the EMAs
// against each other, one point up or down per comparison.
func TrendScore(closes []float64) (Trend, bool) {
	if len(closes) == 0 {
		return Trend{}, false
	}
	t := Trend{
		Close:  closes[len(closes)-1],
		EMA21:  EMA(closes, FastSpan),
		EMA50:  EMA(closes, MediumSpan),
		EMA100: EMA(closes, SlowSpan),
	}
	t.Score = point(t.Close > t.EMA21) +
		point(t.Close > t.EMA50) +
		point(t.Close > t.EMA100) +
		point(t.EMA21 > t.EMA100) +
		point(t.EMA21 > t.EMA50) +
		point(t.EMA50 > t.EMA100)
	return t, true
}

func point(up bool) int {
	if up {
		return 1
	}
	return -1
}
