package types

// Verdict is the result of one behavioural detector.
type Verdict interface {
	IsDetected() bool
}

// Patterns maps detector name to verdict.
type Patterns map[string]Verdict

// Detected lists the names of detectors that fired.
func (p Patterns) Detected() []string {
	var out []string
	for _, name := range PatternOrder {
		if v, ok := p[name]; ok && v.IsDetected() {
			out = append(out, name)
		}
	}
	return out
}

// IsDetected is false for unknown detectors.
func (p Patterns) IsDetected(name string) bool {
	v, ok := p[name]
	return ok && v != nil && v.IsDetected()
}

const (
	PatternOvertrading = "overtrading"
	PatternRevenge     = "revenge_trading"
	PatternPyramiding  = "pyramiding"
	PatternScalping    = "scalping"
	PatternHedging     = "hedging"
	PatternFocusBias   = "focus_bias"
	PatternMartingale  = "martingale"
)

// PatternOrder is the presentation order of detectors.
var PatternOrder = []string{
	PatternOvertrading,
	PatternRevenge,
	PatternPyramiding,
	PatternScalping,
	PatternHedging,
	PatternFocusBias,
	PatternMartingale,
}

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

type OvertradingVerdict struct {
	Detected        bool     `json:"detected"`
	OvertradingDays int      `json:"overtrading_days"`
	TotalDays       int      `json:"total_days"`
	Fraction        float64  `json:"fraction"`
	AvgTradesPerDay float64  `json:"avg_trades_per_day"`
	MaxTradesPerDay int      `json:"max_trades_per_day"`
	Severity        Severity `json:"severity"`
}

func (v OvertradingVerdict) IsDetected() bool { return v.Detected }

type RevengeVerdict struct {
	Detected   bool    `json:"detected"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

func (v RevengeVerdict) IsDetected() bool { return v.Detected }

type PyramidingVerdict struct {
	Detected  bool `json:"detected"`
	Sequences int  `json:"sequences"`
	Available bool `json:"available"`
}

func (v PyramidingVerdict) IsDetected() bool { return v.Detected }

type ScalpingVerdict struct {
	Detected           bool     `json:"detected"`
	AvgHoldingMinutes  *float64 `json:"avg_holding_minutes"`
	ScalpingTrades     int      `json:"scalping_trades"`
	ScalpingPercentage float64  `json:"scalping_percentage"`
}

func (v ScalpingVerdict) IsDetected() bool { return v.Detected }

type HedgingVerdict struct {
	Detected     bool     `json:"detected"`
	HedgedGroups int      `json:"hedged_groups"`
	Instruments  []string `json:"instruments,omitempty"`
}

func (v HedgingVerdict) IsDetected() bool { return v.Detected }

type FocusVerdict struct {
	Detected   bool     `json:"detected"`
	FocusRatio float64  `json:"focus_ratio"`
	TopSymbols []string `json:"top_symbols"`
	Symbols    int      `json:"symbols"`
}

func (v FocusVerdict) IsDetected() bool { return v.Detected }

type MartingaleVerdict struct {
	Detected bool     `json:"detected"`
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}

func (v MartingaleVerdict) IsDetected() bool { return v.Detected }

// Analyses holds descriptive breakdowns that never "fire".
type Analyses struct {
	Holding    HoldingBehavior      `json:"holding_behavior"`
	Timing     TimePatterns         `json:"time_patterns"`
	Clustering InstrumentClustering `json:"instrument_clustering"`
}

type HoldingBucket struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type HoldingBehavior struct {
	Buckets  []HoldingBucket `json:"buckets"`
	Dominant string          `json:"dominant"`
	AvgDays  float64         `json:"avg_holding_days"`
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type TimePatterns struct {
	MostActiveHours   []HourCount `json:"most_active_hours"`
	MorningPct        float64     `json:"morning_pct"`
	AfternoonPct      float64     `json:"afternoon_pct"`
	MostActiveWeekday string      `json:"most_active_weekday"`
}

type InstrumentClustering struct {
	NiftyPct     float64 `json:"nifty_pct"`
	BankNiftyPct float64 `json:"banknifty_pct"`
	CallPct      float64 `json:"call_pct"`
	PutPct       float64 `json:"put_pct"`
	Symbols      int     `json:"unique_symbols"`
}
