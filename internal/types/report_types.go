package types

import "time"

// Candle is a daily OHLCV bar.
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// EMAScore is the trend score of one symbol as of a date, computed from
// bars strictly before that date.
type EMAScore struct {
	Symbol   string    `json:"symbol"`
	Exchange string    `json:"exchange"`
	Date     string    `json:"date"`
	Score    int       `json:"score"`
	Close    float64   `json:"close"`
	EMA21    float64   `json:"ema21"`
	EMA50    float64   `json:"ema50"`
	EMA100   float64   `json:"ema100"`
	BarDate  string    `json:"bar_date"`
	Computed time.Time `json:"computed_at"`
}

// EnrichedPosition carries optional EMA scores next to a closed position.
// Keys are "stock" plus the configured benchmark names.
type EnrichedPosition struct {
	ClosedPosition
	Scores map[string]*int `json:"ema_scores,omitempty"`
}

type EMAColumnStats struct {
	Column   string  `json:"column"`
	Mean     float64 `json:"mean"`
	Min      int     `json:"min"`
	Max      int     `json:"max"`
	Coverage int     `json:"coverage"`
}

type EMASummary struct {
	Enabled bool             `json:"enabled"`
	Columns []EMAColumnStats `json:"columns,omitempty"`
}

const NotAvailable = "N/A"

// Narrative is the generated free-text assessment. Failed sections hold N/A.
type Narrative struct {
	TraderProfile      string `json:"trader_profile"`
	RiskAssessment     string `json:"risk_assessment"`
	BehavioralInsights string `json:"behavioral_insights"`
	Recommendations    string `json:"recommendations"`
	PerformanceSummary string `json:"performance_summary"`
}

// EmptyNarrative has every section marked unavailable.
func EmptyNarrative() Narrative {
	return Narrative{
		TraderProfile:      NotAvailable,
		RiskAssessment:     NotAvailable,
		BehavioralInsights: NotAvailable,
		Recommendations:    NotAvailable,
		PerformanceSummary: NotAvailable,
	}
}

type ReportMetadata struct {
	RunID          string     `json:"run_id"`
	GeneratedAt    time.Time  `json:"generated_at"`
	TraderName     string     `json:"trader_name"`
	AnalysisPeriod string     `json:"analysis_period"`
	InputKind      LedgerKind `json:"input_kind"`
	DroppedRows    int        `json:"dropped_rows"`
}

type ExecutiveSummary struct {
	TotalTrades    int     `json:"total_trades"`
	TotalPnL       float64 `json:"total_pnl"`
	WinRate        float64 `json:"win_rate"`
	SharpeRatio    Ratio   `json:"sharpe_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	TradingStyle   string  `json:"trading_style"`
	RiskLevel      string  `json:"risk_level"`
}

type Report struct {
	Metadata         ReportMetadata   `json:"metadata"`
	ExecutiveSummary ExecutiveSummary `json:"executive_summary"`
	Metrics          Metrics          `json:"detailed_metrics"`
	Patterns         Patterns         `json:"detected_patterns"`
	Analyses         Analyses         `json:"analyses"`
	Daily            []DailyStat      `json:"daily_stats"`
	Narrative        Narrative        `json:"ai_analysis"`
	Recommendations  []string         `json:"recommendations"`
	RiskScore        int              `json:"risk_score"`
	EMA              EMASummary       `json:"ema_summary"`
}

// AnalysisResult is what the engine returns for one trader.
type AnalysisResult struct {
	TraderName string             `json:"trader_name"`
	Source     string             `json:"source"`
	Ledger     *Ledger            `json:"-"`
	Positions  []EnrichedPosition `json:"-"`
	Report     *Report            `json:"report"`
	Outputs    []string           `json:"outputs"`
}

// TradeRecord is one broker trade-book fill in the raw CSV layout.
type TradeRecord struct {
	Timestamp string  `csv:"timestamp"`
	Symbol    string  `csv:"symbol"`
	Side      string  `csv:"side"`
	Quantity  float64 `csv:"quantity"`
	Price     float64 `csv:"price"`
	Exchange  string  `csv:"exchange"`
	OrderID   string  `csv:"order_id"`
	TradeID   string  `csv:"trade_id"`
}
