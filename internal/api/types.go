package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// --- API Types ---

type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	IsPremium     bool   `json:"is_premium"`
	DailyLimit    Limit  `json:"daily_limit"`
	AnalysesToday int    `json:"analyses_today"`
	CanAnalyze    bool   `json:"can_analyze"`
}

// Remaining is the number of analyses a free user has left today.
func (u User) Remaining() int {
	return u.DailyLimit.N - u.AnalysesToday
}

type Stats struct {
	TotalAnalyses int     `json:"total_analyses"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Pending       int     `json:"pending"`
	WinRate       Percent `json:"win_rate"`
	AvgConfidence Percent `json:"avg_confidence"`
}

// Analysis is a history list item.
type Analysis struct {
	ID              int64   `json:"id"`
	MarketType      string  `json:"market_type"`
	TradingStyle    string  `json:"trading_style"`
	RiskProfile     string  `json:"risk_profile"`
	AssetType       string  `json:"asset_type"`
	TradeDirection  string  `json:"trade_direction"`
	EntryPrice      Level   `json:"entry_price"`
	StopLoss        Level   `json:"stop_loss"`
	TakeProfit      Levels  `json:"take_profit"`
	ConfidenceScore Percent `json:"confidence_score"`
	Outcome         string  `json:"outcome"`
	CreatedAt       string  `json:"created_at"`
}

type TradeSetup struct {
	Direction  string `json:"direction"`
	Entry      Level  `json:"entry"`
	StopLoss   Level  `json:"stop_loss"`
	TakeProfit Levels `json:"take_profit"`
}

// AnalysisDetail is the full form returned by /api/analyze and /api/analysis/{id}.
type AnalysisDetail struct {
	Analysis
	AnalysisID         int64       `json:"analysis_id"`
	Patterns           []string    `json:"patterns"`
	Indicators         []string    `json:"indicators"`
	TradeSetup         *TradeSetup `json:"trade_setup"`
	PatternExplanation string      `json:"pattern_explanation"`
	Reasoning          string      `json:"reasoning"`
	RiskFactors        []string    `json:"risk_factors"`
	ChartQuality       string      `json:"chart_quality"`
	ChartIssues        []string    `json:"chart_issues"`
	Notes              string      `json:"notes"`
}

// Key returns the stored analysis id; fresh analyze responses carry it as analysis_id.
func (d AnalysisDetail) Key() int64 {
	if d.ID != 0 {
		return d.ID
	}
	return d.AnalysisID
}

// Setup returns the nested trade setup, or one assembled from the flat
// history columns when the payload came from the detail endpoint.
func (d AnalysisDetail) Setup() *TradeSetup {
	if d.TradeSetup != nil {
		return d.TradeSetup
	}
	if d.TradeDirection == "" && !d.EntryPrice.IsSet() && !d.StopLoss.IsSet() && !d.TakeProfit.IsSet() {
		return nil
	}
	return &TradeSetup{
		Direction:  d.TradeDirection,
		Entry:      d.EntryPrice,
		StopLoss:   d.StopLoss,
		TakeProfit: d.TakeProfit,
	}
}

// Level is a price level. The backend sends either a number or free text
// ("price level or description").
type Level struct {
	text  string
	num   decimal.Decimal
	isNum bool
}

func LevelText(s string) Level            { return Level{text: s} }
func LevelNumber(d decimal.Decimal) Level { return Level{num: d, isNum: true} }

func (l *Level) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*l = Level{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Level{text: s}
	case string(b) == "true" || string(b) == "false":
		*l = Level{text: string(b)}
	default:
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return fmt.Errorf("price level %s: %w", b, err)
		}
		*l = Level{num: d, isNum: true}
	}
	return nil
}

func (l Level) MarshalJSON() ([]byte, error) {
	switch {
	case l.isNum:
		return []byte(l.num.String()), nil
	case l.text == "":
		return []byte("null"), nil
	}
	return json.Marshal(l.text)
}

// IsSet reports whether the level would display; empty text and a zero
// number both count as missing.
func (l Level) IsSet() bool {
	if l.isNum {
		return !l.num.IsZero()
	}
	return l.text != ""
}

func (l Level) String() string {
	if l.isNum {
		return l.num.String()
	}
	return l.text
}

// Or returns def when the level is not set.
func (l Level) Or(def string) string {
	if !l.IsSet() {
		return def
	}
	return l.String()
}

// Levels holds take-profit targets: a single value or an ordered list.
type Levels struct {
	items []Level
	list  bool
}

func SingleLevel(l Level) Levels   { return Levels{items: []Level{l}} }
func LevelList(ls ...Level) Levels { return Levels{items: ls, list: true} }

func (ls *Levels) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*ls = Levels{}
		return nil
	}
	if b[0] == '[' {
		var items []Level
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*ls = Levels{items: items, list: true}
		return nil
	}
	if b[0] == '"' {
		// Stored take-profit columns come back as JSON text.
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if t := strings.TrimSpace(s); strings.HasPrefix(t, "[") {
			var items []Level
			if err := json.Unmarshal([]byte(t), &items); err == nil {
				*ls = Levels{items: items, list: true}
				return nil
			}
		}
	}
	var one Level
	if err := one.UnmarshalJSON(b); err != nil {
		return err
	}
	if !one.IsSet() {
		*ls = Levels{}
		return nil
	}
	*ls = Levels{items: []Level{one}}
	return nil
}

func (ls Levels) MarshalJSON() ([]byte, error) {
	if ls.list {
		items := ls.items
		if items == nil {
			items = []Level{}
		}
		return json.Marshal(items)
	}
	if len(ls.items) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(ls.items[0])
}

// IsList reports whether the targets arrived as an ordered sequence.
func (ls Levels) IsList() bool { return ls.list }

func (ls Levels) All() []Level { return ls.items }

// IsSet reports whether there is at least one target to show.
func (ls Levels) IsSet() bool {
	if ls.list {
		return len(ls.items) > 0
	}
	return len(ls.items) == 1 && ls.items[0].IsSet()
}

// First returns the first target of a list or the single value.
func (ls Levels) First() (Level, bool) {
	if !ls.IsSet() {
		return Level{}, false
	}
	return ls.items[0], true
}

// Percent is a 0-100 score. It prints the way the web client did, without
// trailing zeros ("72", "66.67").
type Percent struct {
	d decimal.Decimal
}

func NewPercent(f float64) Percent { return Percent{d: decimal.NewFromFloat(f)} }

func (p *Percent) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := string(b)
	if s == "null" || s == `""` || s == "" {
		*p = Percent{}
		return nil
	}
	s = strings.Trim(s, `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("percentage %s: %w", b, err)
	}
	*p = Percent{d: d}
	return nil
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.d.String()), nil
}

func (p Percent) Decimal() decimal.Decimal { return p.d }

func (p Percent) String() string { return p.d.String() }

// AtLeast compares against a whole-number threshold.
func (p Percent) AtLeast(n int64) bool {
	return p.d.GreaterThanOrEqual(decimal.NewFromInt(n))
}

// Float clamps to [0, 100] for bar widths.
func (p Percent) Float() float64 {
	f := p.d.InexactFloat64()
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}

// Limit is the daily analysis allowance. Premium accounts get the string
// "Unlimited" instead of a number.
type Limit struct {
	N         int
	Unlimited bool
}

func (l *Limit) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*l = Limit{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*l = Limit{N: n}
			return nil
		}
		*l = Limit{Unlimited: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("daily limit %s: %w", b, err)
	}
	*l = Limit{N: int(f)}
	return nil
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if l.Unlimited {
		return []byte(`"Unlimited"`), nil
	}
	return []byte(strconv.Itoa(l.N)), nil
}
