package analyzer

import (
	"fmt"
	"strings"

	"github.com/sdibella/chart-analyzer/internal/api"
)

// Tone is the confidence badge color.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

// Placeholder text for missing fields.
const (
	NoPatterns    = "No specific patterns identified"
	NoIndicators  = "No specific indicators identified"
	NoExplanation = "No explanation available."
	NoReasoning   = "No reasoning provided."
	GeneralRisk   = "General market risk applies to all trading activities."
	NotAvailable  = "N/A"
	Unknown       = "Unknown"
)

// Result is the rendered analysis view.
type Result struct {
	AnalysisID int64

	MarketType     string
	Confidence     string // "72%"
	ConfidenceTone Tone

	Patterns       []string
	PatternsNote   string // set when Patterns is empty
	Indicators     []string
	IndicatorsNote string

	Direction      string // "LONG Position"
	DirectionClass string // "long"
	Entry          string
	StopLoss       string
	TakeProfit     []string // "TP1: 101", or a single raw value, or "N/A"

	Explanation string
	Reasoning   string
	RiskFactors []string

	ChartQuality string
	ChartIssues  []string
}

// confidenceTone colors the analyzer badge: >=70 success, >=50 warning.
func confidenceTone(score api.Percent) Tone {
	switch {
	case score.AtLeast(70):
		return ToneSuccess
	case score.AtLeast(50):
		return ToneWarning
	default:
		return ToneDanger
	}
}

// BuildResult turns an analysis into the view shown after analyze.
func BuildResult(d api.AnalysisDetail) *Result {
	r := &Result{
		AnalysisID:     d.Key(),
		MarketType:     orDefault(d.MarketType, Unknown),
		Confidence:     d.ConfidenceScore.String() + "%",
		ConfidenceTone: confidenceTone(d.ConfidenceScore),
		Patterns:       nonEmpty(d.Patterns),
		Indicators:     nonEmpty(d.Indicators),
		Explanation:    orDefault(d.PatternExplanation, NoExplanation),
		Reasoning:      orDefault(d.Reasoning, NoReasoning),
		RiskFactors:    nonEmpty(d.RiskFactors),
		ChartQuality:   d.ChartQuality,
		ChartIssues:    nonEmpty(d.ChartIssues),
	}
	if len(r.Patterns) == 0 {
		r.PatternsNote = NoPatterns
	}
	if len(r.Indicators) == 0 {
		r.IndicatorsNote = NoIndicators
	}
	if len(r.RiskFactors) == 0 {
		r.RiskFactors = []string{GeneralRisk}
	}

	setup := d.Setup()
	if setup == nil {
		setup = &api.TradeSetup{}
	}
	direction := orDefault(setup.Direction, Unknown)
	r.Direction = strings.ToUpper(direction) + " Position"
	r.DirectionClass = strings.ToLower(direction)
	r.Entry = setup.Entry.Or(NotAvailable)
	r.StopLoss = setup.StopLoss.Or(NotAvailable)
	r.TakeProfit = takeProfitLines(setup.TakeProfit)

	return r
}

func takeProfitLines(tp api.Levels) []string {
	if !tp.IsSet() {
		return []string{NotAvailable}
	}
	if !tp.IsList() {
		first, _ := tp.First()
		return []string{first.String()}
	}
	lines := make([]string, 0, len(tp.All()))
	for i, l := range tp.All() {
		lines = append(lines, fmt.Sprintf("TP%d: %s", i+1, l.String()))
	}
	return lines
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
