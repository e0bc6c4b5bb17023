package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sdibella/chart-analyzer/internal/analyzer"
	"github.com/sdibella/chart-analyzer/internal/api"
	"github.com/sdibella/chart-analyzer/internal/dashboard"
	"github.com/sdibella/chart-analyzer/internal/trace"
)

func contains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestResultPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	if err := Result(&buf, analyzer.BuildResult(api.AnalysisDetail{})); err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	contains(t, buf.String(),
		"Market:      Unknown",
		"Confidence:  0% [danger]",
		analyzer.NoPatterns,
		analyzer.NoIndicators,
		"Trade setup: UNKNOWN Position",
		"Entry:       N/A",
		analyzer.NoExplanation,
		analyzer.NoReasoning,
		"- "+analyzer.GeneralRisk,
	)
	if strings.Contains(buf.String(), "Analysis #") {
		t.Error("printed an analysis id for an unsaved result")
	}
}

func TestResultFull(t *testing.T) {
	r := &analyzer.Result{
		AnalysisID:     12,
		MarketType:     "Crypto",
		Confidence:     "72%",
		ConfidenceTone: analyzer.ToneSuccess,
		Patterns:       []string{"bull flag"},
		Indicators:     []string{"RSI 62"},
		Direction:      "LONG Position",
		Entry:          "100",
		StopLoss:       "95",
		TakeProfit:     []string{"TP1: 105", "TP2: 110"},
		Explanation:    "x",
		Reasoning:      "y",
		RiskFactors:    []string{"news"},
		ChartQuality:   "good",
	}
	var buf bytes.Buffer
	if err := Result(&buf, r); err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(), "Analysis #12", "72% [success]", "  - bull flag", "TP1: 105", "TP2: 110", "Chart quality: good")
}

func TestAnalyzerStatus(t *testing.T) {
	s, _ := analyzer.Update(analyzer.State{}, analyzer.FileChosen{File: analyzer.NewFile("btc.png", "image/png", make([]byte, 2048))})
	var buf bytes.Buffer
	if err := Analyzer(&buf, s); err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(), "[selected]", "btc.png (image/png, 2.0 KB)", "ready to analyze")
}

func TestDashboard(t *testing.T) {
	s := dashboard.NewState()
	s, _ = dashboard.Update(s, dashboard.UserLoaded{User: api.User{FullName: "Ada"}})
	s, _ = dashboard.Update(s, dashboard.StatsLoaded{User: api.User{IsPremium: true}})
	s, _ = dashboard.Update(s, dashboard.HistoryLoaded{Items: []api.Analysis{
		{ID: 7, TradeDirection: "Short", Outcome: "loss", MarketType: "Forex", ConfidenceScore: api.NewPercent(65)},
	}})

	var buf bytes.Buffer
	if err := Dashboard(&buf, s); err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(), "Welcome, Ada", "Premium User:", "∞", "#7", "Short", "loss", "65% (medium)", "Invalid Date")

	s, _ = dashboard.Update(s, dashboard.FilterSelected{Category: "win"})
	buf.Reset()
	Dashboard(&buf, s)
	contains(t, buf.String(), "[filter: win]", "No win analyses")
}

func TestTraceAndBreakdown(t *testing.T) {
	var buf bytes.Buffer
	err := Trace(&buf, []trace.Count{{Page: "dashboard", Kind: "event", Name: "dashboard.PageLoaded", N: 2}})
	if err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(), "PageLoaded", "2")

	buf.Reset()
	b := dashboard.ComputeBreakdown([]api.Analysis{{TradeDirection: "Long", Outcome: "win", ConfidenceScore: api.NewPercent(80)}})
	if err := Breakdown(&buf, b); err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(), "all", "long", "high", "100.00")
}

func TestBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "[....................]"},
		{50, "[##########..........]"},
		{100, "[####################]"},
		{150, "[####################]"},
	}
	for _, tt := range tests {
		if got := Bar(tt.pct); got != tt.want {
			t.Errorf("Bar(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}
