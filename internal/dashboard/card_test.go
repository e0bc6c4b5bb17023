package dashboard

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sdibella/chart-analyzer/internal/api"
)

var est = time.FixedZone("EST", -5*3600)

func analysis(t *testing.T, js string) api.Analysis {
	t.Helper()
	var a api.Analysis
	if err := json.Unmarshal([]byte(js), &a); err != nil {
		t.Fatalf("bad fixture %s: %v", js, err)
	}
	return a
}

func TestConfidenceBucket(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{45, "low"},
		{49.99, "low"},
		{50, "medium"},
		{65, "medium"},
		{69.9, "medium"},
		{70, "high"},
		{85, "high"},
		{0, "low"},
	}
	for _, tt := range tests {
		if got := confidenceBucket(api.NewPercent(tt.score)); got != tt.want {
			t.Errorf("confidenceBucket(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestBuildCardDefaults(t *testing.T) {
	c := BuildCard(analysis(t, `{"id": 4}`), est)

	if c.Direction != "N/A" || c.DirectionClass != "n/a" {
		t.Errorf("direction = %q / %q", c.Direction, c.DirectionClass)
	}
	if c.Outcome != "pending" {
		t.Errorf("Outcome = %q, want pending", c.Outcome)
	}
	if c.Market != "N/A" || c.Style != "N/A" || c.Entry != "N/A" || c.TakeProfit != "N/A" {
		t.Errorf("placeholders = %+v", c)
	}
	if c.Confidence != "0" || c.ConfidenceWidth != 0 || c.ConfidenceClass != "low" {
		t.Errorf("confidence = %q %v %q", c.Confidence, c.ConfidenceWidth, c.ConfidenceClass)
	}
	if c.Date != InvalidDate {
		t.Errorf("Date = %q, want %q", c.Date, InvalidDate)
	}
}

func TestBuildCardFull(t *testing.T) {
	c := BuildCard(analysis(t, `{
		"id": 9,
		"trade_direction": "Long",
		"outcome": "win",
		"market_type": "Crypto",
		"trading_style": "Swing Trading",
		"entry_price": "43,250",
		"take_profit": "[\"44,000\", \"45,500\"]",
		"confidence_score": 85,
		"created_at": "2024-03-14T14:05:00Z"
	}`), est)

	want := Card{
		ID:              9,
		Direction:       "Long",
		DirectionClass:  "long",
		Outcome:         "win",
		Market:          "Crypto",
		Style:           "Swing Trading",
		Entry:           "43,250",
		TakeProfit:      "44,000",
		Confidence:      "85",
		ConfidenceWidth: 85,
		ConfidenceClass: "high",
		Date:            "3/14/2024 09:05 AM",
	}
	if c != want {
		t.Errorf("BuildCard() =\n%+v\nwant\n%+v", c, want)
	}
}

func TestCardTakeProfit(t *testing.T) {
	tests := []struct {
		js   string
		want string
	}{
		{`{"take_profit": ["101.5", "103"]}`, "101.5"},
		{`{"take_profit": [102, 104]}`, "102"},
		{`{"take_profit": "1.0750"}`, "1.0750"},
		{`{"take_profit": 1.08}`, "1.08"},
		{`{"take_profit": []}`, "N/A"},
		{`{"take_profit": ""}`, "N/A"},
		{`{"take_profit": null}`, "N/A"},
	}
	for _, tt := range tests {
		if got := BuildCard(analysis(t, tt.js), est).TakeProfit; got != tt.want {
			t.Errorf("%s: TakeProfit = %q, want %q", tt.js, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-14T14:05:00Z", "3/14/2024 09:05 AM"},
		{"2024-03-14T14:05:00.250+00:00", "3/14/2024 09:05 AM"},
		{"2024-03-14T09:05:00.123456", "3/14/2024 09:05 AM"},
		{"2024-03-14T21:30:00", "3/14/2024 09:30 PM"},
		{"2024-03-14 21:30:00", "3/14/2024 09:30 PM"},
		{"2024-12-01T00:00:00", "12/1/2024 12:00 AM"},
		{"2024-03-14", "3/13/2024 07:00 PM"},
		{"", InvalidDate},
		{"yesterday", InvalidDate},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in, est); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
