package api

import (
	"encoding/json"
	"testing"
)

func TestLevelDecode(t *testing.T) {
	tests := []struct {
		in      string
		wantSet bool
		want    string
	}{
		{`"45,200 (breakout retest)"`, true, "45,200 (breakout retest)"},
		{`45200.50`, true, "45200.5"},
		{`1.0850`, true, "1.085"},
		{`null`, false, ""},
		{`""`, false, ""},
		{`0`, false, "0"},
	}
	for _, tt := range tests {
		var l Level
		if err := json.Unmarshal([]byte(tt.in), &l); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
		}
		if l.IsSet() != tt.wantSet || l.String() != tt.want {
			t.Errorf("Unmarshal(%s) = %q set=%v, want %q set=%v", tt.in, l.String(), l.IsSet(), tt.want, tt.wantSet)
		}
	}
}

func TestLevelsDecode(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantList bool
		wantN    int
		wantSet  bool
	}{
		{"array", `["TP1", 101.5, "103"]`, true, 3, true},
		{"empty array", `[]`, true, 0, false},
		{"single string", `"102"`, false, 1, true},
		{"single number", `102.25`, false, 1, true},
		{"json text", `"[\"100\", \"110\"]"`, true, 2, true},
		{"null", `null`, false, 0, false},
		{"empty string", `""`, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ls Levels
			if err := json.Unmarshal([]byte(tt.in), &ls); err != nil {
				t.Fatalf("Unmarshal error = %v", err)
			}
			if ls.IsList() != tt.wantList || len(ls.All()) != tt.wantN || ls.IsSet() != tt.wantSet {
				t.Errorf("got list=%v n=%d set=%v", ls.IsList(), len(ls.All()), ls.IsSet())
			}
		})
	}
}

func TestPercentString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`72`, "72"},
		{`66.67`, "66.67"},
		{`72.0`, "72"},
		{`"55"`, "55"},
		{`null`, "0"},
	}
	for _, tt := range tests {
		var p Percent
		if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
		}
		if p.String() != tt.want {
			t.Errorf("Percent(%s) = %q, want %q", tt.in, p.String(), tt.want)
		}
	}

	if !NewPercent(70).AtLeast(70) || NewPercent(69.99).AtLeast(70) {
		t.Error("AtLeast boundary wrong at 70")
	}
	if NewPercent(130).Float() != 100 || NewPercent(-5).Float() != 0 {
		t.Error("Float() should clamp to [0, 100]")
	}
}

func TestLimitDecode(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"is_premium":true,"daily_limit":"Unlimited","analyses_today":9}`), &u); err != nil {
		t.Fatal(err)
	}
	if !u.DailyLimit.Unlimited {
		t.Errorf("DailyLimit = %+v, want unlimited", u.DailyLimit)
	}

	if err := json.Unmarshal([]byte(`{"daily_limit":5,"analyses_today":5}`), &u); err != nil {
		t.Fatal(err)
	}
	if u.DailyLimit.Unlimited || u.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", u.Remaining())
	}
}

func TestDetailRoundTrip(t *testing.T) {
	in := `{"id":9,"market_type":"Stocks","patterns":["flag"],"trade_setup":{"direction":"Long","entry":"150","take_profit":[155,160]},"confidence_score":64.5}`
	var d AnalysisDetail
	if err := json.Unmarshal([]byte(in), &d); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var back AnalysisDetail
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-decode %s: %v", out, err)
	}
	if back.ConfidenceScore.String() != "64.5" || len(back.TradeSetup.TakeProfit.All()) != 2 || back.Patterns[0] != "flag" {
		t.Errorf("round trip lost data: %s", out)
	}
}
