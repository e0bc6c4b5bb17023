package dashboard

import (
	"strings"
	"time"

	"github.com/sdibella/chart-analyzer/internal/api"
)

const (
	NotAvailable   = "N/A"
	DefaultOutcome = "pending"
	InvalidDate    = "Invalid Date"

	// DateLayout is month/day/year with a zero-padded 12 hour clock.
	DateLayout = "1/2/2006 03:04 PM"
)

// Timestamp layouts accepted from created_at. Offset-less values are read
// in the viewer's local zone, except a bare date which is UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
}

// BuildCard renders a history item. loc is the viewer's zone.
func BuildCard(a api.Analysis, loc *time.Location) Card {
	direction := a.TradeDirection
	if direction == "" {
		direction = NotAvailable
	}
	outcome := a.Outcome
	if outcome == "" {
		outcome = DefaultOutcome
	}

	return Card{
		ID:              a.ID,
		Direction:       direction,
		DirectionClass:  strings.ToLower(direction),
		Outcome:         outcome,
		Market:          orNA(a.MarketType),
		Style:           orNA(a.TradingStyle),
		Entry:           a.EntryPrice.Or(NotAvailable),
		TakeProfit:      cardTakeProfit(a.TakeProfit),
		Confidence:      a.ConfidenceScore.String(),
		ConfidenceWidth: a.ConfidenceScore.Float(),
		ConfidenceClass: confidenceBucket(a.ConfidenceScore),
		Date:            FormatDate(a.CreatedAt, loc),
	}
}

// confidenceBucket classes the card bar: <50 low, <70 medium, else high.
// The analyzer badge has its own thresholds.
func confidenceBucket(score api.Percent) string {
	if !score.AtLeast(50) {
		return "low"
	}
	if !score.AtLeast(70) {
		return "medium"
	}
	return "high"
}

func cardTakeProfit(tp api.Levels) string {
	first, ok := tp.First()
	if !ok {
		return NotAvailable
	}
	return first.String()
}

// FormatDate renders created_at in loc, or InvalidDate.
func FormatDate(s string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, ok := parseTimestamp(strings.TrimSpace(s), loc)
	if !ok {
		return InvalidDate
	}
	return t.In(loc).Format(DateLayout)
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
