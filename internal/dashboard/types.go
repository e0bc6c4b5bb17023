package dashboard

// View models for the dashboard page

// StatsView is the stats strip. The zero value from PlaceholderStats is what
// the page shows until stats load.
type StatsView struct {
	TotalAnalyses     string `json:"total_analyses"`
	WinRate           string `json:"win_rate"`       // "62.5%"
	AvgConfidence     string `json:"avg_confidence"` // "71%"
	AnalysesLeft      string `json:"analyses_left"`  // "3" or "∞"
	AnalysesLeftLabel string `json:"analyses_left_label"`
}

const (
	LabelPremium      = "Premium User"
	LabelAnalysesLeft = "Analyses Left Today"
	Infinity          = "∞"
)

func PlaceholderStats() StatsView {
	return StatsView{
		TotalAnalyses:     "0",
		WinRate:           "0%",
		AvgConfidence:     "0%",
		AnalysesLeft:      "-",
		AnalysesLeftLabel: LabelAnalysesLeft,
	}
}

// Card is one history item as rendered in the grid.
type Card struct {
	ID              int64   `json:"id"`
	Direction       string  `json:"direction"`       // "Long", or "N/A"
	DirectionClass  string  `json:"direction_class"` // "long"
	Outcome         string  `json:"outcome"`         // "win"/"loss"/"pending"
	Market          string  `json:"market"`
	Style           string  `json:"style"`
	Entry           string  `json:"entry"`
	TakeProfit      string  `json:"take_profit"`
	Confidence      string  `json:"confidence"` // "72", printed with a % sign
	ConfidenceWidth float64 `json:"confidence_width"`
	ConfidenceClass string  `json:"confidence_class"` // "low"/"medium"/"high"
	Date            string  `json:"date"`             // "3/14/2024 09:05 AM"
}
