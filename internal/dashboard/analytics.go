package dashboard

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/sdibella/chart-analyzer/internal/api"
)

// GroupStats aggregates the history items sharing one key.
type GroupStats struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Pending int     `json:"pending"`
	WinRate float64 `json:"win_rate"` // wins / (wins + losses), 0-100

	MeanConfidence float64 `json:"mean_confidence"`
	StdConfidence  float64 `json:"std_confidence"`
}

// Settled is the number of items with a known result.
func (g GroupStats) Settled() int { return g.Wins + g.Losses }

// Breakdown splits the loaded history by trade direction and by the card
// confidence bucket.
type Breakdown struct {
	Overall      GroupStats   `json:"overall"`
	ByDirection  []GroupStats `json:"by_direction"`
	ByConfidence []GroupStats `json:"by_confidence"` // low, medium, high
}

// ComputeBreakdown reads only the snapshot; it never fetches.
func ComputeBreakdown(items []api.Analysis) Breakdown {
	var b Breakdown

	b.Overall = group("all", items)

	byDir := make(map[string][]api.Analysis)
	for _, a := range items {
		dir := strings.ToLower(a.TradeDirection)
		if dir == "" {
			dir = strings.ToLower(NotAvailable)
		}
		byDir[dir] = append(byDir[dir], a)
	}
	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		b.ByDirection = append(b.ByDirection, group(d, byDir[d]))
	}

	byBucket := make(map[string][]api.Analysis)
	for _, a := range items {
		k := confidenceBucket(a.ConfidenceScore)
		byBucket[k] = append(byBucket[k], a)
	}
	for _, k := range []string{"low", "medium", "high"} {
		if len(byBucket[k]) > 0 {
			b.ByConfidence = append(b.ByConfidence, group(k, byBucket[k]))
		}
	}

	return b
}

func group(key string, items []api.Analysis) GroupStats {
	g := GroupStats{Key: key, Count: len(items)}
	if len(items) == 0 {
		return g
	}

	conf := make([]float64, 0, len(items))
	for _, a := range items {
		switch a.Outcome {
		case "win":
			g.Wins++
		case "loss":
			g.Losses++
		default:
			g.Pending++
		}
		conf = append(conf, a.ConfidenceScore.Float())
	}

	if g.Settled() > 0 {
		g.WinRate = round2(100 * float64(g.Wins) / float64(g.Settled()))
	}
	if len(conf) == 1 {
		g.MeanConfidence = round2(conf[0])
	} else {
		mean, std := stat.MeanStdDev(conf, nil)
		g.MeanConfidence, g.StdConfidence = round2(mean), round2(std)
	}
	return g
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
