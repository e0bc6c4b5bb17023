package render

import (
	"embed"
	"fmt"
	"io"
	"math"
	"strings"
	"text/template"

	"github.com/sdibella/chart-analyzer/internal/analyzer"
	"github.com/sdibella/chart-analyzer/internal/dashboard"
	"github.com/sdibella/chart-analyzer/internal/trace"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const barWidth = 20

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"bytes": Bytes,
	"bar":   Bar,
	"short": trace.ShortName,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Result prints an analysis result.
func Result(w io.Writer, r *analyzer.Result) error {
	if r == nil {
		return nil
	}
	return execute(w, "result", r)
}

// Analyzer prints the one-line upload page status.
func Analyzer(w io.Writer, s analyzer.State) error {
	return execute(w, "analyzer", s)
}

// Dashboard prints the stats strip and the visible history cards.
func Dashboard(w io.Writer, s dashboard.State) error {
	return execute(w, "dashboard", s)
}

// Trace prints per-type event and effect counts.
func Trace(w io.Writer, counts []trace.Count) error {
	return execute(w, "trace", counts)
}

// Breakdown prints a history breakdown as an aligned table.
func Breakdown(w io.Writer, b dashboard.Breakdown) error {
	rows := [][]dashboard.GroupStats{{b.Overall}, b.ByDirection, b.ByConfidence}
	if _, err := fmt.Fprintf(w, "%-8s %5s %4s %6s %7s %8s %6s\n", "group", "count", "wins", "losses", "win%", "conf", "±"); err != nil {
		return err
	}
	for i, section := range rows {
		if i > 0 && len(section) > 0 {
			fmt.Fprintln(w)
		}
		for _, g := range section {
			_, err := fmt.Fprintf(w, "%-8s %5d %4d %6d %7.2f %8.2f %6.2f\n",
				g.Key, g.Count, g.Wins, g.Losses, g.WinRate, g.MeanConfidence, g.StdConfidence)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func execute(w io.Writer, name string, data any) error {
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return nil
}

// Bar draws a 0-100 value as a fixed-width text bar.
func Bar(pct float64) string {
	pct = math.Max(0, math.Min(100, pct))
	filled := int(math.Round(pct / 100 * barWidth))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

// Bytes formats a file size.
func Bytes(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
}
