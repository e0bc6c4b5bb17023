package dashboard

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

type cardRow struct {
	ID              int64  `csv:"id"`
	Date            string `csv:"date"`
	Direction       string `csv:"direction"`
	Outcome         string `csv:"outcome"`
	Market          string `csv:"market"`
	Style           string `csv:"style"`
	Entry           string `csv:"entry"`
	TakeProfit      string `csv:"take_profit"`
	Confidence      string `csv:"confidence"`
	ConfidenceClass string `csv:"confidence_class"`
}

// WriteCSV writes cards in display order with a header row.
func WriteCSV(w io.Writer, cards []Card) error {
	rows := make([]*cardRow, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, &cardRow{
			ID:              c.ID,
			Date:            c.Date,
			Direction:       c.Direction,
			Outcome:         c.Outcome,
			Market:          c.Market,
			Style:           c.Style,
			Entry:           c.Entry,
			TakeProfit:      c.TakeProfit,
			Confidence:      c.Confidence,
			ConfidenceClass: c.ConfidenceClass,
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing history csv: %w", err)
	}
	return nil
}
