// Package scenario batch-applies the profit engine over a margin ladder to
// produce the comparison table and ranked recommendations shown next to a
// calculation.
package scenario

import (
	"fmt"
	"sort"

	"github.com/andrelmp/precifica/internal/profit"
)

// Status bands for display. The thresholds are fixed business policy:
// negative margin is a loss, above 30 excellent, above 15 good, anything
// else low.
const (
	StatusLoss      = "loss"
	StatusLow       = "low"
	StatusGood      = "good"
	StatusExcellent = "excellent"
)

// marginLadder is the fixed set of target margins every scenario table is
// built from.
var marginLadder = []float64{10, 15, 20, 25, 30, 40, 50}

// Row is one line of the scenario comparison table.
type Row struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Margin   float64 `json:"margin"`
	Profit   float64 `json:"profit"`
	IsProfit bool    `json:"isProfit"`
	Status   string  `json:"status"`
}

// Recommendation is a ranked pricing suggestion derived from the ladder.
type Recommendation struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Margin     float64 `json:"margin"`
	Profit     float64 `json:"profit"`
	Status     string  `json:"status"`
	Confidence int     `json:"confidence"`
}

// Band classifies a margin into its display status.
func Band(margin float64) string {
	switch {
	case margin < 0:
		return StatusLoss
	case margin > 30:
		return StatusExcellent
	case margin > 15:
		return StatusGood
	default:
		return StatusLow
	}
}

// Table builds the scenario table for a unit cost: one row per ladder margin
// priced at cost/(1-margin/100), a break-even row at the cost itself, and,
// when currentPrice is positive, a row for the price currently practiced.
// Rows come back sorted by ascending price.
func Table(costPrice, currentPrice float64) []Row {
	rows := make([]Row, 0, len(marginLadder)+2)

	rows = append(rows, Row{
		Name:   "Ponto de equilíbrio",
		Price:  costPrice,
		Margin: 0,
		Status: Band(0),
	})

	for _, margin := range marginLadder {
		price, err := profit.PriceForMargin(costPrice, margin)
		if err != nil {
			// Ladder margins are all below 100; unreachable.
			continue
		}
		res := profit.Calculate(costPrice, price)
		rows = append(rows, Row{
			Name:     fmt.Sprintf("Margem %.0f%%", margin),
			Price:    price,
			Margin:   margin,
			Profit:   res.ProfitAmount,
			IsProfit: res.IsProfit,
			Status:   Band(margin),
		})
	}

	if currentPrice > 0 {
		res := profit.Calculate(costPrice, currentPrice)
		rows = append(rows, Row{
			Name:     "Preço atual",
			Price:    currentPrice,
			Margin:   res.ProfitMargin,
			Profit:   res.ProfitAmount,
			IsProfit: res.IsProfit,
			Status:   Band(res.ProfitMargin),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Price < rows[j].Price })
	return rows
}

// confidenceByStatus is an opaque policy table; the values are asserted, not
// derived.
var confidenceByStatus = map[string]int{
	StatusExcellent: 85,
	StatusGood:      80,
	StatusLow:       65,
}

// Recommendations ranks the ladder rows that at least break even, highest
// margin first, each tagged with the fixed confidence for its status band.
func Recommendations(costPrice, currentPrice float64) []Recommendation {
	rows := Table(costPrice, currentPrice)

	recs := make([]Recommendation, 0, len(rows))
	for _, row := range rows {
		conf, ok := confidenceByStatus[row.Status]
		if !ok || row.Margin <= 0 {
			continue
		}
		recs = append(recs, Recommendation{
			Name:       row.Name,
			Price:      row.Price,
			Margin:     row.Margin,
			Profit:     row.Profit,
			Status:     row.Status,
			Confidence: conf,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Margin > recs[j].Margin })
	return recs
}
