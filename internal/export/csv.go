// Package export renders calculation history as a CSV report. The layout
// follows pt-BR spreadsheet conventions: semicolon separated, values
// formatted with the same currency/percentage strings shown in the UI.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/andrelmp/precifica/internal/history"
	"github.com/andrelmp/precifica/internal/numfmt"
)

var header = []string{
	"Data",
	"Código",
	"Descrição",
	"Custo Médio",
	"Preço de Venda",
	"Lucro",
	"Margem",
	"Resultado",
}

// WriteCSV writes the history as a semicolon-separated report with a header
// row and a final totals row. Profit amounts are summed as decimals so the
// totals line matches what a spreadsheet would compute over the rows.
func WriteCSV(w io.Writer, items []history.Item) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	total := decimal.Zero
	for _, item := range items {
		outcome := "Prejuízo"
		if item.Result.IsProfit {
			outcome = "Lucro"
		}

		record := []string{
			item.CreatedAt.Format("02/01/2006 15:04"),
			item.Product.Code,
			item.Product.Description,
			numfmt.FormatCurrency(item.Product.AverageCost),
			numfmt.FormatCurrency(item.Result.SalePrice),
			numfmt.FormatCurrency(item.Result.ProfitAmount),
			numfmt.FormatPercentage(item.Result.ProfitMargin),
			outcome,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}

		total = total.Add(decimal.NewFromFloat(item.Result.ProfitAmount))
	}

	totalFloat, _ := total.Round(2).Float64()
	totals := []string{
		"", "", "", "", "Total",
		numfmt.FormatCurrency(totalFloat),
		"", "",
	}
	if err := cw.Write(totals); err != nil {
		return fmt.Errorf("write csv totals: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
