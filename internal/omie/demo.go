package omie

import (
	"fmt"
	"strings"

	"github.com/andrelmp/precifica/internal/model"
)

// demoCatalog backs the client when no ERP is configured, so the service can
// be exercised locally without OMIE credentials.
var demoCatalog = []model.ProductData{
	{Code: "PRD001", Description: "Filamento PLA 1kg", AverageCost: 68.90, Stock: 42},
	{Code: "PRD002", Description: "Filamento PETG 1kg", AverageCost: 89.50, Stock: 17},
	{Code: "CX-PAD", Description: "Caixa de papelão padrão", AverageCost: 3.20, Stock: 540},
	{Code: "MOUSE-01", Description: "Mouse sem fio", AverageCost: 45.00, Stock: 88},
	{Code: "TECL-01", Description: "Teclado mecânico ABNT2", AverageCost: 210.75, Stock: 12},
}

func (c *Client) lookupDemo(code string) (model.ProductData, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	for _, product := range demoCatalog {
		if product.Code == normalized {
			return product, nil
		}
	}
	return model.ProductData{}, fmt.Errorf("%w: %s", ErrProductNotFound, code)
}
