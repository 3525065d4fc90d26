// Package profit implements the margin, markup and ROI arithmetic behind the
// calculation endpoints. Everything here is pure float64 math with no I/O.
//
// Two reporting styles coexist on purpose. Calculate never fails: non-positive
// sale prices yield a zeroed, non-profit result so keystroke-driven callers
// can always render something. The remaining functions treat bad inputs as
// caller errors and return them explicitly; handlers validate before calling,
// so those errors are unreachable from sanitized user input.
package profit

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrMarginOutOfRange is returned when a target margin is negative or
	// reaches 100%, where the price formula diverges.
	ErrMarginOutOfRange = errors.New("margem deve estar entre 0 e 100 (exclusivo)")
	// ErrMarkupOutOfRange is returned for negative or degenerate markups.
	ErrMarkupOutOfRange = errors.New("markup fora do intervalo permitido")
	// ErrNoUnitProfit is returned when a volume target cannot be met because
	// each unit sells at or below cost.
	ErrNoUnitProfit = errors.New("lucro unitário deve ser positivo")
	// ErrDiscountOutOfRange is returned for discounts outside [0, 100].
	ErrDiscountOutOfRange = errors.New("desconto deve estar entre 0 e 100")
	// ErrNoCompetitorPrices is returned when a competitor analysis receives
	// an empty price list.
	ErrNoCompetitorPrices = errors.New("lista de preços de concorrentes vazia")
)

// Result is the outcome of a single cost-versus-sale-price calculation.
// ProfitMargin is denominated on the sale price (gross margin), which is
// deliberately distinct from markup.
type Result struct {
	SalePrice    float64 `json:"salePrice"`
	ProfitMargin float64 `json:"profitMargin"`
	ProfitAmount float64 `json:"profitAmount"`
	IsProfit     bool    `json:"isProfit"`
}

// Calculate computes the profit result for a cost and sale price. A sale
// price of zero or below returns a zeroed non-profit result instead of
// dividing by zero. Breaking even (sale == cost) is not profit.
func Calculate(costPrice, salePrice float64) Result {
	if salePrice <= 0 {
		return Result{SalePrice: salePrice}
	}

	amount := salePrice - costPrice
	return Result{
		SalePrice:    salePrice,
		ProfitMargin: amount / salePrice * 100,
		ProfitAmount: amount,
		IsProfit:     amount > 0,
	}
}

// PriceForMargin returns the sale price that yields the target gross margin:
// price = cost / (1 - margin/100).
func PriceForMargin(costPrice, margin float64) (float64, error) {
	if margin < 0 || margin >= 100 {
		return 0, ErrMarginOutOfRange
	}
	return costPrice / (1 - margin/100), nil
}

// PriceForMarkup returns the sale price for a percentage markup over cost.
func PriceForMarkup(costPrice, markup float64) (float64, error) {
	if markup < 0 {
		return 0, ErrMarkupOutOfRange
	}
	return costPrice * (1 + markup/100), nil
}

// MarkupFromMargin converts a sale-price-denominated margin to the
// equivalent markup over cost.
func MarkupFromMargin(margin float64) (float64, error) {
	if margin >= 100 || margin <= -100 {
		return 0, ErrMarginOutOfRange
	}
	return margin / (100 - margin) * 100, nil
}

// MarginFromMarkup converts a markup over cost to the equivalent
// sale-price-denominated margin.
func MarginFromMarkup(markup float64) (float64, error) {
	if markup <= -100 {
		return 0, ErrMarkupOutOfRange
	}
	return markup / (100 + markup) * 100, nil
}

// BreakEvenPrice sums the unit cost with any extra per-unit cost components
// (fixed cost allocation, freight, fees). With no extras it is the cost
// itself.
func BreakEvenPrice(costPrice float64, extras ...float64) float64 {
	total := costPrice
	for _, e := range extras {
		total += e
	}
	return total
}

// VolumeForTargetProfit returns the number of units needed to reach a total
// profit target, covering fixed costs first.
func VolumeForTargetProfit(costPrice, salePrice, targetProfit, fixedCosts float64) (int, error) {
	unitProfit := salePrice - costPrice
	if unitProfit <= 0 {
		return 0, ErrNoUnitProfit
	}
	return int(math.Ceil((targetProfit + fixedCosts) / unitProfit)), nil
}

// DiscountImpact describes how a percentage discount changes the profit of a
// sale.
type DiscountImpact struct {
	OriginalPrice   float64 `json:"originalPrice"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountedPrice float64 `json:"discountedPrice"`
	Before          Result  `json:"before"`
	After           Result  `json:"after"`
	ProfitDelta     float64 `json:"profitDelta"`
}

// CalculateDiscountImpact applies a discount in [0, 100] to the original
// price and reports profit before, after and the delta.
func CalculateDiscountImpact(costPrice, originalPrice, discountPercent float64) (DiscountImpact, error) {
	if discountPercent < 0 || discountPercent > 100 {
		return DiscountImpact{}, ErrDiscountOutOfRange
	}

	discounted := originalPrice * (1 - discountPercent/100)
	before := Calculate(costPrice, originalPrice)
	after := Calculate(costPrice, discounted)

	return DiscountImpact{
		OriginalPrice:   originalPrice,
		DiscountPercent: discountPercent,
		DiscountedPrice: discounted,
		Before:          before,
		After:           after,
		ProfitDelta:     after.ProfitAmount - before.ProfitAmount,
	}, nil
}

// CompetitivePricing summarizes competitor prices and recommends a price of
// max(cost*1.1, mean*0.95): never price below a 10% markup over cost, and
// otherwise undercut the market average by 5%.
type CompetitivePricing struct {
	MinPrice            float64 `json:"minPrice"`
	MaxPrice            float64 `json:"maxPrice"`
	AveragePrice        float64 `json:"averagePrice"`
	MedianPrice         float64 `json:"medianPrice"`
	RecommendedPrice    float64 `json:"recommendedPrice"`
	MarginAtRecommended float64 `json:"marginAtRecommended"`
}

// CalculateCompetitivePricing analyzes a non-empty competitor price list.
func CalculateCompetitivePricing(costPrice float64, competitorPrices []float64) (CompetitivePricing, error) {
	if len(competitorPrices) == 0 {
		return CompetitivePricing{}, ErrNoCompetitorPrices
	}

	sorted := append([]float64(nil), competitorPrices...)
	sort.Float64s(sorted)

	var sum float64
	for _, p := range sorted {
		sum += p
	}
	mean := sum / float64(len(sorted))

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	recommended := math.Max(costPrice*1.1, mean*0.95)

	return CompetitivePricing{
		MinPrice:            sorted[0],
		MaxPrice:            sorted[len(sorted)-1],
		AveragePrice:        mean,
		MedianPrice:         median,
		RecommendedPrice:    recommended,
		MarginAtRecommended: Calculate(costPrice, recommended).ProfitMargin,
	}, nil
}

// ElasticityImpact projects volume, revenue and profit after a price change
// under a linear elasticity model.
type ElasticityImpact struct {
	NewPrice            float64 `json:"newPrice"`
	PriceChangePercent  float64 `json:"priceChangePercent"`
	VolumeChangePercent float64 `json:"volumeChangePercent"`
	NewVolume           float64 `json:"newVolume"`
	CurrentRevenue      float64 `json:"currentRevenue"`
	NewRevenue          float64 `json:"newRevenue"`
	RevenueDelta        float64 `json:"revenueDelta"`
	CurrentProfit       float64 `json:"currentProfit"`
	NewProfit           float64 `json:"newProfit"`
	ProfitDelta         float64 `json:"profitDelta"`
}

// CalculateElasticityImpact applies volumeChange% = -elasticity *
// priceChange% to the current state. Projected volume is floored at zero.
func CalculateElasticityImpact(costPrice, currentPrice, currentVolume, priceChangePercent, elasticity float64) ElasticityImpact {
	newPrice := currentPrice * (1 + priceChangePercent/100)
	volumeChangePercent := -elasticity * priceChangePercent
	newVolume := currentVolume * (1 + volumeChangePercent/100)
	if newVolume < 0 {
		newVolume = 0
	}

	currentRevenue := currentPrice * currentVolume
	newRevenue := newPrice * newVolume
	currentProfit := (currentPrice - costPrice) * currentVolume
	newProfit := (newPrice - costPrice) * newVolume

	return ElasticityImpact{
		NewPrice:            newPrice,
		PriceChangePercent:  priceChangePercent,
		VolumeChangePercent: volumeChangePercent,
		NewVolume:           newVolume,
		CurrentRevenue:      currentRevenue,
		NewRevenue:          newRevenue,
		RevenueDelta:        newRevenue - currentRevenue,
		CurrentProfit:       currentProfit,
		NewProfit:           newProfit,
		ProfitDelta:         newProfit - currentProfit,
	}
}

// BreakEvenAnalysis reports how many units must be sold to cover fixed
// costs at a given contribution margin.
type BreakEvenAnalysis struct {
	ContributionMargin float64 `json:"contributionMargin"`
	BreakEvenUnits     int     `json:"breakEvenUnits"`
	BreakEvenRevenue   float64 `json:"breakEvenRevenue"`
}

// CalculateBreakEvenAnalysis fails when the contribution margin (sale price
// minus unit cost) is not positive, since fixed costs could never be covered.
func CalculateBreakEvenAnalysis(costPrice, salePrice, fixedCosts float64) (BreakEvenAnalysis, error) {
	contribution := salePrice - costPrice
	if contribution <= 0 {
		return BreakEvenAnalysis{}, fmt.Errorf("analisar ponto de equilíbrio: %w", ErrNoUnitProfit)
	}

	units := int(math.Ceil(fixedCosts / contribution))
	return BreakEvenAnalysis{
		ContributionMargin: contribution,
		BreakEvenUnits:     units,
		BreakEvenRevenue:   float64(units) * salePrice,
	}, nil
}
