package profit

import (
	"errors"
	"math"
)

var (
	// ErrInvalidPriceRange is returned when a price sweep has a non-positive
	// step or an empty range.
	ErrInvalidPriceRange = errors.New("faixa de preços inválida")
	// ErrInsufficientData is returned when a sensitivity estimate has fewer
	// than two usable data points or mismatched series.
	ErrInsufficientData = errors.New("dados históricos insuficientes")
)

// Market position labels.
const (
	PositionPremium     = "premium"
	PositionCompetitive = "competitive"
	PositionBudget      = "budget"
)

// Sensitivity labels.
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
)

// PriceScenario is one row of a price sweep.
type PriceScenario struct {
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// OptimalPricing is the outcome of a discrete price grid search.
type OptimalPricing struct {
	Scenarios     []PriceScenario `json:"scenarios"`
	OptimalPrice  float64         `json:"optimalPrice"`
	OptimalProfit float64         `json:"optimalProfit"`
}

// AnalyzeOptimalPricing sweeps [minPrice, maxPrice] at the given step,
// projecting volume at each candidate through the elasticity model and
// tracking the price that maximizes (price-cost)*volume. This is a grid
// search, not a closed-form optimum: the step size bounds the precision and
// is the caller's cost/accuracy tradeoff.
func AnalyzeOptimalPricing(costPrice, currentPrice, currentVolume, elasticity, minPrice, maxPrice, step float64) (OptimalPricing, error) {
	if step <= 0 || maxPrice < minPrice || currentPrice <= 0 {
		return OptimalPricing{}, ErrInvalidPriceRange
	}

	out := OptimalPricing{OptimalProfit: math.Inf(-1)}
	for price := minPrice; price <= maxPrice+step/1e6; price += step {
		priceChangePercent := (price - currentPrice) / currentPrice * 100
		volume := currentVolume * (1 - elasticity*priceChangePercent/100)
		if volume < 0 {
			volume = 0
		}

		sc := PriceScenario{
			Price:   price,
			Volume:  volume,
			Revenue: price * volume,
			Profit:  (price - costPrice) * volume,
		}
		out.Scenarios = append(out.Scenarios, sc)

		if sc.Profit > out.OptimalProfit {
			out.OptimalProfit = sc.Profit
			out.OptimalPrice = sc.Price
		}
	}

	return out, nil
}

// MarketPosition classifies where a product can sit against competitors and
// pairs the position with one fixed strategy text and confidence score. The
// confidences are asserted policy values, not computed.
type MarketPosition struct {
	Position        string  `json:"position"`
	MarginAtLowest  float64 `json:"marginAtLowest"`
	MarginAtAverage float64 `json:"marginAtAverage"`
	Strategy        string  `json:"strategy"`
	Confidence      int     `json:"confidence"`
}

// AnalyzeMarketPosition compares the margin implied by the lowest competitor
// price with the margin implied by the average. A healthy margin even at the
// cheapest competitor price allows a budget play; a healthy margin only at
// the average suggests pricing competitively; otherwise the product must be
// positioned premium.
func AnalyzeMarketPosition(costPrice float64, competitorPrices []float64) (MarketPosition, error) {
	summary, err := CalculateCompetitivePricing(costPrice, competitorPrices)
	if err != nil {
		return MarketPosition{}, err
	}

	marginAtLowest := Calculate(costPrice, summary.MinPrice).ProfitMargin
	marginAtAverage := Calculate(costPrice, summary.AveragePrice).ProfitMargin

	pos := MarketPosition{
		MarginAtLowest:  marginAtLowest,
		MarginAtAverage: marginAtAverage,
	}

	switch {
	case marginAtLowest > 15:
		pos.Position = PositionBudget
		pos.Strategy = "Você pode praticar preços abaixo do menor concorrente mantendo margem saudável."
		pos.Confidence = 80
	case marginAtAverage > 15:
		pos.Position = PositionCompetitive
		pos.Strategy = "Posicione o preço próximo à média do mercado para equilibrar margem e volume."
		pos.Confidence = 85
	default:
		pos.Position = PositionPremium
		pos.Strategy = "Seu custo exige preço acima da média; diferencie o produto para justificar o valor."
		pos.Confidence = 70
	}

	return pos, nil
}

// PriceSensitivity estimates demand elasticity from historical price/volume
// change pairs and reports the profit-maximizing price move within ±20%.
type PriceSensitivity struct {
	Elasticity             float64 `json:"elasticity"`
	Sensitivity            string  `json:"sensitivity"`
	BestPriceChangePercent float64 `json:"bestPriceChangePercent"`
	BestPrice              float64 `json:"bestPrice"`
	ProjectedProfit        float64 `json:"projectedProfit"`
}

// sensitivityBaselineVolume is the assumed volume for the ±20% sweep; the
// historical series carries no absolute volumes, only percentage changes.
const sensitivityBaselineVolume = 100.0

// AnalyzePriceSensitivity computes a weighted-average elasticity (weights are
// the magnitudes of the price changes), classifies it at the 0.5 and 1.5
// thresholds, and grid-searches price changes from -20% to +20% in 1% steps
// for the most profitable move. priceChanges and volumeChanges are paired
// percentage series and must hold at least two usable points.
func AnalyzePriceSensitivity(costPrice, currentPrice float64, priceChanges, volumeChanges []float64) (PriceSensitivity, error) {
	if len(priceChanges) != len(volumeChanges) || len(priceChanges) < 2 {
		return PriceSensitivity{}, ErrInsufficientData
	}

	var weightedSum, weightTotal float64
	usable := 0
	for i, pc := range priceChanges {
		if pc == 0 {
			continue
		}
		weight := math.Abs(pc)
		weightedSum += weight * (-volumeChanges[i] / pc)
		weightTotal += weight
		usable++
	}
	if usable < 2 {
		return PriceSensitivity{}, ErrInsufficientData
	}

	elasticity := weightedSum / weightTotal

	out := PriceSensitivity{Elasticity: elasticity}
	switch {
	case elasticity < 0.5:
		out.Sensitivity = SensitivityLow
	case elasticity > 1.5:
		out.Sensitivity = SensitivityHigh
	default:
		out.Sensitivity = SensitivityMedium
	}

	bestProfit := math.Inf(-1)
	for change := -20.0; change <= 20.0; change++ {
		price := currentPrice * (1 + change/100)
		volume := sensitivityBaselineVolume * (1 - elasticity*change/100)
		if volume < 0 {
			volume = 0
		}
		profit := (price - costPrice) * volume
		if profit > bestProfit {
			bestProfit = profit
			out.BestPriceChangePercent = change
			out.BestPrice = price
			out.ProjectedProfit = profit
		}
	}

	return out, nil
}
