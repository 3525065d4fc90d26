package main

import (
	"errors"
	"net/http"

	"github.com/andrelmp/precifica/internal/profit"
)

// respondPolicyError maps the calculation engine's caller errors to 422: the
// request was well formed JSON but violates a calculation precondition.
// Anything else is an internal failure.
func respondPolicyError(w http.ResponseWriter, err error) {
	if isPolicyError(err) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "erro interno")
}

func isPolicyError(err error) bool {
	for _, sentinel := range []error{
		profit.ErrMarginOutOfRange,
		profit.ErrMarkupOutOfRange,
		profit.ErrNoUnitProfit,
		profit.ErrDiscountOutOfRange,
		profit.ErrNoCompetitorPrices,
		profit.ErrInvalidPriceRange,
		profit.ErrInsufficientData,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (s *server) handleAnalysisDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CostPrice       float64 `json:"costPrice"`
		OriginalPrice   float64 `json:"originalPrice"`
		DiscountPercent float64 `json:"discountPercent"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	impact, err := profit.CalculateDiscountImpact(req.CostPrice, req.OriginalPrice, req.DiscountPercent)
	if err != nil {
		respondPolicyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, impact)
}

func (s *server) handleAnalysisCompetitive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CostPrice        float64   `json:"costPrice"`
		CompetitorPrices []float64 `json:"competitorPrices"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	res, err := profit.CalculateCompetitivePricing(req.CostPrice, req.CompetitorPrices)
	if err != nil {
		respondPolicyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *server) handleAnalysisElasticity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CostPrice          float64 `json:"costPrice"`
		CurrentPrice       float64 `json:"currentPrice"`
		CurrentVolume      float64 `json:"currentVolume"`
		PriceChangePercent float64 `json:"priceChangePercent"`
		Elasticity         float64 `json:"elasticity"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	impact := profit.CalculateElasticityImpact(
		req.CostPrice, req.CurrentPrice, req.CurrentVolume, req.PriceChangePercent, req.Elasticity)
	respondJSON(w, http.StatusOK, impact)
}

func (s *server) handleAnalysisOptimal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CostPrice     float64 `json:"costPrice"`
		CurrentPrice  float64 `json:"currentPrice"`
		CurrentVolume float64 `json:"currentVolume"`
		Elasticity    float64 `json:"elasticity"`
		MinPrice      float64 `json:"minPrice"`
		MaxPrice      float64 `json:"maxPrice"`
		Step          float64 `json:"step"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	res, err := profit.AnalyzeOptimalPricing(
		req.CostPrice, req.CurrentPrice, req.CurrentVolume, req.Elasticity,
		req.MinPrice, req.MaxPrice, req.Step)
	if err != nil {
		respondPolicyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *server) handleAnalysisMarket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CostPrice        float64   `json:"costPrice"`
		CompetitorPrices []float64 `json:"competitorPrices"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	res, err := profit.AnalyzeMarketPosition(req.CostPrice, req.CompetitorPrices)
	if err != nil {
		respondPolicyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *server) handleAnalysisSensitivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CostPrice     float64   `json:"costPrice"`
		CurrentPrice  float64   `json:"currentPrice"`
		PriceChanges  []float64 `json:"priceChanges"`
		VolumeChanges []float64 `json:"volumeChanges"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	res, err := profit.AnalyzePriceSensitivity(req.CostPrice, req.CurrentPrice, req.PriceChanges, req.VolumeChanges)
	if err != nil {
		respondPolicyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *server) handleAnalysisBreakEven(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CostPrice  float64 `json:"costPrice"`
		SalePrice  float64 `json:"salePrice"`
		FixedCosts float64 `json:"fixedCosts"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	res, err := profit.CalculateBreakEvenAnalysis(req.CostPrice, req.SalePrice, req.FixedCosts)
	if err != nil {
		respondPolicyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
