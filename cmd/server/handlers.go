package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andrelmp/precifica/internal/export"
	"github.com/andrelmp/precifica/internal/history"
	"github.com/andrelmp/precifica/internal/numfmt"
	"github.com/andrelmp/precifica/internal/omie"
	"github.com/andrelmp/precifica/internal/profit"
	"github.com/andrelmp/precifica/internal/scenario"
	"github.com/andrelmp/precifica/internal/validate"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	respondJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "precifica",
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (s *server) handleOmiePing(w http.ResponseWriter, r *http.Request) {
	if err := s.products.Ping(r.Context()); err != nil {
		s.logger.Warn("omie ping failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"connected": false,
			"demoMode":  s.products.DemoMode(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"connected": true,
		"demoMode":  s.products.DemoMode(),
	})
}

func (s *server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	codeResult := validate.ProductCode(chi.URLParam(r, "code"))
	if !codeResult.Valid {
		respondError(w, http.StatusBadRequest, codeResult.Error)
		return
	}

	product, err := s.products.LookupProduct(r.Context(), codeResult.Sanitized)
	if err != nil {
		if errors.Is(err, omie.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Produto não encontrado")
			return
		}
		s.logger.Error("product lookup failed", zap.String("code", codeResult.Sanitized), zap.Error(err))
		respondError(w, http.StatusBadGateway, "Falha ao consultar o ERP")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// calculationRequest carries the raw form strings the SPA submits; the sale
// price may be locale formatted ("1.234,56").
type calculationRequest struct {
	ProductCode string `json:"productCode"`
	SalePrice   string `json:"salePrice"`
	Date        string `json:"date"`
}

type calculationResponse struct {
	history.Item
	Scenarios []scenario.Row `json:"scenarios"`
	Formatted struct {
		SalePrice    string `json:"salePrice"`
		ProfitAmount string `json:"profitAmount"`
		ProfitMargin string `json:"profitMargin"`
	} `json:"formatted"`
}

func (s *server) handleCreateCalculation(w http.ResponseWriter, r *http.Request) {
	var req calculationRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	errs := map[string]string{}
	codeResult := validate.ProductCode(req.ProductCode)
	if !codeResult.Valid {
		errs["productCode"] = codeResult.Error
	}
	priceResult := validate.Price(req.SalePrice)
	if !priceResult.Valid {
		errs["salePrice"] = priceResult.Error
	}
	if dateResult := validate.Date(req.Date); !dateResult.Valid {
		errs["date"] = dateResult.Error
	}
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	product, err := s.products.LookupProduct(r.Context(), codeResult.Sanitized)
	if err != nil {
		if errors.Is(err, omie.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Produto não encontrado")
			return
		}
		s.logger.Error("product lookup failed", zap.String("code", codeResult.Sanitized), zap.Error(err))
		respondError(w, http.StatusBadGateway, "Falha ao consultar o ERP")
		return
	}

	result := profit.Calculate(product.AverageCost, priceResult.Value)

	item, err := s.history.Save(r.Context(), product, result)
	if err != nil {
		// Persistence is best effort: the calculation still goes back to
		// the caller when the journal write fails.
		s.logger.Error("failed to save history", zap.Error(err))
		item = history.Item{Product: product, Result: result, CreatedAt: time.Now().UTC()}
	}

	resp := calculationResponse{
		Item:      item,
		Scenarios: scenario.Table(product.AverageCost, result.SalePrice),
	}
	resp.Formatted.SalePrice = numfmt.FormatCurrency(result.SalePrice)
	resp.Formatted.ProfitAmount = numfmt.FormatCurrency(result.ProfitAmount)
	resp.Formatted.ProfitMargin = numfmt.FormatPercentage(result.ProfitMargin)

	respondJSON(w, http.StatusCreated, resp)
}

func (s *server) handleListCalculations(w http.ResponseWriter, r *http.Request) {
	items, err := s.history.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list history", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Falha ao carregar o histórico")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *server) handleDeleteCalculation(w http.ResponseWriter, r *http.Request) {
	err := s.history.Remove(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Registro não encontrado")
		return
	}
	if err != nil {
		s.logger.Error("failed to delete history item", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Falha ao remover o registro")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleClearCalculations(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Clear(r.Context()); err != nil {
		s.logger.Error("failed to clear history", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Falha ao limpar o histórico")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleExportCalculations(w http.ResponseWriter, r *http.Request) {
	items, err := s.history.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list history for export", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Falha ao exportar o histórico")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="historico-calculos.csv"`)
	if err := export.WriteCSV(w, items); err != nil {
		s.logger.Error("failed to write csv", zap.Error(err))
	}
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.history.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to aggregate stats", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Falha ao calcular estatísticas")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	costResult := validate.Price(r.URL.Query().Get("cost"))
	if !costResult.Valid {
		respondError(w, http.StatusBadRequest, costResult.Error)
		return
	}

	currentPrice := 0.0
	if raw := r.URL.Query().Get("price"); raw != "" {
		priceResult := validate.Price(raw)
		if !priceResult.Valid {
			respondError(w, http.StatusBadRequest, priceResult.Error)
			return
		}
		currentPrice = priceResult.Value
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"scenarios":       scenario.Table(costResult.Value, currentPrice),
		"recommendations": scenario.Recommendations(costResult.Value, currentPrice),
	})
}
