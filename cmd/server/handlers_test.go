package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/andrelmp/precifica/internal/history"
	"github.com/andrelmp/precifica/internal/model"
	"github.com/andrelmp/precifica/internal/omie"
)

type stubLookup struct {
	products map[string]model.ProductData
	pingErr  error
}

func (s *stubLookup) LookupProduct(_ context.Context, code string) (model.ProductData, error) {
	if p, ok := s.products[code]; ok {
		return p, nil
	}
	return model.ProductData{}, fmt.Errorf("%w: %s", omie.ErrProductNotFound, code)
}

func (s *stubLookup) Ping(context.Context) error { return s.pingErr }

func (s *stubLookup) DemoMode() bool { return true }

func newTestServer(t *testing.T) (*server, http.Handler) {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	database.SetMaxOpenConns(1)

	if _, err := database.Exec(`
		CREATE TABLE calculation_history (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			product_code TEXT NOT NULL,
			product_description TEXT NOT NULL DEFAULT '',
			average_cost REAL NOT NULL,
			stock INTEGER NOT NULL DEFAULT 0,
			sale_price REAL NOT NULL,
			profit_margin REAL NOT NULL,
			profit_amount REAL NOT NULL,
			is_profit BOOLEAN NOT NULL
		);
	`); err != nil {
		t.Fatalf("failed creating history table: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	srv := &server{
		logger: zap.NewNop(),
		products: &stubLookup{products: map[string]model.ProductData{
			"PRD001": {Code: "PRD001", Description: "Filamento PLA", AverageCost: 80, Stock: 42},
		}},
		history: history.NewStore(database, 0),
	}
	return srv, srv.routes("")
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestGetProduct(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/products/prd001", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var product model.ProductData
	if err := json.Unmarshal(rec.Body.Bytes(), &product); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if product.Code != "PRD001" || product.AverageCost != 80 {
		t.Fatalf("product = %+v", product)
	}

	if rec := doJSON(t, handler, http.MethodGet, "/api/products/UNKNOWN", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown product status = %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodGet, "/api/products/a", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid code status = %d", rec.Code)
	}
}

func TestCreateCalculation_EndToEnd(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/calculations", map[string]string{
		"productCode": "prd001",
		"salePrice":   "100,00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Product struct {
			Code string `json:"code"`
		} `json:"productData"`
		Result struct {
			ProfitMargin float64 `json:"profitMargin"`
			ProfitAmount float64 `json:"profitAmount"`
			IsProfit     bool    `json:"isProfit"`
		} `json:"profitResult"`
		Scenarios []struct {
			Name  string  `json:"name"`
			Price float64 `json:"price"`
		} `json:"scenarios"`
		Formatted struct {
			ProfitAmount string `json:"profitAmount"`
			ProfitMargin string `json:"profitMargin"`
		} `json:"formatted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Product.Code != "PRD001" {
		t.Fatalf("product code = %q", resp.Product.Code)
	}
	if resp.Result.ProfitMargin != 20 || resp.Result.ProfitAmount != 20 || !resp.Result.IsProfit {
		t.Fatalf("result = %+v", resp.Result)
	}
	if resp.Formatted.ProfitAmount != "R$ 20,00" || resp.Formatted.ProfitMargin != "20,00%" {
		t.Fatalf("formatted = %+v", resp.Formatted)
	}
	if len(resp.Scenarios) == 0 {
		t.Fatalf("no scenarios returned")
	}

	// History now holds the calculation.
	list := doJSON(t, handler, http.MethodGet, "/api/calculations", nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list status = %d", list.Code)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(list.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("history length = %d, want 1", len(items))
	}
}

func TestCreateCalculation_ValidationErrors(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/calculations", map[string]string{
		"productCode": "",
		"salePrice":   "abc",
		"date":        "31/02/2023",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	for _, field := range []string{"productCode", "salePrice", "date"} {
		if resp.Errors[field] == "" {
			t.Fatalf("missing error for %s: %+v", field, resp.Errors)
		}
	}
	if resp.Errors["date"] != "Data inválida" {
		t.Fatalf("date error = %q", resp.Errors["date"])
	}
}

func TestScenariosEndpoint(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/scenarios?cost=100", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Scenarios []struct {
			Margin float64 `json:"margin"`
			Price  float64 `json:"price"`
		} `json:"scenarios"`
		Recommendations []struct {
			Confidence int `json:"confidence"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(resp.Scenarios) != 8 {
		t.Fatalf("scenario count = %d, want 8", len(resp.Scenarios))
	}
	found := false
	for _, sc := range resp.Scenarios {
		if sc.Margin == 20 && sc.Price == 125 {
			found = true
		}
	}
	if !found {
		t.Fatalf("20%% scenario at price 125 missing: %+v", resp.Scenarios)
	}
	if len(resp.Recommendations) == 0 {
		t.Fatalf("no recommendations")
	}

	if rec := doJSON(t, handler, http.MethodGet, "/api/scenarios?cost=", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing cost status = %d", rec.Code)
	}
}

func TestDeleteAndClearCalculations(t *testing.T) {
	_, handler := newTestServer(t)

	created := doJSON(t, handler, http.MethodPost, "/api/calculations", map[string]string{
		"productCode": "PRD001",
		"salePrice":   "90",
	})
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	if rec := doJSON(t, handler, http.MethodDelete, "/api/calculations/"+resp.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodDelete, "/api/calculations/"+resp.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodDelete, "/api/calculations", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rec.Code)
	}
}

func TestExportCalculationsCSV(t *testing.T) {
	_, handler := newTestServer(t)

	doJSON(t, handler, http.MethodPost, "/api/calculations", map[string]string{
		"productCode": "PRD001",
		"salePrice":   "100",
	})

	rec := doJSON(t, handler, http.MethodGet, "/api/calculations/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "PRD001") {
		t.Fatalf("csv body missing product: %s", rec.Body.String())
	}
}

func TestAnalysisEndpoints(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/analysis/discount", map[string]any{
		"costPrice":       80,
		"originalPrice":   100,
		"discountPercent": 10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("discount status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Policy violation: discount above 100%.
	rec = doJSON(t, handler, http.MethodPost, "/api/analysis/discount", map[string]any{
		"costPrice":       80,
		"originalPrice":   100,
		"discountPercent": 150,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid discount status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/analysis/competitive", map[string]any{
		"costPrice":        50,
		"competitorPrices": []float64{80, 100, 120},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("competitive status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/analysis/competitive", map[string]any{
		"costPrice":        50,
		"competitorPrices": []float64{},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty competitors status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/analysis/breakeven", map[string]any{
		"costPrice":  80,
		"salePrice":  100,
		"fixedCosts": 1000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("breakeven status = %d", rec.Code)
	}
	var breakEven struct {
		BreakEvenUnits int `json:"breakEvenUnits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &breakEven); err != nil {
		t.Fatalf("decode breakeven: %v", err)
	}
	if breakEven.BreakEvenUnits != 50 {
		t.Fatalf("break-even units = %d, want 50", breakEven.BreakEvenUnits)
	}
}

func TestBearerAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.routes("s3cret")

	if rec := doJSON(t, handler, http.MethodGet, "/api/calculations", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/calculations", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authorized status = %d", rec.Code)
	}

	// Health stays open.
	if rec := doJSON(t, handler, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz with auth enabled status = %d", rec.Code)
	}
}
