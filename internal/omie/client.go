// Package omie talks to the OMIE ERP API: product lookup by code, the stock
// position that carries the average cost, and a connection test. OMIE exposes
// a call-envelope JSON API where the method name travels in the body and
// errors come back as fault payloads, frequently with HTTP 200.
package omie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/andrelmp/precifica/internal/model"
)

// ErrProductNotFound is returned when OMIE does not know the product code.
var ErrProductNotFound = errors.New("produto não encontrado no OMIE")

// APIError is a fault payload returned by OMIE.
type APIError struct {
	Code    string `json:"faultcode"`
	Message string `json:"faultstring"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("omie fault %s: %s", e.Code, e.Message)
}

// Options configures a Client. An empty BaseURL switches the client to the
// built-in demo catalog, so the service can run without ERP credentials.
type Options struct {
	BaseURL   string
	AppKey    string
	AppSecret string

	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client

	// Cache, when non-nil, stores successful lookups under CacheTTL.
	Cache    *redis.Client
	CacheTTL time.Duration

	Logger *zap.Logger
}

// Client is the OMIE API client.
type Client struct {
	baseURL   string
	appKey    string
	appSecret string
	httpc     *http.Client
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewClient builds a Client from options, filling in defaults.
func NewClient(opts Options) *Client {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Client{
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		appKey:    opts.AppKey,
		appSecret: opts.AppSecret,
		httpc:     httpc,
		cache:     opts.Cache,
		cacheTTL:  ttl,
		logger:    logger,
	}
}

// DemoMode reports whether the client serves the built-in catalog instead of
// calling the ERP.
func (c *Client) DemoMode() bool {
	return c.baseURL == ""
}

type productResponse struct {
	Codigo    string `json:"codigo"`
	Descricao string `json:"descricao"`
}

type stockResponse struct {
	CMC    float64 `json:"nCMC"`
	Fisico float64 `json:"fisico"`
}

// LookupProduct fetches a product by code, merging the catalog record with
// the stock position (average cost and physical count). A missing stock
// position degrades to zeroes rather than failing the lookup.
func (c *Client) LookupProduct(ctx context.Context, code string) (model.ProductData, error) {
	if c.DemoMode() {
		return c.lookupDemo(code)
	}

	if cached, ok := c.cacheGet(ctx, code); ok {
		return cached, nil
	}

	var prod productResponse
	err := c.call(ctx, "/geral/produtos/", "ConsultarProduto", map[string]any{
		"codigo": code,
	}, &prod)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && strings.HasPrefix(apiErr.Code, "SOAP-ENV:Client") {
			return model.ProductData{}, fmt.Errorf("%w: %s", ErrProductNotFound, code)
		}
		return model.ProductData{}, fmt.Errorf("consultar produto %s: %w", code, err)
	}

	product := model.ProductData{
		Code:        prod.Codigo,
		Description: prod.Descricao,
	}

	var stock stockResponse
	err = c.call(ctx, "/estoque/consulta/", "ObterEstoqueProduto", map[string]any{
		"cCodigo": code,
		"dDia":    time.Now().Format("02/01/2006"),
	}, &stock)
	if err != nil {
		c.logger.Warn("posição de estoque indisponível, usando zeros",
			zap.String("code", code), zap.Error(err))
	} else {
		product.AverageCost = stock.CMC
		product.Stock = int(stock.Fisico)
	}

	c.cacheSet(ctx, product)
	return product, nil
}

// Ping verifies the ERP is reachable with the configured credentials by
// listing a single product page.
func (c *Client) Ping(ctx context.Context) error {
	if c.DemoMode() {
		return nil
	}

	var out json.RawMessage
	err := c.call(ctx, "/geral/produtos/", "ListarProdutosResumido", map[string]any{
		"pagina":               1,
		"registros_por_pagina": 1,
	}, &out)
	if err != nil {
		return fmt.Errorf("testar conexão com OMIE: %w", err)
	}
	return nil
}

// call posts one OMIE envelope and decodes the response into out. Transport
// failures and 5xx responses are retried with exponential backoff; fault
// payloads are not, since OMIE reports them deterministically.
func (c *Client) call(ctx context.Context, path, method string, param, out any) error {
	envelope := map[string]any{
		"call":       method,
		"app_key":    c.appKey,
		"app_secret": c.appSecret,
		"param":      []any{param},
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build %s request: %w", method, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("post %s: %w", method, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("omie retornou status %d", resp.StatusCode))
		}

		var raw json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return fmt.Errorf("decode %s response: %w", method, err)
		}

		var fault APIError
		if err := json.Unmarshal(raw, &fault); err == nil && fault.Message != "" {
			return &fault
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("omie retornou status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s payload: %w", method, err)
		}
		return nil
	})
}

func (c *Client) cacheKey(code string) string {
	return "omie:product:" + code
}

func (c *Client) cacheGet(ctx context.Context, code string) (model.ProductData, bool) {
	if c.cache == nil {
		return model.ProductData{}, false
	}

	val, err := c.cache.Get(ctx, c.cacheKey(code)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("falha ao ler cache de produto", zap.Error(err))
		}
		return model.ProductData{}, false
	}

	var product model.ProductData
	if err := json.Unmarshal([]byte(val), &product); err != nil {
		return model.ProductData{}, false
	}
	return product, true
}

func (c *Client) cacheSet(ctx context.Context, product model.ProductData) {
	if c.cache == nil {
		return
	}

	payload, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey(product.Code), payload, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("falha ao gravar cache de produto", zap.Error(err))
	}
}
