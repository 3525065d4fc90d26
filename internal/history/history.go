// Package history persists calculation history. Saves de-duplicate repeated
// calculations for the same product at effectively the same price and the
// store only keeps the most recent entries, so it behaves as a bounded
// journal rather than an audit log.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andrelmp/precifica/internal/model"
	"github.com/andrelmp/precifica/internal/profit"
)

// DefaultLimit caps retained entries when no HISTORY_LIMIT is configured.
const DefaultLimit = 50

// priceTolerance is the sale-price distance under which two calculations for
// the same product collapse into one entry, most recent wins.
const priceTolerance = 0.01

// createdAtLayout keeps fractional seconds at fixed width so the stored
// strings sort chronologically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Item is one persisted calculation.
type Item struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"timestamp"`
	Product   model.ProductData `json:"productData"`
	Result    profit.Result     `json:"profitResult"`
}

// Stats aggregates the stored history for the statistics endpoint.
type Stats struct {
	Count         int     `json:"count"`
	Profitable    int     `json:"profitable"`
	TotalProfit   float64 `json:"totalProfit"`
	AverageProfit float64 `json:"averageProfit"`
	BestMargin    float64 `json:"bestMargin"`
}

// ErrNotFound is returned by Remove for an unknown id.
var ErrNotFound = errors.New("registro de histórico não encontrado")

// Store is the sqlite-backed history journal.
type Store struct {
	db    *sql.DB
	limit int
}

// NewStore builds a Store over an opened database. A non-positive limit
// falls back to DefaultLimit.
func NewStore(database *sql.DB, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{db: database, limit: limit}
}

// Save inserts a calculation, replacing any entry for the same product code
// whose sale price differs by less than the tolerance, then trims the
// journal to the retention limit.
func (s *Store) Save(ctx context.Context, product model.ProductData, result profit.Result) (Item, error) {
	item := Item{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Product:   product,
		Result:    result,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, fmt.Errorf("begin history transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM calculation_history
		WHERE product_code = ? AND ABS(sale_price - ?) < ?
	`, product.Code, result.SalePrice, priceTolerance); err != nil {
		_ = tx.Rollback()
		return Item{}, fmt.Errorf("deduplicate history: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO calculation_history (
			id, created_at, product_code, product_description,
			average_cost, stock, sale_price, profit_margin, profit_amount, is_profit
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		item.CreatedAt.Format(createdAtLayout),
		product.Code,
		product.Description,
		product.AverageCost,
		product.Stock,
		result.SalePrice,
		result.ProfitMargin,
		result.ProfitAmount,
		result.IsProfit,
	); err != nil {
		_ = tx.Rollback()
		return Item{}, fmt.Errorf("insert history item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM calculation_history
		WHERE id NOT IN (
			SELECT id FROM calculation_history
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)
	`, s.limit); err != nil {
		_ = tx.Rollback()
		return Item{}, fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Item{}, fmt.Errorf("commit history transaction: %w", err)
	}

	return item, nil
}

// List returns all retained items, newest first.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, product_code, product_description,
			average_cost, stock, sale_price, profit_margin, profit_amount, is_profit
		FROM calculation_history
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		var createdAt string
		if err := rows.Scan(
			&item.ID,
			&createdAt,
			&item.Product.Code,
			&item.Product.Description,
			&item.Product.AverageCost,
			&item.Product.Stock,
			&item.Result.SalePrice,
			&item.Result.ProfitMargin,
			&item.Result.ProfitAmount,
			&item.Result.IsProfit,
		); err != nil {
			return nil, fmt.Errorf("scan history item: %w", err)
		}
		if ts, err := time.Parse(createdAtLayout, createdAt); err == nil {
			item.CreatedAt = ts
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return items, nil
}

// Remove deletes one item by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM calculation_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes all history.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM calculation_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Stats aggregates the retained history. Profit totals are summed as
// decimals so the statistics do not drift with the number of entries.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	items, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Count: len(items)}
	if len(items) == 0 {
		return stats, nil
	}

	total := decimal.Zero
	best := items[0].Result.ProfitMargin
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Result.ProfitAmount))
		if item.Result.IsProfit {
			stats.Profitable++
		}
		if item.Result.ProfitMargin > best {
			best = item.Result.ProfitMargin
		}
	}

	average := total.Div(decimal.NewFromInt(int64(len(items))))

	stats.TotalProfit, _ = total.Round(2).Float64()
	stats.AverageProfit, _ = average.Round(2).Float64()
	stats.BestMargin = best
	return stats, nil
}
