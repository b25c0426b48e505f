package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fxmartin/portfolio-management-sub002/internal/database"
	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
)

// HoldingRepository handles holding database operations against portfolio.db.
type HoldingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:  db,
		log: log.With().Str("repo", "holding").Logger(),
	}
}

// InitSchema creates the holdings table if it doesn't exist.
func (r *HoldingRepository) InitSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS holdings (
			symbol TEXT PRIMARY KEY,
			asset_class TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			market_value REAL NOT NULL,
			currency TEXT NOT NULL DEFAULT 'EUR',
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_holdings_asset_class ON holdings(asset_class);
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create holdings schema: %w", err)
	}
	return nil
}

// Upsert inserts or updates a holding keyed by symbol.
func (r *HoldingRepository) Upsert(h domain.Holding) error {
	if h.Symbol == "" {
		return fmt.Errorf("%w: holding symbol is empty", domain.ErrInvalidHoldings)
	}
	if !h.AssetClass.Valid() {
		return fmt.Errorf("%w: unknown asset class %q", domain.ErrInvalidHoldings, h.AssetClass)
	}
	if h.Quantity < 0 || h.Price < 0 || h.MarketValue < 0 {
		return fmt.Errorf("%w: holding %s has negative values", domain.ErrInvalidHoldings, h.Symbol)
	}
	if h.Currency != "" && !h.Currency.Valid() {
		return fmt.Errorf("%w: holding %s has unsupported currency %q", domain.ErrInvalidHoldings, h.Symbol, h.Currency)
	}

	query := `
		INSERT INTO holdings (symbol, asset_class, quantity, price, market_value, currency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			asset_class = excluded.asset_class,
			quantity = excluded.quantity,
			price = excluded.price,
			market_value = excluded.market_value,
			currency = excluded.currency,
			updated_at = excluded.updated_at
	`

	currency := h.Currency
	if currency == "" {
		currency = domain.CurrencyEUR
	}

	_, err := r.db.Exec(query, h.Symbol, string(h.AssetClass), h.Quantity, h.Price,
		h.MarketValue, string(currency), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert holding %s: %w", h.Symbol, err)
	}

	return nil
}

// GetAll returns all holdings ordered by asset class and descending market value.
func (r *HoldingRepository) GetAll() ([]domain.Holding, error) {
	query := `SELECT symbol, asset_class, quantity, price, market_value, currency
		FROM holdings
		ORDER BY asset_class, market_value DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		var class, currency string
		if err := rows.Scan(&h.Symbol, &class, &h.Quantity, &h.Price, &h.MarketValue, &currency); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		h.AssetClass = domain.AssetClass(class)
		h.Currency = domain.Currency(currency)
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// Delete removes a holding by symbol.
func (r *HoldingRepository) Delete(symbol string) error {
	result, err := r.db.Exec("DELETE FROM holdings WHERE symbol = ?", symbol)
	if err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", symbol, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		r.log.Debug().Str("symbol", symbol).Msg("Delete matched no holding")
	}

	return nil
}

// ReplaceAll swaps the full holdings set inside a single transaction.
func (r *HoldingRepository) ReplaceAll(holdings []domain.Holding) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM holdings"); err != nil {
			return fmt.Errorf("failed to clear holdings: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO holdings (symbol, asset_class, quantity, price, market_value, currency, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().Unix()
		for _, h := range holdings {
			if h.Symbol == "" || !h.AssetClass.Valid() {
				return fmt.Errorf("%w: holding %q has invalid identity", domain.ErrInvalidHoldings, h.Symbol)
			}
			if h.Currency != "" && !h.Currency.Valid() {
				return fmt.Errorf("%w: holding %s has unsupported currency %q", domain.ErrInvalidHoldings, h.Symbol, h.Currency)
			}
			currency := h.Currency
			if currency == "" {
				currency = domain.CurrencyEUR
			}
			if _, err := stmt.Exec(h.Symbol, string(h.AssetClass), h.Quantity, h.Price,
				h.MarketValue, string(currency), now); err != nil {
				return fmt.Errorf("failed to insert holding %s: %w", h.Symbol, err)
			}
		}

		return nil
	})
}
