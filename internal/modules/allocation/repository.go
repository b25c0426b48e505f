package allocation

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
	"github.com/rs/zerolog"
)

// SavedModel is a user-saved custom allocation model with bookkeeping.
type SavedModel struct {
	domain.AllocationModel
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository handles saved custom model database operations.
// Database: config.db (allocation_models table)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new allocation repository.
// db parameter should be config.db connection.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "allocation").Logger(),
	}
}

// InitSchema creates the allocation_models table if it does not exist.
func (r *Repository) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS allocation_models (
			name TEXT PRIMARY KEY,
			stocks_pct REAL NOT NULL,
			crypto_pct REAL NOT NULL,
			metals_pct REAL NOT NULL,
			created_at INTEGER,
			updated_at INTEGER
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create allocation_models table: %w", err)
	}
	return nil
}

// Upsert inserts or updates a saved custom model. The model is
// validated before touching the database.
func (r *Repository) Upsert(model domain.AllocationModel) error {
	if err := model.Validate(); err != nil {
		return err
	}

	now := time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO allocation_models (name, stocks_pct, crypto_pct, metals_pct, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			stocks_pct = excluded.stocks_pct,
			crypto_pct = excluded.crypto_pct,
			metals_pct = excluded.metals_pct,
			updated_at = excluded.updated_at
	`, model.Name, model.StocksPct, model.CryptoPct, model.MetalsPct, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert allocation model: %w", err)
	}

	r.log.Debug().
		Str("name", model.Name).
		Float64("stocks_pct", model.StocksPct).
		Float64("crypto_pct", model.CryptoPct).
		Float64("metals_pct", model.MetalsPct).
		Msg("Allocation model upserted")

	return nil
}

// Get returns a saved model by name, or nil if not found.
func (r *Repository) Get(name string) (*SavedModel, error) {
	var saved SavedModel
	var createdAtUnix, updatedAtUnix sql.NullInt64

	err := r.db.QueryRow(`
		SELECT name, stocks_pct, crypto_pct, metals_pct, created_at, updated_at
		FROM allocation_models
		WHERE name = ?
	`, name).Scan(
		&saved.Name,
		&saved.StocksPct,
		&saved.CryptoPct,
		&saved.MetalsPct,
		&createdAtUnix,
		&updatedAtUnix,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation model: %w", err)
	}

	if createdAtUnix.Valid {
		saved.CreatedAt = time.Unix(createdAtUnix.Int64, 0).UTC()
	}
	if updatedAtUnix.Valid {
		saved.UpdatedAt = time.Unix(updatedAtUnix.Int64, 0).UTC()
	}

	return &saved, nil
}

// GetAll returns all saved custom models ordered by name.
func (r *Repository) GetAll() ([]SavedModel, error) {
	rows, err := r.db.Query(`
		SELECT name, stocks_pct, crypto_pct, metals_pct, created_at, updated_at
		FROM allocation_models
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation models: %w", err)
	}
	defer rows.Close()

	var models []SavedModel
	for rows.Next() {
		var saved SavedModel
		var createdAtUnix, updatedAtUnix sql.NullInt64

		if err := rows.Scan(
			&saved.Name,
			&saved.StocksPct,
			&saved.CryptoPct,
			&saved.MetalsPct,
			&createdAtUnix,
			&updatedAtUnix,
		); err != nil {
			return nil, fmt.Errorf("failed to scan allocation model: %w", err)
		}

		if createdAtUnix.Valid {
			saved.CreatedAt = time.Unix(createdAtUnix.Int64, 0).UTC()
		}
		if updatedAtUnix.Valid {
			saved.UpdatedAt = time.Unix(updatedAtUnix.Int64, 0).UTC()
		}

		models = append(models, saved)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation models: %w", err)
	}

	return models, nil
}

// Delete removes a saved custom model.
func (r *Repository) Delete(name string) error {
	result, err := r.db.Exec("DELETE FROM allocation_models WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete allocation model: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Debug().
		Str("name", name).
		Int64("rows_affected", rowsAffected).
		Msg("Allocation model deleted")

	return nil
}
