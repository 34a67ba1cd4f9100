package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/screener/internal/contracts"
)

// ErrNotFound is returned when no result has been stored for a screen
var ErrNotFound = errors.New("screen result not found")

// Repository persists published screen results
// ⭐ SSOT: 스크린 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new result repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveResult replaces the rows of (screen, market, as_of) with result's records
func (r *Repository) SaveResult(ctx context.Context, result *contracts.ScreenResult) error {
	asOf, err := time.Parse("2006-01-02", result.AsOf)
	if err != nil {
		return fmt.Errorf("invalid as_of %q: %w", result.AsOf, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM screener.screen_results
		WHERE screen = $1 AND market = $2 AND as_of = $3
	`, result.Screen, string(result.Market), asOf)
	if err != nil {
		return fmt.Errorf("failed to clear previous result: %w", err)
	}

	batch := &pgx.Batch{}
	for _, rec := range result.Records {
		batch.Queue(`
			INSERT INTO screener.screen_results (
				screen, market, as_of, rank, ticker, name, price, change, volume, value, metric, streak
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (screen, market, as_of, ticker) DO UPDATE SET
				rank = EXCLUDED.rank,
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				change = EXCLUDED.change,
				volume = EXCLUDED.volume,
				value = EXCLUDED.value,
				metric = EXCLUDED.metric,
				streak = EXCLUDED.streak,
				created_at = NOW()
		`, insertArgs(result, asOf, rec)...)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range result.Records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert record %d: %w", i+1, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertArgs(result *contracts.ScreenResult, asOf time.Time, rec contracts.RankedRecord) []interface{} {
	return []interface{}{
		result.Screen,
		string(result.Market),
		asOf,
		rec.Rank,
		rec.Ticker,
		rec.Name,
		rec.Price,
		rec.Change,
		rec.Volume,
		rec.Value,
		finiteOrZero(rec.Metric),
		rec.Streak,
	}
}

func finiteOrZero(v float64) float64 {
	if !contracts.IsFinite(v) {
		return 0
	}
	return v
}

// LatestResult returns the most recent stored result of a screen (any market)
func (r *Repository) LatestResult(ctx context.Context, screen string) (*contracts.ScreenResult, error) {
	var (
		asOf   time.Time
		market string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT as_of, market
		FROM screener.screen_results
		WHERE screen = $1
		ORDER BY as_of DESC, created_at DESC
		LIMIT 1
	`, screen).Scan(&asOf, &market)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, screen)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest result: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT rank, ticker, name, price, change, volume, value, metric, streak
		FROM screener.screen_results
		WHERE screen = $1 AND market = $2 AND as_of = $3
		ORDER BY rank
	`, screen, market, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query result rows: %w", err)
	}
	defer rows.Close()

	result := &contracts.ScreenResult{
		Screen:  screen,
		AsOf:    asOf.Format("2006-01-02"),
		Market:  contracts.Market(market),
		Records: []contracts.RankedRecord{},
	}
	for rows.Next() {
		var rec contracts.RankedRecord
		if err := rows.Scan(&rec.Rank, &rec.Ticker, &rec.Name, &rec.Price, &rec.Change,
			&rec.Volume, &rec.Value, &rec.Metric, &rec.Streak); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		result.Records = append(result.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("result rows: %w", err)
	}
	return result, nil
}
