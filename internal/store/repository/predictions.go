package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Swai-D/bet-bot-sub000/internal/store"
)

// PredictionRepository handles prediction data access
type PredictionRepository struct {
	db *store.Database
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *store.Database) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Upsert inserts a prediction or overwrites the existing row for the same
// match key. At most one row per key ever exists.
func (r *PredictionRepository) Upsert(ctx context.Context, p *store.Prediction) error {
	tips, err := json.Marshal(p.Tips)
	if err != nil {
		return fmt.Errorf("encoding tips: %w", err)
	}

	query := `
		INSERT INTO predictions (match_key, country, league, home_team, away_team,
			match_date, score, tips)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (match_key) DO UPDATE SET
			country = EXCLUDED.country,
			league = EXCLUDED.league,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			match_date = EXCLUDED.match_date,
			score = EXCLUDED.score,
			tips = EXCLUDED.tips,
			updated_at = NOW()
		RETURNING id
	`

	err = r.db.DB().QueryRowContext(ctx, query,
		p.MatchKey, p.Country, p.League, p.HomeTeam, p.AwayTeam,
		p.MatchDate, p.Score, tips,
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("upserting prediction: %w", err)
	}

	return nil
}

// Exists reports whether a prediction is stored for the given match key.
func (r *PredictionRepository) Exists(ctx context.Context, matchKey string) (bool, error) {
	var exists bool
	err := r.db.DB().QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM predictions WHERE match_key = $1)", matchKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking prediction: %w", err)
	}
	return exists, nil
}

// GetByKey finds a prediction by its match key.
func (r *PredictionRepository) GetByKey(ctx context.Context, matchKey string) (*store.Prediction, error) {
	query := `
		SELECT id, match_key, country, league, home_team, away_team,
			match_date, score, tips, created_at, updated_at
		FROM predictions
		WHERE match_key = $1
	`

	p, err := r.scanPrediction(r.db.DB().QueryRowContext(ctx, query, matchKey))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("prediction not found: %s", matchKey)
	}
	if err != nil {
		return nil, fmt.Errorf("querying prediction: %w", err)
	}

	return p, nil
}

// GetByDate returns all predictions for matches on a specific date,
// highest score first.
func (r *PredictionRepository) GetByDate(ctx context.Context, date time.Time) ([]*store.Prediction, error) {
	startOfDay := date.Truncate(24 * time.Hour)
	endOfDay := startOfDay.Add(24 * time.Hour)

	query := `
		SELECT id, match_key, country, league, home_team, away_team,
			match_date, score, tips, created_at, updated_at
		FROM predictions
		WHERE match_date >= $1 AND match_date < $2
		ORDER BY score DESC, id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, startOfDay, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	return r.scanPredictions(rows)
}

// GetRecent returns the most recently updated predictions.
func (r *PredictionRepository) GetRecent(ctx context.Context, limit int) ([]*store.Prediction, error) {
	query := `
		SELECT id, match_key, country, league, home_team, away_team,
			match_date, score, tips, created_at, updated_at
		FROM predictions
		ORDER BY updated_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent predictions: %w", err)
	}
	defer rows.Close()

	return r.scanPredictions(rows)
}

// DeleteOlderThan removes predictions whose match date is older than the
// given age. Predictions with an associated bet are never deleted.
func (r *PredictionRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	query := `
		DELETE FROM predictions
		WHERE match_date < $1
			AND NOT EXISTS (SELECT 1 FROM bets WHERE bets.match_key = predictions.match_key)
	`

	result, err := r.db.DB().ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting stale predictions: %w", err)
	}

	return result.RowsAffected()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PredictionRepository) scanPrediction(row rowScanner) (*store.Prediction, error) {
	p := &store.Prediction{}
	var tips []byte

	err := row.Scan(
		&p.ID, &p.MatchKey, &p.Country, &p.League, &p.HomeTeam, &p.AwayTeam,
		&p.MatchDate, &p.Score, &tips, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tips, &p.Tips); err != nil {
		return nil, fmt.Errorf("decoding tips: %w", err)
	}

	return p, nil
}

// scanPredictions scans multiple prediction rows
func (r *PredictionRepository) scanPredictions(rows *sql.Rows) ([]*store.Prediction, error) {
	var predictions []*store.Prediction
	for rows.Next() {
		p, err := r.scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}
