package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Swai-D/bet-bot-sub000/internal/store"
)

// BetRepository handles bet records
type BetRepository struct {
	db *store.Database
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *store.Database) *BetRepository {
	return &BetRepository{db: db}
}

// Insert records a placed bet.
func (r *BetRepository) Insert(ctx context.Context, bet *store.Bet) error {
	query := `
		INSERT INTO bets (match_key, option, odd, stake)
		VALUES ($1, $2, $3, $4)
		RETURNING id, placed_at
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		bet.MatchKey, bet.Option, bet.Odd, bet.Stake,
	).Scan(&bet.ID, &bet.PlacedAt)

	if err != nil {
		return fmt.Errorf("inserting bet: %w", err)
	}

	return nil
}

// CountPlacedToday returns the number of bets placed since midnight UTC.
// Used to enforce the daily bet cap.
func (r *BetRepository) CountPlacedToday(ctx context.Context) (int, error) {
	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)

	var count int
	err := r.db.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bets WHERE placed_at >= $1", startOfDay,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting today's bets: %w", err)
	}

	return count, nil
}

// GetByMatchKey returns all bets recorded for a match.
func (r *BetRepository) GetByMatchKey(ctx context.Context, matchKey string) ([]*store.Bet, error) {
	query := `
		SELECT id, match_key, option, odd, stake, placed_at
		FROM bets
		WHERE match_key = $1
		ORDER BY placed_at
	`

	rows, err := r.db.DB().QueryContext(ctx, query, matchKey)
	if err != nil {
		return nil, fmt.Errorf("querying bets: %w", err)
	}
	defer rows.Close()

	var bets []*store.Bet
	for rows.Next() {
		bet := &store.Bet{}
		if err := rows.Scan(&bet.ID, &bet.MatchKey, &bet.Option, &bet.Odd, &bet.Stake, &bet.PlacedAt); err != nil {
			return nil, fmt.Errorf("scanning bet: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}
