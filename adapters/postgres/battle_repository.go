// Package postgres implements the battle-history port over a Postgres
// battle log.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"oppsight/domain/core"
	"oppsight/domain/game"
	"oppsight/ports"
)

// battleRepository implements the BattleHistory interface over the battles
// table. One row per turn; (enemy_id, turn) is unique.
type battleRepository struct {
	db *sqlx.DB
}

// NewBattleRepository creates a battle store backed by an open sqlx handle.
func NewBattleRepository(db *sqlx.DB) ports.BattleStore {
	return &battleRepository{db: db}
}

// Connect opens and pings a Postgres connection from a DSN.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// ListOpponents returns every opponent with at least minTurns recorded,
// ordered by identity for deterministic output.
func (r *battleRepository) ListOpponents(ctx context.Context, minTurns int) ([]core.OpponentID, error) {
	query := `SELECT enemy_id
		FROM battles
		GROUP BY enemy_id
		HAVING COUNT(*) >= $1
		ORDER BY enemy_id`

	var ids []core.OpponentID
	if err := r.db.SelectContext(ctx, &ids, query, minTurns); err != nil {
		return nil, fmt.Errorf("failed to list opponents: %w", err)
	}
	return ids, nil
}

// SequenceFor fetches one opponent's ordered turn history.
func (r *battleRepository) SequenceFor(ctx context.Context, id core.OpponentID) (*game.Sequence, error) {
	query := `SELECT turn, player_move, enemy_move, result
		FROM battles
		WHERE enemy_id = $1
		ORDER BY turn ASC`

	var turns []game.Turn
	if err := r.db.SelectContext(ctx, &turns, query, id); err != nil {
		return nil, fmt.Errorf("failed to query battles for %s: %w", id, err)
	}
	if len(turns) == 0 {
		return nil, core.NewNotFoundError(core.ErrOpponentNotFound, string(id))
	}

	seq, err := game.NewSequence(id, turns)
	if err != nil {
		return nil, fmt.Errorf("invalid battle log for %s: %w", id, err)
	}
	return seq, nil
}

// RecordTurn appends one turn to an opponent's log. Duplicate turn indices
// are rejected by the unique constraint.
func (r *battleRepository) RecordTurn(ctx context.Context, id core.OpponentID, t game.Turn) error {
	query := `INSERT INTO battles (enemy_id, turn, player_move, enemy_move, result)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, id, t.Index, t.OwnMove, t.OpponentMove, t.Outcome); err != nil {
		return fmt.Errorf("failed to record turn %d for %s: %w", t.Index, id, err)
	}
	return nil
}
