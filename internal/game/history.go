package game

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/liaptui/backend/internal/models"
)

// History records finished games
type History interface {
	Record(ctx context.Context, res GameResult) error
	Recent(ctx context.Context, limit int) ([]models.GameRecord, error)
}

// PostgresHistory stores results in game_records and game_standings
type PostgresHistory struct {
	db *sqlx.DB
}

// NewPostgresHistory creates a history backed by Postgres
func NewPostgresHistory(db *sqlx.DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

// Record writes the game and its standings in one transaction
func (h *PostgresHistory) Record(ctx context.Context, res GameResult) error {
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var recordID int
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO game_records (room_id, rounds, winner, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		res.RoomID, res.Rounds, res.Winner, res.StartedAt, res.FinishedAt,
	).Scan(&recordID)
	if err != nil {
		return fmt.Errorf("insert game record: %w", err)
	}

	for _, s := range res.Standings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_standings (record_id, rank, player_name, seat, score, is_bot)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			recordID, s.Rank, s.Player, s.Seat, s.Score, s.IsBot,
		); err != nil {
			return fmt.Errorf("insert standing for %s: %w", s.Player, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit game record: %w", err)
	}
	return nil
}

// Recent returns the latest finished games, newest first, with their standings
func (h *PostgresHistory) Recent(ctx context.Context, limit int) ([]models.GameRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var records []models.GameRecord
	if err := h.db.SelectContext(ctx, &records, `
		SELECT id, room_id, rounds, winner, started_at, finished_at, created_at
		FROM game_records
		ORDER BY finished_at DESC
		LIMIT $1`, limit); err != nil {
		return nil, fmt.Errorf("select game records: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	ids := make([]int64, len(records))
	byID := make(map[int]int, len(records))
	for i, r := range records {
		ids[i] = int64(r.ID)
		byID[r.ID] = i
	}

	var standings []models.GameStanding
	if err := h.db.SelectContext(ctx, &standings, `
		SELECT id, record_id, rank, player_name, seat, score, is_bot
		FROM game_standings
		WHERE record_id = ANY($1)
		ORDER BY record_id, rank, seat`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select game standings: %w", err)
	}
	for _, s := range standings {
		if i, ok := byID[s.RecordID]; ok {
			records[i].Standings = append(records[i].Standings, s)
		}
	}
	return records, nil
}
