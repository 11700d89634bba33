package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropmind/backend/internal/domain"
)

type GameRepo struct {
	DB *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{DB: db}
}

// GameRecord represents a finished game as stored
type GameRecord struct {
	GameID          string    `json:"game_id"`
	Strategy        string    `json:"strategy"`
	EngineSide      int       `json:"engine_side"`
	Winner          string    `json:"winner"` // "human", "engine", "draw"
	TotalMoves      int       `json:"total_moves"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// SaveGame upserts a finished game record. The UPSERT handles a rematch
// reusing the same session id after a reconnect.
func (r *GameRepo) SaveGame(gameID, strategy string, engineSide int, winner string, totalMoves, durationSeconds int, createdAt, finishedAt time.Time, boardState [][]domain.PlayerID) error {
	boardJSON, err := json.Marshal(boardState)
	if err != nil {
		return fmt.Errorf("failed to marshal board state: %v", err)
	}

	query := `
	INSERT INTO game (game_id, strategy, engine_side, winner, total_moves, duration_seconds, created_at, finished_at, board_state)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (game_id) DO UPDATE SET
		winner = EXCLUDED.winner,
		total_moves = EXCLUDED.total_moves,
		duration_seconds = EXCLUDED.duration_seconds,
		finished_at = EXCLUDED.finished_at,
		board_state = EXCLUDED.board_state;
	`

	if _, err := r.DB.Exec(query, gameID, strategy, engineSide, winner, totalMoves, durationSeconds, createdAt, finishedAt, boardJSON); err != nil {
		return fmt.Errorf("failed to upsert game record: %v", err)
	}
	return nil
}

// GetRecentGames returns the most recently finished games for the history API
func (r *GameRepo) GetRecentGames(limit int) ([]GameRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
	SELECT game_id, strategy, engine_side, winner, total_moves, duration_seconds, created_at, finished_at
	FROM game
	ORDER BY finished_at DESC
	LIMIT $1;
	`

	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent games: %v", err)
	}
	defer rows.Close()

	games := make([]GameRecord, 0, limit)
	for rows.Next() {
		var g GameRecord
		if err := rows.Scan(&g.GameID, &g.Strategy, &g.EngineSide, &g.Winner, &g.TotalMoves, &g.DurationSeconds, &g.CreatedAt, &g.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game record: %v", err)
		}
		games = append(games, g)
	}

	return games, rows.Err()
}
