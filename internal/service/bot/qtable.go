package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dropmind/backend/internal/domain"
)

// CacheRepository is the cache seam the Q-table strategy uses, satisfied
// by the redis wrapper. A nil cache just means every lookup hits the
// in-memory table.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

const (
	qtableCachePrefix = "qtable:"
	qtableCacheTTL    = 24 * time.Hour
)

// QTable answers moves from the table exported by the offline trainer:
// serialized board state -> per-column preference scores. Unseen states
// fall back to the center-preference order, a degraded but legal move.
type QTable struct {
	table map[string]map[int]float64
	cache CacheRepository
}

func NewQTable(path string, cache CacheRepository) (*QTable, error) {
	q := &QTable{
		table: make(map[string]map[int]float64),
		cache: cache,
	}
	if path == "" {
		log.Println("[BOT] no qtable path configured, running on fallback preference only")
		return q, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read qtable file: %w", err)
	}

	// the trainer exports action keys as strings for JSON compatibility
	raw := make(map[string]map[string]float64)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse qtable file: %w", err)
	}
	for state, actions := range raw {
		row := make(map[int]float64, len(actions))
		for action, value := range actions {
			col, err := strconv.Atoi(action)
			if err != nil || col < 0 || col >= domain.Columns {
				continue
			}
			row[col] = value
		}
		q.table[state] = row
	}

	log.Printf("[BOT] loaded qtable with %d states from %s", len(q.table), path)
	return q, nil
}

func (q *QTable) SelectMove(ctx context.Context, board [][]domain.PlayerID, mover domain.PlayerID) int {
	valid := domain.GetValidMoves(board)
	if len(valid) == 0 {
		return -1
	}

	state := domain.Serialize(board)
	scores := q.lookup(ctx, state)
	if scores == nil {
		return preferredColumn(board)
	}

	// a flat row carries no information, use the preference order instead
	if allEqual(scores, valid) {
		return preferredColumn(board)
	}

	bestCol := -1
	bestScore := 0.0
	for _, col := range valid {
		score := scores[col]
		if bestCol == -1 || score > bestScore {
			bestScore = score
			bestCol = col
		}
	}
	return bestCol
}

// lookup consults the cache first and falls back to the in-memory table,
// writing the row back to the cache on a miss. Cache errors are never
// surfaced: the table is authoritative and the game must stay playable.
func (q *QTable) lookup(ctx context.Context, state string) map[int]float64 {
	if q.cache != nil {
		if cached, err := q.cache.Get(ctx, qtableCachePrefix+state); err == nil {
			row := make(map[int]float64)
			if err := json.Unmarshal([]byte(cached), &row); err == nil {
				return row
			}
		}
	}

	row, ok := q.table[state]
	if !ok {
		return nil
	}

	if q.cache != nil {
		if encoded, err := json.Marshal(row); err == nil {
			if err := q.cache.Set(ctx, qtableCachePrefix+state, string(encoded), qtableCacheTTL); err != nil {
				log.Printf("[BOT] qtable cache write failed: %v", err)
			}
		}
	}
	return row
}

func allEqual(scores map[int]float64, valid []int) bool {
	first := scores[valid[0]]
	for _, col := range valid[1:] {
		if scores[col] != first {
			return false
		}
	}
	return true
}
