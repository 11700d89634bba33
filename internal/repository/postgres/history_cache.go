package postgres

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/dropmind/backend/internal/domain"
)

// GameStore is the persistence seam the cache layer fronts.
type GameStore interface {
	SaveGame(gameID, strategy string, engineSide int, winner string, totalMoves, durationSeconds int, createdAt, finishedAt time.Time, boardState [][]domain.PlayerID) error
	GetRecentGames(limit int) ([]GameRecord, error)
}

// HistoryCache is the cache seam, satisfied by the redis wrapper.
type HistoryCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

const (
	historyCacheKey = "history:recent"
	historyCacheTTL = 5 * time.Minute

	// historyCacheWindow is the widest recent-games window kept in the
	// cache; any smaller request is served by slicing it.
	historyCacheWindow = 100
)

// CachedGameRepo fronts a GameStore with a cache-aside read path for the
// recent-games list. The database stays the source of truth: cache errors
// are logged and swallowed, and every finished game deletes the cached
// window so the next read refills it fresh.
type CachedGameRepo struct {
	store GameStore
	cache HistoryCache
}

func NewCachedGameRepo(store GameStore, cache HistoryCache) *CachedGameRepo {
	return &CachedGameRepo{store: store, cache: cache}
}

func (r *CachedGameRepo) SaveGame(gameID, strategy string, engineSide int, winner string, totalMoves, durationSeconds int, createdAt, finishedAt time.Time, boardState [][]domain.PlayerID) error {
	if err := r.store.SaveGame(gameID, strategy, engineSide, winner, totalMoves, durationSeconds, createdAt, finishedAt, boardState); err != nil {
		return err
	}

	if err := r.cache.Del(context.Background(), historyCacheKey); err != nil {
		log.Printf("[CACHE] Failed to invalidate history cache: %v", err)
	}
	return nil
}

func (r *CachedGameRepo) GetRecentGames(limit int) ([]GameRecord, error) {
	if limit <= 0 || limit > historyCacheWindow {
		limit = 20
	}

	ctx := context.Background()
	if data, err := r.cache.Get(ctx, historyCacheKey); err == nil {
		var games []GameRecord
		if err := json.Unmarshal([]byte(data), &games); err == nil {
			return clipGames(games, limit), nil
		}
	}

	games, err := r.store.GetRecentGames(historyCacheWindow)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(games); err == nil {
		if err := r.cache.Set(ctx, historyCacheKey, string(encoded), historyCacheTTL); err != nil {
			log.Printf("[CACHE] Failed to cache history: %v", err)
		}
	}
	return clipGames(games, limit), nil
}

func clipGames(games []GameRecord, limit int) []GameRecord {
	if len(games) > limit {
		return games[:limit]
	}
	return games
}
