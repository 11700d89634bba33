package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dropmind/backend/internal/domain"
)

type fakeStore struct {
	games   []GameRecord
	queries int
	saves   int
}

func (f *fakeStore) SaveGame(gameID, strategy string, engineSide int, winner string, totalMoves, durationSeconds int, createdAt, finishedAt time.Time, boardState [][]domain.PlayerID) error {
	f.saves++
	f.games = append([]GameRecord{{GameID: gameID, Strategy: strategy, Winner: winner}}, f.games...)
	return nil
}

func (f *fakeStore) GetRecentGames(limit int) ([]GameRecord, error) {
	f.queries++
	if len(f.games) > limit {
		return f.games[:limit], nil
	}
	return f.games, nil
}

type fakeHistoryCache struct {
	data map[string]string
	sets int
	dels int
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{data: make(map[string]string)}
}

func (f *fakeHistoryCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", domain.Error("cache miss")
}

func (f *fakeHistoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.sets++
	f.data[key] = value.(string)
	return nil
}

func (f *fakeHistoryCache) Del(ctx context.Context, keys ...string) error {
	f.dels++
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func someGames(n int) []GameRecord {
	games := make([]GameRecord, n)
	for i := range games {
		games[i] = GameRecord{GameID: string(rune('a' + i)), Strategy: "mcts", Winner: "human"}
	}
	return games
}

func TestCachedRepoFillsCacheOnMiss(t *testing.T) {
	store := &fakeStore{games: someGames(3)}
	cache := newFakeHistoryCache()
	repo := NewCachedGameRepo(store, cache)

	games, err := repo.GetRecentGames(20)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 3 {
		t.Fatalf("got %d games, want 3", len(games))
	}
	if store.queries != 1 || cache.sets != 1 {
		t.Fatalf("queries=%d sets=%d, want one database read and one cache fill", store.queries, cache.sets)
	}

	// second read is served from the cache
	if _, err := repo.GetRecentGames(20); err != nil {
		t.Fatal(err)
	}
	if store.queries != 1 {
		t.Fatalf("queries=%d after a cache hit, want still 1", store.queries)
	}
}

func TestCachedRepoServesFromSeededCache(t *testing.T) {
	encoded, err := json.Marshal(someGames(5))
	if err != nil {
		t.Fatal(err)
	}
	cache := newFakeHistoryCache()
	cache.data[historyCacheKey] = string(encoded)

	store := &fakeStore{}
	repo := NewCachedGameRepo(store, cache)

	games, err := repo.GetRecentGames(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games, want the cached window clipped to 2", len(games))
	}
	if store.queries != 0 {
		t.Fatalf("queries=%d, the database must not be touched on a cache hit", store.queries)
	}
}

func TestSaveGameInvalidatesCache(t *testing.T) {
	store := &fakeStore{games: someGames(1)}
	cache := newFakeHistoryCache()
	repo := NewCachedGameRepo(store, cache)

	if _, err := repo.GetRecentGames(20); err != nil {
		t.Fatal(err)
	}
	if cache.sets != 1 {
		t.Fatalf("sets=%d, want the first read to fill the cache", cache.sets)
	}

	err := repo.SaveGame("g2", "mcts", 2, "engine", 6, 10, time.Now(), time.Now(), domain.NewBoard())
	if err != nil {
		t.Fatal(err)
	}
	if store.saves != 1 || cache.dels != 1 {
		t.Fatalf("saves=%d dels=%d, want the write to invalidate the cached window", store.saves, cache.dels)
	}

	// next read refills from the database and sees the new game
	games, err := repo.GetRecentGames(20)
	if err != nil {
		t.Fatal(err)
	}
	if store.queries != 2 {
		t.Fatalf("queries=%d, want a database read after invalidation", store.queries)
	}
	if len(games) != 2 || games[0].GameID != "g2" {
		t.Fatalf("games=%v, want the freshly saved game first", games)
	}
}

func TestCachedRepoClampsBadLimits(t *testing.T) {
	store := &fakeStore{games: someGames(30)}
	repo := NewCachedGameRepo(store, newFakeHistoryCache())

	for _, limit := range []int{0, -5, 101} {
		games, err := repo.GetRecentGames(limit)
		if err != nil {
			t.Fatal(err)
		}
		if len(games) != 20 {
			t.Fatalf("limit %d returned %d games, want the default window 20", limit, len(games))
		}
	}
}
