package bot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dropmind/backend/internal/domain"
)

func writeQTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qtable.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestQTablePicksHighestScore(t *testing.T) {
	emptyState := "000000000000000"
	path := writeQTable(t, `{"`+emptyState+`": {"0": 0.1, "1": -0.4, "2": 0.3, "3": 0.2, "4": 0.9}}`)

	q, err := NewQTable(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := q.SelectMove(context.Background(), domain.NewBoard(), domain.Player1)
	if got != 4 {
		t.Fatalf("SelectMove = %d, want highest scored column 4", got)
	}
}

func TestQTableSkipsFullColumns(t *testing.T) {
	board := parseBoard(t, [domain.Rows]string{
		"..1..",
		"..2..",
		"..1..",
	})
	state := domain.Serialize(board)
	path := writeQTable(t, `{"`+state+`": {"2": 5.0, "3": 1.0, "0": 0.5}}`)

	q, err := NewQTable(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := q.SelectMove(context.Background(), board, domain.Player2)
	if got != 3 {
		t.Fatalf("SelectMove = %d, want 3 (column 2 is full)", got)
	}
}

func TestQTableUnseenStateFallsBack(t *testing.T) {
	path := writeQTable(t, `{"222222222222222": {"0": 1.0}}`)

	q, err := NewQTable(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := q.SelectMove(context.Background(), domain.NewBoard(), domain.Player1)
	if got != 2 {
		t.Fatalf("SelectMove = %d, want center fallback 2", got)
	}
}

func TestQTableFlatScoresUsePreferenceOrder(t *testing.T) {
	board := parseBoard(t, [domain.Rows]string{
		"..1..",
		"..2..",
		"..1..",
	})
	state := domain.Serialize(board)
	path := writeQTable(t, `{"`+state+`": {"0": 0.0, "1": 0.0, "3": 0.0, "4": 0.0}}`)

	q, err := NewQTable(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	// column 2 is full, so the preference order picks 1 next
	got := q.SelectMove(context.Background(), board, domain.Player2)
	if got != 1 {
		t.Fatalf("SelectMove = %d, want 1", got)
	}
}

func TestQTableFullBoardReturnsSentinel(t *testing.T) {
	board := parseBoard(t, [domain.Rows]string{
		"12121",
		"12121",
		"21212",
	})

	q, err := NewQTable("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := q.SelectMove(context.Background(), board, domain.Player1); got != -1 {
		t.Fatalf("SelectMove = %d, want -1", got)
	}
}

func TestQTableRejectsUnreadableFile(t *testing.T) {
	if _, err := NewQTable(filepath.Join(t.TempDir(), "missing.json"), nil); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	path := writeQTable(t, `not json`)
	if _, err := NewQTable(path, nil); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

// fakeCache is an in-memory CacheRepository
type fakeCache struct {
	data map[string]string
	gets int
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.gets++
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", domain.Error("cache miss")
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.sets++
	f.data[key] = value.(string)
	return nil
}

func TestQTableWritesThroughCache(t *testing.T) {
	emptyState := "000000000000000"
	path := writeQTable(t, `{"`+emptyState+`": {"0": 0.1, "4": 0.9}}`)

	cache := newFakeCache()
	q, err := NewQTable(path, cache)
	if err != nil {
		t.Fatal(err)
	}

	board := domain.NewBoard()
	if got := q.SelectMove(context.Background(), board, domain.Player1); got != 4 {
		t.Fatalf("SelectMove = %d, want 4", got)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1 (write-back on miss)", cache.sets)
	}

	// second lookup is served from the cache
	if got := q.SelectMove(context.Background(), board, domain.Player1); got != 4 {
		t.Fatalf("cached SelectMove = %d, want 4", got)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d after hit, want still 1", cache.sets)
	}
}
