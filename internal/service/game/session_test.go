package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropmind/backend/internal/domain"
)

// fakeConn captures outgoing messages so tests can assert on the exact
// sequence a client would see.
type fakeConn struct {
	messages chan domain.ServerMessage
}

func newFakeConn() *fakeConn {
	return &fakeConn{messages: make(chan domain.ServerMessage, 32)}
}

func (f *fakeConn) SendMessage(clientID string, message domain.ServerMessage) error {
	f.messages <- message
	return nil
}

func (f *fakeConn) next(t *testing.T) domain.ServerMessage {
	t.Helper()
	select {
	case msg := <-f.messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a server message")
		return domain.ServerMessage{}
	}
}

// scriptedStrategy plays a fixed move sequence. The engine calls it from
// its own goroutine, so the queue is locked.
type scriptedStrategy struct {
	mu    sync.Mutex
	moves []int
}

func (s *scriptedStrategy) SelectMove(ctx context.Context, board [][]domain.PlayerID, mover domain.PlayerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.moves) == 0 {
		return -1
	}
	col := s.moves[0]
	s.moves = s.moves[1:]
	return col
}

type fakeRepo struct {
	mu     sync.Mutex
	gameID string
	winner string
	moves  int
}

func (f *fakeRepo) SaveGame(gameID, strategy string, engineSide int, winner string, totalMoves, durationSeconds int, createdAt, finishedAt time.Time, boardState [][]domain.PlayerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gameID = gameID
	f.winner = winner
	f.moves = totalMoves
	return nil
}

func newTestSession(t *testing.T, conn *fakeConn, repo GameRepository, engine *scriptedStrategy, engineSide domain.PlayerID) *GameSession {
	t.Helper()
	sm := NewSessionManager(repo, conn)
	sm.EnginePacing = 0
	return sm.CreateSession("client-1", "scripted", engine, engineSide)
}

func TestHumanMoveTriggersEngineReply(t *testing.T) {
	conn := newFakeConn()
	session := newTestSession(t, conn, nil, &scriptedStrategy{moves: []int{3}}, domain.Player2)

	session.HandleHumanMove(0)

	msg := conn.next(t)
	if msg.Type != "move_made" || msg.Column != 0 || msg.Player != domain.Player1 {
		t.Fatalf("first message = %+v, want move_made by player 1 in column 0", msg)
	}
	if msg.Row != domain.Rows-1 {
		t.Fatalf("disk landed in row %d, want floor row %d", msg.Row, domain.Rows-1)
	}

	msg = conn.next(t)
	if msg.Type != "engine_move" || msg.Column != 3 || msg.Player != domain.Player2 {
		t.Fatalf("second message = %+v, want engine_move in column 3", msg)
	}
}

func TestEngineOpensWhenItMovesFirst(t *testing.T) {
	conn := newFakeConn()
	session := newTestSession(t, conn, nil, &scriptedStrategy{moves: []int{2}}, domain.Player1)

	session.Start()

	if msg := conn.next(t); msg.Type != "game_state" {
		t.Fatalf("first message type = %q, want game_state", msg.Type)
	}
	msg := conn.next(t)
	if msg.Type != "engine_move" || msg.Column != 2 {
		t.Fatalf("opening = %+v, want engine_move in column 2", msg)
	}
}

func TestHumanMoveOutOfTurnRejected(t *testing.T) {
	conn := newFakeConn()
	session := newTestSession(t, conn, nil, &scriptedStrategy{}, domain.Player1)

	// player 1 is the engine, so the human may not move yet
	session.HandleHumanMove(0)

	msg := conn.next(t)
	if msg.Type != "error" || msg.Message != "not your turn" {
		t.Fatalf("got %+v, want a not-your-turn error", msg)
	}
	if session.Game.MoveCount != 0 {
		t.Fatalf("rejected move changed the game, MoveCount = %d", session.Game.MoveCount)
	}
}

func TestHumanMoveInvalidColumnRejected(t *testing.T) {
	conn := newFakeConn()
	session := newTestSession(t, conn, nil, &scriptedStrategy{}, domain.Player2)

	session.HandleHumanMove(domain.Columns)

	msg := conn.next(t)
	if msg.Type != "error" || msg.Message != "invalid move" {
		t.Fatalf("got %+v, want an invalid-move error", msg)
	}
}

func TestHumanWinIsPersisted(t *testing.T) {
	conn := newFakeConn()
	repo := &fakeRepo{}
	session := newTestSession(t, conn, repo, &scriptedStrategy{moves: []int{3, 4}}, domain.Player2)

	// human stacks column 1, engine scatters right: vertical win in 5 moves
	for _, col := range []int{1, 1} {
		session.HandleHumanMove(col)
		if msg := conn.next(t); msg.Type != "move_made" {
			t.Fatalf("got %q, want move_made", msg.Type)
		}
		if msg := conn.next(t); msg.Type != "engine_move" {
			t.Fatalf("got %q, want engine_move", msg.Type)
		}
	}
	session.HandleHumanMove(1)

	msg := conn.next(t)
	if msg.Status != domain.StatusWon || msg.Winner != domain.Player1 {
		t.Fatalf("final message = %+v, want a player 1 win", msg)
	}
	if len(msg.WinningCells) != domain.ToWin {
		t.Fatalf("WinningCells = %v, want %d cells", msg.WinningCells, domain.ToWin)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.winner != "human" {
		t.Fatalf("persisted winner = %q, want human", repo.winner)
	}
	if repo.moves != 5 {
		t.Fatalf("persisted moves = %d, want 5", repo.moves)
	}
	if repo.gameID != session.GameID {
		t.Fatalf("persisted game id %q does not match session %q", repo.gameID, session.GameID)
	}
}

func TestResetStartsRematch(t *testing.T) {
	conn := newFakeConn()
	session := newTestSession(t, conn, nil, &scriptedStrategy{moves: []int{3}}, domain.Player2)

	session.HandleHumanMove(0)
	conn.next(t) // move_made
	conn.next(t) // engine_move

	oldID := session.GameID
	session.Reset()

	msg := conn.next(t)
	if msg.Type != "game_state" || msg.Status != domain.StatusActive {
		t.Fatalf("got %+v, want a fresh game_state", msg)
	}
	if msg.GameID == oldID {
		t.Fatal("rematch must get a new game id")
	}
	if session.Game.MoveCount != 0 || session.Game.CurrentPlayer != domain.Player1 {
		t.Fatalf("rematch game not reset: moves=%d player=%d",
			session.Game.MoveCount, session.Game.CurrentPlayer)
	}
}

func TestSessionManagerLifecycle(t *testing.T) {
	sm := NewSessionManager(nil, newFakeConn())
	sm.EnginePacing = 0

	session := sm.CreateSession("client-1", "scripted", &scriptedStrategy{}, domain.Player2)
	got, ok := sm.GetSession("client-1")
	if !ok || got != session {
		t.Fatal("GetSession did not return the created session")
	}

	sm.RemoveSession("client-1")
	if _, ok := sm.GetSession("client-1"); ok {
		t.Fatal("session still present after RemoveSession")
	}
}
