package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dropmind/backend/internal/domain"
	"github.com/dropmind/backend/internal/service/bot"
	"github.com/dropmind/backend/pkg/uid"
)

// ConnectionManagerInterface is what a session needs to push messages out
type ConnectionManagerInterface interface {
	SendMessage(clientID string, message domain.ServerMessage) error
}

// GameRepository persists finished games
type GameRepository interface {
	SaveGame(gameID, strategy string, engineSide int, winner string, totalMoves, durationSeconds int, createdAt, finishedAt time.Time, boardState [][]domain.PlayerID) error
}

// GameSession is one human playing against one engine strategy. The mutex
// serializes moves: at most one move is applied at a time and moves
// arriving after the game finished are rejected by the state machine.
type GameSession struct {
	GameID       string
	ClientID     string
	StrategyName string
	Game         *domain.Game
	Engine       bot.Strategy
	EngineSide   domain.PlayerID
	CreatedAt    time.Time
	FinishedAt   time.Time

	mu     sync.Mutex
	conn   ConnectionManagerInterface
	repo   GameRepository
	pacing time.Duration
}

// SessionManager manages active game sessions
type SessionManager struct {
	sessions map[string]*GameSession // clientID → session
	mu       sync.RWMutex
	repo     GameRepository
	conn     ConnectionManagerInterface

	// EnginePacing delays the engine reply so the move does not land
	// before the UI has rendered the human's token. Tests set it to zero.
	EnginePacing time.Duration
}

func NewSessionManager(repo GameRepository, conn ConnectionManagerInterface) *SessionManager {
	return &SessionManager{
		sessions:     make(map[string]*GameSession),
		repo:         repo,
		conn:         conn,
		EnginePacing: 400 * time.Millisecond,
	}
}

func (sm *SessionManager) CreateSession(clientID, strategyName string, engine bot.Strategy, engineSide domain.PlayerID) *GameSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session := &GameSession{
		GameID:       uid.GenerateGameID(),
		ClientID:     clientID,
		StrategyName: strategyName,
		Game:         domain.NewGame(),
		Engine:       engine,
		EngineSide:   engineSide,
		CreatedAt:    time.Now(),
		conn:         sm.conn,
		repo:         sm.repo,
		pacing:       sm.EnginePacing,
	}
	sm.sessions[clientID] = session

	log.Printf("[SESSION] Created session %s for %s (strategy=%s, engine side=%d)",
		session.GameID, clientID, strategyName, engineSide)
	return session
}

func (sm *SessionManager) GetSession(clientID string) (*GameSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, exists := sm.sessions[clientID]
	return session, exists
}

func (sm *SessionManager) RemoveSession(clientID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if session, exists := sm.sessions[clientID]; exists {
		log.Printf("[SESSION] Removed session %s for %s", session.GameID, clientID)
		delete(sm.sessions, clientID)
	}
}

// Start sends the initial board and, when the engine has the first move,
// schedules it.
func (gs *GameSession) Start() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.sendState("game_state")
	if gs.Game.CurrentPlayer == gs.EngineSide {
		gs.scheduleEngineMove()
	}
}

// HandleHumanMove applies the human's move and, when the game continues,
// schedules the engine's reply. Rejected moves produce an error message
// instead of a state change.
func (gs *GameSession) HandleHumanMove(column int) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.Game.CurrentPlayer == gs.EngineSide && !gs.Game.IsFinished() {
		gs.sendError("not your turn")
		return
	}

	outcome, ok := gs.Game.MakeMove(column)
	if !ok {
		gs.sendError("invalid move")
		return
	}

	gs.sendOutcome("move_made", outcome)

	if gs.Game.IsFinished() {
		gs.finish()
		return
	}
	if gs.Game.CurrentPlayer == gs.EngineSide {
		gs.scheduleEngineMove()
	}
}

// scheduleEngineMove launches the engine reply after the pacing delay.
// Caller must hold the lock.
func (gs *GameSession) scheduleEngineMove() {
	go func() {
		if gs.pacing > 0 {
			time.Sleep(gs.pacing)
		}
		gs.EngineMove()
	}()
}

// EngineMove asks the strategy for a column and applies it.
func (gs *GameSession) EngineMove() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	// re-check under the lock, a reset may have raced the pacing delay
	if gs.Game.CurrentPlayer != gs.EngineSide || gs.Game.IsFinished() {
		return
	}

	board := gs.Game.Snapshot()
	column := gs.Engine.SelectMove(context.Background(), board, gs.EngineSide)
	if column < 0 {
		// only legitimate on a full board, which would already be terminal
		log.Printf("[BOT] strategy %s returned no move with legal columns available", gs.StrategyName)
		gs.sendError("engine could not produce a move")
		return
	}

	outcome, ok := gs.Game.MakeMove(column)
	if !ok {
		log.Printf("[BOT] strategy %s proposed rejected column %d", gs.StrategyName, column)
		gs.sendError("engine proposed an invalid move")
		return
	}

	gs.sendOutcome("engine_move", outcome)

	if gs.Game.IsFinished() {
		gs.finish()
	}
}

// Reset starts a rematch on the same session
func (gs *GameSession) Reset() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.Game.Reset()
	gs.GameID = uid.GenerateGameID()
	gs.CreatedAt = time.Now()
	gs.FinishedAt = time.Time{}

	gs.sendState("game_state")
	if gs.Game.CurrentPlayer == gs.EngineSide {
		gs.scheduleEngineMove()
	}
}

// finish records the result. Caller must hold the lock.
func (gs *GameSession) finish() {
	gs.FinishedAt = time.Now()

	winner := "draw"
	if gs.Game.Status == domain.StatusWon {
		if gs.Game.Winner == gs.EngineSide {
			winner = "engine"
		} else {
			winner = "human"
		}
	}
	log.Printf("[SESSION] Game %s finished: %s in %d moves", gs.GameID, winner, gs.Game.MoveCount)

	if gs.repo == nil {
		return
	}
	duration := int(gs.FinishedAt.Sub(gs.CreatedAt).Seconds())
	err := gs.repo.SaveGame(gs.GameID, gs.StrategyName, int(gs.EngineSide), winner,
		gs.Game.MoveCount, duration, gs.CreatedAt, gs.FinishedAt, gs.Game.Snapshot())
	if err != nil {
		log.Printf("[SESSION] Failed to persist game %s: %v", gs.GameID, err)
	}
}

func (gs *GameSession) sendOutcome(msgType string, outcome domain.MoveOutcome) {
	gs.conn.SendMessage(gs.ClientID, domain.ServerMessage{
		Type:         msgType,
		GameID:       gs.GameID,
		Board:        gs.Game.Snapshot(),
		Column:       outcome.Column,
		Row:          outcome.Row,
		Player:       outcome.Player,
		Status:       outcome.Status,
		Winner:       outcome.Winner,
		WinningCells: outcome.WinningCells,
	})
}

func (gs *GameSession) sendState(msgType string) {
	gs.conn.SendMessage(gs.ClientID, domain.ServerMessage{
		Type:   msgType,
		GameID: gs.GameID,
		Board:  gs.Game.Snapshot(),
		Status: gs.Game.Status,
		Player: gs.Game.CurrentPlayer,
	})
}

func (gs *GameSession) sendError(message string) {
	gs.conn.SendMessage(gs.ClientID, domain.ServerMessage{
		Type:    "error",
		GameID:  gs.GameID,
		Message: message,
	})
}
