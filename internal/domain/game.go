package domain

type Game struct {
	Board         [][]PlayerID
	CurrentPlayer PlayerID
	Status        GameStatus
	Winner        PlayerID
	MoveCount     int
}

// MoveOutcome carries everything a caller needs to react to an accepted
// move. Win and render notification are return values the caller
// interprets, the core performs no presentation side effects.
type MoveOutcome struct {
	Row          int        `json:"row"`
	Column       int        `json:"column"`
	Player       PlayerID   `json:"player"`
	Status       GameStatus `json:"status"`
	Winner       PlayerID   `json:"winner,omitempty"`
	WinningCells []Cell     `json:"winning_cells,omitempty"`
}

func NewGame() *Game {
	return &Game{
		Board:         NewBoard(),
		CurrentPlayer: Player1,
		Status:        StatusActive,
		Winner:        Empty,
		MoveCount:     0,
	}
}

// Reset returns the game to its initial state: empty board, Player1 to
// move. Calling it on a fresh game is a no-op.
func (g *Game) Reset() {
	g.Board = NewBoard()
	g.CurrentPlayer = Player1
	g.Status = StatusActive
	g.Winner = Empty
	g.MoveCount = 0
}

// MakeMove drops a token for the current player. It reports false with no
// state change when the game is already finished or the column is full.
// A winning final move is detected before the draw check, so it is never
// misreported as a draw.
func (g *Game) MakeMove(column int) (MoveOutcome, bool) {
	if g.Status != StatusActive {
		return MoveOutcome{}, false
	}

	if !IsValidMove(g.Board, column) {
		return MoveOutcome{}, false
	}

	mover := g.CurrentPlayer
	row, err := DropDisk(g.Board, column, mover)
	if err != nil {
		return MoveOutcome{}, false
	}

	g.MoveCount++

	outcome := MoveOutcome{
		Row:    row,
		Column: column,
		Player: mover,
	}

	if cells, won := CheckWin(g.Board, row, column, mover); won {
		g.Status = StatusWon
		g.Winner = mover
		outcome.Status = StatusWon
		outcome.Winner = mover
		outcome.WinningCells = cells
		return outcome, true
	}

	if IsBoardFull(g.Board) {
		g.Status = StatusDraw
		outcome.Status = StatusDraw
		return outcome, true
	}

	g.CurrentPlayer = Opponent(mover)
	outcome.Status = StatusActive
	return outcome, true
}

func (g *Game) IsFinished() bool {
	return g.Status == StatusWon || g.Status == StatusDraw
}

// Snapshot returns an independent copy of the board for observers.
func (g *Game) Snapshot() [][]PlayerID {
	return CopyBoard(g.Board)
}
