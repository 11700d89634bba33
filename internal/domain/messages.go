package domain

// ClientMessage is what the frontend sends over the websocket
type ClientMessage struct {
	Type     string `json:"type"`
	Token    string `json:"token,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Side     int    `json:"side,omitempty"`
	Column   int    `json:"column"`
}

// ServerMessage is what we push back to the frontend
type ServerMessage struct {
	Type         string       `json:"type"`
	GameID       string       `json:"game_id,omitempty"`
	Token        string       `json:"token,omitempty"`
	Board        [][]PlayerID `json:"board,omitempty"`
	Column       int          `json:"column,omitempty"`
	Row          int          `json:"row,omitempty"`
	Player       PlayerID     `json:"player,omitempty"`
	Status       GameStatus   `json:"status,omitempty"`
	Winner       PlayerID     `json:"winner,omitempty"`
	WinningCells []Cell       `json:"winning_cells,omitempty"`
	Message      string       `json:"message,omitempty"`
}
