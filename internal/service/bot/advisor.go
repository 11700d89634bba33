package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dropmind/backend/internal/domain"
)

const (
	DefaultAdvisorTimeout = 5 * time.Second
	advisorSystemPrompt   = "You are playing connect-three on a 3 row by 5 column grid. " +
		"Tokens drop to the lowest empty row of a column. Three in a row " +
		"horizontally, vertically or diagonally wins. Answer with a single " +
		"digit 0-4: the column to play. No other text."
)

// Advisor delegates move selection to a remote chat-completion service.
// The network round trip is the only true suspension point in a turn, so
// it is bounded by a timeout and every failure (transport, HTTP status,
// parse, illegal column) degrades to the center-preference fallback
// instead of blocking the game.
type Advisor struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
}

func NewAdvisor(baseURL, apiKey, model string, timeout time.Duration) *Advisor {
	if timeout <= 0 {
		timeout = DefaultAdvisorTimeout
	}
	return &Advisor{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *Advisor) SelectMove(ctx context.Context, board [][]domain.PlayerID, mover domain.PlayerID) int {
	valid := domain.GetValidMoves(board)
	if len(valid) == 0 {
		return -1
	}

	column, err := a.ask(ctx, board, mover)
	if err != nil {
		log.Printf("[BOT] advisor failed, using fallback: %v", err)
		return preferredColumn(board)
	}
	if !domain.IsValidMove(board, column) {
		log.Printf("[BOT] advisor proposed illegal column %d, using fallback", column)
		return preferredColumn(board)
	}
	return column
}

func (a *Advisor) ask(ctx context.Context, board [][]domain.PlayerID, mover domain.PlayerID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: advisorSystemPrompt},
			{Role: "user", Content: renderPrompt(board, mover)},
		},
	})
	if err != nil {
		return -1, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return -1, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return -1, fmt.Errorf("advisor returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return -1, err
	}
	if len(parsed.Choices) == 0 {
		return -1, fmt.Errorf("advisor returned no choices")
	}

	return parseColumn(parsed.Choices[0].Message.Content)
}

// parseColumn pulls the first in-range digit out of the reply, tolerating
// chatty answers like "I would play column 2".
func parseColumn(content string) (int, error) {
	for _, r := range content {
		if r >= '0' && r < '0'+domain.Columns {
			return int(r - '0'), nil
		}
	}
	return -1, fmt.Errorf("no column digit in advisor reply %q", content)
}

// renderPrompt formats the board the way the trainer's console renderer
// does, with the mover's symbol called out.
func renderPrompt(board [][]domain.PlayerID, mover domain.PlayerID) string {
	symbols := map[domain.PlayerID]byte{domain.Empty: '.', domain.Player1: 'X', domain.Player2: 'O'}

	var b strings.Builder
	b.WriteString("Board (top row is the drop entry):\n")
	b.WriteString("  0 1 2 3 4\n")
	for r := 0; r < domain.Rows; r++ {
		b.WriteString("| ")
		for c := 0; c < domain.Columns; c++ {
			b.WriteByte(symbols[board[r][c]])
			b.WriteByte(' ')
		}
		b.WriteString("|\n")
	}
	fmt.Fprintf(&b, "You play %c. Which column?", symbols[mover])
	return b.String()
}
