package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dropmind/backend/internal/domain"
	"github.com/dropmind/backend/internal/service/bot"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	boardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	humanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	engineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	winStyle      = lipgloss.NewStyle().Background(lipgloss.Color("28")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	thinkingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Italic(true)
)

type engineMsg struct {
	column int
}

type model struct {
	game       *domain.Game
	engine     bot.Strategy
	engineSide domain.PlayerID
	winCells   map[domain.Cell]bool
	thinking   bool
	status     string
}

func initialModel(engine bot.Strategy, engineSide domain.PlayerID) model {
	return model{
		game:       domain.NewGame(),
		engine:     engine,
		engineSide: engineSide,
		winCells:   make(map[domain.Cell]bool),
		status:     "Your move: press 1-5 to drop in a column.",
	}
}

func (m model) engineCmd() tea.Cmd {
	board := m.game.Snapshot()
	engine := m.engine
	side := m.engineSide
	return func() tea.Msg {
		column := engine.SelectMove(context.Background(), board, side)
		return engineMsg{column: column}
	}
}

func (m model) Init() tea.Cmd {
	if m.game.CurrentPlayer == m.engineSide {
		return m.engineCmd()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.game.Reset()
			m.winCells = make(map[domain.Cell]bool)
			m.thinking = false
			m.status = "New game. Press 1-5 to drop in a column."
			if m.game.CurrentPlayer == m.engineSide {
				m.thinking = true
				return m, m.engineCmd()
			}
			return m, nil
		case "1", "2", "3", "4", "5":
			if m.thinking || m.game.IsFinished() || m.game.CurrentPlayer == m.engineSide {
				return m, nil
			}
			column := int(key[0] - '1')
			outcome, ok := m.game.MakeMove(column)
			if !ok {
				m.status = "That column is full."
				return m, nil
			}
			m.applyOutcome(outcome, "You played")
			if !m.game.IsFinished() && m.game.CurrentPlayer == m.engineSide {
				m.thinking = true
				return m, m.engineCmd()
			}
			return m, nil
		}

	case engineMsg:
		m.thinking = false
		if msg.column < 0 {
			m.status = "Engine has no move left."
			return m, nil
		}
		outcome, ok := m.game.MakeMove(msg.column)
		if !ok {
			m.status = fmt.Sprintf("Engine proposed invalid column %d.", msg.column)
			return m, nil
		}
		m.applyOutcome(outcome, fmt.Sprintf("Engine played column %d,", msg.column))
		return m, nil
	}

	return m, nil
}

func (m *model) applyOutcome(outcome domain.MoveOutcome, who string) {
	switch outcome.Status {
	case domain.StatusWon:
		for _, cell := range outcome.WinningCells {
			m.winCells[cell] = true
		}
		if outcome.Winner == m.engineSide {
			m.status = "Engine wins. Press r for a rematch."
		} else {
			m.status = "You win! Press r for a rematch."
		}
	case domain.StatusDraw:
		m.status = "Draw. Press r for a rematch."
	default:
		m.status = who + " — your move."
		if m.game.CurrentPlayer == m.engineSide {
			m.status = who + " — engine to move."
		}
	}
}

func (m model) View() string {
	s := headerStyle.Render("dropmind — connect three") + "\n\n"

	board := "  1 2 3 4 5\n"
	for r := 0; r < domain.Rows; r++ {
		row := ""
		for c := 0; c < domain.Columns; c++ {
			cell := "."
			switch m.game.Board[r][c] {
			case m.engineSide:
				cell = engineStyle.Render("O")
			case domain.Opponent(m.engineSide):
				cell = humanStyle.Render("X")
			}
			if m.winCells[domain.Cell{Row: r, Col: c}] {
				cell = winStyle.Render(cell)
			}
			row += cell + " "
		}
		board += row + "\n"
	}
	s += boardStyle.Render(board) + "\n\n"

	if m.thinking {
		s += thinkingStyle.Render("engine is thinking...") + "\n"
	}
	s += statusStyle.Render(m.status) + "\n"
	s += statusStyle.Render("1-5 drop · r rematch · q quit") + "\n"
	return s
}

func main() {
	strategy := flag.String("strategy", bot.StrategyMCTS, "engine strategy: mcts, qtable or advisor")
	sims := flag.Int("sims", bot.DefaultSimulations, "mcts simulation budget")
	timeLimitMS := flag.Int("time", 1000, "mcts wall-clock cap in milliseconds")
	qtablePath := flag.String("qtable", "", "path to an exported qtable JSON file")
	side := flag.Int("side", 1, "which side you play, 1 moves first")
	flag.Parse()

	if *side != 1 && *side != 2 {
		fmt.Fprintln(os.Stderr, "side must be 1 or 2")
		os.Exit(1)
	}

	engine, err := bot.New(bot.Config{
		Strategy:       *strategy,
		Simulations:    *sims,
		TimeLimit:      time.Duration(*timeLimitMS) * time.Millisecond,
		QTablePath:     *qtablePath,
		AdvisorBaseURL: os.Getenv("ADVISOR_BASE_URL"),
		AdvisorAPIKey:  os.Getenv("ADVISOR_API_KEY"),
		AdvisorModel:   os.Getenv("ADVISOR_MODEL"),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	engineSide := domain.Opponent(domain.PlayerID(*side))

	// bubbletea owns the terminal, keep engine logs out of it
	log.SetOutput(os.Stderr)

	p := tea.NewProgram(initialModel(engine, engineSide))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
