package domain

import "strings"

func NewBoard() [][]PlayerID {
	board := make([][]PlayerID, Rows)
	for i := range board {
		board[i] = make([]PlayerID, Columns)
	}
	return board
}

func IsValidMove(board [][]PlayerID, column int) bool {
	if column < 0 || column >= Columns {
		return false
	}

	// here board[0] represents the drop entry row (0 -> top and 2 -> bottom)
	if board[0][column] != Empty {
		return false
	}

	return true
}

// LowestEmptyRow scans the column floor-upward and returns the first empty
// row, or -1 when the column is full. Every placement in the codebase goes
// through this so tokens can never float.
func LowestEmptyRow(board [][]PlayerID, column int) int {
	for row := Rows - 1; row >= 0; row-- {
		if board[row][column] == Empty {
			return row
		}
	}
	return -1
}

func DropDisk(board [][]PlayerID, column int, player PlayerID) (int, error) {
	row := LowestEmptyRow(board, column)
	if row < 0 {
		return -1, ErrColumnFull
	}
	board[row][column] = player
	return row, nil
}

func IsBoardFull(board [][]PlayerID) bool {
	for c := 0; c < Columns; c++ {
		if board[0][c] == Empty {
			return false
		}
	}

	return true
}

// this creates a deep copy of the board
func CopyBoard(board [][]PlayerID) [][]PlayerID {
	newBoard := make([][]PlayerID, len(board))
	for i := range board {
		newBoard[i] = make([]PlayerID, len(board[i]))
		copy(newBoard[i], board[i])
	}
	return newBoard
}

// this is a helper function that will later be used by the strategies
func GetValidMoves(board [][]PlayerID) []int {
	validMoves := []int{}
	for col := 0; col < Columns; col++ {
		if board[0][col] == Empty {
			validMoves = append(validMoves, col)
		}
	}
	return validMoves
}

// this will simulate a move and give the result to the caller
func SimulateMove(board [][]PlayerID, column int, player PlayerID) ([][]PlayerID, int, error) {
	newBoard := CopyBoard(board)
	row, err := DropDisk(newBoard, column, player)
	if err != nil {
		return nil, -1, err
	}
	return newBoard, row, nil
}

// Serialize flattens the board row-major into a 15-character string of
// '0'/'1'/'2'. This is the key format of the exported Q-table.
func Serialize(board [][]PlayerID) string {
	var b strings.Builder
	b.Grow(Rows * Columns)
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			b.WriteByte(byte('0') + byte(board[r][c]))
		}
	}
	return b.String()
}
