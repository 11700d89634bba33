package domain

// CheckWin reports whether the token just placed at (row, column) completes
// a line of ToWin same-player tokens, and returns the winning cells for
// highlighting. Only lines passing through the placed token are scanned,
// which is cheaper than a full-board sweep and is the only anchoring the
// detector supports: calling it against a cell that was not just filled is
// a caller bug.
func CheckWin(board [][]PlayerID, row, column int, player PlayerID) ([]Cell, bool) {
	// Check horizontal (through this row)
	if cells, ok := scanLine(board, row, 0, 0, 1, player); ok {
		return cells, true
	}

	// Check vertical (through this column)
	if cells, ok := scanLine(board, 0, column, 1, 0, player); ok {
		return cells, true
	}

	// Check diagonal \ (through this position)
	startRow, startCol := row, column
	for startRow > 0 && startCol > 0 {
		startRow--
		startCol--
	}
	if cells, ok := scanLine(board, startRow, startCol, 1, 1, player); ok {
		return cells, true
	}

	// Check diagonal / (through this position)
	startRow, startCol = row, column
	for startRow < Rows-1 && startCol > 0 {
		startRow++
		startCol--
	}
	if cells, ok := scanLine(board, startRow, startCol, -1, 1, player); ok {
		return cells, true
	}

	return nil, false
}

// scanLine walks from (row, col) in direction (deltaRow, deltaCol) and
// returns the first run of ToWin consecutive player tokens.
func scanLine(board [][]PlayerID, row, col, deltaRow, deltaCol int, player PlayerID) ([]Cell, bool) {
	var run []Cell
	for row >= 0 && row < Rows && col >= 0 && col < Columns {
		if board[row][col] == player {
			run = append(run, Cell{Row: row, Col: col})
			if len(run) == ToWin {
				return run, true
			}
		} else {
			run = run[:0]
		}
		row += deltaRow
		col += deltaCol
	}
	return nil, false
}
