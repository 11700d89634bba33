package postgres

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS game (
	game_id          TEXT PRIMARY KEY,
	strategy         TEXT NOT NULL,
	engine_side      INT NOT NULL,
	winner           TEXT NOT NULL,
	total_moves      INT NOT NULL,
	duration_seconds INT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	finished_at      TIMESTAMPTZ NOT NULL,
	board_state      JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_game_finished_at ON game (finished_at DESC);
`

// RunMigrations applies the schema at startup. The schema is embedded so
// the binary works regardless of the working directory it runs from.
func RunMigrations(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %v", err)
	}
	return nil
}
