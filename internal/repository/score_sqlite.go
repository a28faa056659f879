package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type sqliteScore struct {
	conn *sql.DB
}

// NewSQLiteScoreRepository - expects the scores table created by storage.Storage.Init.
func NewSQLiteScoreRepository(conn *sql.DB) ScoreRepository {
	return &sqliteScore{
		conn: conn,
	}
}

func (that *sqliteScore) Save(ctx context.Context, profileID string, score entity.Score) error {
	query := `INSERT INTO scores (profile_id, x, o, draws) VALUES (?, ?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET x = excluded.x, o = excluded.o, draws = excluded.draws`

	if _, err := that.conn.ExecContext(ctx, query, profileID, score.X, score.O, score.Draws); err != nil {
		return fmt.Errorf("can't save score: %w", err)
	}

	return nil
}

func (that *sqliteScore) Load(ctx context.Context, profileID string) (entity.Score, error) {
	query := `SELECT x, o, draws FROM scores WHERE profile_id = ?`

	var score entity.Score

	err := that.conn.QueryRowContext(ctx, query, profileID).Scan(&score.X, &score.O, &score.Draws)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Score{}, ErrScoreNotFound
	}
	if err != nil {
		return entity.Score{}, fmt.Errorf("can't find score: %w", err)
	}

	return checkScore(score)
}

// Increment - a single upsert; a row with a negative counter restarts from the delta.
// SET expressions all read the row as it was before the update.
func (that *sqliteScore) Increment(ctx context.Context, profileID string, result entity.Result) (entity.Score, error) {
	query := `INSERT INTO scores (profile_id, x, o, draws) VALUES (?, ?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			x = CASE WHEN scores.x < 0 OR scores.o < 0 OR scores.draws < 0 THEN excluded.x ELSE scores.x + excluded.x END,
			o = CASE WHEN scores.x < 0 OR scores.o < 0 OR scores.draws < 0 THEN excluded.o ELSE scores.o + excluded.o END,
			draws = CASE WHEN scores.x < 0 OR scores.o < 0 OR scores.draws < 0 THEN excluded.draws ELSE scores.draws + excluded.draws END
		RETURNING x, o, draws`

	delta := entity.Score{}.Record(result)

	var score entity.Score

	err := that.conn.QueryRowContext(ctx, query, profileID, delta.X, delta.O, delta.Draws).
		Scan(&score.X, &score.O, &score.Draws)
	if err != nil {
		return entity.Score{}, fmt.Errorf("can't increment score: %w", err)
	}

	return score, nil
}
