package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// maxTxRetries - optimistic transactions retried when another writer touched the key.
const maxTxRetries = 16

var (
	ErrScoreNotFound  = errors.New("score not found")
	ErrScoreCorrupted = errors.New("score is corrupted")
	ErrScoreContended = errors.New("score is updated concurrently")
)

type ScoreRepository interface {
	// Load - ErrScoreNotFound for an unknown profile, ErrScoreCorrupted for a record
	// that can't be decoded or holds negative counters.
	Load(ctx context.Context, profileID string) (entity.Score, error)
	Save(ctx context.Context, profileID string, score entity.Score) error
	// Increment - atomically counts one finished game and returns the stored score.
	// A missing or corrupted record counts as zero.
	Increment(ctx context.Context, profileID string, result entity.Result) (entity.Score, error)
}

// checkScore - negative counters can only come from a damaged record.
func checkScore(score entity.Score) (entity.Score, error) {
	if !score.IsValid() {
		return entity.Score{}, fmt.Errorf("%w: negative counter in %+v", ErrScoreCorrupted, score)
	}

	return score, nil
}

type dbScore struct {
	client *redis.Client
}

func NewScoreRepository(client *redis.Client) ScoreRepository {
	return &dbScore{
		client: client,
	}
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func scoreKey(profileID string) string {
	return "score:" + profileID
}

func (that *dbScore) Save(ctx context.Context, profileID string, score entity.Score) error {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("could not marshal score: %w", err)
	}

	if err = that.client.Set(ctx, scoreKey(profileID), scoreJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set score: %w", err)
	}

	return nil
}

func (that *dbScore) Load(ctx context.Context, profileID string) (entity.Score, error) {
	return loadScore(ctx, that.client, scoreKey(profileID))
}

// Increment - read-modify-write under WATCH, retried when the key changes in between.
func (that *dbScore) Increment(ctx context.Context, profileID string, result entity.Result) (entity.Score, error) {
	key := scoreKey(profileID)

	var score entity.Score
	increment := func(tx *redis.Tx) error {
		current, err := loadScore(ctx, tx, key)
		if err != nil && !errors.Is(err, ErrScoreNotFound) && !errors.Is(err, ErrScoreCorrupted) {
			return err
		}

		score = current.Record(result)

		scoreJSON, err := json.Marshal(score)
		if err != nil {
			return fmt.Errorf("could not marshal score: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, scoreJSON, 0)
			return nil
		})

		return err
	}

	for range maxTxRetries {
		err := that.client.Watch(ctx, increment, key)
		if err == nil {
			return score, nil
		}

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return entity.Score{}, fmt.Errorf("failed to increment score: %w", err)
	}

	return entity.Score{}, ErrScoreContended
}

func loadScore(ctx context.Context, client stringGetter, key string) (entity.Score, error) {
	response, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return entity.Score{}, ErrScoreNotFound
	}

	if err != nil {
		return entity.Score{}, fmt.Errorf("failed to get score: %w", err)
	}

	var score entity.Score
	if err = json.Unmarshal([]byte(response), &score); err != nil {
		return entity.Score{}, fmt.Errorf("%w: %w", ErrScoreCorrupted, err)
	}

	return checkScore(score)
}
