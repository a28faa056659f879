package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type memoryScore struct {
	mu     sync.RWMutex
	scores map[string]entity.Score
}

// NewMemoryScoreRepository - keeps scores in process memory, they are lost on restart.
func NewMemoryScoreRepository() ScoreRepository {
	return &memoryScore{
		scores: make(map[string]entity.Score),
	}
}

func (that *memoryScore) Load(_ context.Context, profileID string) (entity.Score, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	score, ok := that.scores[profileID]
	if !ok {
		return entity.Score{}, ErrScoreNotFound
	}

	return checkScore(score)
}

func (that *memoryScore) Save(_ context.Context, profileID string, score entity.Score) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.scores[profileID] = score

	return nil
}

func (that *memoryScore) Increment(_ context.Context, profileID string, result entity.Result) (entity.Score, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	current, err := checkScore(that.scores[profileID])
	if err != nil {
		current = entity.Score{}
	}

	that.scores[profileID] = current.Record(result)

	return that.scores[profileID], nil
}
