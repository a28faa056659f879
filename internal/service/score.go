package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
)

type ScoreService interface {
	Scores(ctx context.Context) entity.Score
	Record(ctx context.Context, result entity.Result) entity.Score
	Reset(ctx context.Context) entity.Score
}

type scoreRepo interface {
	Load(ctx context.Context, profileID string) (entity.Score, error)
	Save(ctx context.Context, profileID string, score entity.Score) error
	Increment(ctx context.Context, profileID string, result entity.Result) (entity.Score, error)
}

// scoreService - the score of one profile. Storage is the source of truth, so every
// connection of the profile sees the same counters. Storage problems never reach the
// caller: the last score seen is served instead and a failed write is only logged.
type scoreService struct {
	logger    *slog.Logger
	scoreRepo scoreRepo
	profileID string

	mu   sync.Mutex
	last entity.Score
}

func NewScoreService(logger *slog.Logger, scoreRepo scoreRepo, profileID string) ScoreService {
	return &scoreService{
		logger:    logger.With("component", "score", "profileID", profileID),
		scoreRepo: scoreRepo,
		profileID: profileID,
	}
}

func (that *scoreService) Scores(ctx context.Context) entity.Score {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.last = that.load(ctx)

	return that.last
}

func (that *scoreService) Record(ctx context.Context, result entity.Result) entity.Score {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !result.IsTerminal() {
		that.last = that.load(ctx)
		return that.last
	}

	score, err := that.scoreRepo.Increment(ctx, that.profileID, result)
	if err != nil {
		that.logger.Warn("failed to record game, counting it in memory", "method", "Record", "error", err)
		that.last = that.last.Record(result)

		return that.last
	}

	that.last = score

	return that.last
}

func (that *scoreService) Reset(ctx context.Context) entity.Score {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.scoreRepo.Save(ctx, that.profileID, entity.Score{}); err != nil {
		that.logger.Warn("failed to reset score", "method", "Reset", "error", err)
	}

	that.last = entity.Score{}

	return that.last
}

func (that *scoreService) load(ctx context.Context) entity.Score {
	log := that.logger.With("method", "load")

	score, err := that.scoreRepo.Load(ctx, that.profileID)
	switch {
	case err == nil:
		return score
	case errors.Is(err, repository.ErrScoreNotFound):
		return entity.Score{}
	case errors.Is(err, repository.ErrScoreCorrupted):
		log.Warn("stored score is corrupted, starting from zero", "error", err)
		return entity.Score{}
	default:
		log.Warn("failed to load score, keeping the last one", "error", err)
		return that.last
	}
}
