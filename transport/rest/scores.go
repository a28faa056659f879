package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
)

// scoreResponse - the scoreboard: counters plus totals and rounded percentages.
type scoreResponse struct {
	entity.Score

	Total          int `json:"total"`
	XWinPercentage int `json:"x_win_percentage"`
	OWinPercentage int `json:"o_win_percentage"`
	DrawPercentage int `json:"draw_percentage"`
}

func newScoreResponse(score entity.Score) scoreResponse {
	return scoreResponse{
		Score:          score,
		Total:          score.Total(),
		XWinPercentage: score.WinPercentage(entity.PlayerX),
		OWinPercentage: score.WinPercentage(entity.PlayerO),
		DrawPercentage: score.WinPercentage(entity.EmptyCell),
	}
}

// handleGetScore - a profile that never finished a game has a zero score, and so
// does one whose stored record is corrupted.
func (that *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	log := that.logger.With("method", "handleGetScore", "profileID", profileID)

	score, err := that.scoreRepo.Load(r.Context(), profileID)
	switch {
	case err == nil, errors.Is(err, repository.ErrScoreNotFound):
	case errors.Is(err, repository.ErrScoreCorrupted):
		log.Warn("stored score is corrupted, serving zero", "error", err)
		score = entity.Score{}
	default:
		log.Error("failed to load score", "error", err)
		that.writeError(w, http.StatusInternalServerError, err)
		return
	}

	that.writeJSON(w, http.StatusOK, newScoreResponse(score))
}

func (that *Server) handleResetScore(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	log := that.logger.With("method", "handleResetScore", "profileID", profileID)

	if err := that.scoreRepo.Save(r.Context(), profileID, entity.Score{}); err != nil {
		log.Error("failed to reset score", "error", err)
		that.writeError(w, http.StatusInternalServerError, err)
		return
	}

	that.writeJSON(w, http.StatusOK, newScoreResponse(entity.Score{}))
}
