package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type aiMoveRequest struct {
	Board      []entity.Mark `json:"board"`
	Difficulty string        `json:"difficulty"`
	Mark       entity.Mark   `json:"mark"`
}

type aiMoveResponse struct {
	Cell int `json:"cell"`
}

// handleAIMove - stateless: picks a move for mark on the given board. The mark
// defaults to O, the side the bot plays in pvc.
func (that *Server) handleAIMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleAIMove")

	var req aiMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err))
		return
	}

	board, err := parseBoard(req.Board)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	difficulty, err := entity.ParseDifficulty(req.Difficulty)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	mark := req.Mark
	if mark == entity.EmptyCell {
		mark = entity.PlayerO
	}
	if !mark.IsPlayer() {
		that.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: mark %q", apperror.ErrInvalidPayload, mark))
		return
	}

	if entity.Evaluate(board).IsTerminal() {
		that.writeError(w, http.StatusConflict, apperror.ErrNoAvailableMoves)
		return
	}

	cell, ok := that.botService.ChooseMove(board, difficulty, mark)
	if !ok {
		that.writeError(w, http.StatusConflict, apperror.ErrNoAvailableMoves)
		return
	}

	log.Debug("ai move chosen", "cell", cell, "difficulty", difficulty, "mark", mark)

	that.writeJSON(w, http.StatusOK, aiMoveResponse{Cell: cell})
}

func parseBoard(cells []entity.Mark) (entity.Board, error) {
	var board entity.Board

	if len(cells) != entity.BoardSize {
		return board, fmt.Errorf("%w: want %d cells, got %d", apperror.ErrInvalidBoard, entity.BoardSize, len(cells))
	}

	for i, mark := range cells {
		if mark != entity.EmptyCell && !mark.IsPlayer() {
			return board, fmt.Errorf("%w: cell %d holds %q", apperror.ErrInvalidBoard, i, mark)
		}
		board[i] = mark
	}

	return board, nil
}
